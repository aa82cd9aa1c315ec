// ABOUTME: Tests for workspace block classification and row summaries
// ABOUTME: Verifies content detection and the database row summary line
package models

import "testing"

func TestBlockType_IsContent(t *testing.T) {
	tests := []struct {
		blockType BlockType
		want      bool
	}{
		{BlockParagraph, true},
		{BlockHeading, true},
		{BlockListItem, true},
		{BlockChildPage, false},
		{BlockChildDatabase, false},
		{BlockOther, false},
		{BlockType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.blockType), func(t *testing.T) {
			if got := tt.blockType.IsContent(); got != tt.want {
				t.Errorf("IsContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRow_Summary(t *testing.T) {
	row := Row{
		ID:       "row-1",
		Name:     "Ada Lovelace",
		Role:     "Mentor",
		Tags:     []string{"Fintech", "AI"},
		Location: "London",
	}

	want := "Ada Lovelace — Mentor. Tags: Fintech, AI. Location: London"
	if got := row.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestRow_Summary_EmptyFields(t *testing.T) {
	want := " — . Tags: . Location: "
	if got := (Row{}).Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
