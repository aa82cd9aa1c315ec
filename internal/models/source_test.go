// ABOUTME: Tests for SourceReference link building
// ABOUTME: Verifies dash stripping, base handling, and row references
package models

import "testing"

func TestSourceReference_URL(t *testing.T) {
	tests := []struct {
		name string
		ref  SourceReference
		base string
		want string
	}{
		{
			name: "page and block with dashes",
			ref:  NewSourceReference("15e37e2b-d566-4a22-a1af-e69f0f52cb21", "aa-bb-cc"),
			base: "https://www.notion.so",
			want: "https://www.notion.so/15e37e2bd5664a22a1afe69f0f52cb21#aabbcc",
		},
		{
			name: "empty base falls back to default",
			ref:  NewSourceReference("A", "b1"),
			base: "",
			want: "https://www.notion.so/A#b1",
		},
		{
			name: "trailing slash trimmed",
			ref:  NewSourceReference("A", "b1"),
			base: "https://notion.example.com/",
			want: "https://notion.example.com/A#b1",
		},
		{
			name: "page only",
			ref:  NewSourceReference("A", ""),
			base: "https://www.notion.so",
			want: "https://www.notion.so/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.URL(tt.base); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceReference_String(t *testing.T) {
	ref := NewSourceReference("page-1", "block-2")
	if got := ref.String(); got != "https://www.notion.so/page1#block2" {
		t.Errorf("String() = %q", got)
	}
}

func TestSourceReference_IsZero(t *testing.T) {
	if !(SourceReference{}).IsZero() {
		t.Error("empty reference should be zero")
	}
	if NewSourceReference("A", "").IsZero() {
		t.Error("reference with page id should not be zero")
	}
}
