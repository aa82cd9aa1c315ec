// ABOUTME: Tests for key phrase extraction, citation selection and reply formatting
// ABOUTME: Also covers rune-safe previews and the two prompt shapes
package retrieval

import (
	"testing"

	"github.com/harper/notion-rag/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractKeyPhrases(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		minLen int
		want   []string
	}{
		{"multi-word names", "Hello World from Ada Lovelace", 5, []string{"Hello World", "Ada Lovelace"}},
		{"short phrases dropped", "The API is run by Bob", 5, nil},
		{"min length inclusive", "then Alice went home", 5, []string{"Alice"}},
		{"lowercase only", "nothing capitalized here", 1, nil},
		{"newline joins words", "Project\nPhoenix", 5, []string{"Project\nPhoenix"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeyPhrases(tt.text, tt.minLen))
		})
	}
}

func chunk(text, page, block string) models.TextChunk {
	return models.TextChunk{Text: text, Source: models.NewSourceReference(page, block)}
}

func TestSelectCitations(t *testing.T) {
	chunks := []models.TextChunk{
		chunk("Quarterly Planning notes", "p", "1"),
		chunk("Grace Hopper bio", "p", "2"),
		chunk("nothing notable", "p", "3"),
		chunk("Margaret Hamilton on Apollo", "p", "4"),
		chunk("Grace Hopper again", "p", "5"),
		chunk("Quarterly Planning appendix", "p", "6"),
	}

	t.Run("matched chunks in rank order", func(t *testing.T) {
		got := SelectCitations("Ask Grace Hopper or Margaret Hamilton.", chunks, 3, 5)
		assert.Equal(t, []models.TextChunk{chunks[1], chunks[3], chunks[4]}, got)
	})

	t.Run("matches capped", func(t *testing.T) {
		got := SelectCitations("Grace Hopper, Margaret Hamilton and Quarterly Planning.", chunks, 3, 5)
		assert.Equal(t, []models.TextChunk{chunks[0], chunks[1], chunks[3]}, got)
	})

	t.Run("fallback to top three", func(t *testing.T) {
		got := SelectCitations("I couldn't find that.", chunks, 3, 5)
		assert.Equal(t, chunks[:3], got)
	})

	t.Run("fewer chunks than limit", func(t *testing.T) {
		got := SelectCitations("nope", chunks[:2], 3, 5)
		assert.Equal(t, chunks[:2], got)
	})
}

func TestFormatReply(t *testing.T) {
	cited := []models.TextChunk{
		chunk("short", "aa-bb", "cc-dd"),
		chunk("0123456789012345678901234567890123456789012345678901234567890123456789", "page", ""),
	}

	got := FormatReply("The answer.", cited, 60, "https://www.notion.so")
	want := "The answer.\n\nSources:\n" +
		"[short...](https://www.notion.so/aabb#ccdd)\n" +
		"[012345678901234567890123456789012345678901234567890123456789...](https://www.notion.so/page)"
	assert.Equal(t, want, got)

	assert.Equal(t, "plain", FormatReply("plain", nil, 60, ""))
}

func TestPreview_RuneSafe(t *testing.T) {
	assert.Equal(t, "日本", preview("日本語", 2))
	assert.Equal(t, "日本語", preview("日本語", 10))
	assert.Equal(t, "abc", preview("abc", 0))
	assert.Equal(t, "", preview("", 3))
}

func TestBuildMessages_ContextLines(t *testing.T) {
	chunks := []models.TextChunk{
		chunk("first chunk", "p1", "b1"),
		chunk("second chunk", "p2", "b2"),
	}

	msgs := BuildMessages("Why?", nil, chunks, 5, "https://example.test/")
	assert.Len(t, msgs, 2)
	assert.Equal(t,
		"Context:\n1. [first...](https://example.test/p1#b1)\n\n2. [secon...](https://example.test/p2#b2)\n\nQuestion: Why?",
		msgs[1].Content)
}
