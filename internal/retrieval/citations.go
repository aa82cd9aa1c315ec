// ABOUTME: Citation extraction matching capitalized phrases between chunks and answers
// ABOUTME: Falls back to the top-ranked chunks when the answer echoes no phrase
package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harper/notion-rag/internal/models"
)

// keyPhrasePattern finds runs of capitalized words such as names and titles
var keyPhrasePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

// ExtractKeyPhrases returns the capitalized phrases in text at least minLen bytes long
func ExtractKeyPhrases(text string, minLen int) []string {
	var phrases []string
	for _, p := range keyPhrasePattern.FindAllString(text, -1) {
		if len(p) >= minLen {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

// ReferencedChunks returns, in rank order, the chunks with a key phrase that
// appears verbatim in answer
func ReferencedChunks(answer string, chunks []models.TextChunk, minLen int) []models.TextChunk {
	var referenced []models.TextChunk
	for _, c := range chunks {
		for _, phrase := range ExtractKeyPhrases(c.Text, minLen) {
			if strings.Contains(answer, phrase) {
				referenced = append(referenced, c)
				break
			}
		}
	}
	return referenced
}

// SelectCitations returns up to limit referenced chunks, or the first limit
// retrieved chunks when none were referenced
func SelectCitations(answer string, chunks []models.TextChunk, limit, minLen int) []models.TextChunk {
	selected := ReferencedChunks(answer, chunks, minLen)
	if len(selected) == 0 {
		selected = chunks
	}
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// FormatReply appends a Sources list to answer; no citations leaves it unchanged
func FormatReply(answer string, cited []models.TextChunk, previewChars int, linkBase string) string {
	if len(cited) == 0 {
		return answer
	}

	lines := make([]string, len(cited))
	for i, c := range cited {
		lines[i] = fmt.Sprintf("[%s...](%s)", preview(c.Text, previewChars), c.Source.URL(linkBase))
	}
	return answer + "\n\nSources:\n" + strings.Join(lines, "\n")
}
