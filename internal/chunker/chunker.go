// ABOUTME: Splits crawled text units into non-overlapping token windows
// ABOUTME: Chunks keep their parent's source and follow input order, then window order
package chunker

import (
	"fmt"

	"github.com/harper/notion-rag/internal/models"
)

// DefaultMaxTokens is the window size used when none is configured
const DefaultMaxTokens = 300

// Chunker cuts text into windows of at most MaxTokens tokens
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
}

// New creates a chunker. maxTokens <= 0 selects DefaultMaxTokens.
func New(tokenizer Tokenizer, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{tokenizer: tokenizer, maxTokens: maxTokens}
}

// MaxTokens returns the window size
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Windows tokenizes text and returns its consecutive token windows
func (c *Chunker) Windows(text string) ([][]int, error) {
	tokens, err := c.tokenizer.Encode(text)
	if err != nil {
		return nil, err
	}

	windows := make([][]int, 0, (len(tokens)+c.maxTokens-1)/c.maxTokens)
	for start := 0; start < len(tokens); start += c.maxTokens {
		end := min(start+c.maxTokens, len(tokens))
		windows = append(windows, tokens[start:end])
	}
	return windows, nil
}

// Chunk splits every unit into token windows. A tokenizer failure fails the
// whole call since the result would otherwise silently lose text.
func (c *Chunker) Chunk(units []models.RawUnit) ([]models.TextChunk, error) {
	chunks := make([]models.TextChunk, 0, len(units))

	for i, unit := range units {
		windows, err := c.Windows(unit.Text)
		if err != nil {
			return nil, fmt.Errorf("tokenizing unit %d (%s): %w", i, unit.Source, err)
		}

		for _, w := range windows {
			text, err := c.tokenizer.Decode(w)
			if err != nil {
				return nil, fmt.Errorf("decoding unit %d (%s): %w", i, unit.Source, err)
			}
			chunks = append(chunks, models.TextChunk{Text: text, Source: unit.Source})
		}
	}

	return chunks, nil
}
