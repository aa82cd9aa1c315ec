// ABOUTME: Tokenizer port for the chunker and its tiktoken implementation
// ABOUTME: The encoding is chosen from the chat model so windows match the model's vocabulary
package chunker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts text to token ids and back
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)
}

const defaultEncoding = "cl100k_base"

var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4o-mini":            "o200k_base",
	"gpt-4.1":                "o200k_base",
	"gpt-4-turbo":            "cl100k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
	"text-embedding-ada-002": "cl100k_base",
}

// EncodingForModel returns the tiktoken encoding name for a model. Unknown
// models match the longest known prefix and fall back to cl100k_base.
func EncodingForModel(model string) string {
	if enc, ok := modelEncodings[model]; ok {
		return enc
	}

	best, bestLen := defaultEncoding, 0
	for prefix, enc := range modelEncodings {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = enc, len(prefix)
		}
	}
	return best
}

// TiktokenTokenizer loads its encoding lazily; the first call may download BPE data
type TiktokenTokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenTokenizer returns a tokenizer for the given model's vocabulary
func NewTiktokenTokenizer(model string) *TiktokenTokenizer {
	return &TiktokenTokenizer{encoding: EncodingForModel(model)}
}

// Encoding returns the tiktoken encoding name in use
func (t *TiktokenTokenizer) Encoding() string {
	return t.encoding
}

func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// Encode tokenizes text, treating special-token text as ordinary text
func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	if err := t.init(); err != nil {
		return nil, err
	}
	return t.enc.Encode(text, nil, nil), nil
}

// Decode turns token ids back into text
func (t *TiktokenTokenizer) Decode(tokens []int) (string, error) {
	if err := t.init(); err != nil {
		return "", err
	}
	return t.enc.Decode(tokens), nil
}
