// ABOUTME: TextChunk is a token-bounded slice of crawled text, the unit that gets embedded
// ABOUTME: Every chunk keeps the SourceReference of the raw unit it was cut from
package models

// TextChunk represents one indexed piece of text
type TextChunk struct {
	Text   string          `json:"text"`
	Source SourceReference `json:"source"`
}
