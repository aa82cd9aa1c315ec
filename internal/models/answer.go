// ABOUTME: Retrieval and answer result types returned by the composer
// ABOUTME: RetrievalResult is ranked nearest-first; Answer carries the cited sources
package models

// RetrievalResult holds the chunks nearest to a query, nearest first
type RetrievalResult struct {
	Chunks      []TextChunk `json:"chunks"`
	Distances   []float64   `json:"distances"`
	MinDistance float64     `json:"min_distance"`
}

// Answer is the composed reply for a query
type Answer struct {
	Reply       string            `json:"reply"`
	Text        string            `json:"text"`
	Sources     []SourceReference `json:"sources,omitempty"`
	InContext   bool              `json:"in_context"`
	MinDistance float64           `json:"min_distance"`
	Generation  string            `json:"generation"`
}
