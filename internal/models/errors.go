// ABOUTME: Error types for the ingest and query paths
// ABOUTME: Skip-and-continue errors are collected in results; abort errors end a refresh cycle
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotReady is returned when no snapshot has been installed yet
	ErrIndexNotReady = errors.New("index is not ready")

	// ErrRefreshInProgress is returned when a refresh is requested while one is running
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrEmptyCrawl aborts a refresh cycle that produced no text at all
	ErrEmptyCrawl = errors.New("crawl produced no text units")
)

// Crawl operations recorded on CrawlFetchError
const (
	OpListChildren  = "list_children"
	OpQueryDatabase = "query_database"
)

// CrawlFetchError records a page or database whose subtree was skipped
type CrawlFetchError struct {
	PageID string
	Op     string
	Err    error
}

func (e *CrawlFetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.PageID, e.Err)
}

func (e *CrawlFetchError) Unwrap() error { return e.Err }

// EmbeddingBatchError records a batch that produced placeholder vectors
type EmbeddingBatchError struct {
	Batch int
	Start int
	Size  int
	Err   error
}

func (e *EmbeddingBatchError) Error() string {
	return fmt.Sprintf("embedding batch %d (rows %d-%d): %v", e.Batch, e.Start, e.Start+e.Size-1, e.Err)
}

func (e *EmbeddingBatchError) Unwrap() error { return e.Err }

// InsufficientEmbeddingsError aborts a refresh cycle with too many failed vectors
type InsufficientEmbeddingsError struct {
	Total    int
	Failed   int
	MaxRatio float64
}

func (e *InsufficientEmbeddingsError) Error() string {
	return fmt.Sprintf("%d of %d embeddings failed (max failure ratio %.2f)", e.Failed, e.Total, e.MaxRatio)
}

// QueryEmbeddingError wraps a failure to embed the query text
type QueryEmbeddingError struct {
	Err error
}

func (e *QueryEmbeddingError) Error() string {
	return fmt.Sprintf("embedding query: %v", e.Err)
}

func (e *QueryEmbeddingError) Unwrap() error { return e.Err }

// GenerationError wraps a failure of the text-generation call
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
