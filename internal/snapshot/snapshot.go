// ABOUTME: Immutable corpus snapshot pairing the chunk sequence with its vector index
// ABOUTME: Holder is the single swappable cell readers copy from and the refresh cycle writes to
package snapshot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harper/notion-rag/internal/index"
	"github.com/harper/notion-rag/internal/models"
)

// Snapshot is one generation of the searchable corpus. Row i of Index
// always corresponds to Chunks[i]. Never mutate a Snapshot after New.
type Snapshot struct {
	Generation uuid.UUID
	Chunks     []models.TextChunk
	Index      *index.Flat
	BuiltAt    time.Time
}

// New validates chunk/index alignment and stamps a fresh generation id
func New(chunks []models.TextChunk, idx *index.Flat) (*Snapshot, error) {
	if idx == nil {
		return nil, errors.New("snapshot: nil index")
	}
	if len(chunks) != idx.Len() {
		return nil, fmt.Errorf("snapshot: %d chunks but index has %d rows", len(chunks), idx.Len())
	}

	return &Snapshot{
		Generation: uuid.New(),
		Chunks:     chunks,
		Index:      idx,
		BuiltAt:    time.Now().UTC(),
	}, nil
}

// Len returns the number of chunks in the snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// Holder guards the currently installed snapshot. The lock is held only
// for the pointer copy or replacement, never across I/O.
type Holder struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewHolder returns an empty holder; Current reports false until the first Swap
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the installed snapshot, or false if none has been installed
func (h *Holder) Current() (*Snapshot, bool) {
	h.mu.RLock()
	s := h.current
	h.mu.RUnlock()
	return s, s != nil
}

// Swap installs s and returns the snapshot it replaced
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	h.mu.Lock()
	prev := h.current
	h.current = s
	h.mu.Unlock()
	return prev
}

// Ready reports whether a snapshot has been installed
func (h *Holder) Ready() bool {
	_, ok := h.Current()
	return ok
}
