// ABOUTME: Exact nearest-neighbor index over embedding vectors using squared Euclidean distance
// ABOUTME: Immutable after Build; row ids are 0-based build-order ordinals
package index

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmpty is returned when building from no vectors
var ErrEmpty = errors.New("index: no vectors to build from")

// Hit is one search result
type Hit struct {
	Row      int
	Distance float64
}

// Flat is a brute-force index, the Go counterpart of an IndexFlatL2
type Flat struct {
	dim  int
	rows [][]float32
}

// Build creates an index over vectors. Every vector must share the same
// non-zero dimension. The input slices are copied.
func Build(vectors [][]float32) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, ErrEmpty
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("index: zero-dimension vector at row 0")
	}

	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("index: row %d has dimension %d, want %d", i, len(v), dim)
		}
		rows[i] = append([]float32(nil), v...)
	}

	return &Flat{dim: dim, rows: rows}, nil
}

// Len returns the number of rows
func (f *Flat) Len() int { return len(f.rows) }

// Dim returns the vector dimension
func (f *Flat) Dim() int { return f.dim }

// Search returns up to k rows nearest to query, nearest first. Equal
// distances are ordered by row id. k larger than the row count is clamped.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("index: query has dimension %d, want %d", len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(f.rows) {
		k = len(f.rows)
	}

	hits := make([]Hit, len(f.rows))
	for i, row := range f.rows {
		hits[i] = Hit{Row: i, Distance: SquaredL2(query, row)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	return hits[:k], nil
}

// SquaredL2 returns the squared Euclidean distance between equal-length vectors
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
