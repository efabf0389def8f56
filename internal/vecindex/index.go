// Package vecindex provides an exact nearest-neighbor index over
// fixed-dimension float32 vectors, together with the ordered id
// registry that maps index positions back to paper ids.
package vecindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"
)

// Errors returned by index operations.
var (
	ErrNotFound     = errors.New("vector position not in index")
	ErrDimMismatch  = errors.New("vector dimension mismatch")
	ErrDesynced     = errors.New("index and id registry are desynchronized")
	ErrBadVersion   = errors.New("unsupported index format version")
	ErrHashMismatch = errors.New("index artifacts built from different configurations")
)

// Flat is an exact inner-product index. Vectors are L2-normalized on
// insertion, so inner product equals cosine similarity and search
// scores land in [-1, 1] ([0, 1] for non-negatively correlated
// inputs). Position i in the index corresponds to position i in the
// companion Registry; that correspondence is an invariant all writers
// must preserve.
//
// Flat is safe for concurrent reads once populated. Add is not safe
// to call concurrently with anything.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the vector dimensionality.
func (f *Flat) Dim() int { return f.dim }

// Count returns the number of stored vectors.
func (f *Flat) Count() int { return len(f.vectors) }

// Add appends vectors to the index, extending positions
// monotonically. Each vector is copied and L2-normalized in place in
// the copy before storage; callers therefore get cosine semantics
// without pre-normalizing, but must not rely on reading back raw
// magnitudes.
func (f *Flat) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("%w: got %d, want %d", ErrDimMismatch, len(v), f.dim)
		}
		row := make([]float32, f.dim)
		copy(row, v)
		Normalize(row)
		f.vectors = append(f.vectors, row)
	}
	return nil
}

// Search returns the positions and similarity scores of the k nearest
// stored vectors, ordered by descending cosine similarity with ties
// broken by insertion order. k greater than the stored count is
// clamped to the stored count (the result is never padded with
// invalid entries). The query is normalized on a copy; the caller's
// slice is untouched.
func (f *Flat) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimMismatch, len(query), f.dim)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil, nil
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	q := make([]float32, f.dim)
	copy(q, query)
	Normalize(q)

	positions := make([]int, len(f.vectors))
	scores := make([]float32, len(f.vectors))
	for i, row := range f.vectors {
		positions[i] = i
		scores[i] = vek32.Dot(q, row)
	}

	sort.SliceStable(positions, func(a, b int) bool {
		return scores[positions[a]] > scores[positions[b]]
	})

	topPos := make([]int, k)
	topScores := make([]float32, k)
	for i := 0; i < k; i++ {
		topPos[i] = positions[i]
		topScores[i] = scores[positions[i]]
	}
	return topPos, topScores, nil
}

// Reconstruct returns the stored (normalized) vector at the given
// position. The returned slice is a copy.
func (f *Flat) Reconstruct(pos int) ([]float32, error) {
	if pos < 0 || pos >= len(f.vectors) {
		return nil, fmt.Errorf("%w: position %d, count %d", ErrNotFound, pos, len(f.vectors))
	}
	out := make([]float32, f.dim)
	copy(out, f.vectors[pos])
	return out, nil
}

// Normalize scales v in place to unit L2 norm. Zero vectors are left
// untouched rather than dividing by zero.
func Normalize(v []float32) {
	norm := float32(math.Sqrt(float64(vek32.Dot(v, v))))
	if norm == 0 {
		return
	}
	vek32.MulNumber_Inplace(v, 1/norm)
}
