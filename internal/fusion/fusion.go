// Package fusion aligns and fuses text and citation-structure
// embedding spaces into one shared space for joint similarity search.
package fusion

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by fusion operations.
var (
	ErrIDMismatch = errors.New("fusion: text and node id sets differ")
	ErrNotFitted  = errors.New("fusion: model has not been fitted")
	ErrShape      = errors.New("fusion: matrix shape mismatch")
)

// Fuser projects paired (text, node) views into a shared space. Both
// matrices carry one row per paper, rows aligned by id (see Align).
//
// Single-vector callers must go through TransformVec: some fusion
// backends compute batch statistics and cannot transform a lone row,
// so the vector is duplicated into a 2-row batch and row 0 of the
// output is taken. That duplication is part of the contract, not an
// implementation accident.
type Fuser interface {
	// Fit learns the projections from aligned training matrices.
	Fit(text, node *mat.Dense) error

	// Transform applies the learned projections to new input.
	Transform(text, node *mat.Dense) (textProj, nodeProj *mat.Dense, err error)
}

// Identity is the stateless Fuser: it skips fitting and passes both
// views through unchanged. Used when the fused index is built from
// raw embeddings via Concat or LinearCombine.
type Identity struct{}

// Fit is a no-op.
func (Identity) Fit(_, _ *mat.Dense) error { return nil }

// Transform returns the inputs unchanged.
func (Identity) Transform(text, node *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	return text, node, nil
}

// TransformVec runs a single (text, node) vector pair through a
// Fuser by duplicating each vector into a 2-row batch and keeping the
// first output row.
func TransformVec(f Fuser, textVec, nodeVec []float32) ([]float32, []float32, error) {
	text := duplicatedRow(textVec)
	node := duplicatedRow(nodeVec)

	textProj, nodeProj, err := f.Transform(text, node)
	if err != nil {
		return nil, nil, err
	}
	return rowToFloat32(textProj, 0), rowToFloat32(nodeProj, 0), nil
}

// Concat fuses two vectors by concatenation; the output dimension is
// the sum of the input dimensions.
func Concat(textVec, nodeVec []float32) []float32 {
	out := make([]float32, 0, len(textVec)+len(nodeVec))
	out = append(out, textVec...)
	return append(out, nodeVec...)
}

// LinearCombine fuses two equal-dimension vectors as
// alpha*text + (1-alpha)*node, alpha in [0, 1].
func LinearCombine(alpha float64, textVec, nodeVec []float32) ([]float32, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("fusion: alpha %v outside [0, 1]", alpha)
	}
	if len(textVec) != len(nodeVec) {
		return nil, fmt.Errorf("%w: linear combination needs equal dimensions, got %d and %d",
			ErrShape, len(textVec), len(nodeVec))
	}
	out := make([]float32, len(textVec))
	a := float32(alpha)
	for i := range out {
		out[i] = a*textVec[i] + (1-a)*nodeVec[i]
	}
	return out, nil
}

// ConcatAll concatenates matrices row-wise: row i of the output is
// Concat(text row i, node row i).
func ConcatAll(text, node [][]float32) ([][]float32, error) {
	if len(text) != len(node) {
		return nil, fmt.Errorf("%w: %d text rows, %d node rows", ErrShape, len(text), len(node))
	}
	out := make([][]float32, len(text))
	for i := range text {
		out[i] = Concat(text[i], node[i])
	}
	return out, nil
}

// LinearCombineAll applies LinearCombine row-wise.
func LinearCombineAll(alpha float64, text, node [][]float32) ([][]float32, error) {
	if len(text) != len(node) {
		return nil, fmt.Errorf("%w: %d text rows, %d node rows", ErrShape, len(text), len(node))
	}
	out := make([][]float32, len(text))
	for i := range text {
		row, err := LinearCombine(alpha, text[i], node[i])
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// MatrixFromVectors packs float32 rows into a dense float64 matrix.
func MatrixFromVectors(vectors [][]float32) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	dim := len(vectors[0])
	out := mat.NewDense(len(vectors), dim, nil)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has dim %d, want %d", ErrShape, i, len(v), dim)
		}
		for j, x := range v {
			out.Set(i, j, float64(x))
		}
	}
	return out, nil
}

// VectorsFromMatrix unpacks a dense matrix into float32 rows.
func VectorsFromMatrix(m *mat.Dense) [][]float32 {
	rows, _ := m.Dims()
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = rowToFloat32(m, i)
	}
	return out
}

func duplicatedRow(v []float32) *mat.Dense {
	out := mat.NewDense(2, len(v), nil)
	for j, x := range v {
		out.Set(0, j, float64(x))
		out.Set(1, j, float64(x))
	}
	return out
}

func rowToFloat32(m *mat.Dense, i int) []float32 {
	_, cols := m.Dims()
	out := make([]float32, cols)
	for j := 0; j < cols; j++ {
		out[j] = float32(m.At(i, j))
	}
	return out
}
