package fusion

import (
	"errors"
	"testing"
)

func TestAlign(t *testing.T) {
	refIDs := []string{"a", "b", "c"}
	ids := []string{"c", "a", "b"}
	vectors := [][]float32{{3}, {1}, {2}} // c=3, a=1, b=2

	got, err := Align(refIDs, vectors, ids)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}

	want := []float32{1, 2, 3}
	for i := range refIDs {
		if got[i][0] != want[i] {
			t.Errorf("row %d = %v, want %v (must follow reference order)", i, got[i][0], want[i])
		}
	}
}

func TestAlign_SameOrderIsIdentity(t *testing.T) {
	ids := []string{"a", "b"}
	vectors := [][]float32{{1}, {2}}

	got, err := Align(ids, vectors, ids)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if got[0][0] != 1 || got[1][0] != 2 {
		t.Errorf("aligned = %v, want unchanged", got)
	}
}

func TestAlign_MismatchedSetsFatal(t *testing.T) {
	tests := []struct {
		name    string
		refIDs  []string
		ids     []string
		vectors [][]float32
	}{
		{
			name:    "missing member",
			refIDs:  []string{"a", "b"},
			ids:     []string{"a", "x"},
			vectors: [][]float32{{1}, {2}},
		},
		{
			name:    "different sizes",
			refIDs:  []string{"a", "b", "c"},
			ids:     []string{"a", "b"},
			vectors: [][]float32{{1}, {2}},
		},
		{
			name:    "duplicate id",
			refIDs:  []string{"a", "b"},
			ids:     []string{"a", "a"},
			vectors: [][]float32{{1}, {2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Align(tt.refIDs, tt.vectors, tt.ids); !errors.Is(err, ErrIDMismatch) {
				t.Errorf("Align error = %v, want ErrIDMismatch", err)
			}
		})
	}
}

func TestConcat(t *testing.T) {
	got := Concat([]float32{1, 2}, []float32{3, 4, 5})
	want := []float32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("dim = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("concat[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLinearCombine(t *testing.T) {
	got, err := LinearCombine(0.75, []float32{4, 0}, []float32{0, 4})
	if err != nil {
		t.Fatalf("LinearCombine: %v", err)
	}
	if got[0] != 3 || got[1] != 1 {
		t.Errorf("combined = %v, want [3 1]", got)
	}
}

func TestLinearCombine_Validation(t *testing.T) {
	if _, err := LinearCombine(1.5, []float32{1}, []float32{1}); err == nil {
		t.Error("alpha 1.5 accepted")
	}
	if _, err := LinearCombine(-0.1, []float32{1}, []float32{1}); err == nil {
		t.Error("alpha -0.1 accepted")
	}
	if _, err := LinearCombine(0.5, []float32{1, 2}, []float32{1}); err == nil {
		t.Error("unequal dimensions accepted")
	}
}

func TestIdentity(t *testing.T) {
	text, err := MatrixFromVectors([][]float32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("MatrixFromVectors: %v", err)
	}
	node, err := MatrixFromVectors([][]float32{{5}, {6}})
	if err != nil {
		t.Fatalf("MatrixFromVectors: %v", err)
	}

	var f Fuser = Identity{}
	if err := f.Fit(nil, nil); err != nil {
		t.Fatalf("Identity.Fit: %v", err)
	}
	tp, np, err := f.Transform(text, node)
	if err != nil {
		t.Fatalf("Identity.Transform: %v", err)
	}
	if tp != text || np != node {
		t.Error("Identity.Transform did not pass views through unchanged")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	rows := [][]float32{{1, 2, 3}, {4, 5, 6}}
	m, err := MatrixFromVectors(rows)
	if err != nil {
		t.Fatalf("MatrixFromVectors: %v", err)
	}
	back := VectorsFromMatrix(m)
	for i := range rows {
		for j := range rows[i] {
			if back[i][j] != rows[i][j] {
				t.Errorf("round trip [%d][%d] = %v, want %v", i, j, back[i][j], rows[i][j])
			}
		}
	}
}

func TestMatrixFromVectors_RaggedRows(t *testing.T) {
	if _, err := MatrixFromVectors([][]float32{{1, 2}, {3}}); err == nil {
		t.Fatal("ragged rows accepted")
	}
}
