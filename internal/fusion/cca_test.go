package fusion

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// syntheticViews returns two views of n samples. The node view is the
// text view passed through a fixed linear map, so the views are
// perfectly correlated and CCA has structure to find.
func syntheticViews(t *testing.T, n, dim int) (*mat.Dense, *mat.Dense) {
	t.Helper()
	rng := rand.New(rand.NewPCG(11, 13))

	text := mat.NewDense(n, dim, nil)
	node := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			text.Set(i, j, rng.NormFloat64())
		}
		for j := 0; j < dim; j++ {
			// Fixed mixing of text columns plus a constant offset.
			v := 0.5*text.At(i, j) + 0.25*text.At(i, (j+1)%dim) + 1.0
			node.Set(i, j, v)
		}
	}
	return text, node
}

func TestCCA_FitTransformShapes(t *testing.T) {
	text, node := syntheticViews(t, 30, 5)

	c := NewCCA(3)
	if err := c.Fit(text, node); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	tp, np, err := c.Transform(text, node)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	rows, cols := tp.Dims()
	if rows != 30 || cols != 3 {
		t.Errorf("text projection is %dx%d, want 30x3", rows, cols)
	}
	rows, cols = np.Dims()
	if rows != 30 || cols != 3 {
		t.Errorf("node projection is %dx%d, want 30x3", rows, cols)
	}

	k, err := c.OutputDim()
	if err != nil || k != 3 {
		t.Errorf("OutputDim = %d, %v; want 3", k, err)
	}
}

func TestCCA_IdenticalViewsProjectIdentically(t *testing.T) {
	text, _ := syntheticViews(t, 25, 4)

	c := NewCCA(2)
	if err := c.Fit(text, text); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	tp, np, err := c.Transform(text, text)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	rows, cols := tp.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(tp.At(i, j)-np.At(i, j)) > 1e-6 {
				t.Fatalf("projections of identical views differ at (%d,%d): %v vs %v",
					i, j, tp.At(i, j), np.At(i, j))
			}
		}
	}
}

func TestCCA_TransformBeforeFit(t *testing.T) {
	text, node := syntheticViews(t, 10, 3)
	c := NewCCA(2)
	if _, _, err := c.Transform(text, node); err != ErrNotFitted {
		t.Fatalf("error = %v, want ErrNotFitted", err)
	}
}

func TestCCA_RowCountMismatch(t *testing.T) {
	text, _ := syntheticViews(t, 10, 3)
	node, _ := syntheticViews(t, 11, 3)
	c := NewCCA(2)
	if err := c.Fit(text, node); err == nil {
		t.Fatal("Fit accepted views with different row counts")
	}
}

func TestTransformVec_MatchesBatchRow(t *testing.T) {
	text, node := syntheticViews(t, 20, 4)

	c := NewCCA(2)
	if err := c.Fit(text, node); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	textVec := []float32{0.3, -1.1, 0.7, 2.0}
	nodeVec := []float32{1.0, 0.2, -0.4, 0.9}

	tp, np, err := TransformVec(c, textVec, nodeVec)
	if err != nil {
		t.Fatalf("TransformVec: %v", err)
	}
	if len(tp) != 2 || len(np) != 2 {
		t.Fatalf("projection dims = %d, %d; want 2, 2", len(tp), len(np))
	}

	// The 2-row duplicated batch must give the same row 0 as a direct
	// batch containing the vector.
	batchText := duplicatedRow(textVec)
	batchNode := duplicatedRow(nodeVec)
	btp, bnp, err := c.Transform(batchText, batchNode)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for j := 0; j < 2; j++ {
		if math.Abs(float64(tp[j])-btp.At(0, j)) > 1e-5 {
			t.Errorf("text projection [%d] = %v, want %v", j, tp[j], btp.At(0, j))
		}
		if math.Abs(float64(np[j])-bnp.At(0, j)) > 1e-5 {
			t.Errorf("node projection [%d] = %v, want %v", j, np[j], bnp.At(0, j))
		}
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	text, node := syntheticViews(t, 20, 4)

	c := NewCCA(2)
	if err := c.Fit(text, node); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fusion.gob")
	if err := Save(path, c, "cfg-hash"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, hash, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if hash != "cfg-hash" {
		t.Errorf("config hash = %q, want cfg-hash", hash)
	}

	wantT, wantN, err := c.Transform(text, node)
	if err != nil {
		t.Fatalf("Transform original: %v", err)
	}
	gotT, gotN, err := loaded.Transform(text, node)
	if err != nil {
		t.Fatalf("Transform loaded: %v", err)
	}

	rows, cols := wantT.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.Abs(gotT.At(i, j)-wantT.At(i, j)) > 1e-9 {
				t.Fatalf("loaded text projection differs at (%d,%d)", i, j)
			}
			if math.Abs(gotN.At(i, j)-wantN.At(i, j)) > 1e-9 {
				t.Fatalf("loaded node projection differs at (%d,%d)", i, j)
			}
		}
	}
}

func TestArtifactRoundTrip_Identity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fusion.gob")
	if err := Save(path, Identity{}, "h"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.(Identity); !ok {
		t.Fatalf("loaded %T, want Identity", loaded)
	}
}

func TestSave_UnfittedCCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fusion.gob")
	if err := Save(path, NewCCA(2), "h"); err != ErrNotFitted {
		t.Fatalf("error = %v, want ErrNotFitted", err)
	}
}
