package vecindex

import (
	"math"
	"path/filepath"
	"testing"
)

func TestFlat_AddNormalizes(t *testing.T) {
	f := NewFlat(2)
	if err := f.Add([][]float32{{3, 4}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	v, err := f.Reconstruct(0)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("stored vector = %v, want [0.6 0.8]", v)
	}
}

func TestFlat_AddDimMismatch(t *testing.T) {
	f := NewFlat(3)
	if err := f.Add([][]float32{{1, 2}}); err == nil {
		t.Fatal("Add accepted a 2-dim vector in a 3-dim index")
	}
}

func TestFlat_SearchOrdering(t *testing.T) {
	f := NewFlat(2)
	err := f.Add([][]float32{
		{0, 1},  // orthogonal to query
		{1, 0},  // identical direction
		{1, 1},  // 45 degrees
		{-1, 0}, // opposite
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	positions, scores, err := f.Search([]float32{2, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantOrder := []int{1, 2, 0, 3}
	for i, want := range wantOrder {
		if positions[i] != want {
			t.Errorf("result %d = position %d, want %d", i, positions[i], want)
		}
	}
	if math.Abs(float64(scores[0])-1.0) > 1e-6 {
		t.Errorf("top score = %v, want 1.0", scores[0])
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			t.Errorf("scores not descending at %d: %v", i, scores)
		}
	}
}

func TestFlat_SearchTiesByInsertionOrder(t *testing.T) {
	f := NewFlat(2)
	// Positions 0 and 1 hold the same vector; 0 must rank first.
	if err := f.Add([][]float32{{1, 0}, {2, 0}, {0, 1}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	positions, _, err := f.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if positions[0] != 0 || positions[1] != 1 {
		t.Errorf("tie order = %v, want position 0 before 1", positions)
	}
}

func TestFlat_SearchClampsK(t *testing.T) {
	f := NewFlat(2)
	if err := f.Add([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	positions, scores, err := f.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(positions) != 2 || len(scores) != 2 {
		t.Errorf("got %d results for k=10 over 2 vectors, want 2 (clamped, never padded)", len(positions))
	}
}

func TestFlat_ReconstructOutOfRange(t *testing.T) {
	f := NewFlat(2)
	if _, err := f.Reconstruct(0); err == nil {
		t.Fatal("Reconstruct on empty index did not fail")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry([]string{"a", "b", "c"})

	id, err := r.IDAt(1)
	if err != nil || id != "b" {
		t.Errorf("IDAt(1) = %q, %v; want b", id, err)
	}
	if _, err := r.IDAt(3); err == nil {
		t.Error("IDAt(3) did not fail for 3-entry registry")
	}
	pos, ok := r.PositionOf("c")
	if !ok || pos != 2 {
		t.Errorf("PositionOf(c) = %d, %v; want 2, true", pos, ok)
	}
	if _, ok := r.PositionOf("zzz"); ok {
		t.Error("PositionOf(zzz) reported an unknown id as present")
	}
}

func TestSaveLoadPair_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "fused.gob")
	idsPath := filepath.Join(dir, "fused_ids.gob")

	f := NewFlat(3)
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	if err := f.Add(vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := NewRegistry([]string{"a", "b", "c"})

	if err := SavePair(indexPath, idsPath, f, r, "cfg123"); err != nil {
		t.Fatalf("SavePair: %v", err)
	}

	loaded, loadedReg, err := LoadPair(indexPath, idsPath)
	if err != nil {
		t.Fatalf("LoadPair: %v", err)
	}

	query := []float32{1, 0.1, 0}
	wantPos, wantScores, err := f.Search(query, 3)
	if err != nil {
		t.Fatalf("Search original: %v", err)
	}
	gotPos, gotScores, err := loaded.Search(query, 3)
	if err != nil {
		t.Fatalf("Search loaded: %v", err)
	}

	for i := range wantPos {
		if gotPos[i] != wantPos[i] {
			t.Errorf("result %d: position %d, want %d", i, gotPos[i], wantPos[i])
		}
		if math.Abs(float64(gotScores[i]-wantScores[i])) > 1e-6 {
			t.Errorf("result %d: score %v, want %v", i, gotScores[i], wantScores[i])
		}
	}

	id, err := loadedReg.IDAt(gotPos[0])
	if err != nil || id != "a" {
		t.Errorf("top result id = %q, %v; want a", id, err)
	}
}

func TestSavePair_RejectsDesyncedLengths(t *testing.T) {
	dir := t.TempDir()
	f := NewFlat(2)
	if err := f.Add([][]float32{{1, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := NewRegistry([]string{"a", "b"})

	err := SavePair(filepath.Join(dir, "i.gob"), filepath.Join(dir, "ids.gob"), f, r, "h")
	if err == nil {
		t.Fatal("SavePair accepted 1 vector with 2 ids")
	}
}

func TestLoadPair_RejectsMismatchedHashes(t *testing.T) {
	dir := t.TempDir()
	aIndex := filepath.Join(dir, "a.gob")
	aIDs := filepath.Join(dir, "a_ids.gob")
	bIndex := filepath.Join(dir, "b.gob")
	bIDs := filepath.Join(dir, "b_ids.gob")

	f := NewFlat(2)
	if err := f.Add([][]float32{{1, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r := NewRegistry([]string{"a"})

	if err := SavePair(aIndex, aIDs, f, r, "hash-a"); err != nil {
		t.Fatalf("SavePair a: %v", err)
	}
	if err := SavePair(bIndex, bIDs, f, r, "hash-b"); err != nil {
		t.Fatalf("SavePair b: %v", err)
	}

	if _, _, err := LoadPair(aIndex, bIDs); err == nil {
		t.Fatal("LoadPair combined artifacts from different configurations")
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector changed by Normalize: %v", v)
		}
	}
}
