package pipeline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/refnet/fuserec/internal/fusion"
	"github.com/refnet/fuserec/internal/vecindex"
)

func savePairOrFatal(t *testing.T, dir, name string, vectors [][]float32, ids []string, hash string) (string, string) {
	t.Helper()
	idx := vecindex.NewFlat(len(vectors[0]))
	if err := idx.Add(vectors); err != nil {
		t.Fatalf("Add %s: %v", name, err)
	}
	indexPath := filepath.Join(dir, name+".index")
	idsPath := filepath.Join(dir, name+".ids")
	if err := vecindex.SavePair(indexPath, idsPath, idx, vecindex.NewRegistry(ids), hash); err != nil {
		t.Fatalf("SavePair %s: %v", name, err)
	}
	return indexPath, idsPath
}

func saveFixtureArtifacts(t *testing.T, hash string) ArtifactPaths {
	t.Helper()
	dir := t.TempDir()

	ids := []string{"p1", "p2"}
	text := [][]float32{{1, 0}, {0, 1}}
	node := [][]float32{{0, 1}, {1, 0}}
	fused := [][]float32{{1, 0, 0, 1}, {0, 1, 1, 0}}

	var paths ArtifactPaths
	paths.TextIndex, paths.TextIDs = savePairOrFatal(t, dir, "text", text, ids, hash)
	paths.NodeIndex, paths.NodeIDs = savePairOrFatal(t, dir, "node", node, ids, hash)
	paths.FusedIndex, paths.FusedIDs = savePairOrFatal(t, dir, "fused", fused, ids, hash)

	paths.FusionModel = filepath.Join(dir, "fusion.model")
	if err := fusion.Save(paths.FusionModel, fusion.Identity{}, hash); err != nil {
		t.Fatalf("fusion.Save: %v", err)
	}
	return paths
}

func TestLoadResources_RoundTrip(t *testing.T) {
	paths := saveFixtureArtifacts(t, "cfg-abc")

	res, err := LoadResources(paths)
	if err != nil {
		t.Fatalf("LoadResources: %v", err)
	}
	if res.TextIndex.Count() != 2 || res.NodeIndex.Count() != 2 || res.FusedIndex.Count() != 2 {
		t.Errorf("loaded counts: text %d node %d fused %d, want all 2",
			res.TextIndex.Count(), res.NodeIndex.Count(), res.FusedIndex.Count())
	}
	if res.ConfigHash != "cfg-abc" {
		t.Errorf("ConfigHash = %q, want cfg-abc", res.ConfigHash)
	}
	if _, ok := res.Fuser.(fusion.Identity); !ok {
		t.Errorf("Fuser = %T, want fusion.Identity", res.Fuser)
	}
}

func TestLoadResources_HashMismatch(t *testing.T) {
	paths := saveFixtureArtifacts(t, "cfg-abc")

	// Replace the fusion model with one from a different run.
	if err := fusion.Save(paths.FusionModel, fusion.Identity{}, "cfg-other"); err != nil {
		t.Fatalf("fusion.Save: %v", err)
	}

	if _, err := LoadResources(paths); !errors.Is(err, vecindex.ErrHashMismatch) {
		t.Errorf("err = %v, want ErrHashMismatch", err)
	}
}

func TestLoadResources_DesyncedIDSpaces(t *testing.T) {
	paths := saveFixtureArtifacts(t, "cfg-abc")

	// Rewrite the node pair with a different id set.
	dir := filepath.Dir(paths.NodeIndex)
	paths.NodeIndex, paths.NodeIDs = savePairOrFatal(t, dir, "node",
		[][]float32{{0, 1}, {1, 0}}, []string{"p1", "stranger"}, "cfg-abc")

	if _, err := LoadResources(paths); !errors.Is(err, vecindex.ErrDesynced) {
		t.Errorf("err = %v, want ErrDesynced", err)
	}
}
