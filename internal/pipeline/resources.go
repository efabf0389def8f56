package pipeline

import (
	"fmt"

	"github.com/refnet/fuserec/internal/fusion"
	"github.com/refnet/fuserec/internal/vecindex"
)

// ArtifactPaths names the on-disk artifacts one serving pipeline
// needs. All of them must have been produced by the same training
// configuration; LoadResources enforces that via the embedded hashes.
type ArtifactPaths struct {
	TextIndex   string
	TextIDs     string
	NodeIndex   string
	NodeIDs     string
	FusedIndex  string
	FusedIDs    string
	FusionModel string
}

// Resources is the loaded, hash-verified artifact set.
type Resources struct {
	TextIndex  *vecindex.Flat
	TextIDs    *vecindex.Registry
	NodeIndex  *vecindex.Flat
	NodeIDs    *vecindex.Registry
	FusedIndex *vecindex.Flat
	FusedIDs   *vecindex.Registry
	Fuser      fusion.Fuser
	ConfigHash string
}

// LoadResources loads all serving artifacts and verifies they came
// from one training run. Mixing artifacts from different runs produces
// silently wrong similarities, so any hash disagreement is fatal.
func LoadResources(paths ArtifactPaths) (*Resources, error) {
	textIndex, textIDs, err := vecindex.LoadPair(paths.TextIndex, paths.TextIDs)
	if err != nil {
		return nil, fmt.Errorf("loading text index: %w", err)
	}
	nodeIndex, nodeIDs, err := vecindex.LoadPair(paths.NodeIndex, paths.NodeIDs)
	if err != nil {
		return nil, fmt.Errorf("loading node index: %w", err)
	}
	fusedIndex, fusedIDs, err := vecindex.LoadPair(paths.FusedIndex, paths.FusedIDs)
	if err != nil {
		return nil, fmt.Errorf("loading fused index: %w", err)
	}
	fuser, fusionHash, err := fusion.Load(paths.FusionModel)
	if err != nil {
		return nil, fmt.Errorf("loading fusion model: %w", err)
	}

	for _, p := range []string{paths.TextIndex, paths.NodeIndex, paths.FusedIndex} {
		h, err := vecindex.ReadConfigHash(p)
		if err != nil {
			return nil, err
		}
		if h != fusionHash {
			return nil, fmt.Errorf("%w: %s has hash %q, fusion model has %q",
				vecindex.ErrHashMismatch, p, h, fusionHash)
		}
	}

	res := &Resources{
		TextIndex:  textIndex,
		TextIDs:    textIDs,
		NodeIndex:  nodeIndex,
		NodeIDs:    nodeIDs,
		FusedIndex: fusedIndex,
		FusedIDs:   fusedIDs,
		Fuser:      fuser,
		ConfigHash: fusionHash,
	}
	if err := res.verify(); err != nil {
		return nil, err
	}
	return res, nil
}

// verify cross-checks the artifact set: text and node id spaces must
// be identical (the structural approximation maps between them by id),
// and the fused registry must only hold known ids.
func (r *Resources) verify() error {
	if r.TextIDs.Len() != r.NodeIDs.Len() {
		return fmt.Errorf("%w: %d text ids, %d node ids",
			vecindex.ErrDesynced, r.TextIDs.Len(), r.NodeIDs.Len())
	}
	for _, id := range r.TextIDs.IDs() {
		if _, ok := r.NodeIDs.PositionOf(id); !ok {
			return fmt.Errorf("%w: paper %s has a text embedding but no node embedding",
				vecindex.ErrDesynced, id)
		}
	}
	for _, id := range r.FusedIDs.IDs() {
		if _, ok := r.TextIDs.PositionOf(id); !ok {
			return fmt.Errorf("%w: fused index holds unknown paper %s",
				vecindex.ErrDesynced, id)
		}
	}
	return nil
}
