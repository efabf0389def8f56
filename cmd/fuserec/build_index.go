package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/citegraph"
	"github.com/refnet/fuserec/internal/config"
	"github.com/refnet/fuserec/internal/fusion"
	"github.com/refnet/fuserec/internal/vecindex"
)

func init() {
	rootCmd.AddCommand(buildIndexCmd)
}

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Build the fused test index for evaluation",
	Long: `Fuse each held-out test paper the way a live query is fused: its
text embedding paired with the mean node embedding of its nearest
training neighbors in text space, projected and concatenated. The
result is the query-side index the evaluate command searches from.

Test papers still never enter the train-side indexes.`,
	RunE: runBuildIndex,
}

func runBuildIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	textIndex, textIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.TextIndex), cfg.Paths.Resolve(cfg.Paths.TextIDs))
	nodeIndex, nodeIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.NodeIndex), cfg.Paths.Resolve(cfg.Paths.NodeIDs))
	testIndex, testIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.TestTextIndex), cfg.Paths.Resolve(cfg.Paths.TestTextIDs))

	fuser, hash, err := fusion.Load(cfg.Paths.Resolve(cfg.Paths.FusionModel))
	if err != nil {
		exitWithError(ExitDataError, "loading fusion model: %v", err)
	}
	if hash != cfg.Hash() {
		exitWithError(ExitDataError, "fusion model was trained under a different configuration")
	}

	fused := make([][]float32, testIndex.Count())
	for i := 0; i < testIndex.Count(); i++ {
		textVec, err := testIndex.Reconstruct(i)
		if err != nil {
			exitWithError(ExitDataError, "reconstructing test vector %d: %v", i, err)
		}

		nodeVec, err := citegraph.AggregateNeighborEmbedding(
			textVec, textIndex, textIDs, nodeIndex, nodeIDs, cfg.Serving.NeighborCount)
		if err != nil {
			exitWithError(ExitDataError, "approximating node embedding for test vector %d: %v", i, err)
		}

		fused[i], err = fuseQuery(cfg, fuser, textVec, nodeVec)
		if err != nil {
			exitWithError(ExitError, "fusing test vector %d: %v", i, err)
		}
	}

	idx := vecindex.NewFlat(len(fused[0]))
	if err := idx.Add(fused); err != nil {
		exitWithError(ExitError, "indexing fused test vectors: %v", err)
	}
	if err := vecindex.SavePair(
		cfg.Paths.Resolve(cfg.Paths.TestFusedIndex), cfg.Paths.Resolve(cfg.Paths.TestFusedIDs),
		idx, vecindex.NewRegistry(testIDs.IDs()), cfg.Hash()); err != nil {
		exitWithError(ExitError, "saving fused test index: %v", err)
	}

	fmt.Printf("fused %d test papers\n", len(fused))
	return nil
}

// fuseQuery fuses one (text, node) vector pair per the configured
// algorithm, mirroring fuseVectors for single rows.
func fuseQuery(cfg config.Config, fuser fusion.Fuser, textVec, nodeVec []float32) ([]float32, error) {
	switch cfg.Fusion.Algorithm {
	case config.FusionConcat:
		return fusion.Concat(textVec, nodeVec), nil
	case config.FusionLinear:
		return fusion.LinearCombine(cfg.Fusion.Alpha, textVec, nodeVec)
	}

	textProj, nodeProj, err := fusion.TransformVec(fuser, textVec, nodeVec)
	if err != nil {
		return nil, err
	}
	return fusion.Concat(textProj, nodeProj), nil
}
