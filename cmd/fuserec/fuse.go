package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/config"
	"github.com/refnet/fuserec/internal/fusion"
	"github.com/refnet/fuserec/internal/vecindex"
)

func init() {
	rootCmd.AddCommand(fuseCmd)
}

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Build the fused train index from text and node embeddings",
	Long: `Project the aligned train embeddings through the fitted fusion
model and combine them into one fused vector per paper, then write the
fused index/id registry the recommendation pipeline searches.`,
	RunE: runFuse,
}

func runFuse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	textIndex, textIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.TextIndex), cfg.Paths.Resolve(cfg.Paths.TextIDs))
	nodeIndex, nodeIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.NodeIndex), cfg.Paths.Resolve(cfg.Paths.NodeIDs))

	nodeVectors, err := fusion.Align(textIDs.IDs(), vectorsOf(nodeIndex), nodeIDs.IDs())
	if err != nil {
		exitWithError(ExitDataError, "aligning node embeddings: %v", err)
	}
	textVectors := vectorsOf(textIndex)

	fused, err := fuseVectors(cfg, textVectors, nodeVectors)
	if err != nil {
		exitWithError(ExitError, "fusing embeddings: %v", err)
	}

	idx := vecindex.NewFlat(len(fused[0]))
	if err := idx.Add(fused); err != nil {
		exitWithError(ExitError, "indexing fused vectors: %v", err)
	}
	if err := vecindex.SavePair(
		cfg.Paths.Resolve(cfg.Paths.FusedIndex), cfg.Paths.Resolve(cfg.Paths.FusedIDs),
		idx, vecindex.NewRegistry(textIDs.IDs()), cfg.Hash()); err != nil {
		exitWithError(ExitError, "saving fused index: %v", err)
	}

	fmt.Printf("fused %d papers into %d-dimensional vectors (%s)\n",
		len(fused), len(fused[0]), cfg.Fusion.Algorithm)
	return nil
}

// fuseVectors combines aligned (text, node) rows per the configured
// algorithm. CCA and identity project first and concatenate the
// projections; concat and linear skip projection entirely.
func fuseVectors(cfg config.Config, text, node [][]float32) ([][]float32, error) {
	switch cfg.Fusion.Algorithm {
	case config.FusionConcat:
		return fusion.ConcatAll(text, node)
	case config.FusionLinear:
		return fusion.LinearCombineAll(cfg.Fusion.Alpha, text, node)
	}

	fuser, hash, err := fusion.Load(cfg.Paths.Resolve(cfg.Paths.FusionModel))
	if err != nil {
		return nil, err
	}
	if hash != cfg.Hash() {
		return nil, fmt.Errorf("%w: fusion model was trained under a different configuration", vecindex.ErrHashMismatch)
	}

	textMat, err := fusion.MatrixFromVectors(text)
	if err != nil {
		return nil, err
	}
	nodeMat, err := fusion.MatrixFromVectors(node)
	if err != nil {
		return nil, err
	}
	textProj, nodeProj, err := fuser.Transform(textMat, nodeMat)
	if err != nil {
		return nil, err
	}
	return fusion.ConcatAll(fusion.VectorsFromMatrix(textProj), fusion.VectorsFromMatrix(nodeProj))
}
