package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/config"
	"github.com/refnet/fuserec/internal/fusion"
)

func init() {
	rootCmd.AddCommand(trainFusionCmd)
}

var trainFusionCmd = &cobra.Command{
	Use:   "train-fusion",
	Short: "Fit the fusion model on aligned train embeddings",
	Long: `Align the node embeddings to the text index's id order, fit the
configured fusion model (CCA learns projections; concat/linear/identity
need no fitting) and write the fusion model artifact.`,
	RunE: runTrainFusion,
}

func runTrainFusion(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	textIndex, textIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.TextIndex), cfg.Paths.Resolve(cfg.Paths.TextIDs))
	nodeIndex, nodeIDs := mustLoadPair(cfg.Paths.Resolve(cfg.Paths.NodeIndex), cfg.Paths.Resolve(cfg.Paths.NodeIDs))

	nodeVectors, err := fusion.Align(textIDs.IDs(), vectorsOf(nodeIndex), nodeIDs.IDs())
	if err != nil {
		exitWithError(ExitDataError, "aligning node embeddings: %v", err)
	}

	fuser := fuserFor(cfg)
	if cfg.Fusion.Algorithm == config.FusionCCA {
		text, err := fusion.MatrixFromVectors(vectorsOf(textIndex))
		if err != nil {
			exitWithError(ExitDataError, "packing text matrix: %v", err)
		}
		node, err := fusion.MatrixFromVectors(nodeVectors)
		if err != nil {
			exitWithError(ExitDataError, "packing node matrix: %v", err)
		}

		logf("fitting CCA (%d components) on %d samples...", cfg.Fusion.Components, textIndex.Count())
		if err := fuser.Fit(text, node); err != nil {
			exitWithError(ExitError, "fitting fusion model: %v", err)
		}
	}

	path := cfg.Paths.Resolve(cfg.Paths.FusionModel)
	if err := fusion.Save(path, fuser, cfg.Hash()); err != nil {
		exitWithError(ExitError, "saving fusion model: %v", err)
	}
	fmt.Printf("wrote %s fusion model to %s\n", cfg.Fusion.Algorithm, path)
	return nil
}

// fuserFor maps the configured algorithm to a Fuser. Concat and
// linear combination happen after (or instead of) projection, so they
// ride on the identity model.
func fuserFor(cfg config.Config) fusion.Fuser {
	if cfg.Fusion.Algorithm == config.FusionCCA {
		return fusion.NewCCA(cfg.Fusion.Components)
	}
	return fusion.Identity{}
}
