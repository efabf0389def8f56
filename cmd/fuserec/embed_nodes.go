package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/citegraph"
	"github.com/refnet/fuserec/internal/vecindex"
)

func init() {
	rootCmd.AddCommand(embedNodesCmd)
}

var embedNodesCmd = &cobra.Command{
	Use:   "embed-nodes",
	Short: "Train node2vec embeddings over the training citation graph",
	Long: `Build the citation graph from the training split, run biased random
walks, train skip-gram node embeddings and write the node index/id
registry artifacts. Test papers never enter the graph.`,
	RunE: runEmbedNodes,
}

func runEmbedNodes(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustLoadPapers(cfg.Paths.Resolve(cfg.Paths.TrainPapers))

	g, err := citegraph.Build(papers)
	if err != nil {
		exitWithError(ExitDataError, "building citation graph: %v", err)
	}
	logf("citation graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	model := citegraph.Node2Vec{
		Walker: citegraph.Walker{
			Length: cfg.Graph.WalkLength,
			Count:  cfg.Graph.WalkCount,
			P:      cfg.Graph.ReturnP,
			Q:      cfg.Graph.InOutQ,
			Seed:   cfg.Graph.Seed,
		},
		SkipGram: citegraph.SkipGram{
			Dim:      cfg.Graph.Dimensions,
			Window:   cfg.Graph.Window,
			Negative: 5,
			Epochs:   cfg.Graph.Epochs,
			LR:       0.025,
			Seed:     cfg.Graph.Seed,
		},
	}

	start := time.Now()
	logf("training node2vec (%d walks of length %d per node, dim %d)...",
		cfg.Graph.WalkCount, cfg.Graph.WalkLength, cfg.Graph.Dimensions)
	vectors, ids, err := model.Fit(g)
	if err != nil {
		exitWithError(ExitError, "training node embeddings: %v", err)
	}
	logf("node2vec done in %s", formatDuration(time.Since(start)))

	idx := vecindex.NewFlat(cfg.Graph.Dimensions)
	if err := idx.Add(vectors); err != nil {
		exitWithError(ExitError, "indexing node embeddings: %v", err)
	}
	if err := vecindex.SavePair(
		cfg.Paths.Resolve(cfg.Paths.NodeIndex), cfg.Paths.Resolve(cfg.Paths.NodeIDs),
		idx, vecindex.NewRegistry(ids), cfg.Hash()); err != nil {
		exitWithError(ExitError, "saving node index: %v", err)
	}

	fmt.Printf("embedded %d nodes\n", len(ids))
	return nil
}
