package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/config"
	"github.com/refnet/fuserec/internal/encoder"
	"github.com/refnet/fuserec/internal/paper"
	"github.com/refnet/fuserec/internal/vecindex"
)

func init() {
	rootCmd.AddCommand(embedTextCmd)
}

var embedTextCmd = &cobra.Command{
	Use:   "embed-text",
	Short: "Embed train and test paper text into vector indexes",
	Long: `Encode every training and test paper's title+abstract with the
configured embedding model and write the text index/id-registry
artifacts. The whole batch succeeds or nothing is written.

Requires the model server to be running; run
'ollama pull ` + encoder.DefaultModel + `' to download the default model.`,
	RunE: runEmbedText,
}

func runEmbedText(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	provider := newProvider(cfg)
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitEncoderError, "embedding model server not available: %v", err)
	}

	sets := []struct {
		name      string
		papers    []*paper.Paper
		indexPath string
		idsPath   string
	}{
		{"train", mustLoadPapers(cfg.Paths.Resolve(cfg.Paths.TrainPapers)),
			cfg.Paths.Resolve(cfg.Paths.TextIndex), cfg.Paths.Resolve(cfg.Paths.TextIDs)},
		{"test", mustLoadPapers(cfg.Paths.Resolve(cfg.Paths.TestPapers)),
			cfg.Paths.Resolve(cfg.Paths.TestTextIndex), cfg.Paths.Resolve(cfg.Paths.TestTextIDs)},
	}

	for _, set := range sets {
		start := time.Now()
		logf("embedding %d %s papers with %s...", len(set.papers), set.name, provider.ModelName())

		if err := embedToIndex(ctx, cfg, provider, set.papers, set.indexPath, set.idsPath); err != nil {
			exitWithError(ExitError, "embedding %s set: %v", set.name, err)
		}
		logf("%s set done in %s", set.name, formatDuration(time.Since(start)))
	}

	fmt.Printf("embedded %d train and %d test papers\n", len(sets[0].papers), len(sets[1].papers))
	return nil
}

// embedToIndex encodes papers in input order and persists the
// resulting index/registry pair under the config hash.
func embedToIndex(ctx context.Context, cfg config.Config, provider encoder.Provider,
	papers []*paper.Paper, indexPath, idsPath string) error {

	docs := make([]encoder.Document, len(papers))
	ids := make([]string, len(papers))
	for i, p := range papers {
		docs[i] = encoder.Document{ID: p.ID, Title: p.Title, Abstract: p.Abstract}
		ids[i] = p.ID
	}

	embeddings, err := provider.EmbedBatch(ctx, docs)
	if err != nil {
		return err
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		vectors[i] = e.Vector
	}

	idx := vecindex.NewFlat(cfg.Encoder.Dimensions)
	if err := idx.Add(vectors); err != nil {
		return err
	}
	return vecindex.SavePair(indexPath, idsPath, idx, vecindex.NewRegistry(ids), cfg.Hash())
}
