package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/paper"
	"github.com/refnet/fuserec/internal/pdf"
	"github.com/refnet/fuserec/internal/pipeline"
	"github.com/refnet/fuserec/internal/store"
)

var (
	recTitle    string
	recAbstract string
	recPDF      string
	recTopK     int
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVar(&recTitle, "title", "", "Query paper title")
	recommendCmd.Flags().StringVar(&recAbstract, "abstract", "", "Query paper abstract")
	recommendCmd.Flags().StringVar(&recPDF, "pdf", "", "Extract title and abstract from a PDF instead")
	recommendCmd.Flags().IntVar(&recTopK, "top", 10, "Number of recommendations")
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend papers for a single query",
	Long: `Run one query through the full pipeline: encode the text,
approximate its citation-graph embedding from its nearest training
neighbors, fuse both views and search the fused index. The query is
given as --title/--abstract, or extracted from a paper PDF with --pdf.`,
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	title, abstract := recTitle, recAbstract
	if recPDF != "" {
		var err error
		title, abstract, err = pdf.ExtractTitleAbstract(recPDF)
		if err != nil {
			exitWithError(ExitError, "extracting from PDF: %v", err)
		}
		if title == "" && abstract == "" {
			exitWithError(ExitDataError, "no title or abstract found in %s", recPDF)
		}
		logf("extracted title: %s", title)
	}

	res, err := pipeline.LoadResources(artifactPaths(cfg))
	if err != nil {
		exitWithError(ExitConfigError, "loading model artifacts: %v\n\nRun the offline pipeline first (parse through fuse)", err)
	}

	db, err := store.Open(cfg.Paths.Resolve(cfg.Paths.Database))
	if err != nil {
		exitWithError(ExitError, "opening paper store: %v", err)
	}
	defer db.Close()

	provider := newProvider(cfg)
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitEncoderError, "embedding model server not available: %v", err)
	}

	p, err := pipeline.New(res, provider, db,
		pipeline.WithNeighborCount(cfg.Serving.NeighborCount),
		pipeline.WithKBounds(cfg.Serving.MinK, cfg.Serving.MaxK),
		pipeline.WithCacheSize(cfg.Serving.CacheSize),
	)
	if err != nil {
		exitWithError(ExitConfigError, "building pipeline: %v", err)
	}

	recs, err := p.Recommend(ctx, title, abstract, recTopK)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidInput):
			exitWithError(ExitError, "%v (provide --title, --abstract, or --pdf)", err)
		case errors.Is(err, pipeline.ErrEncoding):
			exitWithError(ExitEncoderError, "%v", err)
		default:
			exitWithError(ExitError, "%v", err)
		}
	}

	for i, r := range recs {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, r.Paper.ID)
		fmt.Printf("   %s\n", r.Paper.Title)
		fmt.Printf("   %s (%s, %d)\n\n", formatAuthors(r.Paper.Authors, 3), r.Paper.Venue, r.Paper.Year)
	}
	return nil
}

// formatAuthors formats authors as "Last F, Last F, et al." capped at
// maxCount names.
func formatAuthors(authors []paper.Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}
	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		if a.First != "" {
			names = append(names, a.Last+" "+string([]rune(a.First)[0]))
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}
