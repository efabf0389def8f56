package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/dataset"
	"github.com/refnet/fuserec/internal/paper"
)

var parseFormat string

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVar(&parseFormat, "format", "v10", "Dump format: v10 or v12")
}

var parseCmd = &cobra.Command{
	Use:   "parse <dump-file>",
	Short: "Parse a DBLP dump into the filtered corpus artifact",
	Long: `Parse a DBLP citation-network dump, drop papers with missing
metadata, apply the citation/reference thresholds, and write the
filtered corpus as a JSON-lines artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	f, err := os.Open(args[0])
	if err != nil {
		exitWithError(ExitError, "opening dump: %v", err)
	}
	defer f.Close()

	opts := dataset.Options{MinYear: cfg.Dataset.TrainYears.From}

	var (
		papers []*paper.Paper
		stats  dataset.Stats
	)
	switch parseFormat {
	case "v10":
		papers, stats, err = dataset.ParseV10(f, opts)
	case "v12":
		papers, stats, err = dataset.ParseV12(f, opts)
	default:
		exitWithError(ExitError, "unknown format %q (want v10 or v12)", parseFormat)
	}
	if err != nil {
		exitWithError(ExitDataError, "parsing dump: %v", err)
	}
	logf("parsed %d papers (%d skipped, %d malformed)", stats.Parsed, stats.Skipped, stats.Malformed)

	papers = paper.FilterByThresholds(papers, cfg.Dataset.MinCitations, cfg.Dataset.MinReferences)
	logf("kept %d papers after thresholds (min citations %d, min references %d)",
		len(papers), cfg.Dataset.MinCitations, cfg.Dataset.MinReferences)

	outPath := cfg.Paths.Resolve(cfg.Paths.Corpus)
	if err := dataset.SavePapers(outPath, papers); err != nil {
		exitWithError(ExitError, "saving corpus: %v", err)
	}
	fmt.Printf("wrote %d papers to %s\n", len(papers), outPath)
	return nil
}
