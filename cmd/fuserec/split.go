package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refnet/fuserec/internal/dataset"
	"github.com/refnet/fuserec/internal/paper"
	"github.com/refnet/fuserec/internal/store"
)

func init() {
	rootCmd.AddCommand(splitCmd)
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split the corpus into train/test sets and load the paper store",
	Long: `Partition the filtered corpus by publication year into a training
set and a held-out test set. Test papers keep only ground-truth
references that point into the training set; test papers left without
any are dropped. The training set is loaded into the SQLite paper
store for result hydration.`,
	RunE: runSplit,
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	papers := mustLoadPapers(cfg.Paths.Resolve(cfg.Paths.Corpus))

	split := paper.SplitByYear(papers, cfg.Dataset.TrainYears, cfg.Dataset.TestYears)
	logf("split %d papers: %d train (%d-%d), %d test (%d-%d)",
		len(papers),
		len(split.Train), cfg.Dataset.TrainYears.From, cfg.Dataset.TrainYears.To,
		len(split.Test), cfg.Dataset.TestYears.From, cfg.Dataset.TestYears.To)

	if err := dataset.SavePapers(cfg.Paths.Resolve(cfg.Paths.TrainPapers), split.Train); err != nil {
		exitWithError(ExitError, "saving train split: %v", err)
	}
	if err := dataset.SavePapers(cfg.Paths.Resolve(cfg.Paths.TestPapers), split.Test); err != nil {
		exitWithError(ExitError, "saving test split: %v", err)
	}

	db, err := store.Open(cfg.Paths.Resolve(cfg.Paths.Database))
	if err != nil {
		exitWithError(ExitError, "opening paper store: %v", err)
	}
	defer db.Close()

	n, err := db.Populate(split.Train)
	if err != nil {
		exitWithError(ExitError, "populating paper store: %v", err)
	}

	fmt.Printf("train: %d papers, test: %d papers, store: %d rows\n",
		len(split.Train), len(split.Test), n)
	return nil
}
