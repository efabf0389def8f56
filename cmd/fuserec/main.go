// Package main provides the fuserec CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// configPath is the --config flag, shared by all subcommands.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fuserec",
	Short: "Citation-aware academic paper recommender",
	Long: `fuserec builds and serves a paper recommendation model that fuses
text embeddings with citation-graph node embeddings.

The offline commands (parse, split, embed-text, embed-nodes,
train-fusion, fuse, build-index, rank) run in order and leave their
artifacts under the configured artifact directory. evaluate scores the
model against held-out papers; recommend answers a single live query.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env if present (for FUSEREC_* overrides).
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fuserec.yml", "Path to the YAML config file")
	rootCmd.Version = Version
}
