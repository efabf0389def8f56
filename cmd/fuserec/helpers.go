package main

import (
	"fmt"
	"os"
	"time"

	"github.com/refnet/fuserec/internal/config"
	"github.com/refnet/fuserec/internal/dataset"
	"github.com/refnet/fuserec/internal/encoder"
	"github.com/refnet/fuserec/internal/paper"
	"github.com/refnet/fuserec/internal/pipeline"
	"github.com/refnet/fuserec/internal/vecindex"
)

// exitWithError prints an error to stderr and exits with the code.
func exitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(code)
}

// logf prints batch progress to stderr, keeping stdout clean for
// reports.
func logf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// mustLoadConfig loads and validates the config file, exiting on
// failure.
func mustLoadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustLoadPapers reads a JSON-lines paper artifact, exiting on
// failure.
func mustLoadPapers(path string) []*paper.Paper {
	papers, err := dataset.LoadPapers(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return papers
}

// mustLoadPair loads an index/registry pair, exiting on failure.
func mustLoadPair(indexPath, idsPath string) (*vecindex.Flat, *vecindex.Registry) {
	idx, reg, err := vecindex.LoadPair(indexPath, idsPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return idx, reg
}

// newProvider builds the Ollama embedding provider from config.
func newProvider(cfg config.Config) *encoder.OllamaProvider {
	return encoder.NewOllamaProvider(
		encoder.WithBaseURL(cfg.Encoder.BaseURL),
		encoder.WithModel(cfg.Encoder.Model),
		encoder.WithDimensions(cfg.Encoder.Dimensions),
		encoder.WithCharBudget(cfg.Encoder.CharBudget),
		encoder.WithBatchWorkers(cfg.Encoder.BatchWorkers),
		encoder.WithRequestsPerSecond(cfg.Encoder.RequestsPerSecond),
	)
}

// artifactPaths maps config paths to the pipeline's loader input.
func artifactPaths(cfg config.Config) pipeline.ArtifactPaths {
	p := cfg.Paths
	return pipeline.ArtifactPaths{
		TextIndex:   p.Resolve(p.TextIndex),
		TextIDs:     p.Resolve(p.TextIDs),
		NodeIndex:   p.Resolve(p.NodeIndex),
		NodeIDs:     p.Resolve(p.NodeIDs),
		FusedIndex:  p.Resolve(p.FusedIndex),
		FusedIDs:    p.Resolve(p.FusedIDs),
		FusionModel: p.Resolve(p.FusionModel),
	}
}

// vectorsOf copies every stored row out of an index.
func vectorsOf(f *vecindex.Flat) [][]float32 {
	out := make([][]float32, f.Count())
	for i := 0; i < f.Count(); i++ {
		v, err := f.Reconstruct(i)
		if err != nil {
			exitWithError(ExitDataError, "reconstructing vector %d: %v", i, err)
		}
		out[i] = v
	}
	return out
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
