// Package config loads, validates and fingerprints the training and
// serving configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/refnet/fuserec/internal/paper"
)

// Config is the full configuration for one training run and the
// pipeline serving its artifacts. All artifacts produced under a
// config embed Hash(); mixing artifacts across configs is refused at
// load time.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Encoder EncoderConfig `yaml:"encoder"`
	Graph   GraphConfig   `yaml:"graph"`
	Fusion  FusionConfig  `yaml:"fusion"`
	Serving ServingConfig `yaml:"serving"`
	Paths   PathsConfig   `yaml:"paths"`
}

// DatasetConfig controls corpus filtering and the train/test split.
type DatasetConfig struct {
	MinCitations  int             `yaml:"min_citations"`
	MinReferences int             `yaml:"min_references"`
	TrainYears    paper.YearRange `yaml:"train_years"`
	TestYears     paper.YearRange `yaml:"test_years"`
}

// EncoderConfig controls the text embedding provider.
type EncoderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	CharBudget        int     `yaml:"char_budget"`
	BatchWorkers      int     `yaml:"batch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// GraphConfig controls node2vec training over the citation graph.
type GraphConfig struct {
	Dimensions int     `yaml:"dimensions"`
	WalkLength int     `yaml:"walk_length"`
	WalkCount  int     `yaml:"walk_count"`
	ReturnP    float64 `yaml:"return_p"`
	InOutQ     float64 `yaml:"in_out_q"`
	Window     int     `yaml:"window"`
	Epochs     int     `yaml:"epochs"`
	Seed       uint64  `yaml:"seed"`
}

// FusionConfig selects and tunes the fusion algorithm.
type FusionConfig struct {
	// Algorithm is "cca", "identity", "concat" or "linear".
	Algorithm  string  `yaml:"algorithm"`
	Components int     `yaml:"components"`
	Alpha      float64 `yaml:"alpha"`
}

// ServingConfig controls the online recommendation path.
type ServingConfig struct {
	NeighborCount int `yaml:"neighbor_count"`
	MinK          int `yaml:"min_k"`
	MaxK          int `yaml:"max_k"`
	CacheSize     int `yaml:"cache_size"`
}

// PathsConfig names the artifact locations. Relative paths are
// resolved against ArtifactDir.
type PathsConfig struct {
	ArtifactDir    string `yaml:"artifact_dir"`
	Database       string `yaml:"database"`
	Corpus         string `yaml:"corpus"`
	TrainPapers    string `yaml:"train_papers"`
	TestPapers     string `yaml:"test_papers"`
	TextIndex      string `yaml:"text_index"`
	TextIDs        string `yaml:"text_ids"`
	TestTextIndex  string `yaml:"test_text_index"`
	TestTextIDs    string `yaml:"test_text_ids"`
	NodeIndex      string `yaml:"node_index"`
	NodeIDs        string `yaml:"node_ids"`
	FusedIndex     string `yaml:"fused_index"`
	FusedIDs       string `yaml:"fused_ids"`
	TestFusedIndex string `yaml:"test_fused_index"`
	TestFusedIDs   string `yaml:"test_fused_ids"`
	FusionModel    string `yaml:"fusion_model"`
	Centrality     string `yaml:"centrality"`
}

// Fusion algorithm names accepted in config.
const (
	FusionCCA      = "cca"
	FusionIdentity = "identity"
	FusionConcat   = "concat"
	FusionLinear   = "linear"
)

// Default returns the configuration used when no file overrides it.
// The hyperparameters match the published experiment setup.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			MinCitations:  5,
			MinReferences: 5,
			TrainYears:    paper.YearRange{From: 1992, To: 2014},
			TestYears:     paper.YearRange{From: 2015, To: 2017},
		},
		Encoder: EncoderConfig{
			BaseURL:           "http://localhost:11434",
			Model:             "all-minilm:l6-v2",
			Dimensions:        384,
			CharBudget:        2000,
			BatchWorkers:      4,
			RequestsPerSecond: 20,
		},
		Graph: GraphConfig{
			Dimensions: 128,
			WalkLength: 80,
			WalkCount:  200,
			ReturnP:    1,
			InOutQ:     1,
			Window:     10,
			Epochs:     1,
			Seed:       42,
		},
		Fusion: FusionConfig{
			Algorithm:  FusionCCA,
			Components: 128,
			Alpha:      0.5,
		},
		Serving: ServingConfig{
			NeighborCount: 5,
			MinK:          1,
			MaxK:          100,
			CacheSize:     512,
		},
		Paths: PathsConfig{
			ArtifactDir:    "artifacts",
			Database:       "corpus.db",
			Corpus:         "corpus.jsonl",
			TrainPapers:    "train.jsonl",
			TestPapers:     "test.jsonl",
			TextIndex:      "text.index",
			TextIDs:        "text.ids",
			TestTextIndex:  "test_text.index",
			TestTextIDs:    "test_text.ids",
			NodeIndex:      "node.index",
			NodeIDs:        "node.ids",
			FusedIndex:     "fused.index",
			FusedIDs:       "fused.ids",
			TestFusedIndex: "test_fused.index",
			TestFusedIDs:   "test_fused.ids",
			FusionModel:    "fusion.model",
			Centrality:     "centrality.gob",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is
// not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot
// run with.
func (c Config) Validate() error {
	if c.Dataset.MinCitations < 0 || c.Dataset.MinReferences < 0 {
		return fmt.Errorf("config: negative dataset thresholds")
	}
	if c.Dataset.TrainYears.From > c.Dataset.TrainYears.To {
		return fmt.Errorf("config: inverted train year range %+v", c.Dataset.TrainYears)
	}
	if c.Dataset.TestYears.From > c.Dataset.TestYears.To {
		return fmt.Errorf("config: inverted test year range %+v", c.Dataset.TestYears)
	}
	if c.Encoder.Dimensions <= 0 {
		return fmt.Errorf("config: encoder dimensions %d", c.Encoder.Dimensions)
	}
	if c.Graph.Dimensions <= 0 || c.Graph.WalkLength <= 0 || c.Graph.WalkCount <= 0 {
		return fmt.Errorf("config: graph hyperparameters must be positive")
	}
	if c.Graph.ReturnP <= 0 || c.Graph.InOutQ <= 0 {
		return fmt.Errorf("config: node2vec p and q must be positive")
	}

	switch c.Fusion.Algorithm {
	case FusionCCA:
		if c.Fusion.Components <= 0 {
			return fmt.Errorf("config: CCA components %d", c.Fusion.Components)
		}
	case FusionLinear:
		if c.Fusion.Alpha < 0 || c.Fusion.Alpha > 1 {
			return fmt.Errorf("config: fusion alpha %v outside [0, 1]", c.Fusion.Alpha)
		}
		if c.Encoder.Dimensions != c.Graph.Dimensions {
			return fmt.Errorf("config: linear fusion needs equal text and node dimensions, got %d and %d",
				c.Encoder.Dimensions, c.Graph.Dimensions)
		}
	case FusionIdentity, FusionConcat:
	default:
		return fmt.Errorf("config: unknown fusion algorithm %q", c.Fusion.Algorithm)
	}

	if c.Serving.MinK < 1 || c.Serving.MaxK < c.Serving.MinK {
		return fmt.Errorf("config: bad serving K bounds [%d, %d]", c.Serving.MinK, c.Serving.MaxK)
	}
	if c.Serving.NeighborCount < 1 {
		return fmt.Errorf("config: serving neighbor count %d", c.Serving.NeighborCount)
	}
	return nil
}

// Hash fingerprints the parts of the configuration that shape
// artifacts. Serving knobs and file paths are deliberately excluded:
// moving an artifact or changing the cache size does not invalidate
// it.
func (c Config) Hash() string {
	stripped := c
	stripped.Serving = ServingConfig{}
	stripped.Paths = PathsConfig{}

	data, err := yaml.Marshal(stripped)
	if err != nil {
		// Marshaling a plain struct of scalars cannot fail.
		panic(fmt.Sprintf("config: marshaling for hash: %v", err))
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum[:16])
}

// Resolve returns an artifact path, joining relative names onto the
// artifact directory.
func (p PathsConfig) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ArtifactDir, name)
}
