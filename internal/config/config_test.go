package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Graph.Dimensions != def.Graph.Dimensions || cfg.Fusion.Algorithm != def.Fusion.Algorithm {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
graph:
  dimensions: 64
fusion:
  algorithm: concat
dataset:
  train_years: {from: 2000, to: 2010}
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Graph.Dimensions != 64 {
		t.Errorf("graph dimensions = %d, want 64", cfg.Graph.Dimensions)
	}
	if cfg.Fusion.Algorithm != FusionConcat {
		t.Errorf("fusion algorithm = %q, want concat", cfg.Fusion.Algorithm)
	}
	if cfg.Dataset.TrainYears.From != 2000 || cfg.Dataset.TrainYears.To != 2010 {
		t.Errorf("train years = %+v", cfg.Dataset.TrainYears)
	}
	// Untouched sections keep their defaults.
	if cfg.Encoder.Model != Default().Encoder.Model {
		t.Errorf("encoder model = %q, want default", cfg.Encoder.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"inverted train years", func(c *Config) {
			c.Dataset.TrainYears.From = 2015
			c.Dataset.TrainYears.To = 2010
		}, "train year"},
		{"zero encoder dims", func(c *Config) { c.Encoder.Dimensions = 0 }, "dimensions"},
		{"zero walk count", func(c *Config) { c.Graph.WalkCount = 0 }, "graph"},
		{"non-positive q", func(c *Config) { c.Graph.InOutQ = 0 }, "p and q"},
		{"unknown fusion", func(c *Config) { c.Fusion.Algorithm = "dcca" }, "unknown fusion"},
		{"cca without components", func(c *Config) { c.Fusion.Components = 0 }, "components"},
		{"linear alpha out of range", func(c *Config) {
			c.Fusion.Algorithm = FusionLinear
			c.Fusion.Alpha = 1.5
			c.Graph.Dimensions = c.Encoder.Dimensions
		}, "alpha"},
		{"linear dims differ", func(c *Config) {
			c.Fusion.Algorithm = FusionLinear
			c.Fusion.Alpha = 0.5
		}, "equal text and node dimensions"},
		{"inverted K bounds", func(c *Config) {
			c.Serving.MinK = 10
			c.Serving.MaxK = 5
		}, "K bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHash_IgnoresServingAndPaths(t *testing.T) {
	a := Default()
	b := Default()
	b.Serving.CacheSize = 9999
	b.Paths.ArtifactDir = "/elsewhere"

	if a.Hash() != b.Hash() {
		t.Error("serving/path changes altered the hash; artifacts would be wrongly invalidated")
	}

	c := Default()
	c.Graph.WalkLength = 40
	if a.Hash() == c.Hash() {
		t.Error("hyperparameter change did not alter the hash")
	}
}

func TestResolve(t *testing.T) {
	p := PathsConfig{ArtifactDir: "/data/run1"}
	if got := p.Resolve("text.index"); got != filepath.Join("/data/run1", "text.index") {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := p.Resolve("/abs/text.index"); got != "/abs/text.index" {
		t.Errorf("Resolve absolute = %q", got)
	}
}
