package citegraph

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentScoresVersion is the on-disk centrality artifact version.
const CurrentScoresVersion = 1

// ErrBadScores is returned for unreadable or mismatched centrality
// artifacts.
var ErrBadScores = errors.New("citegraph: bad centrality artifact")

// CentralityScores holds the per-paper rerank scores computed from
// the training citation graph.
type CentralityScores struct {
	PageRank  map[string]float64
	Authority map[string]float64
}

type scoresFile struct {
	Version    int
	ConfigHash string
	PageRank   map[string]float64
	Authority  map[string]float64
}

// SaveScores writes centrality scores via a temp file and rename.
func SaveScores(path string, s CentralityScores, configHash string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	payload := scoresFile{
		Version:    CurrentScoresVersion,
		ConfigHash: configHash,
		PageRank:   s.PageRank,
		Authority:  s.Authority,
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding scores: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// LoadScores reads a centrality artifact and its producing-config
// hash.
func LoadScores(path string) (CentralityScores, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return CentralityScores{}, "", fmt.Errorf("opening scores: %w", err)
	}
	defer f.Close()

	var payload scoresFile
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return CentralityScores{}, "", fmt.Errorf("%w: %v", ErrBadScores, err)
	}
	if payload.Version != CurrentScoresVersion {
		return CentralityScores{}, "", fmt.Errorf("%w: version %d, want %d",
			ErrBadScores, payload.Version, CurrentScoresVersion)
	}

	return CentralityScores{
		PageRank:  payload.PageRank,
		Authority: payload.Authority,
	}, payload.ConfigHash, nil
}
