package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/refnet/fuserec/internal/paper"
)

// SavePapers writes papers as JSON lines, one paper per line, via a
// temp file and rename so readers never see a partial artifact.
func SavePapers(path string, papers []*paper.Paper) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, p := range papers {
		if err := enc.Encode(p); err != nil {
			f.Close()
			os.Remove(tempPath)
			return fmt.Errorf("encoding paper %s: %w", p.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("flushing: %w", err)
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

// LoadPapers reads a JSON-lines paper artifact written by SavePapers.
// Unlike raw dump parsing this is strict: these files are ours, so a
// malformed line means a corrupted artifact, not dirty input.
func LoadPapers(path string) ([]*paper.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening papers file: %w", err)
	}
	defer f.Close()

	var papers []*paper.Paper
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var p paper.Paper
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			return nil, fmt.Errorf("decoding %s line %d: %w", path, lineNo, err)
		}
		papers = append(papers, &p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading papers file: %w", err)
	}
	return papers, nil
}
