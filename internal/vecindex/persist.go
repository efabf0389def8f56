package vecindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentFormatVersion is the on-disk format version for both the
// index and id-registry files. Increment on breaking changes.
const CurrentFormatVersion = 1

// indexFile is the gob payload for a persisted Flat index. The header
// fields exist so that loading a mismatched or truncated artifact
// fails fast instead of silently corrupting downstream similarity
// scores.
type indexFile struct {
	Version    int
	Dim        int
	Count      int
	ConfigHash string
	Vectors    [][]float32
}

// registryFile is the gob payload for a persisted Registry.
type registryFile struct {
	Version    int
	Count      int
	ConfigHash string
	IDs        []string
}

// SavePair atomically writes the index and its id registry. Both
// files embed the same producing-config hash; LoadPair refuses to
// combine artifacts whose hashes differ. The registry length must
// equal the index vector count.
func SavePair(indexPath, idsPath string, f *Flat, r *Registry, configHash string) error {
	if f.Count() != r.Len() {
		return fmt.Errorf("%w: %d vectors, %d ids", ErrDesynced, f.Count(), r.Len())
	}

	idx := indexFile{
		Version:    CurrentFormatVersion,
		Dim:        f.dim,
		Count:      f.Count(),
		ConfigHash: configHash,
		Vectors:    f.vectors,
	}
	if err := writeGob(indexPath, idx); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	reg := registryFile{
		Version:    CurrentFormatVersion,
		Count:      r.Len(),
		ConfigHash: configHash,
		IDs:        r.ids,
	}
	if err := writeGob(idsPath, reg); err != nil {
		return fmt.Errorf("writing id registry: %w", err)
	}

	return nil
}

// LoadPair reads an index and its id registry, verifying format
// version, internal counts, the index/registry count agreement, and
// the producing-config hash agreement.
func LoadPair(indexPath, idsPath string) (*Flat, *Registry, error) {
	var idx indexFile
	if err := readGob(indexPath, &idx); err != nil {
		return nil, nil, fmt.Errorf("reading index: %w", err)
	}
	if idx.Version != CurrentFormatVersion {
		return nil, nil, fmt.Errorf("%w: index has %d, want %d", ErrBadVersion, idx.Version, CurrentFormatVersion)
	}
	if len(idx.Vectors) != idx.Count {
		return nil, nil, fmt.Errorf("%w: index header says %d vectors, file holds %d", ErrDesynced, idx.Count, len(idx.Vectors))
	}
	for i, v := range idx.Vectors {
		if len(v) != idx.Dim {
			return nil, nil, fmt.Errorf("%w: vector %d has dim %d, header says %d", ErrDesynced, i, len(v), idx.Dim)
		}
	}

	var reg registryFile
	if err := readGob(idsPath, &reg); err != nil {
		return nil, nil, fmt.Errorf("reading id registry: %w", err)
	}
	if reg.Version != CurrentFormatVersion {
		return nil, nil, fmt.Errorf("%w: id registry has %d, want %d", ErrBadVersion, reg.Version, CurrentFormatVersion)
	}
	if len(reg.IDs) != reg.Count {
		return nil, nil, fmt.Errorf("%w: registry header says %d ids, file holds %d", ErrDesynced, reg.Count, len(reg.IDs))
	}

	if idx.Count != reg.Count {
		return nil, nil, fmt.Errorf("%w: %d vectors, %d ids", ErrDesynced, idx.Count, reg.Count)
	}
	if idx.ConfigHash != reg.ConfigHash {
		return nil, nil, fmt.Errorf("%w: index %q, ids %q", ErrHashMismatch, idx.ConfigHash, reg.ConfigHash)
	}

	f := &Flat{dim: idx.Dim, vectors: idx.Vectors}
	return f, NewRegistry(reg.IDs), nil
}

// ReadConfigHash returns the producing-config hash embedded in a
// persisted index file, without loading its vectors into an index.
func ReadConfigHash(indexPath string) (string, error) {
	var idx indexFile
	if err := readGob(indexPath, &idx); err != nil {
		return "", fmt.Errorf("reading index: %w", err)
	}
	if idx.Version != CurrentFormatVersion {
		return "", fmt.Errorf("%w: index has %d, want %d", ErrBadVersion, idx.Version, CurrentFormatVersion)
	}
	return idx.ConfigHash, nil
}

// writeGob writes v to path via a temp file and rename, so a crash
// mid-write never leaves a truncated artifact behind.
func writeGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding: %w", err)
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

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	return nil
}
