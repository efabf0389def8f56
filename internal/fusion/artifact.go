package fusion

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// CurrentArtifactVersion is the on-disk fusion model format version.
const CurrentArtifactVersion = 1

// Algorithm tags stored in fusion artifacts.
const (
	AlgorithmCCA      = "cca"
	AlgorithmIdentity = "identity"
)

var (
	// ErrBadArtifact is returned for unreadable or mismatched fusion
	// model files.
	ErrBadArtifact = errors.New("fusion: bad model artifact")
)

// artifactFile is the gob payload for a persisted fusion model. A
// fusion model is only meaningful together with the exact embedding
// spaces it was trained on, so the producing-config hash is embedded
// and checked by the caller against the index artifacts.
type artifactFile struct {
	Version    int
	Algorithm  string
	ConfigHash string

	// CCA parameters (empty for identity).
	Components   int
	TextDim      int
	NodeDim      int
	MeanX, MeanY []float64
	WxData       []float64 // row-major TextDim x Components
	WyData       []float64 // row-major NodeDim x Components
}

// Save persists a fitted Fuser. Only CCA and Identity are known
// concrete types.
func Save(path string, f Fuser, configHash string) error {
	art := artifactFile{
		Version:    CurrentArtifactVersion,
		ConfigHash: configHash,
	}

	switch m := f.(type) {
	case Identity:
		art.Algorithm = AlgorithmIdentity
	case *CCA:
		if !m.fitted {
			return ErrNotFitted
		}
		_, k := m.wx.Dims()
		art.Algorithm = AlgorithmCCA
		art.Components = k
		art.TextDim = len(m.meanX)
		art.NodeDim = len(m.meanY)
		art.MeanX = m.meanX
		art.MeanY = m.meanY
		art.WxData = denseData(m.wx)
		art.WyData = denseData(m.wy)
	default:
		return fmt.Errorf("fusion: cannot persist %T", f)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(art); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads a fusion model and its producing-config hash.
func Load(path string) (Fuser, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening model: %w", err)
	}
	defer file.Close()

	var art artifactFile
	if err := gob.NewDecoder(file).Decode(&art); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	if art.Version != CurrentArtifactVersion {
		return nil, "", fmt.Errorf("%w: version %d, want %d", ErrBadArtifact, art.Version, CurrentArtifactVersion)
	}

	switch art.Algorithm {
	case AlgorithmIdentity:
		return Identity{}, art.ConfigHash, nil
	case AlgorithmCCA:
		if len(art.WxData) != art.TextDim*art.Components ||
			len(art.WyData) != art.NodeDim*art.Components ||
			len(art.MeanX) != art.TextDim || len(art.MeanY) != art.NodeDim {
			return nil, "", fmt.Errorf("%w: CCA parameter shapes are inconsistent", ErrBadArtifact)
		}
		c := &CCA{
			Components: art.Components,
			meanX:      art.MeanX,
			meanY:      art.MeanY,
			wx:         mat.NewDense(art.TextDim, art.Components, art.WxData),
			wy:         mat.NewDense(art.NodeDim, art.Components, art.WyData),
			fitted:     true,
		}
		return c, art.ConfigHash, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown algorithm %q", ErrBadArtifact, art.Algorithm)
	}
}

func denseData(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
