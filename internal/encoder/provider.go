package encoder

import "context"

// Provider generates embeddings for paper text.
//
// Determinism note: the underlying model runs wherever the serving
// process put it (CPU or GPU). Outputs are stable only up to numeric
// tolerance (~1e-5 relative) across devices; bit-for-bit
// reproducibility is not part of the contract.
type Provider interface {
	// Embed encodes a single (title, abstract) pair. Title and
	// abstract are joined into one token stream by the provider.
	Embed(ctx context.Context, title, abstract string) (Embedding, error)

	// EmbedBatch encodes many documents. Output index i always
	// corresponds to docs[i]; order is never reshuffled.
	EmbedBatch(ctx context.Context, docs []Document) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
