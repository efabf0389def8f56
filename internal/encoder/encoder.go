// Package encoder turns paper text into dense float32 vectors via a
// pretrained embedding model served over HTTP.
package encoder

// Embedding represents a vector embedding of a paper's text.
type Embedding struct {
	Vector []float32 // float32 throughout; the model server is queried at full precision
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Document is one (id, title, abstract) unit of batch encoding.
type Document struct {
	ID       string
	Title    string
	Abstract string
}
