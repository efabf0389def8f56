package citegraph

import "fmt"

// Node2Vec fits node embeddings for a citation graph: biased random
// walks feed a negative-sampling skip-gram. The two stages are
// configured independently but share a seed.
type Node2Vec struct {
	Walker   Walker
	SkipGram SkipGram
}

// Fit generates the walk corpus and trains embeddings. The returned
// ids are the graph's node order; vectors[i] embeds ids[i], so the
// pair can be loaded straight into an index/registry pair.
func (n Node2Vec) Fit(g *Graph) (vectors [][]float32, ids []string, err error) {
	if g.NumNodes() == 0 {
		return nil, nil, fmt.Errorf("fitting node embeddings: empty graph")
	}
	if n.SkipGram.Dim <= 0 {
		return nil, nil, fmt.Errorf("fitting node embeddings: dimension %d", n.SkipGram.Dim)
	}

	walks := n.Walker.Walks(g)
	vectors = n.SkipGram.Train(walks, g.NumNodes())

	ids = make([]string, g.NumNodes())
	copy(ids, g.IDs())
	return vectors, ids, nil
}
