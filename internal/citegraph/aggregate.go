package citegraph

import (
	"fmt"

	"github.com/viterin/vek/vek32"

	"github.com/refnet/fuserec/internal/vecindex"
)

// AggregateNeighborEmbedding approximates the structural embedding of
// a paper that has no node in the citation graph (a live query, or a
// test-split paper). It finds the n nearest neighbors of the query in
// text space among training papers and returns the arithmetic mean of
// their node embeddings.
//
// If fewer than n training papers exist, all are used. A text
// neighbor without a node embedding is a data-integrity failure: the
// text and node id spaces are required to stay synchronized, and
// silently dropping the neighbor would bias the mean, so the error is
// loud (wrapping vecindex.ErrDesynced) instead.
func AggregateNeighborEmbedding(
	queryText []float32,
	textIndex *vecindex.Flat, textIDs *vecindex.Registry,
	nodeIndex *vecindex.Flat, nodeIDs *vecindex.Registry,
	n int,
) ([]float32, error) {
	positions, _, err := textIndex.Search(queryText, n)
	if err != nil {
		return nil, fmt.Errorf("searching text neighbors: %w", err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("aggregating neighbor embedding: text index is empty")
	}

	mean := make([]float32, nodeIndex.Dim())
	for _, pos := range positions {
		id, err := textIDs.IDAt(pos)
		if err != nil {
			return nil, fmt.Errorf("resolving text neighbor: %w", err)
		}
		nodePos, ok := nodeIDs.PositionOf(id)
		if !ok {
			return nil, fmt.Errorf("%w: text neighbor %s has no node embedding", vecindex.ErrDesynced, id)
		}
		vec, err := nodeIndex.Reconstruct(nodePos)
		if err != nil {
			return nil, fmt.Errorf("reconstructing node embedding for %s: %w", id, err)
		}
		vek32.Add_Inplace(mean, vec)
	}

	vek32.MulNumber_Inplace(mean, 1/float32(len(positions)))
	return mean, nil
}
