// Package citegraph builds the directed citation graph over the
// training corpus and derives structural signals from it: node
// embeddings via biased random walks plus skip-gram, centrality
// scores for reranking, and neighbor-averaged embeddings for papers
// outside the graph.
package citegraph

import (
	"errors"
	"fmt"

	"github.com/refnet/fuserec/internal/paper"
)

// ErrDanglingReference is returned when a paper cites an id absent
// from the corpus handed to Build. The corpus filtering pass is
// supposed to make this impossible; seeing it means the caller built
// the graph from an unfiltered corpus.
var ErrDanglingReference = errors.New("citation graph: reference to paper outside corpus")

// Graph is a directed citation graph. An edge a -> b means paper a
// cites paper b. Node order follows the input paper order and is
// deterministic for a given corpus.
type Graph struct {
	ids   []string
	index map[string]int
	out   [][]int
	in    [][]int
}

// Build constructs the graph from a self-contained corpus (every
// reference resolves within it).
func Build(papers []*paper.Paper) (*Graph, error) {
	g := &Graph{
		ids:   make([]string, 0, len(papers)),
		index: make(map[string]int, len(papers)),
		out:   make([][]int, len(papers)),
		in:    make([][]int, len(papers)),
	}

	for i, p := range papers {
		if _, dup := g.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate paper id %s", p.ID)
		}
		g.ids = append(g.ids, p.ID)
		g.index[p.ID] = i
	}

	for i, p := range papers {
		for _, refID := range p.References {
			j, ok := g.index[refID]
			if !ok {
				return nil, fmt.Errorf("%w: %s cites %s", ErrDanglingReference, p.ID, refID)
			}
			g.out[i] = append(g.out[i], j)
			g.in[j] = append(g.in[j], i)
		}
	}

	return g, nil
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.ids) }

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	n := 0
	for _, e := range g.out {
		n += len(e)
	}
	return n
}

// IDs returns the ordered node id list. The slice is shared; callers
// must not mutate it.
func (g *Graph) IDs() []string { return g.ids }

// HasEdge reports whether node u cites node v.
func (g *Graph) HasEdge(u, v int) bool {
	for _, x := range g.out[u] {
		if x == v {
			return true
		}
	}
	return false
}
