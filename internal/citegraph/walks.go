package citegraph

import (
	"math/rand/v2"
)

// Walker generates second-order biased random walks over a citation
// graph (node2vec-style). P is the return bias: higher values make
// revisiting the previous node less likely. Q is the explore bias:
// values above 1 keep walks local, below 1 push them outward.
//
// Walks are seeded but not reproducible bit-for-bit across library
// versions; retrieval quality is stable in aggregate, which is what
// the downstream embedding consumes.
type Walker struct {
	Length int     // steps per walk, including the start node
	Count  int     // walks started per node
	P      float64 // return bias
	Q      float64 // explore bias
	Seed   uint64
}

// Walks generates Count walks from every node, following out-edges
// only (a walk from a paper wanders through its citation ancestry).
// Walks end early at nodes with no outgoing edges, so a sentence may
// be shorter than Length. Each walk is a slice of node indices.
func (w Walker) Walks(g *Graph) [][]int {
	rng := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))

	// Out-edge membership sets for the second-order bias test.
	outSet := make([]map[int]struct{}, g.NumNodes())
	for u, edges := range g.out {
		if len(edges) > 0 {
			outSet[u] = make(map[int]struct{}, len(edges))
			for _, v := range edges {
				outSet[u][v] = struct{}{}
			}
		}
	}

	walks := make([][]int, 0, g.NumNodes()*w.Count)
	weights := make([]float64, 0, 64)

	for c := 0; c < w.Count; c++ {
		for start := 0; start < g.NumNodes(); start++ {
			walk := make([]int, 1, w.Length)
			walk[0] = start

			for len(walk) < w.Length {
				cur := walk[len(walk)-1]
				next := g.out[cur]
				if len(next) == 0 {
					break
				}

				var chosen int
				if len(walk) == 1 {
					// First step: uniform over out-edges.
					chosen = next[rng.IntN(len(next))]
				} else {
					prev := walk[len(walk)-2]
					weights = weights[:0]
					total := 0.0
					for _, x := range next {
						var wt float64
						switch {
						case x == prev:
							wt = 1 / w.P
						case member(outSet[prev], x):
							wt = 1
						default:
							wt = 1 / w.Q
						}
						total += wt
						weights = append(weights, total)
					}
					r := rng.Float64() * total
					idx := 0
					for idx < len(weights)-1 && weights[idx] <= r {
						idx++
					}
					chosen = next[idx]
				}
				walk = append(walk, chosen)
			}

			walks = append(walks, walk)
		}
	}

	return walks
}

func member(set map[int]struct{}, x int) bool {
	if set == nil {
		return false
	}
	_, ok := set[x]
	return ok
}
