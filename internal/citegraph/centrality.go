package citegraph

import "math"

const (
	// DefaultPageRankAlpha is the standard damping factor.
	DefaultPageRankAlpha = 0.85

	// DefaultPageRankMaxIter bounds the power iteration.
	DefaultPageRankMaxIter = 100

	// DefaultPageRankTol is the L1 convergence threshold.
	DefaultPageRankTol = 1e-6

	// DefaultHITSMaxIter bounds the HITS iteration.
	DefaultHITSMaxIter = 100

	// DefaultHITSTol is the HITS convergence threshold.
	DefaultHITSTol = 1e-8
)

// PageRank computes damped PageRank scores over the citation graph by
// power iteration. Dangling nodes redistribute their mass uniformly.
// Scores sum to 1.
func PageRank(g *Graph, alpha float64, maxIter int, tol float64) map[string]float64 {
	n := g.NumNodes()
	if n == 0 {
		return map[string]float64{}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	for iter := 0; iter < maxIter; iter++ {
		dangling := 0.0
		for i := range next {
			next[i] = 0
		}
		for u := 0; u < n; u++ {
			if len(g.out[u]) == 0 {
				dangling += rank[u]
				continue
			}
			share := rank[u] / float64(len(g.out[u]))
			for _, v := range g.out[u] {
				next[v] += share
			}
		}

		base := (1-alpha)/float64(n) + alpha*dangling/float64(n)
		diff := 0.0
		for i := range next {
			next[i] = base + alpha*next[i]
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank

		if diff < tol {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, id := range g.ids {
		out[id] = rank[i]
	}
	return out
}

// HITSAuthority computes HITS authority scores (a paper is
// authoritative when cited by good hubs). Scores are normalized to
// sum to 1.
func HITSAuthority(g *Graph, maxIter int, tol float64) map[string]float64 {
	n := g.NumNodes()
	if n == 0 {
		return map[string]float64{}
	}

	hub := make([]float64, n)
	auth := make([]float64, n)
	for i := range hub {
		hub[i] = 1 / float64(n)
	}

	prev := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		copy(prev, auth)

		for v := 0; v < n; v++ {
			auth[v] = 0
			for _, u := range g.in[v] {
				auth[v] += hub[u]
			}
		}
		normalizeSum(auth)

		for u := 0; u < n; u++ {
			hub[u] = 0
			for _, v := range g.out[u] {
				hub[u] += auth[v]
			}
		}
		normalizeSum(hub)

		diff := 0.0
		for i := range auth {
			diff += math.Abs(auth[i] - prev[i])
		}
		if diff < tol {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, id := range g.ids {
		out[id] = auth[i]
	}
	return out
}

func normalizeSum(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
