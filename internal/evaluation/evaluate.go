package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/refnet/fuserec/internal/vecindex"
)

// Row is one line of the per-K aggregate table.
type Row struct {
	K                int
	Precision        float64
	Recall           float64
	MeanAveragePrec  float64
	QueriesEvaluated int
}

// Options tunes an evaluation run.
type Options struct {
	// RerankScores, when non-nil, reorders each top-K slice by
	// descending centrality score before scoring. Reranking operates
	// strictly within the retrieved candidates; it never expands the
	// set.
	RerankScores map[string]float64
}

// Evaluate retrieves neighbors from the train index for every test
// paper with non-empty ground truth and aggregates Precision@K,
// Recall@K and MAP@K over the requested cutoffs. Retrieval happens
// once per query at max(kVals); each K is a slice of that one result.
// Aggregates are arithmetic means rounded to 4 decimals, rows ordered
// by ascending K.
func Evaluate(
	trainIndex *vecindex.Flat, trainIDs *vecindex.Registry,
	testIndex *vecindex.Flat, testIDs *vecindex.Registry,
	groundTruth map[string][]string,
	kVals []int,
	opts Options,
) ([]Row, error) {
	if len(kVals) == 0 {
		return nil, fmt.Errorf("evaluation: no K values")
	}
	if testIndex.Count() != testIDs.Len() {
		return nil, fmt.Errorf("%w: %d test vectors, %d test ids", vecindex.ErrDesynced, testIndex.Count(), testIDs.Len())
	}

	ks := make([]int, len(kVals))
	copy(ks, kVals)
	sort.Ints(ks)
	maxK := ks[len(ks)-1]

	sums := make(map[int]*Row, len(ks))
	for _, k := range ks {
		sums[k] = &Row{K: k}
	}

	for pos := 0; pos < testIndex.Count(); pos++ {
		testID, err := testIDs.IDAt(pos)
		if err != nil {
			return nil, err
		}
		truth := groundTruth[testID]
		if len(truth) == 0 {
			continue // undefined metrics; documented skip
		}

		vec, err := testIndex.Reconstruct(pos)
		if err != nil {
			return nil, fmt.Errorf("reconstructing test vector for %s: %w", testID, err)
		}
		positions, _, err := trainIndex.Search(vec, maxK)
		if err != nil {
			return nil, fmt.Errorf("searching for %s: %w", testID, err)
		}

		recommended := make([]string, len(positions))
		for i, p := range positions {
			id, err := trainIDs.IDAt(p)
			if err != nil {
				return nil, fmt.Errorf("resolving train position %d: %w", p, err)
			}
			recommended[i] = id
		}

		for _, k := range ks {
			topK := recommended
			if k < len(topK) {
				topK = topK[:k]
			}
			if opts.RerankScores != nil {
				topK = Rerank(topK, opts.RerankScores)
			}

			m, err := ComputeMetrics(topK, truth)
			if err != nil {
				return nil, fmt.Errorf("scoring %s at K=%d: %w", testID, k, err)
			}
			row := sums[k]
			row.Precision += m.Precision
			row.Recall += m.Recall
			row.MeanAveragePrec += m.AveragePrecision
			row.QueriesEvaluated++
		}
	}

	out := make([]Row, 0, len(ks))
	for _, k := range ks {
		row := *sums[k]
		if row.QueriesEvaluated > 0 {
			n := float64(row.QueriesEvaluated)
			row.Precision = round4(row.Precision / n)
			row.Recall = round4(row.Recall / n)
			row.MeanAveragePrec = round4(row.MeanAveragePrec / n)
		}
		out = append(out, row)
	}
	return out, nil
}

// Rerank returns ids reordered by descending score. Ids without a
// score sort as zero; equal scores keep their retrieval order. The
// input is not modified.
func Rerank(ids []string, scores map[string]float64) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i]] > scores[out[j]]
	})
	return out
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
