// Package evaluation scores recommendation lists against ground-truth
// citations with standard IR metrics.
package evaluation

import "errors"

// ErrNoRelevant is returned when a query's ground-truth set is empty.
// Precision and recall are undefined there; callers skip such queries
// entirely rather than folding zeros into aggregates.
var ErrNoRelevant = errors.New("evaluation: empty ground-truth set")

// Metrics holds the scores for one query at one cutoff.
type Metrics struct {
	Precision        float64
	Recall           float64
	AveragePrecision float64
}

// ComputeMetrics scores a recommendation list against the relevant
// set. The list is expected to be pre-truncated to the cutoff K.
//
// Precision divides by the actual returned count, not the nominal K,
// so an index holding fewer than K papers is not penalized for being
// small; this convention is applied everywhere in the module. Average
// precision divides by the relevant-set size.
func ComputeMetrics(recommended, groundTruth []string) (Metrics, error) {
	if len(groundTruth) == 0 {
		return Metrics{}, ErrNoRelevant
	}

	relevant := make(map[string]struct{}, len(groundTruth))
	for _, id := range groundTruth {
		relevant[id] = struct{}{}
	}

	hits := 0
	ap := 0.0
	for i, id := range recommended {
		if _, ok := relevant[id]; ok {
			hits++
			ap += float64(hits) / float64(i+1)
		}
	}

	m := Metrics{
		Recall:           float64(hits) / float64(len(relevant)),
		AveragePrecision: ap / float64(len(relevant)),
	}
	if len(recommended) > 0 {
		m.Precision = float64(hits) / float64(len(recommended))
	}
	return m, nil
}
