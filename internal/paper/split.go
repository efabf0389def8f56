package paper

// Split holds the outcome of a train/test partition of a corpus.
type Split struct {
	Train []*Paper
	Test  []*Paper
}

// SplitByYear partitions papers into train and test sets by
// publication year. Papers outside both ranges are discarded.
//
// Train papers are re-pruned and re-counted so the training set is
// self-contained. Each test paper's GroundTruth is set to the subset
// of its references that point into the training set; test papers
// with an empty ground truth are dropped, since they can never be
// scored. Test papers are never added to any search index.
func SplitByYear(papers []*Paper, trainYears, testYears YearRange) Split {
	var train, test []*Paper
	for _, p := range papers {
		switch {
		case trainYears.Contains(p.Year):
			train = append(train, p)
		case testYears.Contains(p.Year):
			test = append(test, p)
		}
	}

	RemoveMissingReferences(train)
	ComputeCitationCounts(train)

	trainIDs := make(map[string]struct{}, len(train))
	for _, p := range train {
		trainIDs[p.ID] = struct{}{}
	}

	scored := test[:0]
	for _, p := range test {
		p.GroundTruth = nil
		for _, refID := range p.References {
			if _, ok := trainIDs[refID]; ok {
				p.GroundTruth = append(p.GroundTruth, refID)
			}
		}
		if len(p.GroundTruth) > 0 {
			scored = append(scored, p)
		}
	}

	return Split{Train: train, Test: scored}
}
