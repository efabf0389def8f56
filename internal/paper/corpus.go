package paper

// RemoveMissingReferences prunes, in place, every reference that does
// not resolve to a paper present in the given set. After this call no
// paper's reference list contains a dangling id.
func RemoveMissingReferences(papers []*Paper) {
	ids := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		ids[p.ID] = struct{}{}
	}

	for _, p := range papers {
		kept := p.References[:0]
		for _, refID := range p.References {
			if _, ok := ids[refID]; ok {
				kept = append(kept, refID)
			}
		}
		p.References = kept
	}
}

// ComputeCitationCounts recomputes CitationCount for every paper as
// its exact in-corpus in-degree. Counts are reset first, so the
// function is safe to call repeatedly.
func ComputeCitationCounts(papers []*Paper) {
	byID := make(map[string]*Paper, len(papers))
	for _, p := range papers {
		p.CitationCount = 0
		byID[p.ID] = p
	}

	for _, p := range papers {
		for _, refID := range p.References {
			if cited, ok := byID[refID]; ok {
				cited.CitationCount++
			}
		}
	}
}

// FilterByThresholds removes papers below the citation and reference
// thresholds (a paper survives when CitationCount >= minCitations AND
// len(References) >= minReferences).
//
// Pruning and counting run twice: once before thresholding, so the
// thresholds see honest counts, and once after, so references to
// filtered-out papers do not survive as dangling ids. Two passes
// suffice; a fixed point is not iterated for.
func FilterByThresholds(papers []*Paper, minCitations, minReferences int) []*Paper {
	RemoveMissingReferences(papers)
	ComputeCitationCounts(papers)

	kept := make([]*Paper, 0, len(papers))
	for _, p := range papers {
		if p.CitationCount >= minCitations && len(p.References) >= minReferences {
			kept = append(kept, p)
		}
	}

	RemoveMissingReferences(kept)
	ComputeCitationCounts(kept)

	return kept
}
