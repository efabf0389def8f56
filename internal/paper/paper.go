// Package paper defines the core domain types for academic papers.
package paper

// Paper represents an academic paper in the recommendation corpus.
type Paper struct {
	// Identity
	ID string `json:"id"` // Stable opaque identifier

	// Metadata
	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Abstract string   `json:"abstract"`
	Venue    string   `json:"venue"` // Journal, conference, or preprint server
	Year     int      `json:"year"`

	// Citation structure
	References    []string `json:"references"`     // IDs of papers this paper cites
	CitationCount int      `json:"citation_count"` // In-corpus in-degree, derived

	// GroundTruth holds the references pointing into the training
	// split. Populated on test-split papers only; empty elsewhere.
	GroundTruth []string `json:"ground_truth_references,omitempty"`
}

// Author represents a paper author.
type Author struct {
	First string `json:"first_name"` // First/given name(s)
	Last  string `json:"last_name"`  // Last/family name
}

// YearRange is an inclusive [From, To] publication-year interval.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return r.From <= year && year <= r.To
}
