package fusion

import "fmt"

// Align re-orders vectors (currently ordered by ids) to follow
// refIDs. The two id lists must contain exactly the same members;
// differing sets mean the embedding spaces were built from different
// corpora, which is a fatal data-integrity error rather than
// something to patch around with a partial alignment.
//
// Row i of the result corresponds to refIDs[i].
func Align(refIDs []string, vectors [][]float32, ids []string) ([][]float32, error) {
	if len(vectors) != len(ids) {
		return nil, fmt.Errorf("%w: %d vectors for %d ids", ErrIDMismatch, len(vectors), len(ids))
	}
	if len(refIDs) != len(ids) {
		return nil, fmt.Errorf("%w: %d reference ids, %d ids", ErrIDMismatch, len(refIDs), len(ids))
	}

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := position[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrIDMismatch, id)
		}
		position[id] = i
	}

	out := make([][]float32, len(refIDs))
	for i, id := range refIDs {
		pos, ok := position[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %s missing from second space", ErrIDMismatch, id)
		}
		out[i] = vectors[pos]
	}
	return out, nil
}
