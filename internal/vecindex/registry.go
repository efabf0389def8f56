package vecindex

import "fmt"

// Registry is the ordered list mapping index position -> paper id.
// It is persisted alongside the Flat index it describes; entry i
// names the vector at position i.
type Registry struct {
	ids       []string
	positions map[string]int
}

// NewRegistry creates a registry from an ordered id list. The slice
// is copied.
func NewRegistry(ids []string) *Registry {
	r := &Registry{
		ids:       make([]string, len(ids)),
		positions: make(map[string]int, len(ids)),
	}
	copy(r.ids, ids)
	for i, id := range r.ids {
		r.positions[id] = i
	}
	return r
}

// Len returns the number of registered ids.
func (r *Registry) Len() int { return len(r.ids) }

// IDAt returns the paper id at the given index position.
func (r *Registry) IDAt(pos int) (string, error) {
	if pos < 0 || pos >= len(r.ids) {
		return "", fmt.Errorf("%w: position %d, count %d", ErrNotFound, pos, len(r.ids))
	}
	return r.ids[pos], nil
}

// PositionOf returns the index position of the given paper id.
func (r *Registry) PositionOf(id string) (int, bool) {
	pos, ok := r.positions[id]
	return pos, ok
}

// IDs returns a copy of the ordered id list.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}
