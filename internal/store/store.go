// Package store persists the paper corpus and hydrates search
// candidates back into full paper metadata.
package store

import (
	"context"

	"github.com/refnet/fuserec/internal/paper"
)

// Store fetches papers by id. Implementations return only the ids
// that exist, in no guaranteed order; callers re-sort by their own id
// order and treat absent ids as stale index entries.
type Store interface {
	FetchByIDs(ctx context.Context, ids []string) ([]paper.Paper, error)
}
