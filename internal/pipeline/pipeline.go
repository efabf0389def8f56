// Package pipeline runs the online recommendation path: encode a
// query, approximate its structural embedding, fuse both views and
// search the fused index, then hydrate the hits into paper metadata.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/refnet/fuserec/internal/citegraph"
	"github.com/refnet/fuserec/internal/encoder"
	"github.com/refnet/fuserec/internal/fusion"
	"github.com/refnet/fuserec/internal/paper"
	"github.com/refnet/fuserec/internal/store"
	"github.com/refnet/fuserec/internal/vecindex"
)

// Errors crossing the pipeline boundary. Everything Recommend returns
// wraps one of these four, so callers can branch without knowing the
// internals.
var (
	ErrInvalidInput     = errors.New("pipeline: invalid input")
	ErrEncoding         = errors.New("pipeline: encoding failed")
	ErrStoreUnavailable = errors.New("pipeline: paper store unavailable")
	ErrInternal         = errors.New("pipeline: internal failure")
)

// Defaults for the online path.
const (
	DefaultNeighborCount = 5
	DefaultMinK          = 1
	DefaultMaxK          = 100
	DefaultCacheSize     = 512
)

// Recommendation is one ranked hit with its hydrated metadata. Score
// is cosine similarity in the fused space, rounded to 4 decimals.
type Recommendation struct {
	Paper paper.Paper
	Score float64
}

// Pipeline holds the loaded model artifacts and serves queries. Safe
// for concurrent use once constructed.
type Pipeline struct {
	enc   encoder.Provider
	fuser fusion.Fuser
	db    store.Store

	textIndex  *vecindex.Flat
	textIDs    *vecindex.Registry
	nodeIndex  *vecindex.Flat
	nodeIDs    *vecindex.Registry
	fusedIndex *vecindex.Flat
	fusedIDs   *vecindex.Registry

	cache     *lru.Cache[string, []Recommendation]
	neighborN int
	minK      int
	maxK      int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNeighborCount sets how many text-space neighbors feed the
// structural embedding approximation.
func WithNeighborCount(n int) Option {
	return func(p *Pipeline) { p.neighborN = n }
}

// WithKBounds sets the inclusive clamp range for requested result
// counts.
func WithKBounds(min, max int) Option {
	return func(p *Pipeline) { p.minK, p.maxK = min, max }
}

// WithCacheSize sets the query result cache capacity. Zero disables
// caching.
func WithCacheSize(n int) Option {
	return func(p *Pipeline) {
		if n <= 0 {
			p.cache = nil
			return
		}
		p.cache, _ = lru.New[string, []Recommendation](n)
	}
}

// New assembles a Pipeline from loaded resources.
func New(res *Resources, enc encoder.Provider, db store.Store, opts ...Option) (*Pipeline, error) {
	if res == nil || enc == nil || db == nil {
		return nil, fmt.Errorf("%w: pipeline needs resources, an encoder and a store", ErrInvalidInput)
	}

	p := &Pipeline{
		enc:        enc,
		fuser:      res.Fuser,
		db:         db,
		textIndex:  res.TextIndex,
		textIDs:    res.TextIDs,
		nodeIndex:  res.NodeIndex,
		nodeIDs:    res.NodeIDs,
		fusedIndex: res.FusedIndex,
		fusedIDs:   res.FusedIDs,
		neighborN:  DefaultNeighborCount,
		minK:       DefaultMinK,
		maxK:       DefaultMaxK,
	}
	p.cache, _ = lru.New[string, []Recommendation](DefaultCacheSize)

	for _, opt := range opts {
		opt(p)
	}

	if p.minK < 1 || p.maxK < p.minK {
		return nil, fmt.Errorf("%w: bad K bounds [%d, %d]", ErrInvalidInput, p.minK, p.maxK)
	}
	if p.neighborN < 1 {
		return nil, fmt.Errorf("%w: neighbor count %d", ErrInvalidInput, p.neighborN)
	}
	return p, nil
}

// Recommend returns the topK most similar training papers for a query
// given as free text. At least one of title and abstract must be
// non-blank. topK outside the configured bounds is clamped, never
// rejected. Stale index entries (ids the store no longer holds) are
// dropped from the result rather than padded.
func (p *Pipeline) Recommend(ctx context.Context, title, abstract string, topK int) (recs []Recommendation, err error) {
	// Panics inside model code must not cross the serving boundary.
	defer func() {
		if r := recover(); r != nil {
			recs = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if isBlank(title) && isBlank(abstract) {
		return nil, fmt.Errorf("%w: title and abstract are both empty", ErrInvalidInput)
	}
	topK = clamp(topK, p.minK, p.maxK)

	key := cacheKey(title, abstract, topK)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}

	emb, err := p.enc.Embed(ctx, title, abstract)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	textVec := make([]float32, len(emb.Vector))
	copy(textVec, emb.Vector)
	vecindex.Normalize(textVec)

	nodeVec, err := citegraph.AggregateNeighborEmbedding(
		textVec, p.textIndex, p.textIDs, p.nodeIndex, p.nodeIDs, p.neighborN)
	if err != nil {
		return nil, fmt.Errorf("%w: approximating structural embedding: %v", ErrInternal, err)
	}

	textProj, nodeProj, err := fusion.TransformVec(p.fuser, textVec, nodeVec)
	if err != nil {
		return nil, fmt.Errorf("%w: fusing query views: %v", ErrInternal, err)
	}
	query := fusion.Concat(textProj, nodeProj)

	positions, scores, err := p.fusedIndex.Search(query, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: searching fused index: %v", ErrInternal, err)
	}

	ids := make([]string, len(positions))
	scoreByID := make(map[string]float64, len(positions))
	for i, pos := range positions {
		id, err := p.fusedIDs.IDAt(pos)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving hit position %d: %v", ErrInternal, pos, err)
		}
		ids[i] = id
		scoreByID[id] = round4(float64(scores[i]))
	}

	papers, err := p.db.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	byID := make(map[string]paper.Paper, len(papers))
	for _, pp := range papers {
		byID[pp.ID] = pp
	}

	recs = make([]Recommendation, 0, len(ids))
	for _, id := range ids {
		pp, ok := byID[id]
		if !ok {
			continue // stale index entry
		}
		recs = append(recs, Recommendation{Paper: pp, Score: scoreByID[id]})
	}

	if p.cache != nil {
		p.cache.Add(key, recs)
	}
	return recs, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func clamp(k, lo, hi int) int {
	if k < lo {
		return lo
	}
	if k > hi {
		return hi
	}
	return k
}

func cacheKey(title, abstract string, topK int) string {
	return fmt.Sprintf("%d\x00%s\x00%s", topK, title, abstract)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
