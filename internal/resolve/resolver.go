// Package resolve maps free-text gene or accession queries onto primary gene
// symbols using the dataset's identifier indexes: an exact index hit first,
// then a bidirectional substring scan that accepts the first entry in index
// order.
package resolve

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"proteomecore/internal/index"
	"proteomecore/pkg/proteome"
)

// DefaultCacheSize bounds the per-resolver memo of single resolutions.
const DefaultCacheSize = 512

type cacheKey struct {
	kind  proteome.IdentifierKind
	query string
}

type cacheEntry struct {
	symbol string
	ok     bool
}

// Resolver answers identifier queries against one immutable Dataset. Build a
// new Resolver whenever the Dataset changes.
type Resolver struct {
	ds        proteome.Dataset
	alias     *index.Index
	accession *index.Index
	cache     *lru.Cache[cacheKey, cacheEntry]
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize sets the number of memoized single resolutions. Zero or a
// negative size disables the cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// New indexes ds and returns a Resolver over it.
func New(ds proteome.Dataset, opts ...Option) *Resolver {
	cfg := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	r := &Resolver{
		ds:        ds,
		alias:     index.BuildAliasIndex(ds.Records),
		accession: index.BuildAccessionIndex(ds.Records),
	}
	if cfg.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		r.cache, _ = lru.New[cacheKey, cacheEntry](cfg.cacheSize)
	}
	return r
}

// Dataset returns the dataset the resolver was built from.
func (r *Resolver) Dataset() proteome.Dataset { return r.ds }

// AliasIndex exposes the gene-name token index.
func (r *Resolver) AliasIndex() *index.Index { return r.alias }

// AccessionIndex exposes the protein-group token index.
func (r *Resolver) AccessionIndex() *index.Index { return r.accession }

// ResolveGene resolves a gene symbol or alias to the owning record's primary
// gene symbol.
func (r *Resolver) ResolveGene(query string) (string, bool) {
	return r.resolveCached(proteome.KindGene, r.alias, query)
}

// ResolveAccession resolves a protein accession to the owning record's
// primary gene symbol.
func (r *Resolver) ResolveAccession(query string) (string, bool) {
	return r.resolveCached(proteome.KindAccession, r.accession, query)
}

// Resolve dispatches on kind. Unknown kinds never match.
func (r *Resolver) Resolve(kind proteome.IdentifierKind, query string) (string, bool) {
	switch kind {
	case proteome.KindGene:
		return r.ResolveGene(query)
	case proteome.KindAccession:
		return r.ResolveAccession(query)
	default:
		return "", false
	}
}

func (r *Resolver) resolveCached(kind proteome.IdentifierKind, ix *index.Index, query string) (string, bool) {
	q := normalize(query)
	if q == "" {
		return "", false
	}
	if r.cache == nil {
		return lookup(ix, q)
	}
	key := cacheKey{kind: kind, query: q}
	if hit, ok := r.cache.Get(key); ok {
		return hit.symbol, hit.ok
	}
	symbol, ok := lookup(ix, q)
	r.cache.Add(key, cacheEntry{symbol: symbol, ok: ok})
	return symbol, ok
}

// lookup expects an already normalized, non-empty query.
func lookup(ix *index.Index, q string) (string, bool) {
	if field, ok := ix.Get(q); ok {
		if symbol := proteome.FirstToken(field); symbol != "" {
			return symbol, true
		}
	}
	for key, field := range ix.All() {
		if strings.Contains(key, q) || strings.Contains(q, key) {
			symbol := proteome.FirstToken(field)
			return symbol, symbol != ""
		}
	}
	return "", false
}

func normalize(query string) string {
	return strings.ToUpper(strings.TrimSpace(query))
}
