// Package index builds the identifier lookup tables used for search: every
// token of a multi-valued gene-name or protein-group field mapped to the
// owning record's gene-name field.
//
// Fuzzy resolution accepts the first entry that matches in iteration order,
// so the tables keep a well-defined order: keys iterate in first-insertion
// order, and re-setting a key replaces its value without moving it.
package index

import (
	"iter"
	"strings"

	"proteomecore/pkg/proteome"
)

type entry struct {
	key   string
	value string
}

// Index is an insertion-ordered string map. The zero value is ready to use.
type Index struct {
	entries []entry
	pos     map[string]int
}

// Set stores value under key. An existing key keeps its position.
func (ix *Index) Set(key, value string) {
	if ix.pos == nil {
		ix.pos = make(map[string]int)
	}
	if i, ok := ix.pos[key]; ok {
		ix.entries[i].value = value
		return
	}
	ix.pos[key] = len(ix.entries)
	ix.entries = append(ix.entries, entry{key: key, value: value})
}

// Get returns the value stored under key.
func (ix *Index) Get(key string) (string, bool) {
	i, ok := ix.pos[key]
	if !ok {
		return "", false
	}
	return ix.entries[i].value, true
}

// Len returns the number of keys.
func (ix *Index) Len() int { return len(ix.entries) }

// All iterates entries in insertion order.
func (ix *Index) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, e := range ix.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		out[i] = e.key
	}
	return out
}

// BuildAliasIndex maps every uppercased gene-name token to the owning
// record's GeneNames field. When two records share a token the later record
// wins.
func BuildAliasIndex(records []proteome.ProteinRecord) *Index {
	ix := &Index{pos: make(map[string]int, len(records)*2)}
	for _, rec := range records {
		for _, alias := range proteome.SplitTokens(rec.GeneNames) {
			ix.Set(strings.ToUpper(alias), rec.GeneNames)
		}
	}
	return ix
}

// BuildAccessionIndex maps every uppercased protein-group token to the owning
// record's GeneNames field, so accession searches resolve to gene identities.
// When two records share a token the later record wins.
func BuildAccessionIndex(records []proteome.ProteinRecord) *Index {
	ix := &Index{pos: make(map[string]int, len(records)*2)}
	for _, rec := range records {
		for _, acc := range proteome.SplitTokens(rec.ProteinGroup) {
			ix.Set(strings.ToUpper(acc), rec.GeneNames)
		}
	}
	return ix
}
