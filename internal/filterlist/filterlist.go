// Package filterlist manages curated identifier lists used for batch
// selection: the remote catalog client, local catalog stores, the list text
// format and the filtering applied by the batch selection dialog.
package filterlist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// FilterList is one curated list. Data holds identifiers separated by
// newlines, commas or semicolons.
type FilterList struct {
	ID       int    `json:"id" csv:"id"`
	Name     string `json:"name" csv:"name"`
	Data     string `json:"data" csv:"data"`
	Default  bool   `json:"default" csv:"default"`
	Category string `json:"category" csv:"category"`
}

// Items returns the parsed identifiers of the list.
func (l FilterList) Items() []string { return ParseListData(l.Data) }

// Query narrows a catalog listing. Name and Category are substring filters,
// the Exact variants require equality. Limit <= 0 means no limit.
type Query struct {
	Name          string
	Category      string
	NameExact     string
	CategoryExact string
	Limit         int
}

// Matches reports whether l satisfies q, ignoring Limit. Substring filters
// are case-insensitive.
func (q Query) Matches(l FilterList) bool {
	if q.Name != "" && !containsFold(l.Name, q.Name) {
		return false
	}
	if q.Category != "" && !containsFold(l.Category, q.Category) {
		return false
	}
	if q.NameExact != "" && l.Name != q.NameExact {
		return false
	}
	if q.CategoryExact != "" && l.Category != q.CategoryExact {
		return false
	}
	return true
}

// Apply filters lists in order and truncates to Limit.
func (q Query) Apply(lists []FilterList) []FilterList {
	out := make([]FilterList, 0, len(lists))
	for _, l := range lists {
		if !q.Matches(l) {
			continue
		}
		out = append(out, l)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Catalog is the read side shared by the remote client and local stores.
type Catalog interface {
	List(ctx context.Context, q Query) ([]FilterList, error)
	Get(ctx context.Context, id int) (FilterList, error)
	Categories(ctx context.Context) ([]string, error)
}

// Store is a writable local catalog.
type Store interface {
	Catalog
	// Put inserts or replaces lists by ID.
	Put(ctx context.Context, lists ...FilterList) error
	Delete(ctx context.Context, id int) (bool, error)
	Close() error
}

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("filter list not found")

// NotFound wraps ErrNotFound with the requested id.
func NotFound(id int) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}

var itemSeparators = regexp.MustCompile(`[;,]`)

// ParseListData splits pasted or stored list text into identifiers: carriage
// returns are dropped, then the text is split on newlines, commas and
// semicolons, and each item is trimmed. Empty items are discarded.
func ParseListData(data string) []string {
	data = strings.ReplaceAll(data, "\r", "")
	out := make([]string, 0, strings.Count(data, "\n")+1)
	for _, line := range strings.Split(data, "\n") {
		for _, item := range itemSeparators.Split(line, -1) {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Filter applies the batch dialog's local narrowing: an exact category match
// when category is set, then a case-insensitive name substring match.
func Filter(lists []FilterList, category, name string) []FilterList {
	out := make([]FilterList, 0, len(lists))
	for _, l := range lists {
		if category != "" && l.Category != category {
			continue
		}
		if name != "" && !containsFold(l.Name, name) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// CategoriesOf returns the distinct non-blank categories of lists, sorted.
func CategoriesOf(lists []FilterList) []string {
	seen := make(map[string]struct{}, len(lists))
	out := make([]string, 0)
	for _, l := range lists {
		if l.Category == "" {
			continue
		}
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		out = append(out, l.Category)
	}
	sort.Strings(out)
	return out
}

// SortByID orders lists by ascending ID in place.
func SortByID(lists []FilterList) {
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
