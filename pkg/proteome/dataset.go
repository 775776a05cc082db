package proteome

import (
	"sort"
	"strings"
)

// Dataset is the snapshot produced by a single load: records in source row
// order and cell-line labels in header order. The header order drives legend
// and default colour order downstream.
type Dataset struct {
	Records   []ProteinRecord `json:"records"`
	CellLines []string        `json:"cell_lines"`
}

// Len returns the number of retained records.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset holds no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// GeneList returns the distinct non-blank GeneNames fields, sorted.
func (d Dataset) GeneList() []string {
	return distinctSorted(d.Records, func(r ProteinRecord) string { return r.GeneNames })
}

// AccessionList returns the distinct non-blank ProteinGroup fields, sorted.
func (d Dataset) AccessionList() []string {
	return distinctSorted(d.Records, func(r ProteinRecord) string { return r.ProteinGroup })
}

// HasCellLine reports whether name is one of the dataset's cell lines.
func (d Dataset) HasCellLine(name string) bool {
	for _, cl := range d.CellLines {
		if cl == name {
			return true
		}
	}
	return false
}

func distinctSorted(records []ProteinRecord, field func(ProteinRecord) string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, rec := range records {
		v := field(rec)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
