package proteome

import (
	"fmt"
	"strings"
)

// IdentifierKind selects which identifier space a query is resolved against.
type IdentifierKind string

const (
	KindGene      IdentifierKind = "gene"
	KindAccession IdentifierKind = "accession"
)

// ParseIdentifierKind accepts the kind names used by the HTTP and CLI
// surfaces. Blank input defaults to KindGene.
func ParseIdentifierKind(raw string) (IdentifierKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "gene", "genes":
		return KindGene, nil
	case "accession", "accessions", "protein":
		return KindAccession, nil
	default:
		return "", fmt.Errorf("unknown identifier kind %q", raw)
	}
}

// ScatterPoint is one protein in the ranked per-cell-line series.
type ScatterPoint struct {
	Rank       int     `json:"rank" csv:"rank"`
	Log10      float64 `json:"log10_copy_number" csv:"log10_copy_number"`
	GeneNames  string  `json:"gene_names" csv:"gene_names"`
	CopyNumber float64 `json:"copy_number" csv:"copy_number"`
}

// BarEntry is one cell line's measurement for a single resolved protein.
type BarEntry struct {
	CellLine   string  `json:"cell_line" csv:"cell_line"`
	CopyNumber float64 `json:"copy_number" csv:"copy_number"`
	GeneNames  string  `json:"gene_names" csv:"gene_names"`
}

// Resolution pairs an input query with the primary symbol it resolved to.
type Resolution struct {
	Query  string `json:"query"`
	Symbol string `json:"symbol"`
}

// MatchReport is the outcome of a detailed batch resolution. Every input
// query appears exactly once, either in Resolutions or in Unmatched.
// Matched holds the distinct symbols in first-resolved order.
type MatchReport struct {
	Matched     []string     `json:"matched"`
	Unmatched   []string     `json:"unmatched"`
	Resolutions []Resolution `json:"resolutions"`
}

// SelectionRow is one row of the highlighted-proteins table.
type SelectionRow struct {
	Gene       string  `json:"gene" csv:"gene"`
	CellLine   string  `json:"cell_line" csv:"cell_line"`
	CopyNumber float64 `json:"copy_number" csv:"copy_number"`
	Accession  string  `json:"accession" csv:"accession"`
}

// CellLineSummary describes the distribution of copy numbers in one cell line.
type CellLineSummary struct {
	CellLine string  `json:"cell_line"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P90      float64 `json:"p90"`
}
