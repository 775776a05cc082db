// Package series derives the chart-ready shapes from a loaded dataset: the
// ranked per-cell-line scatter series and the per-protein bar series.
package series

import (
	"math"
	"sort"

	"proteomecore/pkg/proteome"
)

// Finder locates the record behind a gene or accession query.
type Finder interface {
	FindRecordByGene(name string) (proteome.ProteinRecord, bool)
	FindRecordByAccession(id string) (proteome.ProteinRecord, bool)
}

// Scatter ranks every record with a positive value in cellLine, highest
// first. Ties keep dataset order. Rank starts at 1.
func Scatter(ds proteome.Dataset, cellLine string) []proteome.ScatterPoint {
	points := make([]proteome.ScatterPoint, 0, len(ds.Records))
	for _, rec := range ds.Records {
		v, ok := rec.CopyNumber(cellLine)
		if !ok {
			continue
		}
		points = append(points, proteome.ScatterPoint{
			GeneNames:  rec.GeneNames,
			CopyNumber: v,
			Log10:      math.Log10(v),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CopyNumber > points[j].CopyNumber
	})
	for i := range points {
		points[i].Rank = i + 1
	}
	return points
}

// Bar lists the record's positive measurements for cellLines in caller order.
func Bar(rec proteome.ProteinRecord, cellLines []string) []proteome.BarEntry {
	out := make([]proteome.BarEntry, 0, len(cellLines))
	for _, cl := range cellLines {
		v, ok := rec.CopyNumber(cl)
		if !ok {
			continue
		}
		out = append(out, proteome.BarEntry{CellLine: cl, CopyNumber: v, GeneNames: rec.GeneNames})
	}
	return out
}

// BarForGene builds the bar series for the first record matching query.
func BarForGene(f Finder, query string, cellLines []string) []proteome.BarEntry {
	rec, ok := f.FindRecordByGene(query)
	if !ok {
		return []proteome.BarEntry{}
	}
	return Bar(rec, cellLines)
}

// BarForAccession builds the bar series for the first record whose protein
// group matches query.
func BarForAccession(f Finder, query string, cellLines []string) []proteome.BarEntry {
	rec, ok := f.FindRecordByAccession(query)
	if !ok {
		return []proteome.BarEntry{}
	}
	return Bar(rec, cellLines)
}

// BarFor dispatches on kind.
func BarFor(f Finder, kind proteome.IdentifierKind, query string, cellLines []string) []proteome.BarEntry {
	if kind == proteome.KindAccession {
		return BarForAccession(f, query, cellLines)
	}
	return BarForGene(f, query, cellLines)
}

// SortBarDescending orders entries by copy number, highest first, in place.
func SortBarDescending(entries []proteome.BarEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CopyNumber > entries[j].CopyNumber
	})
}
