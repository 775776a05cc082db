package series

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"proteomecore/pkg/proteome"
)

// DefaultPageSize is the table page size used when callers pass none.
const DefaultPageSize = 10

// Highlight partitions points into those without and with a gene-name token
// in genes. Matching is case-insensitive.
func Highlight(points []proteome.ScatterPoint, genes []string) (normal, highlighted []proteome.ScatterPoint) {
	set := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		if g = strings.ToUpper(strings.TrimSpace(g)); g != "" {
			set[g] = struct{}{}
		}
	}
	normal = make([]proteome.ScatterPoint, 0, len(points))
	highlighted = make([]proteome.ScatterPoint, 0)
	for _, p := range points {
		if hasToken(p.GeneNames, set) {
			highlighted = append(highlighted, p)
			continue
		}
		normal = append(normal, p)
	}
	return normal, highlighted
}

func hasToken(field string, set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for _, tok := range proteome.SplitTokens(field) {
		if _, ok := set[strings.ToUpper(tok)]; ok {
			return true
		}
	}
	return false
}

// SelectionTable crosses the highlighted genes with the selected cell lines.
// Genes without a matching record and cells without a measurement are
// skipped. Rows are ordered by copy number, highest first.
func SelectionTable(f Finder, genes, cellLines []string) []proteome.SelectionRow {
	rows := make([]proteome.SelectionRow, 0, len(genes)*len(cellLines))
	for _, gene := range genes {
		rec, ok := f.FindRecordByGene(gene)
		if !ok {
			continue
		}
		accession := rec.PrimaryAccession()
		for _, cl := range cellLines {
			v, ok := rec.CopyNumber(cl)
			if !ok {
				continue
			}
			rows = append(rows, proteome.SelectionRow{
				Gene:       gene,
				CellLine:   cl,
				CopyNumber: v,
				Accession:  accession,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CopyNumber > rows[j].CopyNumber
	})
	return rows
}

// PageCount returns the number of pages needed for n rows.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Paginate returns the 1-based page of rows. Out-of-range pages are empty.
func Paginate[T any](rows []T, page, size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []T{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Summarize describes the distribution of positive copy numbers in cellLine.
// P90 uses the nearest-rank method so single-value cell lines are defined.
// It reports false when the cell line has no measurements.
func Summarize(ds proteome.Dataset, cellLine string) (proteome.CellLineSummary, bool) {
	data := make(stats.Float64Data, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if v, ok := rec.CopyNumber(cellLine); ok {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return proteome.CellLineSummary{CellLine: cellLine}, false
	}
	summary, err := summarize(data)
	if err != nil {
		return proteome.CellLineSummary{CellLine: cellLine}, false
	}
	summary.CellLine = cellLine
	return summary, true
}

func summarize(data stats.Float64Data) (proteome.CellLineSummary, error) {
	var (
		out proteome.CellLineSummary
		err error
	)
	out.Count = data.Len()
	if out.Min, err = data.Min(); err != nil {
		return out, fmt.Errorf("min: %w", err)
	}
	if out.Max, err = data.Max(); err != nil {
		return out, fmt.Errorf("max: %w", err)
	}
	if out.Mean, err = data.Mean(); err != nil {
		return out, fmt.Errorf("mean: %w", err)
	}
	if out.Median, err = data.Median(); err != nil {
		return out, fmt.Errorf("median: %w", err)
	}
	if out.P90, err = data.PercentileNearestRank(90); err != nil {
		return out, fmt.Errorf("p90: %w", err)
	}
	return out, nil
}
