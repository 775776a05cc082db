package core

import (
	"slices"
	"strings"
	"unicode/utf8"

	"proteomecore/internal/series"
	"proteomecore/pkg/proteome"
)

// DefaultSuggestionLimit caps ListGenes and ListAccessions.
const DefaultSuggestionLimit = 10

// minSuggestionQuery is the shortest query that produces suggestions.
const minSuggestionQuery = 2

// CellLines returns the dataset's cell lines in header order.
func (s *Service) CellLines() []string {
	return slices.Clone(s.Snapshot().Dataset.CellLines)
}

// FilterCellLines returns the cell lines whose name contains q, ignoring
// case. An empty q returns every cell line.
func (s *Service) FilterCellLines(q string) []string {
	all := s.Snapshot().Dataset.CellLines
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]string, 0, len(all))
	for _, cl := range all {
		if q == "" || strings.Contains(strings.ToLower(cl), q) {
			out = append(out, cl)
		}
	}
	return out
}

// ListGenes suggests gene-name fields containing q.
func (s *Service) ListGenes(q string, limit int) []string {
	return suggest(s.Snapshot().genes, q, limit)
}

// ListAccessions suggests protein-group fields containing q.
func (s *Service) ListAccessions(q string, limit int) []string {
	return suggest(s.Snapshot().accessions, q, limit)
}

// Suggest dispatches to ListGenes or ListAccessions.
func (s *Service) Suggest(kind proteome.IdentifierKind, q string, limit int) []string {
	if kind == proteome.KindAccession {
		return s.ListAccessions(q, limit)
	}
	return s.ListGenes(q, limit)
}

func suggest(universe []string, q string, limit int) []string {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSuggestionQuery {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	needle := strings.ToLower(q)
	out := make([]string, 0, min(limit, len(universe)))
	for _, v := range universe {
		if strings.Contains(strings.ToLower(v), needle) {
			out = append(out, v)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// ResolveGene resolves one gene query to its primary symbol.
func (s *Service) ResolveGene(q string) (string, bool) {
	return s.Snapshot().Resolver.ResolveGene(q)
}

// ResolveAccession resolves one accession query to its primary symbol.
func (s *Service) ResolveAccession(q string) (string, bool) {
	return s.Snapshot().Resolver.ResolveAccession(q)
}

// Resolve dispatches on kind.
func (s *Service) Resolve(kind proteome.IdentifierKind, q string) (string, bool) {
	return s.Snapshot().Resolver.Resolve(kind, q)
}

// ResolveGenes resolves a batch of gene queries to distinct symbols.
func (s *Service) ResolveGenes(qs []string) []string {
	return s.Snapshot().Resolver.ResolveGenes(qs)
}

// ResolveAccessions resolves a batch of accession queries to distinct symbols.
func (s *Service) ResolveAccessions(qs []string) []string {
	return s.Snapshot().Resolver.ResolveAccessions(qs)
}

// ResolveGenesDetailed reports the outcome of every gene query.
func (s *Service) ResolveGenesDetailed(qs []string) proteome.MatchReport {
	return s.Snapshot().Resolver.ResolveGenesDetailed(qs)
}

// ResolveAccessionsDetailed reports the outcome of every accession query.
func (s *Service) ResolveAccessionsDetailed(qs []string) proteome.MatchReport {
	return s.Snapshot().Resolver.ResolveAccessionsDetailed(qs)
}

// ResolveManyDetailed dispatches on kind.
func (s *Service) ResolveManyDetailed(kind proteome.IdentifierKind, qs []string) proteome.MatchReport {
	return s.Snapshot().Resolver.ResolveManyDetailed(kind, qs)
}

// ScatterSeries ranks every protein measured in cellLine.
func (s *Service) ScatterSeries(cellLine string) []proteome.ScatterPoint {
	return series.Scatter(s.Snapshot().Dataset, cellLine)
}

// BarSeries returns the per-cell-line values of the record matching query.
// Nil or empty cellLines selects every cell line.
func (s *Service) BarSeries(kind proteome.IdentifierKind, query string, cellLines []string) []proteome.BarEntry {
	snap := s.Snapshot()
	if len(cellLines) == 0 {
		cellLines = snap.Dataset.CellLines
	}
	return series.BarFor(snap.Resolver, kind, query, cellLines)
}

// FindRecordByGene returns the first record whose gene tokens match name.
func (s *Service) FindRecordByGene(name string) (proteome.ProteinRecord, bool) {
	return s.Snapshot().Resolver.FindRecordByGene(name)
}

// FindRecordByAccession returns the first record whose accession tokens
// match id.
func (s *Service) FindRecordByAccession(id string) (proteome.ProteinRecord, bool) {
	return s.Snapshot().Resolver.FindRecordByAccession(id)
}

// FindRecord dispatches on kind.
func (s *Service) FindRecord(kind proteome.IdentifierKind, q string) (proteome.ProteinRecord, bool) {
	return s.Snapshot().Resolver.FindRecord(kind, q)
}

// SelectionTable lists the highlighted genes across the selected cell lines.
func (s *Service) SelectionTable(genes, cellLines []string) []proteome.SelectionRow {
	return series.SelectionTable(s.Snapshot().Resolver, genes, cellLines)
}

// Summarize describes the copy-number distribution of one cell line.
func (s *Service) Summarize(cellLine string) (proteome.CellLineSummary, bool) {
	return series.Summarize(s.Snapshot().Dataset, cellLine)
}
