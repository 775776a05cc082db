package resolve

import (
	"strings"

	"proteomecore/pkg/proteome"
)

// ResolveGenes resolves each query and returns the distinct symbols in
// first-resolved order. Unmatched queries are dropped.
func (r *Resolver) ResolveGenes(queries []string) []string {
	return r.ResolveMany(proteome.KindGene, queries)
}

// ResolveAccessions is ResolveGenes for accession queries.
func (r *Resolver) ResolveAccessions(queries []string) []string {
	return r.ResolveMany(proteome.KindAccession, queries)
}

// ResolveGenesDetailed resolves each query and accounts for every input.
func (r *Resolver) ResolveGenesDetailed(queries []string) proteome.MatchReport {
	return r.ResolveManyDetailed(proteome.KindGene, queries)
}

// ResolveAccessionsDetailed is ResolveGenesDetailed for accession queries.
func (r *Resolver) ResolveAccessionsDetailed(queries []string) proteome.MatchReport {
	return r.ResolveManyDetailed(proteome.KindAccession, queries)
}

// ResolveMany resolves queries of one kind into distinct symbols.
func (r *Resolver) ResolveMany(kind proteome.IdentifierKind, queries []string) []string {
	return r.ResolveManyDetailed(kind, queries).Matched
}

// ResolveManyDetailed resolves queries of one kind. Matched holds distinct
// symbols in first-resolved order, Unmatched the original query strings in
// input order (blank queries included) and Resolutions one entry per matched
// query in input order.
func (r *Resolver) ResolveManyDetailed(kind proteome.IdentifierKind, queries []string) proteome.MatchReport {
	report := proteome.MatchReport{
		Matched:     []string{},
		Unmatched:   []string{},
		Resolutions: []proteome.Resolution{},
	}
	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		symbol, ok := r.Resolve(kind, q)
		if !ok {
			report.Unmatched = append(report.Unmatched, q)
			continue
		}
		report.Resolutions = append(report.Resolutions, proteome.Resolution{Query: q, Symbol: symbol})
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		report.Matched = append(report.Matched, symbol)
	}
	return report
}

// FindRecordByGene returns the first record, in dataset order, with a
// gene-name token that equals, contains or is contained in the query.
func (r *Resolver) FindRecordByGene(name string) (proteome.ProteinRecord, bool) {
	return findRecord(r.ds.Records, name, func(rec proteome.ProteinRecord) string { return rec.GeneNames })
}

// FindRecordByAccession is FindRecordByGene over protein-group tokens.
func (r *Resolver) FindRecordByAccession(id string) (proteome.ProteinRecord, bool) {
	return findRecord(r.ds.Records, id, func(rec proteome.ProteinRecord) string { return rec.ProteinGroup })
}

// FindRecord dispatches on kind.
func (r *Resolver) FindRecord(kind proteome.IdentifierKind, query string) (proteome.ProteinRecord, bool) {
	switch kind {
	case proteome.KindGene:
		return r.FindRecordByGene(query)
	case proteome.KindAccession:
		return r.FindRecordByAccession(query)
	default:
		return proteome.ProteinRecord{}, false
	}
}

func findRecord(records []proteome.ProteinRecord, query string, field func(proteome.ProteinRecord) string) (proteome.ProteinRecord, bool) {
	q := normalize(query)
	if q == "" {
		return proteome.ProteinRecord{}, false
	}
	for _, rec := range records {
		for _, tok := range proteome.SplitTokens(field(rec)) {
			t := strings.ToUpper(tok)
			if t == q || strings.Contains(t, q) || strings.Contains(q, t) {
				return rec, true
			}
		}
	}
	return proteome.ProteinRecord{}, false
}
