// Package proteome defines the public data model shared by the loader,
// resolver, series derivation and the HTTP surface: protein records, the
// loaded dataset snapshot and the shapes returned to presentation layers.
package proteome

import (
	"strings"
	"unicode"
)

// ProteinRecord is one retained row of the copy-number table. Records are
// immutable once the loader has produced them; callers must not mutate
// CopyNumbers.
type ProteinRecord struct {
	ProteinGroup string             `json:"protein_group"`
	GeneNames    string             `json:"gene_names"`
	ProteinNames string             `json:"protein_names"`
	IsHistone    bool               `json:"is_histone"`
	Mass         float64            `json:"mass"`
	CopyNumbers  map[string]float64 `json:"copy_numbers"`
}

// PrimaryGene returns the first gene-name token, or "" when the field is blank.
func (r ProteinRecord) PrimaryGene() string {
	return FirstToken(r.GeneNames)
}

// PrimaryAccession returns the first protein-group token.
func (r ProteinRecord) PrimaryAccession() string {
	return FirstToken(r.ProteinGroup)
}

// Aliases returns every gene-name token, primary first.
func (r ProteinRecord) Aliases() []string {
	return SplitTokens(r.GeneNames)
}

// Accessions returns every protein-group token, primary first.
func (r ProteinRecord) Accessions() []string {
	return SplitTokens(r.ProteinGroup)
}

// CopyNumber reports the measurement for cellLine. Only strictly positive
// values are ever stored, so ok implies value > 0.
func (r ProteinRecord) CopyNumber(cellLine string) (float64, bool) {
	v, ok := r.CopyNumbers[cellLine]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// SplitTokens splits a multi-valued identifier field on ';' and whitespace
// runs, trims each piece and drops empties.
func SplitTokens(field string) []string {
	return strings.FieldsFunc(field, isTokenSeparator)
}

// FirstToken returns the first token of a multi-valued field without
// allocating the full token slice.
func FirstToken(field string) string {
	start := -1
	for i, r := range field {
		if isTokenSeparator(r) {
			if start >= 0 {
				return field[start:i]
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start < 0 {
		return ""
	}
	return field[start:]
}

func isTokenSeparator(r rune) bool {
	return r == ';' || unicode.IsSpace(r)
}
