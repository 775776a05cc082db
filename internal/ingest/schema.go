// Package ingest turns the wide copy-number table (one row per protein group,
// one column per cell line) into a proteome.Dataset.
package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Header names recognized verbatim.
const (
	CopyNumberPrefix = "N: Copy number"
	ColProteinGroup  = "T: Protein.Group"
	ColGeneNames     = "T: Gene Names"
	ColProteinNames  = "T: Protein names"
	ColHistones      = "C: Histones"
	ColMass          = "N: Mass"

	rawSuffix      = ".raw"
	filenamePrefix = "GS-"
	histoneMarker  = "+"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("ingest: missing required column")

// CellLineColumn maps a source column to its normalized cell-line label.
type CellLineColumn struct {
	Index  int
	Header string
	Name   string
}

// Schema is the typed row decoder derived once from the header row.
// Optional columns hold index -1 when absent.
type Schema struct {
	ProteinGroup int
	GeneNames    int
	ProteinNames int
	Histones     int
	Mass         int
	CellLines    []CellLineColumn
}

// NewSchema validates header and resolves column positions. The protein
// group and gene name columns and at least one copy-number column are
// required; the remaining fixed columns are optional.
func NewSchema(header []string) (Schema, error) {
	s := Schema{ProteinGroup: -1, GeneNames: -1, ProteinNames: -1, Histones: -1, Mass: -1}
	for i, raw := range header {
		h := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		switch {
		case h == ColProteinGroup:
			s.ProteinGroup = i
		case h == ColGeneNames:
			s.GeneNames = i
		case h == ColProteinNames:
			s.ProteinNames = i
		case h == ColHistones:
			s.Histones = i
		case h == ColMass:
			s.Mass = i
		case strings.HasPrefix(h, CopyNumberPrefix):
			s.CellLines = append(s.CellLines, CellLineColumn{Index: i, Header: h, Name: CellLineName(h)})
		}
	}
	if s.ProteinGroup < 0 {
		return Schema{}, fmt.Errorf("%w: %q", ErrMissingColumn, ColProteinGroup)
	}
	if s.GeneNames < 0 {
		return Schema{}, fmt.Errorf("%w: %q", ErrMissingColumn, ColGeneNames)
	}
	if len(s.CellLines) == 0 {
		return Schema{}, fmt.Errorf("%w: no %q columns", ErrMissingColumn, CopyNumberPrefix)
	}
	return s, nil
}

// CellLineNames returns the normalized labels in header order.
func (s Schema) CellLineNames() []string {
	out := make([]string, len(s.CellLines))
	for i, c := range s.CellLines {
		out[i] = c.Name
	}
	return out
}

var (
	pathTail  = regexp.MustCompile(`[\\/]([^\\/]+)$`)
	runPrefix = regexp.MustCompile(`\d+_\d+_`)
)

// CellLineName derives the short display label from a copy-number column
// header, e.g. "N: Copy number A549.raw" -> "A549". Headers that embed an
// acquisition file path are reduced to the file name with the instrument
// prefixes removed.
func CellLineName(header string) string {
	name := strings.Replace(header, CopyNumberPrefix, "", 1)
	name = strings.Replace(name, rawSuffix, "", 1)
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimPrefix(name, " ")
	if m := pathTail.FindStringSubmatch(name); m != nil {
		name = m[1]
		name = strings.Replace(name, rawSuffix, "", 1)
		name = strings.Replace(name, filenamePrefix, "", 1)
		if loc := runPrefix.FindStringIndex(name); loc != nil {
			name = name[:loc[0]] + name[loc[1]:]
		}
	}
	return strings.TrimSpace(name)
}
