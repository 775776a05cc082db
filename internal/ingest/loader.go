package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"proteomecore/pkg/proteome"
)

// Stats summarizes a parse pass.
type Stats struct {
	Rows           int  `json:"rows"`
	Retained       int  `json:"retained"`
	Dropped        int  `json:"dropped"`
	MalformedCells int  `json:"malformed_cells"`
	Delimiter      rune `json:"delimiter"`
}

// Loader parses delimited copy-number tables. The zero value parses
// comma-delimited input.
type Loader struct {
	// Comma is the field delimiter. A negative value requests detection from
	// the first lines of input; zero means ','.
	Comma rune
}

// DetectDelimiterSentinel asks Loader to detect the delimiter.
const DetectDelimiterSentinel rune = -1

// Parse reads the full table and returns the dataset of retained records.
// Rows without a single positive copy number are dropped silently. Any read
// or header error aborts the parse; no partial dataset is returned.
func (l Loader) Parse(r io.Reader) (proteome.Dataset, Stats, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	comma := l.Comma
	switch {
	case comma == 0:
		comma = ','
	case comma < 0:
		comma = sniffDelimiter(br)
	}
	stats := Stats{Delimiter: comma}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return proteome.Dataset{}, stats, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return proteome.Dataset{}, stats, fmt.Errorf("read header: %w", err)
	}
	schema, err := NewSchema(header)
	if err != nil {
		return proteome.Dataset{}, stats, err
	}

	ds := proteome.Dataset{CellLines: schema.CellLineNames()}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return proteome.Dataset{}, stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		if blankRow(row) {
			continue
		}
		stats.Rows++
		rec, malformed, ok := schema.decode(row)
		stats.MalformedCells += malformed
		if !ok {
			stats.Dropped++
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	stats.Retained = len(ds.Records)
	return ds, stats, nil
}

// decode builds a record from one row. ok is false when the row carries no
// positive copy number.
func (s Schema) decode(row []string) (rec proteome.ProteinRecord, malformed int, ok bool) {
	copies := make(map[string]float64, len(s.CellLines))
	for _, col := range s.CellLines {
		raw := strings.TrimSpace(field(row, col.Index))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			malformed++
			continue
		}
		if v > 0 {
			copies[col.Name] = v
		}
	}
	if len(copies) == 0 {
		return proteome.ProteinRecord{}, malformed, false
	}
	return proteome.ProteinRecord{
		ProteinGroup: field(row, s.ProteinGroup),
		GeneNames:    field(row, s.GeneNames),
		ProteinNames: field(row, s.ProteinNames),
		IsHistone:    strings.TrimSpace(field(row, s.Histones)) == histoneMarker,
		Mass:         parseMass(field(row, s.Mass)),
		CopyNumbers:  copies,
	}, malformed, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseMass(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
