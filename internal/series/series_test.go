package series

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"proteomecore/internal/resolve"
	"proteomecore/pkg/proteome"
)

func dataset() proteome.Dataset {
	return proteome.Dataset{
		CellLines: []string{"A549", "HELA", "MCF7"},
		Records: []proteome.ProteinRecord{
			{ProteinGroup: "P1", GeneNames: "LOW", CopyNumbers: map[string]float64{"A549": 10, "HELA": 1000}},
			{ProteinGroup: "P2;P2B", GeneNames: "HIGH;HI", CopyNumbers: map[string]float64{"A549": 1000}},
			{ProteinGroup: "P3", GeneNames: "TIE1", CopyNumbers: map[string]float64{"A549": 100, "MCF7": 7}},
			{ProteinGroup: "P4", GeneNames: "TIE2", CopyNumbers: map[string]float64{"A549": 100}},
		},
	}
}

func TestScatterRanksDescendingStable(t *testing.T) {
	points := Scatter(dataset(), "A549")
	var names []string
	for i, p := range points {
		if p.Rank != i+1 {
			t.Fatalf("rank %d at index %d", p.Rank, i)
		}
		if math.Abs(p.Log10-math.Log10(p.CopyNumber)) > 1e-12 {
			t.Fatalf("log10 mismatch for %s", p.GeneNames)
		}
		names = append(names, p.GeneNames)
	}
	if diff := cmp.Diff([]string{"HIGH;HI", "TIE1", "TIE2", "LOW"}, names); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestScatterUnknownCellLine(t *testing.T) {
	if got := Scatter(dataset(), "NOPE"); len(got) != 0 {
		t.Fatalf("expected empty series, got %v", got)
	}
	if got := Scatter(proteome.Dataset{}, "A549"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil series")
	}
}

func TestBarKeepsCallerOrderAndSkipsMissing(t *testing.T) {
	rec := dataset().Records[0]
	got := Bar(rec, []string{"HELA", "MCF7", "A549"})
	want := []proteome.BarEntry{
		{CellLine: "HELA", CopyNumber: 1000, GeneNames: "LOW"},
		{CellLine: "A549", CopyNumber: 10, GeneNames: "LOW"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bar (-want +got):\n%s", diff)
	}
	SortBarDescending(got)
	if got[0].CellLine != "HELA" {
		t.Fatalf("sort descending failed: %v", got)
	}
}

func TestBarForGeneAndAccession(t *testing.T) {
	r := resolve.New(dataset())
	if got := BarForGene(r, "hi", []string{"A549"}); len(got) != 1 || got[0].CopyNumber != 1000 {
		t.Fatalf("BarForGene: %v", got)
	}
	if got := BarForAccession(r, "P2B", []string{"A549", "HELA"}); len(got) != 1 {
		t.Fatalf("BarForAccession: %v", got)
	}
	if got := BarFor(r, proteome.KindGene, "ZZZZZZ", []string{"A549"}); len(got) != 0 {
		t.Fatalf("expected empty bar for unknown gene: %v", got)
	}
}

func TestHighlightPartition(t *testing.T) {
	points := Scatter(dataset(), "A549")
	normal, highlighted := Highlight(points, []string{"hi", " tie2 "})
	if len(normal)+len(highlighted) != len(points) {
		t.Fatalf("partition lost points")
	}
	var got []string
	for _, p := range highlighted {
		got = append(got, p.GeneNames)
	}
	if diff := cmp.Diff([]string{"HIGH;HI", "TIE2"}, got); diff != "" {
		t.Fatalf("highlighted (-want +got):\n%s", diff)
	}
	normal, highlighted = Highlight(points, nil)
	if len(highlighted) != 0 || len(normal) != len(points) {
		t.Fatalf("empty highlight set must keep every point normal")
	}
}

func TestSelectionTable(t *testing.T) {
	r := resolve.New(dataset())
	rows := SelectionTable(r, []string{"LOW", "TIE1", "UNKNOWNXYZ"}, []string{"A549", "HELA", "MCF7"})
	want := []proteome.SelectionRow{
		{Gene: "LOW", CellLine: "HELA", CopyNumber: 1000, Accession: "P1"},
		{Gene: "TIE1", CellLine: "A549", CopyNumber: 100, Accession: "P3"},
		{Gene: "LOW", CellLine: "A549", CopyNumber: 10, Accession: "P1"},
		{Gene: "TIE1", CellLine: "MCF7", CopyNumber: 7, Accession: "P3"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("selection (-want +got):\n%s", diff)
	}
}

func TestPaginate(t *testing.T) {
	rows := make([]int, 23)
	for i := range rows {
		rows[i] = i
	}
	if PageCount(len(rows), 0) != 3 || PageCount(0, 10) != 0 {
		t.Fatalf("unexpected page count")
	}
	if got := Paginate(rows, 3, 0); !cmp.Equal(got, []int{20, 21, 22}) {
		t.Fatalf("last page = %v", got)
	}
	if got := Paginate(rows, 0, 5); !cmp.Equal(got, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("page clamp = %v", got)
	}
	if got := Paginate(rows, 9, 10); len(got) != 0 {
		t.Fatalf("out of range page = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	s, ok := Summarize(dataset(), "A549")
	if !ok {
		t.Fatalf("expected summary")
	}
	if s.Count != 4 || s.Min != 10 || s.Max != 1000 || s.Median != 100 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.Mean-302.5) > 1e-9 {
		t.Fatalf("mean = %v", s.Mean)
	}
	if s.P90 != 1000 {
		t.Fatalf("p90 = %v", s.P90)
	}

	single, ok := Summarize(dataset(), "MCF7")
	if !ok || single.Count != 1 || single.P90 != 7 {
		t.Fatalf("single value summary: %+v %v", single, ok)
	}
	if _, ok := Summarize(dataset(), "NOPE"); ok {
		t.Fatalf("unknown cell line must report false")
	}
}
