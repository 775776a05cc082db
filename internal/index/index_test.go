package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"proteomecore/pkg/proteome"
)

func TestIndexKeepsFirstInsertionPosition(t *testing.T) {
	var ix Index
	ix.Set("A", "1")
	ix.Set("B", "2")
	ix.Set("A", "3")

	if diff := cmp.Diff([]string{"A", "B"}, ix.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if v, _ := ix.Get("A"); v != "3" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
	if ix.Len() != 2 {
		t.Fatalf("len = %d", ix.Len())
	}
}

func TestIndexAllStopsEarly(t *testing.T) {
	var ix Index
	for _, k := range []string{"X", "Y", "Z"} {
		ix.Set(k, k)
	}
	var seen []string
	for k := range ix.All() {
		seen = append(seen, k)
		if k == "Y" {
			break
		}
	}
	if diff := cmp.Diff([]string{"X", "Y"}, seen); diff != "" {
		t.Fatalf("iteration (-want +got):\n%s", diff)
	}
}

func TestBuildAliasIndex(t *testing.T) {
	records := []proteome.ProteinRecord{
		{GeneNames: "GAPDH; G3PD", ProteinGroup: "P04406"},
		{GeneNames: "tp53", ProteinGroup: "P04637;P04637-2"},
	}
	ix := BuildAliasIndex(records)
	if diff := cmp.Diff([]string{"GAPDH", "G3PD", "TP53"}, ix.Keys()); diff != "" {
		t.Fatalf("alias keys (-want +got):\n%s", diff)
	}
	if v, ok := ix.Get("G3PD"); !ok || v != "GAPDH; G3PD" {
		t.Fatalf("G3PD -> %q %v", v, ok)
	}
	if _, ok := ix.Get("tp53"); ok {
		t.Fatalf("keys must be stored uppercased")
	}
}

func TestBuildAccessionIndexMapsToGeneNames(t *testing.T) {
	records := []proteome.ProteinRecord{
		{GeneNames: "TP53", ProteinGroup: "P04637;p04637-2"},
	}
	ix := BuildAccessionIndex(records)
	if v, ok := ix.Get("P04637-2"); !ok || v != "TP53" {
		t.Fatalf("P04637-2 -> %q %v", v, ok)
	}
}

// Duplicate tokens across records overwrite earlier entries. This drops the
// earlier record from exact lookups for that token; it is the current
// behavior and is kept deliberately visible here.
func TestDuplicateTokenLastRecordWins(t *testing.T) {
	records := []proteome.ProteinRecord{
		{GeneNames: "HIST1H4A;H4", ProteinGroup: "P62805"},
		{GeneNames: "HIST1H4B;H4", ProteinGroup: "P62805"},
	}
	alias := BuildAliasIndex(records)
	if v, _ := alias.Get("H4"); v != "HIST1H4B;H4" {
		t.Fatalf("expected last record to own H4, got %q", v)
	}
	if alias.Keys()[1] != "H4" {
		t.Fatalf("overwritten key must keep its first position: %v", alias.Keys())
	}
	acc := BuildAccessionIndex(records)
	if v, _ := acc.Get("P62805"); v != "HIST1H4B;H4" {
		t.Fatalf("expected last record to own P62805, got %q", v)
	}
}
