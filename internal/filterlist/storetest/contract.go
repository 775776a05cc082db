// Package storetest holds the behavioral contract every filterlist.Store
// implementation is tested against.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"proteomecore/internal/filterlist"
)

// Fixture is the catalog loaded by Run.
var Fixture = []filterlist.FilterList{
	{ID: 3, Name: "Kinases", Category: "Enzymes", Data: "CDK1\nCDK2;MAPK1"},
	{ID: 1, Name: "Ribosome large", Category: "Complexes", Default: true, Data: "RPL3,RPL4"},
	{ID: 2, Name: "Ribosome small", Category: "Complexes", Data: "RPS3"},
}

// Run exercises store. The store must start empty.
func Run(t *testing.T, store filterlist.Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.Put(ctx, Fixture...); err != nil {
		t.Fatalf("put: %v", err)
	}

	all, err := store.List(ctx, filterlist.Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []int
	for _, l := range all {
		ids = append(ids, l.ID)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids); diff != "" {
		t.Fatalf("list order (-want +got):\n%s", diff)
	}

	got, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(Fixture[1], got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if _, err := store.Get(ctx, 99); !errors.Is(err, filterlist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ribo, err := store.List(ctx, filterlist.Query{Name: "ribosome", CategoryExact: "Complexes", Limit: 1})
	if err != nil || len(ribo) != 1 || ribo[0].ID != 1 {
		t.Fatalf("filtered list: %v %+v", err, ribo)
	}

	cats, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if diff := cmp.Diff([]string{"Complexes", "Enzymes"}, cats); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}

	updated := Fixture[0]
	updated.Data = "CDK4"
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got, _ := store.Get(ctx, 3); got.Data != "CDK4" {
		t.Fatalf("upsert did not replace data: %+v", got)
	}
	if all, _ := store.List(ctx, filterlist.Query{}); len(all) != 3 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(all))
	}

	if err := store.Put(ctx, filterlist.FilterList{Name: "no id"}); err == nil {
		t.Fatalf("expected error for missing id")
	}

	ok, err := store.Delete(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, 2)
	if err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}
