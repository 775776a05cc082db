package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"proteomecore/internal/filterlist"
	"proteomecore/internal/filterlist/storetest"
)

func TestStoreContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lists", "catalog.db")
	store, err := NewStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if store.Path() != path {
		t.Fatalf("path = %q", store.Path())
	}
	storetest.Run(t, store)
}

func TestStoreReopenKeepsLists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Put(ctx, filterlist.FilterList{ID: 7, Name: "Heat shock", Data: "HSPA1A;HSP90AA1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = store.Close()

	reopened, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, 7)
	if err != nil || got.Name != "Heat shock" {
		t.Fatalf("get after reopen: %+v %v", got, err)
	}
}
