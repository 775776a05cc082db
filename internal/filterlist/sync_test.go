package filterlist_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"proteomecore/internal/filterlist"
	"proteomecore/internal/infra/persistence/memory"
)

type fakeRemote struct {
	lists []filterlist.FilterList
	err   error
}

func (f fakeRemote) List(_ context.Context, q filterlist.Query) ([]filterlist.FilterList, error) {
	return q.Apply(f.lists), f.err
}

func (f fakeRemote) Get(_ context.Context, id int) (filterlist.FilterList, error) {
	for _, l := range f.lists {
		if l.ID == id {
			return l, nil
		}
	}
	return filterlist.FilterList{}, filterlist.NotFound(id)
}

func (f fakeRemote) Categories(context.Context) ([]string, error) {
	return filterlist.CategoriesOf(f.lists), nil
}

func TestSyncMirrorsRemote(t *testing.T) {
	ctx := context.Background()
	remote := fakeRemote{lists: []filterlist.FilterList{
		{ID: 1, Name: "A", Category: "X", Data: "G1"},
		{ID: 2, Name: "B", Category: "Y", Data: "G2"},
	}}
	store := memory.NewStore()
	res, err := filterlist.Sync(ctx, remote, store, filterlist.Query{CategoryExact: "X"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Fetched != 1 || res.Stored != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := store.Get(ctx, 1); err != nil {
		t.Fatalf("list 1 not mirrored: %v", err)
	}
	if _, err := store.Get(ctx, 2); !errors.Is(err, filterlist.ErrNotFound) {
		t.Fatalf("list 2 should not be mirrored")
	}
}

func TestSyncPropagatesRemoteError(t *testing.T) {
	boom := errors.New("offline")
	_, err := filterlist.Sync(context.Background(), fakeRemote{err: boom}, memory.NewStore(), filterlist.Query{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped remote error, got %v", err)
	}
}

const seedCSV = `id,name,category,default,data
1,Ribosome,Complexes,true,"RPL3
RPL4;RPS3"
2,Kinases,Enzymes,false,"CDK1,CDK2"
`

func TestLoadSeedCSV(t *testing.T) {
	lists, err := filterlist.LoadSeedCSV(strings.NewReader(seedCSV))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	if !lists[0].Default || lists[1].Default {
		t.Fatalf("default flags not decoded: %+v", lists)
	}
	if got := lists[0].Items(); len(got) != 3 || got[2] != "RPS3" {
		t.Fatalf("multi-line data not preserved: %v", got)
	}

	if _, err := filterlist.LoadSeedCSV(strings.NewReader("id,name\n0,zero\n")); err == nil {
		t.Fatalf("expected error for non-positive id")
	}
}

func TestSeedStoresLists(t *testing.T) {
	store := memory.NewStore()
	n, err := filterlist.Seed(context.Background(), store, strings.NewReader(seedCSV))
	if err != nil || n != 2 {
		t.Fatalf("seed: %d %v", n, err)
	}
	cats, _ := store.Categories(context.Background())
	if len(cats) != 2 {
		t.Fatalf("categories = %v", cats)
	}
}
