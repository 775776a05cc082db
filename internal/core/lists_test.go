package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"proteomecore/internal/filterlist"
	"proteomecore/internal/infra/persistence/memory"
	"proteomecore/pkg/proteome"
)

// countingCatalog tracks peak concurrent Get calls.
type countingCatalog struct {
	filterlist.Catalog
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingCatalog) Get(ctx context.Context, id int) (filterlist.FilterList, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return c.Catalog.Get(ctx, id)
}

func seededCatalog(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.Put(context.Background(),
		filterlist.FilterList{ID: 1, Name: "Glycolysis", Category: "Pathways", Data: "GAPDH\nPKM"},
		filterlist.FilterList{ID: 2, Name: "Cytoskeleton", Category: "Structure", Data: "ACTB;TUBB"},
		filterlist.FilterList{ID: 3, Name: "Tumor suppressors", Category: "Cancer", Data: "TP53,gapdh"},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestApplyFilterListsResolvesInIDOrder(t *testing.T) {
	cat := &countingCatalog{Catalog: seededCatalog(t)}
	metrics := &captureMetricsRecorder{}
	svc := loadedService(t, WithFilterLists(cat), WithListConcurrency(2), WithMetricsRecorder(metrics))

	res, err := svc.ApplyFilterLists(context.Background(), proteome.KindGene, []int{3, 2, 1})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	var names []string
	for _, l := range res.Lists {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"Tumor suppressors", "Cytoskeleton", "Glycolysis"}, names); diff != "" {
		t.Fatalf("list order (-want +got):\n%s", diff)
	}
	want := proteome.MatchReport{
		Matched:   []string{"TP53", "GAPDH", "ACTB"},
		Unmatched: []string{"TUBB", "PKM"},
		Resolutions: []proteome.Resolution{
			{Query: "TP53", Symbol: "TP53"},
			{Query: "gapdh", Symbol: "GAPDH"},
			{Query: "ACTB", Symbol: "ACTB"},
			{Query: "GAPDH", Symbol: "GAPDH"},
		},
	}
	if diff := cmp.Diff(want, res.Report); diff != "" {
		t.Fatalf("report (-want +got):\n%s", diff)
	}
	if cat.peak.Load() > 2 {
		t.Fatalf("concurrency limit exceeded: %d", cat.peak.Load())
	}
	if !metrics.has("apply_filter_lists", true) {
		t.Fatalf("expected apply metric")
	}
}

func TestApplyFilterListsFailsOnMissingList(t *testing.T) {
	svc := loadedService(t, WithFilterLists(seededCatalog(t)))
	_, err := svc.ApplyFilterLists(context.Background(), proteome.KindGene, []int{1, 99})
	if !errors.Is(err, filterlist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterListOperationsWithoutCatalog(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()
	if _, err := svc.ApplyFilterLists(ctx, proteome.KindGene, []int{1}); !errors.Is(err, ErrNoFilterLists) {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.FilterLists(ctx, filterlist.Query{}); !errors.Is(err, ErrNoFilterLists) {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.FilterList(ctx, 1); !errors.Is(err, ErrNoFilterLists) {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.FilterListCategories(ctx); !errors.Is(err, ErrNoFilterLists) {
		t.Fatalf("categories: %v", err)
	}
}

func TestFilterListPassthrough(t *testing.T) {
	svc := NewService(nil, WithFilterLists(seededCatalog(t)))
	ctx := context.Background()
	lists, err := svc.FilterLists(ctx, filterlist.Query{Category: "path"})
	if err != nil || len(lists) != 1 || lists[0].ID != 1 {
		t.Fatalf("lists: %+v %v", lists, err)
	}
	l, err := svc.FilterList(ctx, 2)
	if err != nil || l.Name != "Cytoskeleton" {
		t.Fatalf("get: %+v %v", l, err)
	}
	cats, err := svc.FilterListCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if diff := cmp.Diff([]string{"Cancer", "Pathways", "Structure"}, cats); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
}
