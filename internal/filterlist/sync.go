package filterlist

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// SyncResult summarizes a mirror pass.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
}

// Sync copies the lists matching q from remote into store, replacing local
// lists with the same ID.
func Sync(ctx context.Context, remote Catalog, store Store, q Query) (SyncResult, error) {
	lists, err := remote.List(ctx, q)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch remote lists: %w", err)
	}
	res := SyncResult{Fetched: len(lists)}
	if len(lists) == 0 {
		return res, nil
	}
	if err := store.Put(ctx, lists...); err != nil {
		return res, fmt.Errorf("store lists: %w", err)
	}
	res.Stored = len(lists)
	return res, nil
}

// LoadSeedCSV decodes lists from a CSV with the header
// id,name,category,default,data. Column order is free.
func LoadSeedCSV(r io.Reader) ([]FilterList, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var rows []*FilterList
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode seed csv: %w", err)
	}
	out := make([]FilterList, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		if row.ID <= 0 {
			return nil, fmt.Errorf("seed row %d: id must be positive", i+1)
		}
		out = append(out, *row)
	}
	return out, nil
}

// Seed decodes r and stores the lists. It returns the number stored.
func Seed(ctx context.Context, store Store, r io.Reader) (int, error) {
	lists, err := LoadSeedCSV(r)
	if err != nil {
		return 0, err
	}
	if len(lists) == 0 {
		return 0, nil
	}
	if err := store.Put(ctx, lists...); err != nil {
		return 0, err
	}
	return len(lists), nil
}
