package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"proteomecore/internal/filterlist"
	"proteomecore/pkg/proteome"
)

// ListApplication is the outcome of applying curated lists to the selection.
type ListApplication struct {
	Lists  []filterlist.FilterList `json:"lists"`
	Report proteome.MatchReport    `json:"report"`
}

// ApplyListText resolves pasted list text as a batch of kind queries.
func (s *Service) ApplyListText(kind proteome.IdentifierKind, text string) proteome.MatchReport {
	return s.ResolveManyDetailed(kind, filterlist.ParseListData(text))
}

// ApplyFilterLists fetches the lists with ids concurrently, then resolves
// their items in the order of ids. Any fetch error aborts the whole batch.
func (s *Service) ApplyFilterLists(ctx context.Context, kind proteome.IdentifierKind, ids []int) (ListApplication, error) {
	var out ListApplication
	err := s.observe(ctx, "apply_filter_lists", func(ctx context.Context) error {
		lists, err := s.fetchLists(ctx, ids)
		if err != nil {
			return err
		}
		var items []string
		for _, l := range lists {
			items = append(items, l.Items()...)
		}
		out = ListApplication{Lists: lists, Report: s.ResolveManyDetailed(kind, items)}
		return nil
	})
	if err != nil {
		s.logger.Warn("apply filter lists failed", "ids", ids, "error", err)
		return ListApplication{}, err
	}
	s.logger.Debug("applied filter lists",
		"ids", ids,
		"matched", len(out.Report.Matched),
		"unmatched", len(out.Report.Unmatched),
	)
	return out, nil
}

func (s *Service) fetchLists(ctx context.Context, ids []int) ([]filterlist.FilterList, error) {
	if s.lists == nil {
		return nil, ErrNoFilterLists
	}
	lists := make([]filterlist.FilterList, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.listConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			l, err := s.lists.Get(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch filter list %d: %w", id, err)
			}
			lists[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// FilterLists lists catalog entries matching q.
func (s *Service) FilterLists(ctx context.Context, q filterlist.Query) ([]filterlist.FilterList, error) {
	if s.lists == nil {
		return nil, ErrNoFilterLists
	}
	var out []filterlist.FilterList
	err := s.observe(ctx, "list_filter_lists", func(ctx context.Context) error {
		var err error
		out, err = s.lists.List(ctx, q)
		return err
	})
	return out, err
}

// FilterList returns one catalog entry.
func (s *Service) FilterList(ctx context.Context, id int) (filterlist.FilterList, error) {
	if s.lists == nil {
		return filterlist.FilterList{}, ErrNoFilterLists
	}
	var out filterlist.FilterList
	err := s.observe(ctx, "get_filter_list", func(ctx context.Context) error {
		var err error
		out, err = s.lists.Get(ctx, id)
		return err
	})
	return out, err
}

// FilterListCategories returns the catalog's categories.
func (s *Service) FilterListCategories(ctx context.Context) ([]string, error) {
	if s.lists == nil {
		return nil, ErrNoFilterLists
	}
	var out []string
	err := s.observe(ctx, "filter_list_categories", func(ctx context.Context) error {
		var err error
		out, err = s.lists.Categories(ctx)
		return err
	})
	return out, err
}
