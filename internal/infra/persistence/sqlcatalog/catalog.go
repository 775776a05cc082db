// Package sqlcatalog implements filterlist.Store over database/sql. The
// sqlite and postgres packages supply the driver, the placeholder style and
// the DDL; the statements themselves are shared.
package sqlcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"proteomecore/internal/filterlist"
)

// Table holds the curated lists.
const Table = "filter_lists"

// Dialect captures the per-database differences.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	DDL         []string
}

// Catalog is a filterlist.Store backed by one table.
type Catalog struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

var _ filterlist.Store = (*Catalog)(nil)

// Open applies the dialect DDL and returns the catalog.
func Open(ctx context.Context, db *sql.DB, d Dialect) (*Catalog, error) {
	for _, stmt := range d.DDL {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: apply schema: %w", d.Name, err)
		}
	}
	return &Catalog{db: db, dialect: d}, nil
}

// DB exposes the handle for tests.
func (c *Catalog) DB() *sql.DB { return c.db }

// Close closes the database handle.
func (c *Catalog) Close() error { return c.db.Close() }

const columns = "id, name, category, is_default, data"

func (c *Catalog) selectAll(ctx context.Context, where string, args ...any) ([]filterlist.FilterList, error) {
	query := "SELECT " + columns + " FROM " + Table + where + " ORDER BY id"
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: select lists: %w", c.dialect.Name, err)
	}
	defer func() { _ = rows.Close() }()
	var out []filterlist.FilterList
	for rows.Next() {
		var (
			l     filterlist.FilterList
			id    int64
			isDef bool
		)
		if err := rows.Scan(&id, &l.Name, &l.Category, &isDef, &l.Data); err != nil {
			return nil, fmt.Errorf("%s: scan list: %w", c.dialect.Name, err)
		}
		l.ID = int(id)
		l.Default = isDef
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate lists: %w", c.dialect.Name, err)
	}
	filterlist.SortByID(out)
	return out, nil
}

// List returns the stored lists matching q in ID order. Filtering happens
// after the scan so both dialects share one case-insensitive rule.
func (c *Catalog) List(ctx context.Context, q filterlist.Query) ([]filterlist.FilterList, error) {
	all, err := c.selectAll(ctx, "")
	if err != nil {
		return nil, err
	}
	return q.Apply(all), nil
}

// Get returns the list with id.
func (c *Catalog) Get(ctx context.Context, id int) (filterlist.FilterList, error) {
	rows, err := c.selectAll(ctx, " WHERE id = "+c.dialect.Placeholder(1), id)
	if err != nil {
		return filterlist.FilterList{}, err
	}
	for _, l := range rows {
		if l.ID == id {
			return l, nil
		}
	}
	return filterlist.FilterList{}, filterlist.NotFound(id)
}

// Categories returns the distinct categories of stored lists.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	all, err := c.selectAll(ctx, "")
	if err != nil {
		return nil, err
	}
	return filterlist.CategoriesOf(all), nil
}

func (c *Catalog) upsertStatement() string {
	ph := make([]string, 6)
	for i := range ph {
		ph[i] = c.dialect.Placeholder(i + 1)
	}
	return "INSERT INTO " + Table + " (id, name, category, is_default, data, updated_at) VALUES (" +
		strings.Join(ph, ", ") + ") ON CONFLICT (id) DO UPDATE SET name = excluded.name, category = excluded.category, " +
		"is_default = excluded.is_default, data = excluded.data, updated_at = excluded.updated_at"
}

// Put upserts lists in one transaction.
func (c *Catalog) Put(ctx context.Context, lists ...filterlist.FilterList) (retErr error) {
	if len(lists) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", c.dialect.Name, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	stmt := c.upsertStatement()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, l := range lists {
		if l.ID <= 0 {
			return fmt.Errorf("%s: list %q has no id", c.dialect.Name, l.Name)
		}
		if _, err := tx.ExecContext(ctx, stmt, int64(l.ID), l.Name, l.Category, l.Default, l.Data, now); err != nil {
			return fmt.Errorf("%s: upsert list %d: %w", c.dialect.Name, l.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", c.dialect.Name, err)
	}
	return nil
}

// Delete removes the list with id.
func (c *Catalog) Delete(ctx context.Context, id int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.db.ExecContext(ctx, "DELETE FROM "+Table+" WHERE id = "+c.dialect.Placeholder(1), int64(id))
	if err != nil {
		return false, fmt.Errorf("%s: delete list %d: %w", c.dialect.Name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
