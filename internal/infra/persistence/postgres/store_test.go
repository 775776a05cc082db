package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"proteomecore/internal/filterlist/storetest"
	"proteomecore/internal/infra/persistence/postgres/testutil"
)

func TestStoreContractOnStub(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %q", driverName)
		}
		if dsn != DefaultDSN {
			t.Fatalf("expected default dsn, got %q", dsn)
		}
		return db, nil
	})
	defer restore()

	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS filter_lists") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected schema DDL, got %v", conn.Execs)
	}
	storetest.Run(t, store)
	if rows := conn.Rows("filter_lists"); len(rows) != 2 {
		t.Fatalf("expected two stored rows after delete, got %d", len(rows))
	}
}

func TestNewStoreFailsWhenPingFails(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestPutRollsBackOnExecFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailTables = map[string]bool{"filter_lists": true}
	if err := store.Put(context.Background(), storetest.Fixture...); err == nil {
		t.Fatalf("expected upsert failure")
	}
}
