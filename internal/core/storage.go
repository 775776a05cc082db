package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"proteomecore/internal/filterlist"
	"proteomecore/internal/infra/persistence/memory"
	"proteomecore/internal/infra/persistence/postgres"
	"proteomecore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a filter list store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageOptions selects and configures the filter list store.
type StorageOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageOptionsFromEnv reads store selection from the environment:
//
//	PROTEOME_FILTERLIST_DRIVER: memory|sqlite|postgres (default sqlite)
//	PROTEOME_SQLITE_PATH: path to sqlite file (default ./proteome.db)
//	PROTEOME_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageOptionsFromEnv() StorageOptions {
	return StorageOptions{
		Driver:      StorageDriver(strings.ToLower(os.Getenv("PROTEOME_FILTERLIST_DRIVER"))),
		SQLitePath:  os.Getenv("PROTEOME_SQLITE_PATH"),
		PostgresDSN: os.Getenv("PROTEOME_POSTGRES_DSN"),
	}
}

// OpenFilterListStore opens the store described by opts. Defaults to sqlite.
func OpenFilterListStore(ctx context.Context, opts StorageOptions) (filterlist.Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
