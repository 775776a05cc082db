package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
		"s3":     NewMockS3ForTests(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte("T: Protein.Group,T: Gene Names\n")
			info, err := store.Put(ctx, "datasets/table.csv", bytes.NewReader(payload), PutOptions{ContentType: "text/csv"})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Key != "datasets/table.csv" || info.Size != int64(len(payload)) {
				t.Fatalf("unexpected info: %+v", info)
			}

			_, err = store.Put(ctx, "datasets/table.csv", bytes.NewReader(payload), PutOptions{})
			if !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}

			got, rc, err := store.Get(ctx, "datasets/table.csv")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, _ := io.ReadAll(rc)
			_ = rc.Close()
			if !bytes.Equal(body, payload) {
				t.Fatalf("body mismatch: %q", body)
			}
			if got.ContentType != "text/csv" {
				t.Fatalf("content type = %q", got.ContentType)
			}

			if _, err := store.Put(ctx, "exports/1/scatter.csv", bytes.NewReader([]byte("x")), PutOptions{}); err != nil {
				t.Fatalf("put export: %v", err)
			}
			list, err := store.List(ctx, "exports/")
			if err != nil || len(list) != 1 || list[0].Key != "exports/1/scatter.csv" {
				t.Fatalf("list: %v %+v", err, list)
			}

			if _, err := store.Head(ctx, "missing.csv"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound from head, got %v", err)
			}
			if _, _, err := store.Get(ctx, "missing.csv"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound from get, got %v", err)
			}

			ok, err := store.Delete(ctx, "datasets/table.csv")
			if err != nil || !ok {
				t.Fatalf("delete: %v %v", ok, err)
			}
			ok, err = store.Delete(ctx, "datasets/table.csv")
			if err != nil || ok {
				t.Fatalf("second delete: %v %v", ok, err)
			}
		})
	}
}

func TestFilesystemRejectsEscapingKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "/abs", "a/../../b", "x.meta"} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader(nil), PutOptions{}); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory: %v", err)
	}
	fsStore, err := Open(ctx, Options{FSRoot: t.TempDir()})
	if err != nil || fsStore.Driver() != DriverFilesystem {
		t.Fatalf("default driver: %v", err)
	}
	if _, err := Open(ctx, Options{Driver: DriverS3}); err == nil {
		t.Fatalf("expected bucket validation error")
	}
	if _, err := Open(ctx, Options{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("PROTEOME_BLOB_DRIVER", "MEMORY")
	t.Setenv("PROTEOME_BLOB_S3_BUCKET", "tables")
	t.Setenv("PROTEOME_BLOB_S3_PATH_STYLE", "true")
	opts := OptionsFromEnv()
	if opts.Driver != DriverMemory || opts.S3.Bucket != "tables" || !opts.S3.PathStyle {
		t.Fatalf("unexpected options: %+v", opts)
	}
	store, err := OpenFromEnv(context.Background())
	if err != nil || store.Driver() != DriverMemory {
		t.Fatalf("OpenFromEnv: %v", err)
	}
}
