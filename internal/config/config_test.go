package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"proteomecore/internal/blob"
	"proteomecore/internal/core"
	"proteomecore/internal/ingest"
	"proteomecore/internal/source"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proteome.yaml")
	body := `
source:
  driver: http
  url: https://example.org/copy-numbers.csv
  delimiter: tab
  timeout: 30s
blob:
  driver: s3
  s3:
    bucket: proteome
    path_style: true
filter_lists:
  driver: memory
  concurrency: 8
resolver:
  cache_size: 0
http:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PROTEOME_HTTP_ADDR", ":9100")
	t.Setenv("PROTEOME_BLOB_S3_PREFIX", "datasets/")
	t.Setenv("PROTEOME_LOG_LEVEL", "debug")
	t.Setenv("PROTEOME_METRICS_BACKEND", "expvar")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.HTTP.Addr != ":9100" || cfg.Log.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.HTTP, cfg.Log)
	}
	if cfg.Resolver.CacheSize != 0 || cfg.FilterLists.Concurrency != 8 {
		t.Fatalf("file values not applied: %+v %+v", cfg.Resolver, cfg.FilterLists)
	}
	if cfg.Metrics.Backend != MetricsExpvar {
		t.Fatalf("metrics backend override not applied: %+v", cfg.Metrics)
	}
	if cfg.Exports.QueueSize != 16 {
		t.Fatalf("unset sections must keep defaults: %+v", cfg.Exports)
	}

	bo := cfg.BlobOptions()
	if bo.Driver != blob.DriverS3 || bo.S3.Bucket != "proteome" || bo.S3.Prefix != "datasets/" || !bo.S3.PathStyle {
		t.Fatalf("blob options: %+v", bo)
	}
	so := cfg.SourceOptions()
	if so.Driver != source.DriverHTTP || so.Client == nil || so.Client.Timeout != 30*time.Second {
		t.Fatalf("source options: %+v", so)
	}
	if cfg.Loader().Comma != '\t' {
		t.Fatalf("loader delimiter: %q", cfg.Loader().Comma)
	}
	if st := cfg.StorageOptions(); st.Driver != core.StorageMemory {
		t.Fatalf("storage options: %+v", st)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("source: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateNamesOffendingField(t *testing.T) {
	cases := map[string]func(*Config){
		"source.driver":         func(c *Config) { c.Source.Driver = "ftp" },
		"source.key":            func(c *Config) { c.Source.Key = " " },
		"source.url":            func(c *Config) { c.Source.Driver = "http" },
		"source.delimiter":      func(c *Config) { c.Source.Delimiter = "::" },
		"source.timeout":        func(c *Config) { c.Source.Timeout = "soon" },
		"blob.driver":           func(c *Config) { c.Blob.Driver = "gcs" },
		"blob.s3.bucket":        func(c *Config) { c.Blob.Driver = "s3" },
		"filter_lists.driver":   func(c *Config) { c.FilterLists.Driver = "mysql" },
		"resolver.cache_size":   func(c *Config) { c.Resolver.CacheSize = -1 },
		"http.shutdown_timeout": func(c *Config) { c.HTTP.ShutdownTimeout = "-1s" },
		"exports.queue_size":    func(c *Config) { c.Exports.QueueSize = 0 },
		"metrics.backend":       func(c *Config) { c.Metrics.Backend = "statsd" },
		"log.level":             func(c *Config) { c.Log.Level = "chatty" },
	}
	for field, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.HasPrefix(err.Error(), field+":") {
			t.Errorf("%s: got %v", field, err)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{
		"":     ',',
		",":    ',',
		";":    ';',
		"tab":  '\t',
		"\t":   '\t',
		"|":    '|',
		"AUTO": ingest.DetectDelimiterSentinel,
	}
	for in, want := range cases {
		got, err := parseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("parseDelimiter(%q) = %q, %v", in, got, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Source.Key = "tables/latest.csv"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Source.Key != "tables/latest.csv" {
		t.Fatalf("saved key lost: %+v", got.Source)
	}
}
