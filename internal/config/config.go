// Package config loads explorer settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"proteomecore/internal/blob"
	"proteomecore/internal/core"
	"proteomecore/internal/filterlist"
	"proteomecore/internal/ingest"
	"proteomecore/internal/logging"
	"proteomecore/internal/resolve"
	"proteomecore/internal/source"
)

// Config is the full explorer configuration.
type Config struct {
	Source      SourceConfig     `yaml:"source"`
	Blob        BlobConfig       `yaml:"blob"`
	FilterLists FilterListConfig `yaml:"filter_lists"`
	Resolver    ResolverConfig   `yaml:"resolver"`
	HTTP        HTTPConfig       `yaml:"http"`
	Exports     ExportConfig     `yaml:"exports"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Log         logging.Config   `yaml:"log"`
}

// SourceConfig locates the copy-number table.
type SourceConfig struct {
	Driver string `yaml:"driver"` // blob|http
	Key    string `yaml:"key"`
	URL    string `yaml:"url"`
	// Delimiter is ",", ";", "tab" or "auto".
	Delimiter string `yaml:"delimiter"`
	Timeout   string `yaml:"timeout"`
}

// BlobConfig selects the object store.
type BlobConfig struct {
	Driver string   `yaml:"driver"` // fs|s3|memory
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// S3Config mirrors the S3 store settings. Credentials come from the AWS
// chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// FilterListConfig configures the curated list catalog.
type FilterListConfig struct {
	Driver      string `yaml:"driver"` // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RemoteURL   string `yaml:"remote_url"`
	Concurrency int    `yaml:"concurrency"`
}

// ResolverConfig tunes identifier resolution.
type ResolverConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// HTTPConfig configures the query server.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ExportConfig configures the export worker.
type ExportConfig struct {
	Prefix    string `yaml:"prefix"`
	QueueSize int    `yaml:"queue_size"`
}

// Metrics backends for MetricsConfig.Backend.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
)

// MetricsConfig selects the operation metrics recorder served on /metrics.
type MetricsConfig struct {
	Backend string `yaml:"backend"` // prometheus|expvar
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:    string(source.DriverBlob),
			Key:       "proteome.csv",
			Delimiter: ",",
			Timeout:   "2m",
		},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FSRoot: "blobdata",
		},
		FilterLists: FilterListConfig{
			Driver:      string(core.StorageSQLite),
			SQLitePath:  "proteome.db",
			RemoteURL:   filterlist.DefaultBaseURL,
			Concurrency: core.DefaultListConcurrency,
		},
		Resolver: ResolverConfig{CacheSize: resolve.DefaultCacheSize},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Exports: ExportConfig{Prefix: "exports", QueueSize: 16},
		Metrics: MetricsConfig{Backend: MetricsPrometheus},
		Log:     logging.Config{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file or empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setString("PROTEOME_SOURCE_DRIVER", &c.Source.Driver)
	setString("PROTEOME_SOURCE_KEY", &c.Source.Key)
	setString("PROTEOME_SOURCE_URL", &c.Source.URL)
	setString("PROTEOME_SOURCE_DELIMITER", &c.Source.Delimiter)

	setString("PROTEOME_BLOB_DRIVER", &c.Blob.Driver)
	setString("PROTEOME_BLOB_FS_ROOT", &c.Blob.FSRoot)
	setString("PROTEOME_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	setString("PROTEOME_BLOB_S3_REGION", &c.Blob.S3.Region)
	setString("PROTEOME_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	setString("PROTEOME_BLOB_S3_PREFIX", &c.Blob.S3.Prefix)
	if v := os.Getenv("PROTEOME_BLOB_S3_PATH_STYLE"); v != "" {
		c.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}

	setString("PROTEOME_FILTERLIST_DRIVER", &c.FilterLists.Driver)
	setString("PROTEOME_SQLITE_PATH", &c.FilterLists.SQLitePath)
	setString("PROTEOME_POSTGRES_DSN", &c.FilterLists.PostgresDSN)
	setString("PROTEOME_FILTERLIST_URL", &c.FilterLists.RemoteURL)

	setString("PROTEOME_HTTP_ADDR", &c.HTTP.Addr)
	setString("PROTEOME_METRICS_BACKEND", &c.Metrics.Backend)
	setString("PROTEOME_LOG_LEVEL", &c.Log.Level)
	setString("PROTEOME_LOG_FORMAT", &c.Log.Format)
}

var (
	validSourceDrivers     = []string{string(source.DriverBlob), string(source.DriverHTTP)}
	validBlobDrivers       = []string{string(blob.DriverFilesystem), string(blob.DriverS3), string(blob.DriverMemory)}
	validFilterListDrivers = []string{string(core.StorageMemory), string(core.StorageSQLite), string(core.StoragePostgres)}
	validMetricsBackends   = []string{MetricsPrometheus, MetricsExpvar}
)

// Validate checks drivers and the fields they require.
func (c *Config) Validate() error {
	if !slices.Contains(validSourceDrivers, strings.ToLower(c.Source.Driver)) {
		return fmt.Errorf("source.driver: invalid %q (valid: %v)", c.Source.Driver, validSourceDrivers)
	}
	switch strings.ToLower(c.Source.Driver) {
	case string(source.DriverBlob):
		if strings.TrimSpace(c.Source.Key) == "" {
			return fmt.Errorf("source.key: required for blob sources")
		}
	case string(source.DriverHTTP):
		if strings.TrimSpace(c.Source.URL) == "" {
			return fmt.Errorf("source.url: required for http sources")
		}
	}
	if _, err := parseDelimiter(c.Source.Delimiter); err != nil {
		return fmt.Errorf("source.delimiter: %w", err)
	}
	if _, err := parseDuration(c.Source.Timeout, source.DefaultHTTPTimeout); err != nil {
		return fmt.Errorf("source.timeout: %w", err)
	}
	if !slices.Contains(validBlobDrivers, strings.ToLower(c.Blob.Driver)) {
		return fmt.Errorf("blob.driver: invalid %q (valid: %v)", c.Blob.Driver, validBlobDrivers)
	}
	if strings.EqualFold(c.Blob.Driver, string(blob.DriverS3)) && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("blob.s3.bucket: required for the s3 driver")
	}
	if !slices.Contains(validFilterListDrivers, strings.ToLower(c.FilterLists.Driver)) {
		return fmt.Errorf("filter_lists.driver: invalid %q (valid: %v)", c.FilterLists.Driver, validFilterListDrivers)
	}
	if c.FilterLists.Concurrency < 0 {
		return fmt.Errorf("filter_lists.concurrency: must not be negative")
	}
	if c.Resolver.CacheSize < 0 {
		return fmt.Errorf("resolver.cache_size: must not be negative")
	}
	if _, err := parseDuration(c.HTTP.ShutdownTimeout, 0); err != nil {
		return fmt.Errorf("http.shutdown_timeout: %w", err)
	}
	if c.Exports.QueueSize <= 0 {
		return fmt.Errorf("exports.queue_size: must be positive")
	}
	if !slices.Contains(validMetricsBackends, strings.ToLower(c.Metrics.Backend)) {
		return fmt.Errorf("metrics.backend: invalid %q (valid: %v)", c.Metrics.Backend, validMetricsBackends)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// BlobOptions converts the blob section for blob.Open.
func (c *Config) BlobOptions() blob.Options {
	return blob.Options{
		Driver: blob.Driver(strings.ToLower(c.Blob.Driver)),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:    c.Blob.S3.Bucket,
			Region:    c.Blob.S3.Region,
			Endpoint:  c.Blob.S3.Endpoint,
			Prefix:    c.Blob.S3.Prefix,
			PathStyle: c.Blob.S3.PathStyle,
		},
	}
}

// SourceOptions converts the source section for source.New.
func (c *Config) SourceOptions() source.Options {
	opts := source.Options{
		Driver: source.Driver(strings.ToLower(c.Source.Driver)),
		Key:    c.Source.Key,
		URL:    c.Source.URL,
	}
	if opts.Driver == source.DriverHTTP {
		timeout, _ := parseDuration(c.Source.Timeout, source.DefaultHTTPTimeout)
		opts.Client = &http.Client{Timeout: timeout}
	}
	return opts
}

// Loader returns the table parser settings.
func (c *Config) Loader() ingest.Loader {
	comma, _ := parseDelimiter(c.Source.Delimiter)
	return ingest.Loader{Comma: comma}
}

// StorageOptions converts the filter list section for
// core.OpenFilterListStore.
func (c *Config) StorageOptions() core.StorageOptions {
	return core.StorageOptions{
		Driver:      core.StorageDriver(strings.ToLower(c.FilterLists.Driver)),
		SQLitePath:  c.FilterLists.SQLitePath,
		PostgresDSN: c.FilterLists.PostgresDSN,
	}
}

// ShutdownTimeout returns the HTTP drain period.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration(c.HTTP.ShutdownTimeout, 10*time.Second)
	return d
}

func parseDelimiter(raw string) (rune, error) {
	if raw == "\t" {
		return '\t', nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ",":
		return ',', nil
	case ";":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	case "auto":
		return ingest.DetectDelimiterSentinel, nil
	}
	if r := []rune(raw); len(r) == 1 {
		return r[0], nil
	}
	return 0, fmt.Errorf("unsupported delimiter %s", strconv.Quote(raw))
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, err
	}
	if d < 0 {
		return fallback, fmt.Errorf("negative duration %s", raw)
	}
	return d, nil
}
