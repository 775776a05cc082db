// Package source fetches the raw copy-number table. A Source yields the
// table bytes as a stream; parsing belongs to the ingest package.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"proteomecore/internal/blob"
)

// Source opens the dataset table for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Describe names the source for logs and status output.
	Describe() string
}

// Blob reads the table from an object store key.
type Blob struct {
	Store blob.Store
	Key   string
}

// Open implements Source.
func (b Blob) Open(ctx context.Context) (io.ReadCloser, error) {
	if b.Store == nil {
		return nil, fmt.Errorf("blob source: no store configured")
	}
	_, rc, err := b.Store.Get(ctx, b.Key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.Describe(), err)
	}
	return rc, nil
}

// Describe implements Source.
func (b Blob) Describe() string {
	driver := "blob"
	if b.Store != nil {
		driver = string(b.Store.Driver())
	}
	return driver + "://" + b.Key
}

// StatusError reports a non-2xx response from an HTTP source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTP downloads the table with a GET request.
type HTTP struct {
	URL    string
	Client *http.Client
}

// DefaultHTTPTimeout bounds a dataset download when no client is supplied.
const DefaultHTTPTimeout = 2 * time.Minute

// Open implements Source.
func (h HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", h.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: h.URL, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// Describe implements Source.
func (h HTTP) Describe() string { return h.URL }

// Driver names a source kind in configuration.
type Driver string

const (
	DriverBlob Driver = "blob"
	DriverHTTP Driver = "http"
)

// Options configures New.
type Options struct {
	Driver Driver
	Key    string
	URL    string
	Client *http.Client
}

// New builds the Source described by opts. Blob sources need store.
func New(opts Options, store blob.Store) (Source, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case "", DriverBlob:
		if strings.TrimSpace(opts.Key) == "" {
			return nil, fmt.Errorf("blob source requires a key")
		}
		if store == nil {
			return nil, fmt.Errorf("blob source requires a store")
		}
		return Blob{Store: store, Key: opts.Key}, nil
	case DriverHTTP:
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("http source requires a url")
		}
		return HTTP{URL: opts.URL, Client: opts.Client}, nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", opts.Driver)
	}
}
