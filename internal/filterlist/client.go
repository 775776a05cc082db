package filterlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public curated-list backend.
	DefaultBaseURL = "https://curtain-backend.omics.quest"
	// DefaultLimit is sent when a query sets no limit, so the backend returns
	// the whole catalog in one page.
	DefaultLimit = 100000000
)

// StatusError reports a non-2xx response from the remote catalog.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ListResponse is the paginated envelope of the list endpoint.
type ListResponse struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []FilterList `json:"results"`
}

// Client reads the remote catalog. It implements Catalog.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A trailing slash is removed; an
// empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// List fetches lists matching q.
func (c *Client) List(ctx context.Context, q Query) ([]FilterList, error) {
	params := url.Values{}
	if q.Name != "" {
		params.Set("name", q.Name)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.NameExact != "" {
		params.Set("name_exact", q.NameExact)
	}
	if q.CategoryExact != "" {
		params.Set("category_exact", q.CategoryExact)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	var resp ListResponse
	if err := c.getJSON(ctx, "/data_filter_list/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []FilterList{}, nil
	}
	return resp.Results, nil
}

// Get fetches one list. A 404 maps to ErrNotFound.
func (c *Client) Get(ctx context.Context, id int) (FilterList, error) {
	var out FilterList
	err := c.getJSON(ctx, "/data_filter_list/"+strconv.Itoa(id)+"/", &out)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return FilterList{}, NotFound(id)
	}
	if err != nil {
		return FilterList{}, err
	}
	return out, nil
}

// Categories fetches every category name known to the backend.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.getJSON(ctx, "/data_filter_list/get_all_category/", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	target := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}
