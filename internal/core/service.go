// Package core hosts the explorer service: it loads one dataset snapshot per
// process, guards concurrent loads and answers every query the presentation
// layer needs from that snapshot.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"proteomecore/internal/filterlist"
	"proteomecore/internal/ingest"
	"proteomecore/internal/resolve"
	"proteomecore/internal/source"
	"proteomecore/pkg/proteome"
)

// LoadState is the lifecycle of the dataset snapshot.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
	StateFailed  LoadState = "failed"
)

var (
	// ErrLoadFailed wraps every dataset load failure.
	ErrLoadFailed = errors.New("dataset load failed")
	// ErrNoSource is returned by Load when the service has no source.
	ErrNoSource = errors.New("no dataset source configured")
	// ErrNoFilterLists is returned by list operations without a catalog.
	ErrNoFilterLists = errors.New("no filter list catalog configured")
)

// DefaultListConcurrency bounds concurrent filter list fetches.
const DefaultListConcurrency = 4

// Snapshot is one immutable loaded dataset with its resolver.
type Snapshot struct {
	Dataset  proteome.Dataset
	Resolver *resolve.Resolver
	Stats    ingest.Stats
	Source   string
	LoadedAt time.Time

	genes      []string
	accessions []string
}

func newSnapshot(ds proteome.Dataset, cacheSize int) *Snapshot {
	return &Snapshot{
		Dataset:    ds,
		Resolver:   resolve.New(ds, resolve.WithCacheSize(cacheSize)),
		genes:      ds.GeneList(),
		accessions: ds.AccessionList(),
	}
}

// Status reports the load state for status endpoints.
type Status struct {
	State     LoadState    `json:"state"`
	Error     string       `json:"error,omitempty"`
	Records   int          `json:"records"`
	CellLines int          `json:"cell_lines"`
	Source    string       `json:"source,omitempty"`
	LoadedAt  *time.Time   `json:"loaded_at,omitempty"`
	Stats     ingest.Stats `json:"stats"`
}

// Service owns the dataset snapshot and the query surface over it.
type Service struct {
	src             source.Source
	loader          ingest.Loader
	lists           filterlist.Catalog
	listConcurrency int
	cacheSize       int

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock

	snap  atomic.Pointer[Snapshot]
	empty *Snapshot
	group singleflight.Group

	mu      sync.Mutex
	state   LoadState
	lastErr string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLoader overrides the table parser settings.
func WithLoader(l ingest.Loader) Option {
	return func(s *Service) { s.loader = l }
}

// WithFilterLists sets the catalog used by the batch selection operations.
func WithFilterLists(c filterlist.Catalog) Option {
	return func(s *Service) { s.lists = c }
}

// WithListConcurrency bounds concurrent list fetches. n <= 0 keeps the
// default.
func WithListConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listConcurrency = n
		}
	}
}

// WithResolverCacheSize sizes the resolver's per-query cache; 0 disables it.
func WithResolverCacheSize(n int) Option {
	return func(s *Service) { s.cacheSize = n }
}

// NewService returns an idle service reading its dataset from src.
func NewService(src source.Source, opts ...Option) *Service {
	s := &Service{
		src:             src,
		listConcurrency: DefaultListConcurrency,
		cacheSize:       resolve.DefaultCacheSize,
		logger:          noopLogger{},
		metrics:         noopMetrics{},
		tracer:          noopTracer{},
		clock:           ClockFunc(nil),
		state:           StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.empty = newSnapshot(proteome.Dataset{}, 0)
	return s
}

// Load fetches and parses the dataset once. It returns the current snapshot
// without work when records are already loaded. Concurrent callers share a
// single pass that runs detached from any one caller's cancellation; a
// caller whose ctx ends stops waiting and gets ctx.Err() while the pass
// continues for the others. A fetch or parse failure leaves the service in
// StateFailed with nothing installed; a later call tries again.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	if cur := s.snap.Load(); cur != nil && !cur.Dataset.Empty() {
		return cur, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("load", func() (any, error) {
		return s.load(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	if cur := s.snap.Load(); cur != nil && !cur.Dataset.Empty() {
		return cur, nil
	}
	s.setState(StateLoading, "")
	var snap *Snapshot
	err := s.observe(ctx, "load_dataset", func(ctx context.Context) error {
		var err error
		snap, err = s.fetch(ctx)
		return err
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
			// Interrupted, not failed: leave the service retryable.
			s.setState(StateIdle, "")
			s.logger.Warn("dataset load interrupted", "error", err)
			return nil, err
		}
		s.setState(StateFailed, err.Error())
		s.logger.Error("dataset load failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	s.snap.Store(snap)
	s.setState(StateLoaded, "")
	s.logger.Info("dataset loaded",
		"source", snap.Source,
		"records", snap.Dataset.Len(),
		"cell_lines", len(snap.Dataset.CellLines),
		"dropped", snap.Stats.Dropped,
		"malformed_cells", snap.Stats.MalformedCells,
	)
	return snap, nil
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	if s.src == nil {
		return nil, ErrNoSource
	}
	rc, err := s.src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.src.Describe(), err)
	}
	defer func() { _ = rc.Close() }()
	ds, stats, err := s.loader.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.src.Describe(), err)
	}
	snap := newSnapshot(ds, s.cacheSize)
	snap.Stats = stats
	snap.Source = s.src.Describe()
	snap.LoadedAt = s.clock.Now()
	return snap, nil
}

func (s *Service) setState(state LoadState, msg string) {
	s.mu.Lock()
	s.state = state
	s.lastErr = msg
	s.mu.Unlock()
}

// State returns the load state and, in StateFailed, the failure message.
func (s *Service) State() (LoadState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Status summarizes the state and the installed snapshot.
func (s *Service) Status() Status {
	state, msg := s.State()
	out := Status{State: state, Error: msg}
	if snap := s.snap.Load(); snap != nil {
		loaded := snap.LoadedAt
		out.Records = snap.Dataset.Len()
		out.CellLines = len(snap.Dataset.CellLines)
		out.Source = snap.Source
		out.LoadedAt = &loaded
		out.Stats = snap.Stats
	}
	return out
}

// Snapshot returns the installed snapshot, or an empty one before the first
// successful load. It never returns nil.
func (s *Service) Snapshot() *Snapshot {
	if snap := s.snap.Load(); snap != nil {
		return snap
	}
	return s.empty
}
