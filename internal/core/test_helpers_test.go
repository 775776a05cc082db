package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const fixtureTable = `T: Protein.Group,T: Gene Names,T: Protein names,N: Mass,N: Copy number A549.raw,N: Copy number HeLa.raw,N: Copy number MCF7.raw
P04406;Q53X65,GAPDH;G3PD,Glyceraldehyde-3-phosphate dehydrogenase,36053,1000,900,7
P04637,TP53,Cellular tumor antigen p53,43653,10,,
P60709,ACTB,Actin,41737,100,300,
Q9Y6K9,IKBKG;NEMO,NF-kappa-B essential modulator,48198,100,5,
`

// stringSource serves a fixed table and counts opens.
type stringSource struct {
	body  string
	opens atomic.Int32
	gate  chan struct{}
}

func (s *stringSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opens.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *stringSource) Describe() string { return "test://fixture" }

// flakySource fails until healed.
type flakySource struct {
	healed atomic.Bool
}

var errSourceDown = errors.New("source down")

func (s *flakySource) Open(context.Context) (io.ReadCloser, error) {
	if !s.healed.Load() {
		return nil, errSourceDown
	}
	return io.NopCloser(strings.NewReader(fixtureTable)), nil
}

func (s *flakySource) Describe() string { return "test://flaky" }

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+":"+msg)
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *captureLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

func loadedService(t testing.TB, opts ...Option) *Service {
	t.Helper()
	svc := NewService(&stringSource{body: fixtureTable}, opts...)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}
