package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"proteomecore/internal/blob"
	"proteomecore/internal/source"
)

func TestLoadInstallsSnapshot(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	logger := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	svc := NewService(&stringSource{body: fixtureTable},
		WithClock(ClockFunc(func() time.Time { return fixed })),
		WithLogger(logger),
		WithMetricsRecorder(metrics),
	)
	if state, _ := svc.State(); state != StateIdle {
		t.Fatalf("expected idle, got %s", state)
	}
	if got := svc.Snapshot(); got == nil || !got.Dataset.Empty() {
		t.Fatalf("expected empty snapshot before load")
	}

	snap, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Dataset.Len() != 4 || !snap.LoadedAt.Equal(fixed) || snap.Source != "test://fixture" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if state, msg := svc.State(); state != StateLoaded || msg != "" {
		t.Fatalf("expected loaded, got %s %q", state, msg)
	}
	st := svc.Status()
	if st.Records != 4 || st.CellLines != 3 || st.LoadedAt == nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	if !metrics.has("load_dataset", true) {
		t.Fatalf("expected load metric")
	}
	if !logger.has("info:dataset loaded") {
		t.Fatalf("expected load log entry, got %v", logger.entries)
	}
}

func TestLoadIsNoOpOnceLoaded(t *testing.T) {
	src := &stringSource{body: fixtureTable}
	svc := NewService(src)
	first, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first != second || src.opens.Load() != 1 {
		t.Fatalf("second load must reuse the snapshot; opens=%d", src.opens.Load())
	}
}

func TestConcurrentLoadsParseOnce(t *testing.T) {
	src := &stringSource{body: fixtureTable, gate: make(chan struct{})}
	svc := NewService(src)

	const callers = 16
	var wg sync.WaitGroup
	snaps := make([]*Snapshot, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snaps[i], errs[i] = svc.Load(context.Background())
		}()
	}
	// Let callers pile up behind the gate before releasing the fetch.
	for src.opens.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if state, _ := svc.State(); state != StateLoading {
		t.Fatalf("expected loading while fetch is blocked, got %s", state)
	}
	close(src.gate)
	wg.Wait()

	if n := src.opens.Load(); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if snaps[i] != snaps[0] {
			t.Fatalf("caller %d saw a different snapshot", i)
		}
	}
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	src := &stringSource{body: fixtureTable, gate: make(chan struct{})}
	svc := NewService(src)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Load(firstCtx)
		firstErr <- err
	}()
	for src.opens.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		snap *Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := svc.Load(context.Background())
		second <- result{snap, err}
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}
	if state, msg := svc.State(); state != StateLoading {
		t.Fatalf("shared load must keep running, got %s %q", state, msg)
	}

	close(src.gate)
	res := <-second
	if res.err != nil {
		t.Fatalf("live caller: %v", res.err)
	}
	if res.snap.Dataset.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", res.snap.Dataset.Len())
	}
	if state, _ := svc.State(); state != StateLoaded {
		t.Fatalf("expected loaded, got %s", state)
	}
	if n := src.opens.Load(); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
}

func TestInterruptedLoadStaysRetryable(t *testing.T) {
	src := &stringSource{body: fixtureTable, gate: make(chan struct{})}
	svc := NewService(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.load(ctx); !errors.Is(err, context.Canceled) || errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected bare context.Canceled, got %v", err)
	}
	if state, msg := svc.State(); state != StateIdle || msg != "" {
		t.Fatalf("interruption must not be sticky, got %s %q", state, msg)
	}

	close(src.gate)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestLoadFailureIsStickyAndInstallsNothing(t *testing.T) {
	src := &flakySource{}
	metrics := &captureMetricsRecorder{}
	tracer := NewJSONTracer(nil)
	svc := NewService(src, WithMetricsRecorder(metrics), WithTracer(tracer))

	_, err := svc.Load(context.Background())
	if !errors.Is(err, ErrLoadFailed) || !errors.Is(err, errSourceDown) {
		t.Fatalf("expected wrapped load failure, got %v", err)
	}
	state, msg := svc.State()
	if state != StateFailed || !strings.Contains(msg, "source down") {
		t.Fatalf("expected failed state with message, got %s %q", state, msg)
	}
	if !svc.Snapshot().Dataset.Empty() {
		t.Fatalf("failed load must not install a dataset")
	}
	if got := svc.ScatterSeries("A549"); len(got) != 0 {
		t.Fatalf("queries must be empty after failure")
	}
	if st := svc.Status(); st.State != StateFailed || st.LoadedAt != nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	// Still failed until someone asks again.
	if state, _ := svc.State(); state != StateFailed {
		t.Fatalf("failure must be sticky")
	}
	if !metrics.has("load_dataset", false) {
		t.Fatalf("expected failure metric")
	}
	entries := tracer.Entries()
	if len(entries) != 1 || entries[0].Status != "error" || entries[0].Operation != "load_dataset" {
		t.Fatalf("unexpected trace entries: %+v", entries)
	}

	src.healed.Store(true)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("explicit retry: %v", err)
	}
	if state, msg := svc.State(); state != StateLoaded || msg != "" {
		t.Fatalf("expected loaded after retry, got %s %q", state, msg)
	}
}

func TestLoadWithoutSource(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Load(context.Background()); !errors.Is(err, ErrNoSource) || !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestLoadParseErrorFails(t *testing.T) {
	svc := NewService(&stringSource{body: "T: Gene Names,N: Copy number A\nX,1\n"})
	if _, err := svc.Load(context.Background()); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected load failure for missing protein group column, got %v", err)
	}
}

func TestLoadFromBlobSource(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	if _, err := store.Put(ctx, "datasets/copy-numbers.csv", bytes.NewReader([]byte(fixtureTable)), blob.PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	src, err := source.New(source.Options{Driver: source.DriverBlob, Key: "datasets/copy-numbers.csv"}, store)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	svc := NewService(src)
	snap, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Source != "memory://datasets/copy-numbers.csv" || snap.Dataset.Len() != 4 {
		t.Fatalf("unexpected snapshot: %s %d", snap.Source, snap.Dataset.Len())
	}
}
