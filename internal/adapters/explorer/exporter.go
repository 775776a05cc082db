package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"proteomecore/internal/blob"
	"proteomecore/internal/core"
	"proteomecore/pkg/proteome"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportKind selects what an export renders.
type ExportKind string

const (
	ExportScatter   ExportKind = "scatter"
	ExportSelection ExportKind = "selection"
)

// ExportFormat is an artifact encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportArtifact is one stored rendering of an export.
type ExportArtifact struct {
	Key         string       `json:"key"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	ETag        string       `json:"etag,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ExportRecord tracks an export request and its artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Kind        ExportKind       `json:"kind"`
	CellLine    string           `json:"cell_line,omitempty"`
	Genes       []string         `json:"genes,omitempty"`
	CellLines   []string         `json:"cell_lines,omitempty"`
	Formats     []ExportFormat   `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func (r ExportRecord) copy() ExportRecord {
	out := r
	out.Genes = append([]string(nil), r.Genes...)
	out.CellLines = append([]string(nil), r.CellLines...)
	out.Formats = append([]ExportFormat(nil), r.Formats...)
	out.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		done := *r.CompletedAt
		out.CompletedAt = &done
	}
	return out
}

// ExportInput is an enqueue request.
type ExportInput struct {
	Kind      ExportKind
	CellLine  string
	Genes     []string
	CellLines []string
	Formats   []ExportFormat
}

// ExportScheduler queues exports and reports their status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// SeriesSource is the part of the service the worker renders from.
type SeriesSource interface {
	ScatterSeries(cellLine string) []proteome.ScatterPoint
	SelectionTable(genes, cellLines []string) []proteome.SelectionRow
}

var (
	// ErrQueueFull is returned when the export queue cannot accept more work.
	ErrQueueFull = errors.New("export queue full")
	// ErrWorkerStopped is returned by EnqueueExport after Stop.
	ErrWorkerStopped = errors.New("export worker stopped")
)

// WorkerOptions configures NewWorker.
type WorkerOptions struct {
	// Prefix is prepended to artifact keys. Defaults to "exports".
	Prefix    string
	QueueSize int
	Logger    core.Logger
	Clock     core.Clock
}

// Worker renders exports asynchronously into a blob store.
type Worker struct {
	source SeriesSource
	store  blob.Store
	prefix string
	logger core.Logger
	clock  core.Clock

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NewWorker constructs an export worker. Call Start to begin processing.
func NewWorker(src SeriesSource, store blob.Store, opts WorkerOptions) *Worker {
	if opts.Prefix == "" {
		opts.Prefix = "exports"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = core.ClockFunc(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: src,
		store:  store,
		prefix: strings.Trim(opts.Prefix, "/"),
		logger: opts.Logger,
		clock:  opts.Clock,
		queue:  make(chan string, opts.QueueSize),
		jobs:   make(map[string]*ExportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// EnqueueExport validates input and schedules it.
func (w *Worker) EnqueueExport(_ context.Context, input ExportInput) (ExportRecord, error) {
	if w.source == nil || w.store == nil {
		return ExportRecord{}, fmt.Errorf("export worker not configured")
	}
	if w.ctx.Err() != nil {
		return ExportRecord{}, ErrWorkerStopped
	}
	switch input.Kind {
	case ExportScatter:
		if strings.TrimSpace(input.CellLine) == "" {
			return ExportRecord{}, fmt.Errorf("scatter export requires a cell line")
		}
	case ExportSelection:
		if len(input.Genes) == 0 || len(input.CellLines) == 0 {
			return ExportRecord{}, fmt.Errorf("selection export requires genes and cell lines")
		}
	default:
		return ExportRecord{}, fmt.Errorf("unsupported export kind %q", input.Kind)
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []ExportFormat{FormatCSV, FormatJSON}
	}
	for _, f := range formats {
		if f != FormatCSV && f != FormatJSON {
			return ExportRecord{}, fmt.Errorf("unsupported export format %q", f)
		}
	}

	now := w.clock.Now()
	record := &ExportRecord{
		ID:        uuid.NewString(),
		Kind:      input.Kind,
		CellLine:  input.CellLine,
		Genes:     append([]string(nil), input.Genes...),
		CellLines: append([]string(nil), input.CellLines...),
		Formats:   formats,
		Status:    ExportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.mu.Lock()
	w.jobs[record.ID] = record
	snapshot := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- record.ID:
	default:
		w.fail(record.ID, ErrQueueFull.Error())
		return ExportRecord{}, ErrQueueFull
	}
	w.logger.Debug("export queued", "id", record.ID, "kind", record.Kind)
	return snapshot, nil
}

// GetExport returns a copy of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	record, ok := w.GetExport(id)
	if !ok || record.Status != ExportStatusQueued {
		return
	}
	w.updateStatus(id, ExportStatusRunning)

	var rows any
	switch record.Kind {
	case ExportScatter:
		rows = w.source.ScatterSeries(record.CellLine)
	case ExportSelection:
		rows = w.source.SelectionTable(record.Genes, record.CellLines)
	}

	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, contentType, err := render(format, rows)
		if err != nil {
			w.fail(id, fmt.Sprintf("render %s: %v", format, err))
			return
		}
		key := path.Join(w.prefix, id, string(record.Kind)+"."+string(format))
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"export-id": id, "kind": string(record.Kind)},
		})
		if err != nil {
			w.fail(id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		artifacts = append(artifacts, ExportArtifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			ETag:        info.ETag,
			CreatedAt:   w.clock.Now(),
		})
	}
	w.complete(id, artifacts)
}

func render(format ExportFormat, rows any) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		payload, err := gocsv.MarshalBytes(rows)
		return payload, "text/csv", err
	case FormatJSON:
		payload, err := json.MarshalIndent(rows, "", "  ")
		return payload, "application/json", err
	default:
		return nil, "", fmt.Errorf("unsupported format %q", format)
	}
}

func (w *Worker) updateStatus(id string, status ExportStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.UpdatedAt = w.clock.Now()
	}
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := w.clock.Now()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.logger.Info("export succeeded", "id", id, "artifacts", len(artifacts))
}

func (w *Worker) fail(id, reason string) {
	now := w.clock.Now()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.logger.Warn("export failed", "id", id, "error", reason)
}
