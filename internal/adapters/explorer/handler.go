// Package explorer serves the explorer query surface over HTTP and runs the
// asynchronous export worker.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gorilla/mux"

	"proteomecore/internal/core"
	"proteomecore/internal/filterlist"
	"proteomecore/internal/series"
	"proteomecore/pkg/proteome"
)

// Explorer is the service surface the handler exposes.
type Explorer interface {
	Load(ctx context.Context) (*core.Snapshot, error)
	Status() core.Status
	FilterCellLines(q string) []string
	Suggest(kind proteome.IdentifierKind, q string, limit int) []string
	Resolve(kind proteome.IdentifierKind, q string) (string, bool)
	ResolveManyDetailed(kind proteome.IdentifierKind, qs []string) proteome.MatchReport
	ApplyListText(kind proteome.IdentifierKind, text string) proteome.MatchReport
	ScatterSeries(cellLine string) []proteome.ScatterPoint
	BarSeries(kind proteome.IdentifierKind, query string, cellLines []string) []proteome.BarEntry
	FindRecord(kind proteome.IdentifierKind, q string) (proteome.ProteinRecord, bool)
	SelectionTable(genes, cellLines []string) []proteome.SelectionRow
	Summarize(cellLine string) (proteome.CellLineSummary, bool)
	FilterLists(ctx context.Context, q filterlist.Query) ([]filterlist.FilterList, error)
	FilterList(ctx context.Context, id int) (filterlist.FilterList, error)
	FilterListCategories(ctx context.Context) ([]string, error)
	ApplyFilterLists(ctx context.Context, kind proteome.IdentifierKind, ids []int) (core.ListApplication, error)
}

// Handler provides HTTP access to the explorer service.
type Handler struct {
	Explorer Explorer
	Exports  ExportScheduler
	Metrics  http.Handler
	Logger   core.Logger
}

// NewHandler constructs a handler for svc.
func NewHandler(svc Explorer) *Handler {
	return &Handler{Explorer: svc, Logger: nopLogger{}}
}

// Router registers every route on a gorilla router.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	GET := api.Methods(http.MethodGet, http.MethodHead).Subrouter()
	POST := api.Methods(http.MethodPost).Subrouter()

	GET.HandleFunc("/status", h.handleStatus)
	POST.HandleFunc("/load", h.handleLoad)
	GET.HandleFunc("/cell-lines", h.handleCellLines)
	GET.HandleFunc("/genes", h.handleSuggest(proteome.KindGene))
	GET.HandleFunc("/accessions", h.handleSuggest(proteome.KindAccession))
	GET.HandleFunc("/resolve/{kind}/{query}", h.handleResolveOne)
	POST.HandleFunc("/resolve", h.handleResolveBatch)
	GET.HandleFunc("/scatter/{cellLine}", h.handleScatter)
	GET.HandleFunc("/bar", h.handleBar)
	GET.HandleFunc("/records/{kind}/{query}", h.handleRecord)
	GET.HandleFunc("/selection", h.handleSelection)
	GET.HandleFunc("/summary/{cellLine}", h.handleSummary)
	GET.HandleFunc("/filter-lists", h.handleFilterLists)
	GET.HandleFunc("/filter-lists/categories", h.handleCategories)
	GET.HandleFunc("/filter-lists/{id:[0-9]+}", h.handleFilterList)
	POST.HandleFunc("/filter-lists/apply", h.handleApplyLists)
	POST.HandleFunc("/exports", h.handleExportCreate)
	GET.HandleFunc("/exports/{id}", h.handleExportGet)

	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}
	return router
}

// ServeHTTP routes through Handler() so the type can be mounted directly.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Handler().ServeHTTP(w, r)
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Explorer.Status())
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Explorer.Load(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Explorer.Status())
}

func (h *Handler) handleCellLines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cell_lines": h.Explorer.FilterCellLines(r.URL.Query().Get("q")),
	})
}

func (h *Handler) handleSuggest(kind proteome.IdentifierKind) http.HandlerFunc {
	key := "genes"
	if kind == proteome.KindAccession {
		key = "accessions"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r, "limit", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			key: h.Explorer.Suggest(kind, r.URL.Query().Get("q"), limit),
		})
	}
}

type resolveResponse struct {
	Kind    proteome.IdentifierKind `json:"kind"`
	Query   string                  `json:"query"`
	Symbol  string                  `json:"symbol,omitempty"`
	Matched bool                    `json:"matched"`
}

func (h *Handler) handleResolveOne(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := proteome.ParseIdentifierKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbol, ok := h.Explorer.Resolve(kind, vars["query"])
	writeJSON(w, http.StatusOK, resolveResponse{Kind: kind, Query: vars["query"], Symbol: symbol, Matched: ok})
}

type resolveRequest struct {
	Kind    string   `json:"kind"`
	Queries []string `json:"queries"`
	Text    string   `json:"text"`
}

// handleResolveBatch resolves explicit queries, or pasted list text when no
// queries are given.
func (h *Handler) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := proteome.ParseIdentifierKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Queries) == 0 {
		writeJSON(w, http.StatusOK, h.Explorer.ApplyListText(kind, req.Text))
		return
	}
	writeJSON(w, http.StatusOK, h.Explorer.ResolveManyDetailed(kind, req.Queries))
}

func (h *Handler) handleScatter(w http.ResponseWriter, r *http.Request) {
	cellLine := mux.Vars(r)["cellLine"]
	points := h.Explorer.ScatterSeries(cellLine)
	if negotiateFormat(r) == FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="scatter-`+sanitizeFilename(cellLine)+`.csv"`)
		if err := gocsv.Marshal(points, w); err != nil {
			h.logger().Warn("stream scatter csv", "cell_line", cellLine, "error", err)
		}
		return
	}
	normal, highlighted := series.Highlight(points, r.URL.Query()["highlight"])
	writeJSON(w, http.StatusOK, map[string]any{
		"cell_line":   cellLine,
		"points":      normal,
		"highlighted": highlighted,
	})
}

func (h *Handler) handleBar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := proteome.ParseIdentifierKind(q.Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries := h.Explorer.BarSeries(kind, q.Get("q"), q["cell_line"])
	if strings.EqualFold(q.Get("sort"), "desc") {
		series.SortBarDescending(entries)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := proteome.ParseIdentifierKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := h.Explorer.FindRecord(kind, vars["query"])
	if !ok {
		writeError(w, http.StatusNotFound, "no record matches "+strconv.Quote(vars["query"]))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := intParam(r, "page_size", series.DefaultPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := h.Explorer.SelectionTable(q["gene"], q["cell_line"])
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":      series.Paginate(rows, page, size),
		"page":      page,
		"page_size": size,
		"pages":     series.PageCount(len(rows), size),
		"total":     len(rows),
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	cellLine := mux.Vars(r)["cellLine"]
	summary, ok := h.Explorer.Summarize(cellLine)
	if !ok {
		writeError(w, http.StatusNotFound, "no measurements for cell line "+strconv.Quote(cellLine))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleFilterLists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lists, err := h.Explorer.FilterLists(r.Context(), filterlist.Query{
		Name:          q.Get("name"),
		Category:      q.Get("category"),
		NameExact:     q.Get("name_exact"),
		CategoryExact: q.Get("category_exact"),
		Limit:         limit,
	})
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(lists), "results": lists})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Explorer.FilterListCategories(r.Context())
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *Handler) handleFilterList(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter list id")
		return
	}
	list, err := h.Explorer.FilterList(r.Context(), id)
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"list": list, "items": list.Items()})
}

type applyListsRequest struct {
	Kind string `json:"kind"`
	IDs  []int  `json:"ids"`
}

func (h *Handler) handleApplyLists(w http.ResponseWriter, r *http.Request) {
	var req applyListsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kind, err := proteome.ParseIdentifierKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids required")
		return
	}
	res, err := h.Explorer.ApplyFilterLists(r.Context(), kind, req.IDs)
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeListError(w http.ResponseWriter, err error) {
	var se *filterlist.StatusError
	switch {
	case errors.Is(err, filterlist.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNoFilterLists):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &se):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger().Error("filter list request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type exportRequest struct {
	Kind      string   `json:"kind"`
	CellLine  string   `json:"cell_line"`
	Genes     []string `json:"genes"`
	CellLines []string `json:"cell_lines"`
	Formats   []string `json:"formats"`
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports not configured")
		return
	}
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	formats := make([]ExportFormat, 0, len(req.Formats))
	for _, f := range req.Formats {
		switch ExportFormat(strings.ToLower(strings.TrimSpace(f))) {
		case FormatCSV:
			formats = append(formats, FormatCSV)
		case FormatJSON:
			formats = append(formats, FormatJSON)
		default:
			writeError(w, http.StatusBadRequest, "unsupported export format")
			return
		}
	}
	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		Kind:      ExportKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		CellLine:  req.CellLine,
		Genes:     req.Genes,
		CellLines: req.CellLines,
		Formats:   formats,
	})
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrWorkerStopped) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusServiceUnavailable, "exports not configured")
		return
	}
	record, ok := h.Exports.GetExport(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func negotiateFormat(r *http.Request) ExportFormat {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" && strings.Contains(r.Header.Get("Accept"), "text/csv") {
		wanted = string(FormatCSV)
	}
	if wanted == string(FormatCSV) {
		return FormatCSV
	}
	return FormatJSON
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return v, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
