package daemon

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

// Query parameters with a meaning of their own. Every other parameter is an
// equality filter.
var reservedParams = map[string]bool{
	"group_by": true,
	"sort":     true,
	"limit":    true,
}

const defaultRowLimit = 100

// Handler returns the HTTP API routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/columns", s.handleColumns)
			r.Get("/values/{column}", s.handleValues)
			r.Get("/summary", s.handleSummary)
			r.Get("/aggregate", s.handleAggregate)
			r.Get("/rows", s.handleRows)
			r.Get("/segments", s.handleSegments)
		})
	})

	return r
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// errResponse is the JSON body of every API error.
type errResponse struct {
	HTTPStatus int    `json:"-"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

func (e *errResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatus)
	return nil
}

func errFor(status int, err error) render.Renderer {
	return &errResponse{HTTPStatus: status, Status: http.StatusText(status), Error: err.Error()}
}

// errStatus maps pipeline errors to a status code. Bad columns and group
// keys are client errors.
func errStatus(err error) int {
	var serr *source.SchemaError
	if errors.As(err, &serr) || errors.Is(err, pipeline.ErrGroupKeys) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errNotLoaded = errors.New("dataset not loaded yet")

// filtered applies the request's filter parameters to the served dataset.
func (s *Service) filtered(w http.ResponseWriter, r *http.Request) (*pipeline.Dataset, bool) {
	ds := s.current()
	if ds == nil {
		_ = render.Render(w, r, errFor(http.StatusServiceUnavailable, errNotLoaded))
		return nil, false
	}

	preds := make(map[string]string)
	for key, vals := range r.URL.Query() {
		if reservedParams[key] || len(vals) == 0 {
			continue
		}
		preds[key] = vals[0]
	}

	out, err := pipeline.Filter(ds, preds)
	if err != nil {
		_ = render.Render(w, r, errFor(errStatus(err), err))
		return nil, false
	}
	return out, true
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	render.JSON(w, r, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Service) handleColumns(w http.ResponseWriter, r *http.Request) {
	ds := s.current()
	if ds == nil {
		_ = render.Render(w, r, errFor(http.StatusServiceUnavailable, errNotLoaded))
		return
	}
	render.JSON(w, r, map[string]any{
		"columns": ds.Columns(),
		"rows":    ds.Len(),
	})
}

func (s *Service) handleValues(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.filtered(w, r)
	if !ok {
		return
	}
	column := chi.URLParam(r, "column")
	col, err := ds.ResolveColumn(column)
	if err != nil {
		_ = render.Render(w, r, errFor(errStatus(err), err))
		return
	}
	values, err := pipeline.Distinct(ds, col)
	if err != nil {
		_ = render.Render(w, r, errFor(errStatus(err), err))
		return
	}
	if values == nil {
		values = []string{}
	}
	render.JSON(w, r, map[string]any{
		"column": col,
		"values": values,
	})
}

// GroupRow is one aggregate row in API responses.
type GroupRow struct {
	Keys            []string        `json:"keys"`
	Count           int             `json:"count"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalSalesValue decimal.Decimal `json:"total_sales_value"`
}

func toGroupRows(rows []model.GroupStats) []GroupRow {
	out := make([]GroupRow, len(rows))
	for i, g := range rows {
		out[i] = GroupRow{
			Keys:            g.Keys,
			Count:           g.Count,
			TotalQuantity:   g.TotalQuantity,
			TotalSalesValue: g.TotalSalesValue,
		}
	}
	return out
}

// SummaryResponse mirrors the summary dashboard: headline totals, the
// monthly trend and the latest month against the one before.
type SummaryResponse struct {
	Rows          int             `json:"rows"`
	Quantity      int64           `json:"quantity"`
	SalesValue    decimal.Decimal `json:"sales_value"`
	Monthly       []GroupRow      `json:"monthly"`
	LatestMonth   string          `json:"latest_month,omitempty"`
	PreviousMonth string          `json:"previous_month,omitempty"`
	ChangePercent float64         `json:"change_percent"`
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.filtered(w, r)
	if !ok {
		return
	}

	view, err := pipeline.Aggregate(ds, source.ColMonthYear)
	if err != nil {
		_ = render.Render(w, r, errFor(errStatus(err), err))
		return
	}
	pipeline.SortByPeriod(view.Rows)

	totals := pipeline.Totals(ds)
	resp := SummaryResponse{
		Rows:       totals.Rows,
		Quantity:   totals.TotalQuantity,
		SalesValue: totals.TotalSalesValue,
		Monthly:    toGroupRows(view.Rows),
	}
	if cmp := pipeline.ComparePeriods(view.Rows); len(view.Rows) > 0 {
		resp.LatestMonth = cmp.Current.Key(0)
		if cmp.HasPrev {
			resp.PreviousMonth = cmp.Previous.Key(0)
			resp.ChangePercent = pipeline.PercentChange(cmp.Current.TotalSalesValue, cmp.Previous.TotalSalesValue)
		}
	}
	render.JSON(w, r, resp)
}

func (s *Service) handleAggregate(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.filtered(w, r)
	if !ok {
		return
	}

	var groupBy []string
	for _, g := range strings.Split(r.URL.Query().Get("group_by"), ",") {
		if g = strings.TrimSpace(g); g != "" {
			groupBy = append(groupBy, g)
		}
	}

	view, err := pipeline.Aggregate(ds, groupBy...)
	if err != nil {
		_ = render.Render(w, r, errFor(errStatus(err), err))
		return
	}

	switch r.URL.Query().Get("sort") {
	case "sales":
		pipeline.SortBySales(view.Rows)
	case "period":
		pipeline.SortByPeriod(view.Rows)
	}

	render.JSON(w, r, map[string]any{
		"group_by": view.GroupBy,
		"columns":  view.Columns(),
		"rows":     toGroupRows(view.Rows),
	})
}

func (s *Service) handleRows(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.filtered(w, r)
	if !ok {
		return
	}

	limit := defaultRowLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			_ = render.Render(w, r, errFor(http.StatusBadRequest, errors.New("limit must be a non-negative integer")))
			return
		}
		limit = n
	}

	n := min(limit, ds.Len())
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = ds.Record(i)
	}

	render.JSON(w, r, map[string]any{
		"columns": ds.Columns(),
		"total":   ds.Len(),
		"rows":    rows,
	})
}

// SegmentRow is one business segment in the /v1/segments response.
type SegmentRow struct {
	Segment      string          `json:"segment"`
	Businesses   int             `json:"businesses"`
	SalesValue   decimal.Decimal `json:"sales_value"`
	SharePercent float64         `json:"share_percent"`
}

func (s *Service) handleSegments(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.filtered(w, r)
	if !ok {
		return
	}

	segs := pipeline.SegmentBusinesses(ds)
	out := make([]SegmentRow, len(segs))
	for i, sg := range segs {
		out[i] = SegmentRow{
			Segment:      sg.Segment,
			Businesses:   sg.Businesses,
			SalesValue:   sg.SalesValue,
			SharePercent: sg.SharePercent,
		}
	}
	render.JSON(w, r, out)
}
