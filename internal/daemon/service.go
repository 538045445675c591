// Package daemon serves the sales dataset over a JSON HTTP API and reloads
// it whenever the source file changes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/source"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataFile     string
	ParseOptions source.ParseOptions
	// Filters are applied to every reload before the dataset is served.
	Filters      map[string]string
	UseCache     bool
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *log.Logger
}

// Snapshot is a compact dataset state for status/event payloads.
type Snapshot struct {
	At         time.Time       `json:"at"`
	Rows       int             `json:"rows"`
	Quantity   int64           `json:"quantity"`
	SalesValue decimal.Decimal `json:"sales_value"`
	Months     int             `json:"months"`
	Businesses int             `json:"businesses"`
	CacheHit   bool            `json:"cache_hit"`
}

// Delta captures snapshot deltas between reloads.
type Delta struct {
	Rows       int             `json:"rows"`
	Quantity   int64           `json:"quantity"`
	SalesValue decimal.Decimal `json:"sales_value"`
}

func (d Delta) isZero() bool {
	return d.Rows == 0 &&
		d.Quantity == 0 &&
		d.SalesValue.IsZero()
}

// Event is emitted whenever the served dataset is replaced.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// EventDatasetLoaded is the type of every reload event.
const EventDatasetLoaded = "dataset_loaded"

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time         `json:"started_at"`
	LastPollAt      time.Time         `json:"last_poll_at"`
	LastLoadAt      time.Time         `json:"last_load_at"`
	PollIntervalSec int               `json:"poll_interval_sec"`
	PollCount       int64             `json:"poll_count"`
	LoadCount       int64             `json:"load_count"`
	DataFile        string            `json:"data_file"`
	Filters         map[string]string `json:"filters,omitempty"`
	Summary         Snapshot          `json:"summary"`
	LastError       string            `json:"last_error,omitempty"`
	EventCount      int               `json:"event_count"`
	SubscriberCount int               `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	logger *log.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	lastLoadAt  time.Time
	pollCount   int64
	loadCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	file        source.DiscoveredFile
	dataset     *pipeline.Dataset
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Service{
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run serves the HTTP API and polls the source file until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Seed the dataset so the API is useful immediately.
	s.pollOnce()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce()
			}
		}
	})

	return g.Wait()
}

// pollOnce reloads the dataset when the source fingerprint changed since
// the last successful load.
func (s *Service) pollOnce() {
	now := time.Now()

	fp, err := source.Stat(s.cfg.DataFile)
	if err != nil {
		s.recordError(now, err)
		return
	}

	s.mu.RLock()
	unchanged := s.hasSnapshot && s.file.MtimeNs == fp.MtimeNs && s.file.SizeBytes == fp.SizeBytes
	s.mu.RUnlock()
	if unchanged {
		s.mu.Lock()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		return
	}

	res, err := s.load()
	if err != nil {
		s.recordError(now, err)
		return
	}
	if res.CacheErr != nil {
		s.logger.Warn("cache unavailable, parsed from source", "err", res.CacheErr)
	}

	ds, err := pipeline.Filter(res.Dataset, s.cfg.Filters)
	if err != nil {
		s.recordError(now, err)
		return
	}
	snap := snapshotFromDataset(ds, now, res.CacheHit)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.dataset = ds
	s.file = res.File
	s.lastPollAt = now
	s.lastLoadAt = now
	s.pollCount++
	s.loadCount++
	s.lastError = ""

	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventDatasetLoaded,
		Timestamp: now,
		Snapshot:  snap,
	}
	if prevExists {
		ev.Delta = diffSnapshots(prev, snap)
	}
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"file", res.File.Name,
		"rows", snap.Rows,
		"cache_hit", res.CacheHit,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	s.publishEvent(ev)
}

func (s *Service) recordError(at time.Time, err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = at
	s.pollCount++
	s.mu.Unlock()
	s.logger.Error("reload failed", "err", err)
}

func (s *Service) load() (*pipeline.LoadResult, error) {
	return pipeline.LoadAuto(s.cfg.DataFile, s.cfg.ParseOptions, s.cfg.UseCache)
}

func snapshotFromDataset(ds *pipeline.Dataset, at time.Time, cacheHit bool) Snapshot {
	totals := pipeline.Totals(ds)
	snap := Snapshot{
		At:         at,
		Rows:       totals.Rows,
		Quantity:   totals.TotalQuantity,
		SalesValue: totals.TotalSalesValue,
		CacheHit:   cacheHit,
	}
	if months, err := pipeline.Distinct(ds, source.ColMonthYear); err == nil {
		snap.Months = len(months)
	}
	if businesses, err := pipeline.Distinct(ds, source.ColBusiness); err == nil {
		snap.Businesses = len(businesses)
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Rows:       curr.Rows - prev.Rows,
		Quantity:   curr.Quantity - prev.Quantity,
		SalesValue: curr.SalesValue.Sub(prev.SalesValue),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastLoadAt:      s.lastLoadAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		LoadCount:       s.loadCount,
		DataFile:        s.cfg.DataFile,
		Filters:         s.cfg.Filters,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// current returns the dataset being served, or nil before the first load.
func (s *Service) current() *pipeline.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
