// Package daemon provides the long-running local projection API with
// scheduled rate refreshes.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finplan/internal/marketdata"
	"github.com/theirongolddev/finplan/internal/model"
	"github.com/theirongolddev/finplan/internal/projection"
	"github.com/theirongolddev/finplan/internal/store"
)

const (
	DefaultAddr         = "127.0.0.1:8787"
	DefaultRefreshCron  = "@every 6h"
	shutdownGracePeriod = 5 * time.Second
	maxRequestBody      = 64 << 10 // 64 KB
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	RefreshCron  string
	EventsBuffer int
	// AllowedOrigins lets browser pages on these origins call the API.
	// Empty means no CORS headers are sent.
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// RateResolver resolves growth rates. Refresh bypasses any cache.
// *marketdata.Resolver implements it.
type RateResolver interface {
	Resolve(ctx context.Context) []model.RateQuote
	Refresh(ctx context.Context) []model.RateQuote
}

// RefreshLog persists refresh runs. *store.Cache implements it.
type RefreshLog interface {
	RecordRefresh(run store.RefreshRun) error
	LastRefresh() (store.RefreshRun, bool, error)
}

// Event is emitted whenever a refresh completes.
type Event struct {
	ID        int64              `json:"id"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Quotes    []model.RateQuote  `json:"quotes"`
	Changed   []model.AssetClass `json:"changed,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time                `json:"started_at"`
	LastRefreshAt   time.Time                `json:"last_refresh_at"`
	RefreshCron     string                   `json:"refresh_cron"`
	RefreshCount    int64                    `json:"refresh_count"`
	Sources         map[model.RateSource]int `json:"sources"`
	LastError       string                   `json:"last_error,omitempty"`
	PreviousRunAt   *time.Time               `json:"previous_run_at,omitempty"`
	EventCount      int                      `json:"event_count"`
	SubscriberCount int                      `json:"subscriber_count"`
}

// ProjectionRequest is the body of POST /v1/projection. Rates is optional;
// when absent the last resolved rates are used.
type ProjectionRequest struct {
	model.BudgetInput
	Rates model.GrowthRates `json:"rates,omitempty"`
}

// ProjectionResponse is returned by POST /v1/projection.
type ProjectionResponse struct {
	Summary   model.Summary           `json:"summary"`
	Snapshots []model.MonthlySnapshot `json:"snapshots"`
	Quotes    []model.RateQuote       `json:"quotes,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	rates  RateResolver
	runs   RefreshLog
	logger zerolog.Logger

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	previousRun   *time.Time
	quotes        []model.RateQuote
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. runs may be nil when no cache is open.
func New(cfg Config, rates RateResolver, runs RefreshLog) *Service {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RefreshCron == "" {
		cfg.RefreshCron = DefaultRefreshCron
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}

	s := &Service{
		cfg:       cfg,
		rates:     rates,
		runs:      runs,
		logger:    cfg.Logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}

	if runs != nil {
		if prev, ok, err := runs.LastRefresh(); err == nil && ok {
			at := prev.StartedAt
			s.previousRun = &at
		}
	}
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/rates", s.handleRates)
	mux.HandleFunc("POST /v1/projection", s.handleProjection)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	if len(s.cfg.AllowedOrigins) == 0 {
		return mux
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(mux)
}

// Run starts the HTTP API and the refresh schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	sched := NewScheduler(s.cfg.RefreshCron, func() { s.RefreshOnce(ctx) }, s.logger)
	if err := sched.Register(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info().Str("addr", s.cfg.Addr).Str("refresh", s.cfg.RefreshCron).Msg("daemon listening")

	// Seed quotes so /v1/rates is useful immediately.
	s.RefreshOnce(ctx)
	sched.Start()

	select {
	case <-ctx.Done():
		stopped := sched.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		select {
		case <-stopped.Done():
		case <-shutdownCtx.Done():
		}
		s.logger.Info().Msg("daemon stopped")
		return err
	case err := <-errCh:
		sched.Stop()
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// RefreshOnce re-resolves every rate, bypassing the cache, and publishes the
// result.
func (s *Service) RefreshOnce(ctx context.Context) {
	start := time.Now()
	quotes := s.rates.Refresh(ctx)
	counts := marketdata.CountBySource(quotes)

	var runErr string
	if n := counts[model.RateSourceDefault]; n > 0 {
		runErr = fmt.Sprintf("%d market lookup(s) fell back to defaults", n)
	}

	if s.runs != nil {
		run := store.RefreshRun{
			StartedAt:      start,
			LiveQuotes:     counts[model.RateSourceLive],
			FallbackQuotes: counts[model.RateSourceDefault],
			Error:          runErr,
		}
		if err := s.runs.RecordRefresh(run); err != nil {
			s.logger.Warn().Err(err).Msg("recording refresh run")
		}
	}

	now := time.Now()
	s.mu.Lock()
	prev := s.quotes
	first := s.refreshCount == 0
	s.quotes = quotes
	s.lastRefreshAt = now
	s.refreshCount++
	s.lastError = runErr
	s.mu.Unlock()

	changed := diffQuotes(prev, quotes)
	switch {
	case first:
		s.publishEvent(Event{Type: "rates", Timestamp: now, Quotes: quotes})
	case len(changed) > 0:
		s.publishEvent(Event{Type: "rates_changed", Timestamp: now, Quotes: quotes, Changed: changed})
	}

	s.logger.Info().
		Int("live", counts[model.RateSourceLive]).
		Int("default", counts[model.RateSourceDefault]).
		Dur("took", time.Since(start)).
		Msg("rates refreshed")
}

// diffQuotes returns the assets whose rate or source differs between prev
// and curr, in asset order.
func diffQuotes(prev, curr []model.RateQuote) []model.AssetClass {
	old := make(map[model.AssetClass]model.RateQuote, len(prev))
	for _, q := range prev {
		old[q.Asset] = q
	}

	var changed []model.AssetClass
	for _, q := range curr {
		p, ok := old[q.Asset]
		if !ok || p.Rate != q.Rate || p.Source != q.Source {
			changed = append(changed, q.Asset)
		}
	}
	return changed
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
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

// currentQuotes returns the last refreshed quotes, resolving through the
// cache if no refresh has happened yet.
func (s *Service) currentQuotes(ctx context.Context) []model.RateQuote {
	s.mu.RLock()
	quotes := s.quotes
	s.mu.RUnlock()
	if quotes != nil {
		return quotes
	}
	return s.rates.Resolve(ctx)
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastRefreshAt:   s.lastRefreshAt,
		RefreshCron:     s.cfg.RefreshCron,
		RefreshCount:    s.refreshCount,
		Sources:         marketdata.CountBySource(s.quotes),
		LastError:       s.lastError,
		PreviousRunAt:   s.previousRun,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentQuotes(r.Context()))
}

func (s *Service) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := checkKnownKeys(req.BudgetInput, req.Rates); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var quotes []model.RateQuote
	rates := req.Rates
	if rates == nil {
		quotes = s.currentQuotes(r.Context())
		rates = model.RatesFromQuotes(quotes)
	}

	snaps, err := projection.Project(req.BudgetInput, rates)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, projection.ErrPrecondition) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ProjectionResponse{
		Summary:   projection.Summarize(req.BudgetInput, snaps),
		Snapshots: snaps,
		Quotes:    quotes,
	})
}

// checkKnownKeys rejects categories and asset classes outside the fixed sets,
// which JSON decoding into typed-string maps would otherwise accept.
func checkKnownKeys(in model.BudgetInput, rates model.GrowthRates) error {
	for c := range in.Expenses {
		if _, ok := model.ParseExpenseCategory(string(c)); !ok {
			return fmt.Errorf("unknown expense category %q", c)
		}
	}
	for a := range in.Investments {
		if _, ok := model.ParseAssetClass(string(a)); !ok {
			return fmt.Errorf("unknown asset class %q", a)
		}
	}
	for a := range rates {
		if _, ok := model.ParseAssetClass(string(a)); !ok {
			return fmt.Errorf("unknown asset class %q in rates", a)
		}
	}
	return nil
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
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

	// Send current quotes immediately.
	writeSSE(w, Event{
		Type:      "rates",
		Timestamp: time.Now(),
		Quotes:    s.currentQuotes(r.Context()),
	})
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

func writeSSE(w http.ResponseWriter, ev Event) {
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
