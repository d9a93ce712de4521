// Package api serves the persisted summary, history and cycle log over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"MarketDigest/internal/errors"
	"MarketDigest/internal/model"
	"MarketDigest/internal/recorder"
)

const (
	defaultCyclesLimit = 20
	maxLimit           = 1000
)

// SummaryStore reads what the persistence layer last wrote.
type SummaryStore interface {
	LoadSummary() (model.Summary, error)
	LoadHistory() ([]model.HistoryEntry, error)
}

// Server is the read-only HTTP API.
type Server struct {
	store      SummaryStore
	recorder   recorder.Recorder
	metrics    http.Handler
	logger     *zap.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates the API. metrics may be nil to leave /metrics unrouted.
func NewServer(store SummaryStore, rec recorder.Recorder, metrics http.Handler, logger *zap.Logger) *Server {
	return &Server{store: store, recorder: rec, metrics: metrics, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	router.HandleFunc("/api/history", s.handleHistory).Methods("GET")
	router.HandleFunc("/api/cycles", s.handleCycles).Methods("GET")
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods("GET")
	}
	return router
}

// Start listens on address and serves in the background. ":0" picks a free port.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("api server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSummary handles GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.store.LoadSummary()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleHistory handles GET /api/history?limit=N, returning the newest N entries
// oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.store.LoadHistory()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCycles handles GET /api/cycles?limit=N, newest first.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultCyclesLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cycles, err := s.recorder.RecentCycles(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cycles == nil {
		cycles = []recorder.CycleRecord{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, fmt.Errorf("invalid limit %q: want 1-%d", raw, maxLimit)
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.HasCode(err, errors.ErrCodeEmptyResult) {
		status = http.StatusNotFound
	} else {
		s.logger.Error("api request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": errors.Describe(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
