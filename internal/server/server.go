// Package server exposes the AutoPilot engine and AI gateway over a
// small local HTTP API, used by the CLI's serve mode and by browser
// extension surfaces.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tabops/tabpilot/internal/ai"
	"github.com/tabops/tabpilot/internal/autopilot"
	"github.com/tabops/tabpilot/internal/logging"
)

// Server wires the engine and gateway into HTTP handlers.
type Server struct {
	engine  *autopilot.Engine
	gateway *ai.Gateway
}

// New creates a server. gateway may be nil when AI is unconfigured.
func New(engine *autopilot.Engine, gateway *ai.Gateway) *Server {
	return &Server{engine: engine, gateway: gateway}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Post("/run", s.handleRun)
		r.Get("/usage", s.handleUsage)
		r.Post("/usage/reset", s.handleUsageReset)
		r.Get("/providers", s.handleProviders)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logging.Infof("API listening on %s", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReport runs a read-only analysis pass. ?ai=1 adds narrative
// insights when a gateway is configured.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var (
		report *autopilot.Report
		err    error
	)
	if r.URL.Query().Get("ai") == "1" {
		report, err = s.engine.AnalyzeWithAI(r.Context())
	} else {
		report, err = s.engine.Analyze(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleRun executes a full AutoPilot pass with side effects.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Execute(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no_provider: AI gateway not configured"))
		return
	}
	writeJSON(w, http.StatusOK, s.gateway.Usage())
}

func (s *Server) handleUsageReset(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no_provider: AI gateway not configured"))
		return
	}
	s.gateway.ResetUsage()
	writeJSON(w, http.StatusOK, s.gateway.Usage())
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		writeJSON(w, http.StatusOK, []ai.ProviderStatus{})
		return
	}
	writeJSON(w, http.StatusOK, s.gateway.ChainStatus(r.Context()))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings autopilot.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad_request: %w", err))
		return
	}
	if err := s.engine.SaveSettings(settings); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("failed to encode response: %v", err)
	}
}

// writeError emits the kind:detail error string the UI pattern-matches
// on. Typed gateway errors already render in that convention.
func writeError(w http.ResponseWriter, status int, err error) {
	var quota *ai.QuotaError
	if errors.As(err, &quota) {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
