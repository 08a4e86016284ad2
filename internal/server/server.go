// Package server exposes the dashboard over HTTP: the Leaflet map page, the
// overlay and summary APIs, and the pass history.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/overlay"
	"github.com/riskatlas/riskmap-cli/internal/pass"
	"github.com/riskatlas/riskmap-cli/internal/store"
)

// PassRunner runs one rendering pass. Satisfied by *pass.Runner.
type PassRunner interface {
	Run(ctx context.Context, address string) (*pass.Result, error)
}

// History reads recent pass rows. Satisfied by *store.SQLiteStore; nil
// disables the endpoint.
type History interface {
	RecentPasses(ctx context.Context, limit int) ([]store.PassRecord, error)
}

// Server holds the handler dependencies.
type Server struct {
	runner  PassRunner
	history History
}

// New builds a Server. history may be nil.
func New(runner PassRunner, history History) *Server {
	return &Server{runner: runner, history: history}
}

// Router assembles the chi router with CORS and recovery middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Get("/api/overlay", s.handleOverlay)
	r.Get("/api/summary", s.handleSummary)
	r.Get("/api/passes", s.handlePasses)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexPage) //nolint:errcheck
}

// overlayResponse is the /api/overlay payload: viewport plus the features in
// draw order.
type overlayResponse struct {
	PassID   string          `json:"pass_id"`
	Center   []float64       `json:"center"` // lon, lat
	Zoom     int             `json:"zoom"`
	Warnings []string        `json:"warnings,omitempty"`
	Features json.RawMessage `json:"features"`
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")

	res, err := s.runner.Run(r.Context(), address)
	if err != nil {
		zap.L().Error("overlay pass failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "rendering pass failed"})
		return
	}

	fc, err := json.Marshal(overlay.EncodeGeoJSON(res.Overlay))
	if err != nil {
		zap.L().Error("overlay encode failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "overlay encode failed"})
		return
	}

	writeJSON(w, http.StatusOK, overlayResponse{
		PassID:   res.PassID,
		Center:   []float64{res.Overlay.Center.Lon, res.Overlay.Center.Lat},
		Zoom:     res.Overlay.Zoom,
		Warnings: res.Overlay.Warnings,
		Features: fc,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Run(r.Context(), "")
	if err != nil {
		zap.L().Error("summary pass failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "rendering pass failed"})
		return
	}
	writeJSON(w, http.StatusOK, res.Summary)
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "pass history disabled"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1..200"})
			return
		}
		limit = n
	}

	passes, err := s.history.RecentPasses(r.Context(), limit)
	if err != nil {
		zap.L().Error("pass history read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pass history read failed"})
		return
	}
	if passes == nil {
		passes = []store.PassRecord{}
	}
	writeJSON(w, http.StatusOK, passes)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
