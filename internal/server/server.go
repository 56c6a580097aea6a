// Package server exposes the oracle over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"oracle/internal/domain"
	"oracle/internal/usecase"
)

const (
	serviceName    = "oracle API"
	sourcePreview  = 200
	maxRequestBody = 1 << 20
)

// Service is the part of the oracle the API needs.
type Service interface {
	IndexDocuments(ctx context.Context, force bool, progress usecase.ProgressFunc) (*usecase.IndexResult, error)
	Ask(ctx context.Context, question string, k int) (*usecase.Answer, error)
	GetStats(ctx context.Context) (domain.Stats, error)
}

type Server struct {
	svc      Service
	defaultK int
	version  string
	logger   *slog.Logger
}

func New(svc Service, defaultK int, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if defaultK < 1 {
		defaultK = 5
	}
	return &Server{svc: svc, defaultK: defaultK, version: version, logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /index", s.handleIndex)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type queryRequest struct {
	Question    string `json:"question"`
	NResults    *int   `json:"n_results"`
	ShowSources bool   `json:"show_sources"`
}

type indexRequest struct {
	ForceReindex bool `json:"force_reindex"`
}

type source struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": serviceName,
		"version": s.version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetStats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeError(w, http.StatusBadRequest, "Content-Type must be application/json")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "field 'question' is required")
		return
	}
	k := s.defaultK
	if req.NResults != nil {
		k = *req.NResults
	}
	if k < 1 {
		writeError(w, http.StatusBadRequest, "field 'n_results' must be at least 1")
		return
	}

	s.logger.Info("query received", "question", preview(question, 50), "k", k)

	answer, err := s.svc.Ask(r.Context(), question, k)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"success":  true,
		"response": answer.Text,
		"question": question,
		"status":   answer.Status,
	}
	if req.ShowSources {
		sources := make([]source, 0, len(answer.Results))
		for _, res := range answer.Results {
			sources = append(sources, source{
				Filename: res.Metadata.Filename,
				Text:     preview(res.Text, sourcePreview),
			})
		}
		resp["sources"] = sources
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if isJSON(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	s.logger.Info("index requested", "force", req.ForceReindex)

	result, err := s.svc.IndexDocuments(r.Context(), req.ForceReindex, nil)
	if err != nil {
		s.logger.Error("indexing failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrNoDocuments) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	stats, err := s.svc.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := "indexing complete"
	if result.Skipped {
		message = "index already populated; use force_reindex to rebuild"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"stats":   stats,
	})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
