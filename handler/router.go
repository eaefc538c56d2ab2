package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"triage-assistant/internal/metrics"
	"triage-assistant/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Router returns the HTTP API. When rec is non-nil, requests are measured and
// /metrics is served from it.
func (h *Handler) Router(rec *metrics.Recorder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.correlate)
	if rec != nil {
		r.Use(rec.Middleware)
		r.Method(http.MethodGet, "/metrics", rec.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeReply(w, h.routeNotFound(req.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeReply(w, h.methodNotAllowed(req.Context()))
	})

	r.Post("/sessions", func(w http.ResponseWriter, req *http.Request) {
		writeReply(w, h.createSession(req.Context()))
	})
	r.Get("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeReply(w, h.viewSession(req.Context(), chi.URLParam(req, "id")))
	})
	r.Delete("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeReply(w, h.deleteSession(req.Context(), chi.URLParam(req, "id")))
	})
	r.Post("/sessions/{id}/analysis", h.withBody(h.submit))
	r.Post("/sessions/{id}/questions", h.withBody(h.ask))

	return r
}

func (h *Handler) withBody(op func(ctx context.Context, id string, body []byte) reply) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			writeReply(w, h.failureWithStatus(req.Context(), status, usecase.NewError(usecase.ErrorInvalidInput, "invalid_body", err)))
			return
		}
		writeReply(w, op(req.Context(), chi.URLParam(req, "id"), body))
	}
}

func (h *Handler) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := newCorrelationID(strings.TrimSpace(req.Header.Get(CorrelationHeader)))
		w.Header().Set(CorrelationHeader, id)
		next.ServeHTTP(w, req.WithContext(withCorrelationID(req.Context(), id)))
	})
}

func writeReply(w http.ResponseWriter, rep reply) {
	if rep.body == nil {
		w.WriteHeader(rep.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_ = json.NewEncoder(w).Encode(rep.body)
}
