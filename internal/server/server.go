// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the recommendation pipeline over HTTP. Progress is
// streamed to the client as Server-Sent Events so the UI can show stage
// transitions while the pipeline runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/tablerank/internal/pipeline"
	"github.com/pdiddy/tablerank/pkg/types"
)

// Runner executes one pipeline run, streaming progress to the sink.
type Runner interface {
	Run(ctx context.Context, req types.RecommendationRequest, sink pipeline.Sink) error
}

// Server routes HTTP traffic to the pipeline.
type Server struct {
	runner Runner
	log    zerolog.Logger
	router chi.Router
}

// New builds the server and its routes.
func New(runner Runner, log zerolog.Logger) *Server {
	s := &Server{runner: runner, log: log}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Post("/api/recommendations", s.handleRecommendations)
	r.Get("/healthz", s.handleHealth)
	s.router = r

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger assigns each request an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		log := s.log.With().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
		log.Info().Dur("duration", time.Since(start)).Msg("request handled")
	})
}

// errorBody is the JSON shape for non-streaming error responses.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleRecommendations validates the request, then streams pipeline
// progress as SSE frames. Validation failures are a plain 400 response;
// failures after streaming starts arrive as error events on the stream.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	var req types.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := pipeline.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher, ctx: r.Context()}
	if err := s.runner.Run(r.Context(), req, sink); err != nil {
		// The sink already carried the error event; validation cannot fail
		// here since the request was checked before streaming began.
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("pipeline run failed")
		}
	}
	sink.done()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Success: false, Error: code, Message: message})
}
