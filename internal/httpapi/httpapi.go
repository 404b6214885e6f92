// Copyright 2025 Nexus Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpapi implements the HTTP surface of §6 on top of
// github.com/go-chi/chi/v5, the pack's routing library with no direct
// in-pack usage site (see DESIGN.md), wired here as Nexus's only sensible
// home for it.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/metrics"
	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
	"github.com/athulkannan2000/nexus-functions/internal/orchestrator"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

// Version is stamped at build time; left as a sentinel default otherwise.
var Version = "dev"

// Server wires spec.md §6's routes onto a chi.Router.
type Server struct {
	orch    *orchestrator.Orchestrator
	evlog   *eventlog.Log
	adapter *stream.Adapter
	metrics *metrics.Registry
}

// New constructs a Server. Call Router to obtain the http.Handler to mount.
func New(orch *orchestrator.Orchestrator, evlog *eventlog.Log, adapter *stream.Adapter, mtr *metrics.Registry) *Server {
	return &Server{orch: orch, evlog: evlog, adapter: adapter, metrics: mtr}
}

// MetricsHandler returns the standalone /metrics handler for mounting on the
// teacher-style dedicated metrics listener (MetricServerConfig), separate
// from the main API port.
func MetricsHandler(mtr *metrics.Registry) http.Handler {
	return promhttp.HandlerFor(mtr.Gatherer(), promhttp.HandlerOpts{})
}

// Router builds the chi.Router implementing every path in §6's table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", s.handlePublish)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGetByID)
	})

	r.Post("/webhook/*", s.handleWebhook)
	r.Post("/replay/{id}", s.handleReplay)
	r.Post("/execute/{id}", s.handleExecute)

	return r
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{}
	body.Error.Code = nexuserr.Code(err)
	body.Error.Message = err.Error()
	body.TraceID = middleware.GetReqID(r.Context())

	zerolog.Ctx(r.Context()).Error().Err(err).Str("code", body.Error.Code).Msg("request failed")

	writeJSON(w, nexuserr.HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        Version,
		"nats_connected": s.adapter.Connected(),
	})
}

type publishRequest struct {
	EventType string `json:"event_type"`
	Data      any    `json:"data"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, nexuserr.NewInvalidInput("malformed request body: %v", err))
		return
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = "generic.event"
	}

	ce, err := s.orch.Ingest(r.Context(), "/events/"+eventType, req.Data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id":   ce.ID(),
		"status":     "published",
		"event_type": ce.Type(),
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var data any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&data)
	}

	ce, err := s.orch.Ingest(r.Context(), r.URL.Path, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id":   ce.ID(),
		"status":     "published",
		"event_type": ce.Type(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("type")
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	events, err := s.evlog.List(eventType, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ce, found, err := s.evlog.GetByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, nexuserr.NewNotFound("event %q not found", id))
		return
	}

	writeJSON(w, http.StatusOK, ce)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ce, err := s.orch.Replay(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": ce.ID(),
		"status":   "replayed",
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := s.orch.Execute(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": id,
		"results":  results,
	})
}
