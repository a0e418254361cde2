// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package api implements a local, read-only HTTP debug surface for the
// detector: liveness, Prometheus scraping, and a status snapshot for
// operators. It is not the dashboard's query path — that fan-in runs over
// the Transport Adapter and IO Bridge, per the source material's explicit
// scope exclusion of RPC transport from this core.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dcnguard/internal/detector/telemetry/metrics"
)

// StatusProvider supplies the live figures the /status endpoint reports.
// Kept narrow so tests can substitute a fake, in the same spirit as
// dispatcher.WorkerHandle.
type StatusProvider interface {
	Status() Status
}

// Status is a point-in-time snapshot of the running pipeline.
type Status struct {
	WorkerInstanceCounts map[int]int64 `json:"worker_instance_counts"`
	LastPollAgeSeconds   float64       `json:"last_poll_age_seconds"`
	TopologyBuilt        bool          `json:"topology_built"`
}

// Server handles the local debug HTTP surface.
type Server struct {
	status           StatusProvider
	telemetryEnabled bool
}

// NewServer constructs a Server backed by status. /metrics is registered when
// telemetryEnabled is true or when telemetry has been turned on process-wide
// through metrics.Enable; otherwise it is not registered at all.
func NewServer(status StatusProvider, telemetryEnabled bool) *Server {
	return &Server{status: status, telemetryEnabled: telemetryEnabled}
}

// RegisterRoutes sets up the HTTP routes on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	if s.telemetryEnabled || metrics.Enabled() {
		mux.Handle("/metrics", promhttp.Handler())
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on addr with the same read/write/
// idle timeouts the rate limiter's debug server uses.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return httpServer.ListenAndServe()
}
