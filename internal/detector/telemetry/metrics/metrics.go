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

// Package metrics provides opt-in, low-overhead Prometheus telemetry for the
// detector pipeline. Every exported function is a safe no-op until Enable has
// been called, so call sites never need to guard on whether telemetry is on.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls telemetry behavior.
type Config struct {
	Enabled     bool
	MetricsAddr string        // e.g. ":9090"; empty disables the standalone endpoint
	LogInterval time.Duration // periodic columnar summary; 0 disables
}

var (
	modEnabled atomic.Bool

	// Plain atomic mirrors of the two counters the periodic log summary
	// reports, kept alongside the Prometheus vectors since client_golang
	// does not expose a cheap read path for a CounterVec's total.
	alertsObserved atomic.Int64
	batchesDropped atomic.Int64

	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dcnguard_alerts_total",
		Help: "Total alerts emitted, by zone and kind",
	}, []string{"zone", "kind"})

	trackedInstances = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dcnguard_tracked_instances",
		Help: "Instances currently tracked, by worker",
	}, []string{"worker"})

	inboundDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dcnguard_worker_inbound_depth",
		Help: "Pending batches in a worker's inbound data channel",
	}, []string{"worker"})

	dispatchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dcnguard_dispatch_latency_seconds",
		Help:    "Time to explode and route one snapshot across all workers",
		Buckets: prometheus.DefBuckets,
	})

	droppedBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dcnguard_dropped_batches_total",
		Help: "Batches discarded because the target worker's previous batch was still in flight",
	})
)

func init() {
	prometheus.MustRegister(alertsTotal, trackedInstances, inboundDepth, dispatchLatency, droppedBatchesTotal)
}

// Enable turns telemetry on and, if configured, starts the /metrics endpoint
// and the periodic summary log loop. Safe to call multiple times.
func Enable(cfg Config) {
	modEnabled.Store(cfg.Enabled)
	if !cfg.Enabled {
		return
	}
	if cfg.MetricsAddr != "" {
		startMetricsEndpoint(cfg.MetricsAddr)
	}
	if cfg.LogInterval > 0 {
		startExporter(cfg.LogInterval)
	}
}

// Enabled reports whether telemetry is active.
func Enabled() bool { return modEnabled.Load() }

// ObserveAlert records one emitted alert.
func ObserveAlert(zone, kind string) {
	if !modEnabled.Load() {
		return
	}
	alertsTotal.WithLabelValues(zone, kind).Inc()
	alertsObserved.Add(1)
}

// SetTrackedInstances records a worker's current instance count.
func SetTrackedInstances(worker string, n int64) {
	if !modEnabled.Load() {
		return
	}
	trackedInstances.WithLabelValues(worker).Set(float64(n))
}

// SetInboundDepth records a worker's pending-batch depth (0 or 1, given the
// single-slot data channel).
func SetInboundDepth(worker string, depth int) {
	if !modEnabled.Load() {
		return
	}
	inboundDepth.WithLabelValues(worker).Set(float64(depth))
}

// ObserveDispatchLatency records one snapshot's fan-out duration.
func ObserveDispatchLatency(d time.Duration) {
	if !modEnabled.Load() {
		return
	}
	dispatchLatency.Observe(d.Seconds())
}

// ObserveDroppedBatch records one overloaded-worker drop.
func ObserveDroppedBatch() {
	if !modEnabled.Load() {
		return
	}
	droppedBatchesTotal.Inc()
	batchesDropped.Add(1)
}

func startMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
