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

// Package tseries provides the rolling statistics primitive used by the
// anomaly detector's k-sigma rule: a bounded window that maintains a running
// mean and standard deviation without ever rescanning its contents, and a
// lagged time series built on top of it.
//
// Neither type is safe for concurrent use. Per the detector's ownership
// model, a TimeSeries is mutated only by the worker goroutine that owns its
// instance, so no locking is needed here — see internal/detector/core.
package tseries

import "math"

// StatWindow is a bounded FIFO of up to Limit samples that keeps a running
// mean and standard deviation current as samples are added and evicted,
// without recomputing from the full contents on every update.
type StatWindow struct {
	limit int
	n     int
	mu    float64
	sigma float64
	// values holds the raw samples in insertion order so the oldest can be
	// evicted once the window exceeds limit.
	values []float64
}

// NewStatWindow constructs a window holding at most limit samples.
func NewStatWindow(limit int) *StatWindow {
	if limit < 0 {
		limit = 0
	}
	return &StatWindow{limit: limit}
}

// Add appends x to the window, evicting the oldest sample if the window
// would exceed its limit. Mean and variance are updated algebraically in
// both directions rather than recomputed from scratch.
func (w *StatWindow) Add(x float64) {
	n := float64(w.n)
	newMu := (w.mu*n + x) / (n + 1)
	// sigma^2 update: incorporate x into the running sum of squared
	// deviations, then recover sigma from it.
	newVar := (n*(w.sigma*w.sigma+(newMu-w.mu)*(newMu-w.mu)) + (newMu-x)*(newMu-x)) / (n + 1)
	if newVar < 0 {
		newVar = 0
	}
	w.mu = newMu
	w.sigma = math.Sqrt(newVar)
	w.n++
	w.values = append(w.values, x)

	if w.n > w.limit {
		w.evictOldest()
	}
}

// evictOldest removes the single oldest sample and inverts the algebraic
// update that would have added it, recovering the mean/variance the window
// would have had without it. n is guaranteed >= 1 here since Add only calls
// this after incrementing n past limit; when n is exactly 1 (a zero-limit
// window) the window becomes empty and its statistics reset to zero.
func (w *StatWindow) evictOldest() {
	value := w.values[0]
	w.values = w.values[1:]

	if w.n == 1 {
		w.n, w.mu, w.sigma = 0, 0, 0
		return
	}

	n := float64(w.n)
	newMu := (w.mu*n - value) / (n - 1)
	newVar := (n*(w.sigma*w.sigma+(newMu-w.mu)*(newMu-w.mu)) - (newMu-value)*(newMu-value)) / (n - 1)
	if newVar < 0 {
		newVar = 0
	}
	w.mu = newMu
	w.sigma = math.Sqrt(newVar)
	w.n--
}

// Stats returns the current mean and standard deviation of the window's
// contents. Both are zero for an empty window.
func (w *StatWindow) Stats() (mu, sigma float64) {
	return w.mu, w.sigma
}

// Len reports the number of samples currently held.
func (w *StatWindow) Len() int {
	return w.n
}

// Reset empties the window, discarding all samples and statistics.
func (w *StatWindow) Reset() {
	w.n = 0
	w.mu = 0
	w.sigma = 0
	w.values = nil
}
