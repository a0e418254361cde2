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

// Package core implements the detector worker: the per-instance time-series
// state, the per-kind anomaly rules, and the worker's data/command/heartbeat
// loops. Exactly one worker owns a given InstanceKey for its entire lifetime,
// so everything in this package below the dispatcher boundary is free of
// locks — see dispatcher for the ownership assignment.
package core

import (
	"time"

	"dcnguard/internal/detector/model"
	"dcnguard/pkg/tseries"
)

// InstanceState is the per-InstanceKey state a worker maintains: a bounded
// history ring, one TimeSeries per tracked metric, and the current
// abnormal/failure flags with their last-alert timestamps.
type InstanceState struct {
	Key model.InstanceKey

	history     []model.HistoryPoint
	historyHead int
	historyLen  int
	historyCap  int

	Metrics map[string]*tseries.TimeSeries

	AbnormalState bool
	FailureState  bool
	LastAbnormal  time.Time
	LastFailure   time.Time

	lastResetAt time.Time
}

// NewInstanceState constructs state with a history ring of the given
// capacity (spec default 30).
func NewInstanceState(key model.InstanceKey, historyCap int) *InstanceState {
	if historyCap <= 0 {
		historyCap = 1
	}
	return &InstanceState{
		Key:        key,
		history:    make([]model.HistoryPoint, historyCap),
		historyCap: historyCap,
		Metrics:    make(map[string]*tseries.TimeSeries),
	}
}

// RecordHistory appends a payload observation into the bounded ring,
// overwriting the oldest entry once full.
func (s *InstanceState) RecordHistory(at time.Time, payload model.Payload) {
	s.history[s.historyHead] = model.HistoryPoint{TimestampUnixNano: at.UnixNano(), Payload: payload}
	s.historyHead = (s.historyHead + 1) % s.historyCap
	if s.historyLen < s.historyCap {
		s.historyLen++
	}
}

// History returns the ring's contents in chronological order (oldest first).
func (s *InstanceState) History() []model.HistoryPoint {
	out := make([]model.HistoryPoint, s.historyLen)
	start := (s.historyHead - s.historyLen + s.historyCap) % s.historyCap
	for i := 0; i < s.historyLen; i++ {
		out[i] = s.history[(start+i)%s.historyCap]
	}
	return out
}

// LastPayload returns the most recently recorded payload, or the zero value
// if nothing has been recorded yet.
func (s *InstanceState) LastPayload() model.Payload {
	if s.historyLen == 0 {
		return model.Payload{}
	}
	idx := (s.historyHead - 1 + s.historyCap) % s.historyCap
	return s.history[idx].Payload
}

// Metric lazily creates a named TimeSeries the first time it is requested,
// using opts for its parameters; subsequent calls return the existing series
// unchanged.
func (s *InstanceState) Metric(name string, opts tseries.Options) *tseries.TimeSeries {
	if ts, ok := s.Metrics[name]; ok {
		return ts
	}
	ts := tseries.New(opts)
	s.Metrics[name] = ts
	return ts
}

// ResetSeries clears every tracked TimeSeries, restarting warm-up. Debounced
// by the caller (worker) per the 10-second RESET debounce.
func (s *InstanceState) ResetSeries(now time.Time) {
	for _, ts := range s.Metrics {
		ts.Reset()
	}
	s.lastResetAt = now
}

// ShouldDebounceReset reports whether a RESET arriving at now should be
// suppressed because one was already applied within the debounce window.
func (s *InstanceState) ShouldDebounceReset(now time.Time, debounce time.Duration) bool {
	return !s.lastResetAt.IsZero() && now.Sub(s.lastResetAt) < debounce
}
