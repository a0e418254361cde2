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

package config

import "time"

// Options carries every tunable named in the external interface: poll
// interval, worker pool size, k-sigma parameters, cooldown, and the per-kind
// detector thresholds. Defaults mirror the documented configuration knobs.
type Options struct {
	Interval   time.Duration
	NumWorkers int

	K                    float64
	NormalWindowLength   int
	AbnormalWindowLength int

	Cooldown        time.Duration
	HistoryLenLimit int

	LinkUtilThres      float64
	LinkPacketNumThres int64

	CPUJitterSigma float64
	MemJitterSigma float64

	SendReports bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Interval:             3 * time.Second,
		NumWorkers:           18,
		K:                    3,
		NormalWindowLength:   30,
		AbnormalWindowLength: 2,
		Cooldown:             30 * time.Second,
		HistoryLenLimit:      30,
		LinkUtilThres:        0.6,
		LinkPacketNumThres:   10000,
		CPUJitterSigma:       10,
		MemJitterSigma:       5,
		SendReports:          true,
	}
}
