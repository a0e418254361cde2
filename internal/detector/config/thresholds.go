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

// Package config holds the flag-parsed knobs for the detector, plus a small
// process-global threshold registry captured purely for the final shutdown
// summary — it is not read back by any detection logic.
package config

import (
	"fmt"
	"sync"
	"time"
)

var (
	thresholdsMu sync.Mutex
	thresholds   = map[string]string{}
)

// SetThreshold records a string-valued configuration knob for the final
// summary printout.
func SetThreshold(name, value string) {
	thresholdsMu.Lock()
	defer thresholdsMu.Unlock()
	thresholds[name] = value
}

// SetThresholdInt64 records an integer-valued knob.
func SetThresholdInt64(name string, value int64) {
	SetThreshold(name, fmt.Sprintf("%d", value))
}

// SetThresholdFloat64 records a float-valued knob.
func SetThresholdFloat64(name string, value float64) {
	SetThreshold(name, fmt.Sprintf("%g", value))
}

// SetThresholdBool records a boolean-valued knob.
func SetThresholdBool(name string, value bool) {
	SetThreshold(name, fmt.Sprintf("%t", value))
}

// SetThresholdDuration records a duration-valued knob.
func SetThresholdDuration(name string, value time.Duration) {
	SetThreshold(name, value.String())
}

// Snapshot returns a copy of every recorded knob, safe to range over without
// holding the registry lock.
func Snapshot() map[string]string {
	thresholdsMu.Lock()
	defer thresholdsMu.Unlock()
	out := make(map[string]string, len(thresholds))
	for k, v := range thresholds {
		out[k] = v
	}
	return out
}
