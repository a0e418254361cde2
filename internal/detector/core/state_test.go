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

package core

import (
	"testing"
	"time"

	"dcnguard/internal/detector/model"
)

func TestInstanceState_HistoryRingWraps(t *testing.T) {
	key := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}
	state := NewInstanceState(key, 3)

	base := time.Now()
	for i := 0; i < 5; i++ {
		state.RecordHistory(base.Add(time.Duration(i)*time.Second), model.Payload{
			Kind:   model.KindServer,
			Server: &model.ServerPayload{DRAMUsagePercent: float64(i)},
		})
	}

	hist := state.History()
	if len(hist) != 3 {
		t.Fatalf("History() len = %d, want 3 (capacity)", len(hist))
	}
	// Oldest surviving entry should be index 2 (0..4 fed, cap 3 keeps the last 3: 2,3,4).
	if hist[0].Payload.Server.DRAMUsagePercent != 2 {
		t.Fatalf("History()[0].DRAMUsagePercent = %v, want 2", hist[0].Payload.Server.DRAMUsagePercent)
	}
	if hist[2].Payload.Server.DRAMUsagePercent != 4 {
		t.Fatalf("History()[2].DRAMUsagePercent = %v, want 4", hist[2].Payload.Server.DRAMUsagePercent)
	}
}

func TestInstanceState_ResetDebounce(t *testing.T) {
	key := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}
	state := NewInstanceState(key, 3)

	now := time.Now()
	if state.ShouldDebounceReset(now, 10*time.Second) {
		t.Fatalf("ShouldDebounceReset = true before any reset has happened")
	}

	state.ResetSeries(now)
	if !state.ShouldDebounceReset(now.Add(5*time.Second), 10*time.Second) {
		t.Fatalf("ShouldDebounceReset = false within the debounce window")
	}
	if state.ShouldDebounceReset(now.Add(11*time.Second), 10*time.Second) {
		t.Fatalf("ShouldDebounceReset = true after the debounce window elapsed")
	}
}
