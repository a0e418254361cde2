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

package metrics

import "testing"

func TestObserveAlert_NoopWhenDisabled(t *testing.T) {
	modEnabled.Store(false)
	alertsObserved.Store(0)

	ObserveAlert("TURBONET", "ABNORMAL")

	if got := alertsObserved.Load(); got != 0 {
		t.Fatalf("alertsObserved = %d, want 0 while disabled", got)
	}
}

func TestObserveAlert_RecordsWhenEnabled(t *testing.T) {
	modEnabled.Store(true)
	alertsObserved.Store(0)
	defer modEnabled.Store(false)

	ObserveAlert("TURBONET", "ABNORMAL")
	ObserveAlert("SIMULATOR", "FAILURE")

	if got := alertsObserved.Load(); got != 2 {
		t.Fatalf("alertsObserved = %d, want 2", got)
	}
}

func TestObserveDroppedBatch_RecordsWhenEnabled(t *testing.T) {
	modEnabled.Store(true)
	batchesDropped.Store(0)
	defer modEnabled.Store(false)

	ObserveDroppedBatch()
	ObserveDroppedBatch()
	ObserveDroppedBatch()

	if got := batchesDropped.Load(); got != 3 {
		t.Fatalf("batchesDropped = %d, want 3", got)
	}
}

func TestEnabled_ReflectsConfig(t *testing.T) {
	Enable(Config{Enabled: false})
	if Enabled() {
		t.Fatalf("Enabled() = true after Enable(false)")
	}

	Enable(Config{Enabled: true})
	defer Enable(Config{Enabled: false})
	if !Enabled() {
		t.Fatalf("Enabled() = false after Enable(true)")
	}
}
