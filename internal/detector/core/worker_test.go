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

	"dcnguard/internal/detector/config"
	"dcnguard/internal/detector/model"
)

func newTestWorker(opts config.Options) (*Worker, chan model.Alert, chan model.PartialQueryResult) {
	anomCh := make(chan model.Alert, 16)
	resCh := make(chan model.PartialQueryResult, 16)
	w := NewWorker(0, opts, anomCh, resCh, 0)
	return w, anomCh, resCh
}

func testOptions() config.Options {
	return config.Options{
		K:                    3,
		NormalWindowLength:   5,
		AbnormalWindowLength: 2,
		Cooldown:             30 * time.Second,
		HistoryLenLimit:      30,
		LinkUtilThres:        0.6,
		LinkPacketNumThres:   10000,
	}
}

// TestWorker_Scenario2_CooldownSuppressesRepeat covers scenario #2: once an
// ABNORMAL alert fires, continuing to feed abnormal samples within cooldown
// produces no further alert.
func TestWorker_Scenario2_CooldownSuppressesRepeat(t *testing.T) {
	w, anomCh, _ := newTestWorker(testOptions())
	key := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}
	now := time.Now()

	serverRecord := func(cpu float64) model.Record {
		return model.Record{
			Key: key,
			Payload: model.Payload{
				Kind:   model.KindServer,
				Server: &model.ServerPayload{Active: true, CPUUtilization: []float64{cpu}},
			},
		}
	}

	for i := 0; i < 7; i++ {
		w.processRecord(serverRecord(10), now)
	}
	w.processRecord(serverRecord(50), now)
	w.processRecord(serverRecord(50), now)

	for i := 0; i < 5; i++ {
		w.processRecord(serverRecord(50), now)
	}

	select {
	case <-anomCh:
	default:
		t.Fatalf("expected exactly one alert queued, got none")
	}
	select {
	case a := <-anomCh:
		t.Fatalf("expected cooldown to suppress a second alert, got %+v", a)
	default:
	}
}

// TestWorker_Scenario3_FailureThenRecovery covers scenario #3: a server that
// flips inactive emits one FAILURE alert, and returning to normal does not
// immediately emit an ABNORMAL alert.
func TestWorker_Scenario3_FailureThenRecovery(t *testing.T) {
	w, anomCh, _ := newTestWorker(testOptions())
	key := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}
	now := time.Now()

	active := model.Record{Key: key, Payload: model.Payload{Kind: model.KindServer, Server: &model.ServerPayload{Active: true, CPUUtilization: []float64{10}}}}
	inactive := model.Record{Key: key, Payload: model.Payload{Kind: model.KindServer, Server: &model.ServerPayload{Active: false}}}

	w.processRecord(active, now)
	w.processRecord(inactive, now)

	select {
	case a := <-anomCh:
		if a.Kind != model.AlertFailure {
			t.Fatalf("expected FAILURE alert, got %+v", a)
		}
	default:
		t.Fatalf("expected a FAILURE alert on the inactive flip")
	}

	w.processRecord(active, now)
	select {
	case a := <-anomCh:
		t.Fatalf("expected no ABNORMAL alert immediately after recovery, got %+v", a)
	default:
	}
}

// TestWorker_Scenario6_ResetRestartsWarmUp covers scenario #6: RESET clears
// every TimeSeries so stats return to (0,0) and warm-up restarts.
func TestWorker_Scenario6_ResetRestartsWarmUp(t *testing.T) {
	w, anomCh, _ := newTestWorker(testOptions())
	key := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}
	now := time.Now()

	serverRecord := func(cpu float64) model.Record {
		return model.Record{
			Key: key,
			Payload: model.Payload{
				Kind:   model.KindServer,
				Server: &model.ServerPayload{Active: true, CPUUtilization: []float64{cpu}},
			},
		}
	}

	for i := 0; i < 7; i++ {
		w.processRecord(serverRecord(10), now)
	}
	w.processRecord(serverRecord(50), now)
	w.processRecord(serverRecord(50), now)
	<-anomCh // drain the scenario-1 alert

	w.handleReset()

	state := w.instances[key]
	mu, sigma := state.Metrics["cpu_utilization"].Stats()
	if mu != 0 || sigma != 0 {
		t.Fatalf("Stats() after RESET = (%v, %v), want (0, 0)", mu, sigma)
	}

	w.processRecord(serverRecord(50), now)
	w.processRecord(serverRecord(50), now)
	select {
	case a := <-anomCh:
		t.Fatalf("expected no alert until new warm-up completes, got %+v", a)
	default:
	}
}

// TestWorker_TrySubmitData_BusyDrop verifies the reentrancy/overload guard:
// a second batch submitted while the first is still queued is dropped.
func TestWorker_TrySubmitData_BusyDrop(t *testing.T) {
	w, _, _ := newTestWorker(testOptions())

	if ok := w.TrySubmitData([]model.Record{}); !ok {
		t.Fatalf("first TrySubmitData = false, want true")
	}
	if ok := w.TrySubmitData([]model.Record{}); ok {
		t.Fatalf("second TrySubmitData while first still queued = true, want false (busy, drop)")
	}
}

// TestWorker_QueryFull_ScopesToZone verifies QUERY(zone) only returns
// instances owned in the requested zone.
func TestWorker_QueryFull_ScopesToZone(t *testing.T) {
	w, _, resCh := newTestWorker(testOptions())
	now := time.Now()

	turbonetKey := model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindSwitch, Id: 1}
	simKey := model.InstanceKey{Zone: model.ZoneSimulator, Kind: model.KindSwitch, Id: 2}
	w.processRecord(model.Record{Key: turbonetKey, Payload: model.Payload{Kind: model.KindSwitch, Switch: &model.SwitchPayload{Active: true}}}, now)
	w.processRecord(model.Record{Key: simKey, Payload: model.Payload{Kind: model.KindSwitch, Switch: &model.SwitchPayload{Active: true}}}, now)

	w.handleQuery(model.Command{Type: model.CommandQuery, CmdID: "c1", Zone: model.ZoneTurbonet, QueryType: model.QueryFull})

	result := <-resCh
	if len(result.Full) != 1 || result.Full[0].Key != turbonetKey {
		t.Fatalf("QueryFull result = %+v, want exactly the turbonet key", result.Full)
	}
}
