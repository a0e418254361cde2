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

package iobridge

import (
	"context"
	"testing"
	"time"

	"dcnguard/internal/detector/model"
)

type fakeTransport struct {
	recvCh   chan InboundMessage
	requests chan OutboundRequest
	reports  chan AnomalyReport
	replies  chan QueryReply
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		recvCh:   make(chan InboundMessage, 8),
		requests: make(chan OutboundRequest, 8),
		reports:  make(chan AnomalyReport, 8),
		replies:  make(chan QueryReply, 8),
	}
}

func (f *fakeTransport) SendRequest(ctx context.Context, req OutboundRequest) error {
	select {
	case f.requests <- req:
	default:
	}
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (InboundMessage, error) {
	select {
	case m := <-f.recvCh:
		return m, nil
	case <-ctx.Done():
		return InboundMessage{}, ctx.Err()
	}
}

func (f *fakeTransport) SendAnomalyReport(ctx context.Context, report AnomalyReport) error {
	f.reports <- report
	return nil
}

func (f *fakeTransport) SendQueryReply(ctx context.Context, reply QueryReply) error {
	f.replies <- reply
	return nil
}

func TestBridge_DemuxRoutesSnapshotToDataCh(t *testing.T) {
	transport := newFakeTransport()
	bridge := New(transport, 50*time.Millisecond, 1)
	bridge.Start()
	defer bridge.Stop()

	snap := model.Snapshot{Zone: model.ZoneTurbonet}
	transport.recvCh <- InboundMessage{Kind: InboundMeasurement, Snapshot: snap}

	select {
	case got := <-bridge.DataCh():
		if got.Zone != model.ZoneTurbonet {
			t.Fatalf("got zone %v, want %v", got.Zone, model.ZoneTurbonet)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot on DataCh")
	}
}

func TestBridge_DemuxRoutesCommandToCmdCh(t *testing.T) {
	transport := newFakeTransport()
	bridge := New(transport, 50*time.Millisecond, 1)
	bridge.Start()
	defer bridge.Stop()

	transport.recvCh <- InboundMessage{Kind: InboundReset, Command: model.Command{Type: model.CommandReset}}

	select {
	case got := <-bridge.CmdCh():
		if got.Type != model.CommandReset {
			t.Fatalf("got command type %v, want RESET", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for command on CmdCh")
	}
}

func TestBridge_QueryFanIn_MergesAfterAllPartials(t *testing.T) {
	transport := newFakeTransport()
	bridge := New(transport, 50*time.Millisecond, 2)
	bridge.Start()
	defer bridge.Stop()

	const cmdID = "cmd-1"
	bridge.ResCh() <- model.PartialQueryResult{
		CmdID: cmdID,
		Type:  model.QueryFull,
		Full:  []model.InstanceSummary{{Key: model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 1}}},
	}

	select {
	case <-transport.replies:
		t.Fatal("reply shipped before all partials arrived")
	case <-time.After(100 * time.Millisecond):
	}

	bridge.ResCh() <- model.PartialQueryResult{
		CmdID: cmdID,
		Type:  model.QueryFull,
		Full:  []model.InstanceSummary{{Key: model.InstanceKey{Zone: model.ZoneTurbonet, Kind: model.KindServer, Id: 2}}},
	}

	select {
	case reply := <-transport.replies:
		if reply.CmdID != cmdID {
			t.Fatalf("reply cmdId = %q, want %q", reply.CmdID, cmdID)
		}
		if len(reply.Full[model.ZoneTurbonet]) != 2 {
			t.Fatalf("merged Full entries = %d, want 2", len(reply.Full[model.ZoneTurbonet]))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for merged query reply")
	}
}

func TestBridge_AlertDrain_ShipsOnlyWhenNonEmpty(t *testing.T) {
	transport := newFakeTransport()
	bridge := New(transport, 50*time.Millisecond, 1)
	bridge.Start()
	defer bridge.Stop()

	switchID := int64(9)
	bridge.AnomCh() <- model.Alert{Zone: model.ZoneTurbonet, Kind: model.AlertAbnormal, SwitchID: &switchID}

	select {
	case report := <-transport.reports:
		if report.IsEmpty() {
			t.Fatalf("report should not be empty")
		}
		ids := report.Zones[model.ZoneTurbonet].Abnormal.SwitchIDs
		if len(ids) != 1 || ids[0] != 9 {
			t.Fatalf("SwitchIDs = %v, want [9]", ids)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batched anomaly report")
	}

	select {
	case report := <-transport.reports:
		t.Fatalf("expected no report for an interval with no alerts, got %+v", report)
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestBridge_OutboundPollLoop_SendsToBothTargets(t *testing.T) {
	transport := newFakeTransport()
	bridge := New(transport, 30*time.Millisecond, 1)
	bridge.Start()
	defer bridge.Stop()

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case req := <-transport.requests:
			seen[req.Target] = true
		case <-deadline:
			t.Fatalf("timed out waiting for both poll targets, saw %v", seen)
		}
	}
	if !seen["measurer"] || !seen["simulator"] {
		t.Fatalf("expected both measurer and simulator targets, saw %v", seen)
	}
}
