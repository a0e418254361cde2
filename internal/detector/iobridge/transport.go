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

// Package iobridge owns the four bounded channels between the (external)
// Transport Adapter and the core detection pipeline, and the loops that
// service them: an outbound poll loop, an inbound demux, an alert drain that
// batches and deduplicates, and a query fan-in that merges per-worker
// partial results into a single dashboard reply. Transport itself is an
// external collaborator per the source material's explicit scope exclusion;
// this package only depends on the narrow Transport interface below.
package iobridge

import (
	"context"
	"fmt"

	"dcnguard/internal/detector/model"
)

// InboundKind classifies a message the Transport Adapter hands to the demux
// loop.
type InboundKind string

const (
	InboundMeasurement    InboundKind = "REPLY"
	InboundSimulatorReply InboundKind = "SIMULATOR_CMD_REPLY"
	InboundQuery          InboundKind = "QUERY"
	InboundReset          InboundKind = "RESET"
)

// InboundMessage is one message received from transport, already classified.
// Exactly one of Snapshot/Command is populated, selected by Kind.
type InboundMessage struct {
	Kind     InboundKind
	Snapshot model.Snapshot
	Command  model.Command
}

// OutboundRequest is a single GET_DCN_INFO poll sent to one measurement
// endpoint.
type OutboundRequest struct {
	Target string // "measurer" or "simulator"
}

// AnomalyReport is the outbound, deduplicated HANDLE_FAILURE_ABNORMAL
// payload: Zone -> Kind -> {SwitchIds, ServerIds, LinkIds}. Emptied lists are
// omitted entirely when the whole report is empty — callers check IsEmpty
// before sending.
type AnomalyReport struct {
	Zones map[model.Zone]ZoneAnomalies
}

// ZoneAnomalies splits one zone's report into its ABNORMAL and FAILURE
// halves.
type ZoneAnomalies struct {
	Abnormal IDLists
	Failure  IDLists
}

// IDLists is the de-duplicated id-list triple the wire format calls for.
type IDLists struct {
	SwitchIDs []int64
	ServerIDs []int64
	LinkIDs   []model.LinkID
}

// IsEmpty reports whether every list, in every zone, is empty.
func (r AnomalyReport) IsEmpty() bool {
	for _, z := range r.Zones {
		if len(z.Abnormal.SwitchIDs) > 0 || len(z.Abnormal.ServerIDs) > 0 || len(z.Abnormal.LinkIDs) > 0 {
			return false
		}
		if len(z.Failure.SwitchIDs) > 0 || len(z.Failure.ServerIDs) > 0 || len(z.Failure.LinkIDs) > 0 {
			return false
		}
	}
	return true
}

// QueryReply is the merged dashboard answer for one cmdId. For a full query,
// Full groups the instance summaries ({key, last payload, abnormal, failure})
// by zone only: within a zone they form one flat list in arrival order, not
// further keyed by InstanceKind or Id (each summary carries its own key). It
// mirrors QueryType to tell the transport which shape of detail view it
// carries.
type QueryReply struct {
	CmdID string
	Type  model.QueryType

	Full map[model.Zone][]model.InstanceSummary

	HistoryValues map[model.InstanceKey][]model.HistoryPoint
	AnomalyFlags  map[model.InstanceKey]bool
	FailureFlags  map[model.InstanceKey]bool
	InstanceIDs   []model.InstanceKey
}

// Transport is the narrow surface the IO Bridge depends on. A production
// implementation speaks whatever RPC/message-bus protocol the deployment
// uses; LoggingTransport below is a dependency-free demo standing in for it,
// in the same spirit as the teacher's LoggingRedisEvaler/LoggingKafkaProducer.
type Transport interface {
	// SendRequest issues one outbound GET_DCN_INFO poll. Transport errors are
	// the caller's concern to log; Transport itself just reports success.
	SendRequest(ctx context.Context, req OutboundRequest) error

	// Receive blocks until the next inbound message is available, or ctx is
	// done.
	Receive(ctx context.Context) (InboundMessage, error)

	// SendAnomalyReport ships one batched, deduplicated anomaly report.
	SendAnomalyReport(ctx context.Context, report AnomalyReport) error

	// SendQueryReply ships the merged reply for one cmdId.
	SendQueryReply(ctx context.Context, reply QueryReply) error
}

// LoggingTransport is a dependency-free demo Transport: it logs every
// outbound call and never produces inbound messages of its own. Useful for
// running the pipeline standalone without a real measurement bus. Not for
// production use.
type LoggingTransport struct{}

func (LoggingTransport) SendRequest(ctx context.Context, req OutboundRequest) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[transport-demo] REQUEST GET_DCN_INFO target=%s\n", req.Target)
	return nil
}

func (LoggingTransport) Receive(ctx context.Context) (InboundMessage, error) {
	<-ctx.Done()
	return InboundMessage{}, ctx.Err()
}

func (LoggingTransport) SendAnomalyReport(ctx context.Context, report AnomalyReport) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[transport-demo] ABNORMAL_DETECTOR_CMD HANDLE_FAILURE_ABNORMAL zones=%d\n", len(report.Zones))
	return nil
}

func (LoggingTransport) SendQueryReply(ctx context.Context, reply QueryReply) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[transport-demo] ABNORMAL_DETECTOR_CMD_REPLY SUCCESSFUL cmdId=%s\n", reply.CmdID)
	return nil
}
