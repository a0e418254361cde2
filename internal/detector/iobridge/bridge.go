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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dcnguard/internal/detector/model"
)

// alertDrainInterval is how often a non-empty batch of deduplicated alerts
// is shipped to the transport.
const alertDrainInterval = time.Second

// Bridge owns the four bounded channels between Transport and the core
// pipeline (data in, cmd in, anom out, res out) and the four loops that
// service them. DataCh/CmdCh are read by the Dispatcher; AnomCh/ResCh carry
// worker alerts and query partials, sent either by the workers themselves or
// by a relay that forwards their output.
type Bridge struct {
	transport  Transport
	interval   time.Duration
	numWorkers int

	dataCh chan model.Snapshot
	cmdCh  chan model.Command
	anomCh chan model.Alert
	resCh  chan model.PartialQueryResult

	stopCh chan struct{}
	wg     sync.WaitGroup

	lastPollUnixNano atomic.Int64
}

// New constructs a Bridge. interval is the outbound poll period I;
// numWorkers tells the query fan-in how many partial results to expect per
// cmdId (one per worker, invariant 5).
func New(transport Transport, interval time.Duration, numWorkers int) *Bridge {
	return &Bridge{
		transport:  transport,
		interval:   interval,
		numWorkers: numWorkers,
		dataCh:     make(chan model.Snapshot, 4),
		cmdCh:      make(chan model.Command, 4),
		anomCh:     make(chan model.Alert, 256),
		resCh:      make(chan model.PartialQueryResult, 256),
		stopCh:     make(chan struct{}),
	}
}

// DataCh is read by the Dispatcher to receive inbound snapshots.
func (b *Bridge) DataCh() <-chan model.Snapshot { return b.dataCh }

// CmdCh is read by the Dispatcher to receive inbound broadcast commands.
func (b *Bridge) CmdCh() <-chan model.Command { return b.cmdCh }

// AnomCh is the alert drain's input; worker alerts are sent to it directly or
// through a relay (cmd/detector forwards them via its audit relay).
func (b *Bridge) AnomCh() chan<- model.Alert { return b.anomCh }

// ResCh is the query fan-in's input; worker partial results are sent to it
// directly or through a relay (cmd/detector forwards them via a query relay).
func (b *Bridge) ResCh() chan<- model.PartialQueryResult { return b.resCh }

// LastPollAge reports how long ago the outbound poll loop last ran a cycle,
// or zero if it has not run yet. Used by the local debug HTTP surface.
func (b *Bridge) LastPollAge() time.Duration {
	last := b.lastPollUnixNano.Load()
	if last == 0 {
		return 0
	}
	return time.Since(time.Unix(0, last))
}

// Start launches the four loops.
func (b *Bridge) Start() {
	b.wg.Add(4)
	go func() { defer b.wg.Done(); b.outboundPollLoop() }()
	go func() { defer b.wg.Done(); b.inboundDemuxLoop() }()
	go func() { defer b.wg.Done(); b.alertDrainLoop() }()
	go func() { defer b.wg.Done(); b.queryFanInLoop() }()
}

// Stop signals every loop to exit and waits for them.
func (b *Bridge) Stop() {
	close(b.stopCh)
	b.wg.Wait()
}

// outboundPollLoop submits a GET_DCN_INFO request to each target every I
// seconds. If processing a cycle took at least I, the sleep is skipped
// entirely rather than accumulating a backlog of catch-up ticks.
func (b *Bridge) outboundPollLoop() {
	for {
		cycleStart := time.Now()
		b.lastPollUnixNano.Store(cycleStart.UnixNano())

		ctx, cancel := context.WithTimeout(context.Background(), b.interval)
		for _, target := range []string{"measurer", "simulator"} {
			if err := b.transport.SendRequest(ctx, OutboundRequest{Target: target}); err != nil {
				fmt.Printf("iobridge: poll request to %s failed: %v\n", target, err)
			}
		}
		cancel()

		elapsed := time.Since(cycleStart)
		sleep := b.interval - elapsed
		if sleep <= 0 {
			select {
			case <-b.stopCh:
				return
			default:
				continue
			}
		}

		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
		case <-b.stopCh:
			timer.Stop()
			return
		}
	}
}

// inboundDemuxLoop blocks on Transport.Receive, classifies each message and
// routes it onto data or cmd. A malformed or unclassifiable message is
// logged and dropped rather than propagated.
func (b *Bridge) inboundDemuxLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-b.stopCh
		cancel()
	}()
	defer cancel()

	for {
		msg, err := b.transport.Receive(ctx)
		if err != nil {
			select {
			case <-b.stopCh:
				return
			default:
			}
			fmt.Printf("iobridge: receive failed: %v\n", err)
			continue
		}

		switch msg.Kind {
		case InboundMeasurement, InboundSimulatorReply:
			select {
			case b.dataCh <- msg.Snapshot:
			case <-b.stopCh:
				return
			}
		case InboundQuery, InboundReset:
			select {
			case b.cmdCh <- msg.Command:
			case <-b.stopCh:
				return
			}
		default:
			fmt.Printf("iobridge: dropping message of unknown kind %q\n", msg.Kind)
		}
	}
}

// alertDrainLoop continuously dequeues alerts, merges them into a
// deduplicating set keyed Zone -> Kind, and ships one batched report per
// tick, only when it is non-empty.
func (b *Bridge) alertDrainLoop() {
	ticker := time.NewTicker(alertDrainInterval)
	defer ticker.Stop()

	pending := newAlertSet()

	for {
		select {
		case alert := <-b.anomCh:
			pending.add(alert)
		case <-ticker.C:
			if pending.isEmpty() {
				continue
			}
			report := pending.drain()
			ctx, cancel := context.WithTimeout(context.Background(), alertDrainInterval)
			if err := b.transport.SendAnomalyReport(ctx, report); err != nil {
				fmt.Printf("iobridge: send anomaly report failed: %v\n", err)
			}
			cancel()
		case <-b.stopCh:
			return
		}
	}
}

// queryFanInLoop accumulates partial results per cmdId and ships a single
// merged reply once exactly numWorkers partials have arrived, then forgets
// the cmdId. A worker that crashes mid-flight leaves its cmdId's entry
// un-mergeable; per the source material this is a known gap (no
// timeout-sweeper is specified).
func (b *Bridge) queryFanInLoop() {
	pending := make(map[string][]model.PartialQueryResult)

	for {
		select {
		case partial := <-b.resCh:
			pending[partial.CmdID] = append(pending[partial.CmdID], partial)
			if len(pending[partial.CmdID]) < b.numWorkers {
				continue
			}
			reply := mergeQueryReply(partial.CmdID, pending[partial.CmdID])
			delete(pending, partial.CmdID)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := b.transport.SendQueryReply(ctx, reply); err != nil {
				fmt.Printf("iobridge: send query reply failed: %v\n", err)
			}
			cancel()
		case <-b.stopCh:
			return
		}
	}
}

func mergeQueryReply(cmdID string, partials []model.PartialQueryResult) QueryReply {
	reply := QueryReply{CmdID: cmdID}
	if len(partials) > 0 {
		reply.Type = partials[0].Type
	}

	switch reply.Type {
	case model.QueryHistoryValue:
		reply.HistoryValues = make(map[model.InstanceKey][]model.HistoryPoint)
		for _, p := range partials {
			for k, v := range p.HistoryValues {
				reply.HistoryValues[k] = v
			}
		}
	case model.QueryAnomalyRecord:
		reply.AnomalyFlags = make(map[model.InstanceKey]bool)
		for _, p := range partials {
			for k, v := range p.AnomalyFlags {
				reply.AnomalyFlags[k] = v
			}
		}
	case model.QueryFailureRecord:
		reply.FailureFlags = make(map[model.InstanceKey]bool)
		for _, p := range partials {
			for k, v := range p.FailureFlags {
				reply.FailureFlags[k] = v
			}
		}
	case model.QueryInstanceIDs:
		for _, p := range partials {
			reply.InstanceIDs = append(reply.InstanceIDs, p.InstanceIDs...)
		}
	default: // model.QueryFull, or unset: a worker owning no instance in the zone keeps the command's QueryType, which may be ""
		reply.Type = model.QueryFull
		reply.Full = make(map[model.Zone][]model.InstanceSummary)
		for _, p := range partials {
			for _, summary := range p.Full {
				reply.Full[summary.Key.Zone] = append(reply.Full[summary.Key.Zone], summary)
			}
		}
	}
	return reply
}
