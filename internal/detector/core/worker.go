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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dcnguard/internal/detector/config"
	"dcnguard/internal/detector/model"
	"dcnguard/internal/detector/telemetry/metrics"
)

// resetDebounce suppresses duplicate RESET commands arriving in quick
// succession, per spec.
const resetDebounce = 10 * time.Second

// Worker owns a disjoint subset of instances, pinned by the Dispatcher on
// first observation. Its three cooperating loops — data, command, heartbeat —
// run as separate goroutines but never touch each other's instances map
// concurrently with anything outside this worker.
type Worker struct {
	id   int
	opts config.Options

	instances map[model.InstanceKey]*InstanceState

	dataCh chan []model.Record
	cmdCh  chan model.Command
	anomCh chan<- model.Alert
	resCh  chan<- model.PartialQueryResult

	heartbeatInterval time.Duration
	recordsProcessed  atomic.Int64
	trackedInstances  atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker constructs a worker. anomCh and resCh are shared by every worker
// and lead to the IO Bridge (directly or through a relay); dataCh is buffered to exactly 1 so a still-in-flight batch is
// visible to TrySubmitData as "busy" rather than silently queueing deeper.
func NewWorker(id int, opts config.Options, anomCh chan<- model.Alert, resCh chan<- model.PartialQueryResult, heartbeatInterval time.Duration) *Worker {
	return &Worker{
		id:                id,
		opts:              opts,
		instances:         make(map[model.InstanceKey]*InstanceState),
		dataCh:            make(chan []model.Record, 1),
		cmdCh:             make(chan model.Command, 16),
		anomCh:            anomCh,
		resCh:             resCh,
		heartbeatInterval: heartbeatInterval,
		stopCh:            make(chan struct{}),
	}
}

// TrySubmitData hands a batch to the worker's data task. It returns false,
// without blocking, if the worker's previous batch is still in flight — the
// "busy, drop" overload outcome called for by the concurrency design, rather
// than an unbounded queue or a silently blocking send.
func (w *Worker) TrySubmitData(batch []model.Record) bool {
	select {
	case w.dataCh <- batch:
		return true
	default:
		return false
	}
}

// ID returns the worker's index, fixed for the lifetime of the run.
func (w *Worker) ID() int { return w.id }

// TrackedInstances returns the worker's current owned-instance count. Safe
// to call from any goroutine; used by the local debug HTTP surface.
func (w *Worker) TrackedInstances() int64 { return w.trackedInstances.Load() }

// SubmitCommand broadcasts a control message to the worker. Commands are rare
// enough that this blocks rather than drops.
func (w *Worker) SubmitCommand(cmd model.Command) {
	w.cmdCh <- cmd
}

// Start launches the worker's background goroutines.
func (w *Worker) Start() {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.dataLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.cmdLoop()
	}()
	if w.heartbeatInterval > 0 {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.heartbeatLoop()
		}()
	}
}

// Stop signals every loop to exit and waits for them.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Worker) dataLoop() {
	for {
		select {
		case batch := <-w.dataCh:
			w.processBatch(batch)
		case <-w.stopCh:
			return
		}
	}
}

// processBatch applies the data-task rule to every record. A panic in a
// single record's evaluation is recovered and logged so one bad record never
// poisons the worker or stalls its channels.
func (w *Worker) processBatch(batch []model.Record) {
	now := time.Now()
	for _, rec := range batch {
		w.processRecordSafely(rec, now)
	}
	w.recordsProcessed.Add(int64(len(batch)))
	metrics.SetInboundDepth(fmt.Sprintf("%d", w.id), 0)
}

func (w *Worker) processRecordSafely(rec model.Record, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("worker %d: recovered while processing %s: %v\n", w.id, rec.Key, r)
		}
	}()
	w.processRecord(rec, now)
}

func (w *Worker) processRecord(rec model.Record, now time.Time) {
	state, ok := w.instances[rec.Key]
	if !ok {
		state = NewInstanceState(rec.Key, w.opts.HistoryLenLimit)
		w.instances[rec.Key] = state
		w.trackedInstances.Add(1)
	}
	state.RecordHistory(now, rec.Payload)

	active, abnormal := w.applyKindRule(state, rec)

	if !active {
		state.FailureState = true
		if now.Sub(state.LastFailure) >= w.opts.Cooldown {
			w.emitAlert(model.Alert{
				Zone: rec.Key.Zone,
				Kind: model.AlertFailure,
			}, rec.Key)
			state.LastFailure = now
		}
		return
	}
	state.FailureState = false

	if abnormal {
		state.AbnormalState = true
		if now.Sub(state.LastAbnormal) >= w.opts.Cooldown {
			w.emitAlert(model.Alert{
				Zone: rec.Key.Zone,
				Kind: model.AlertAbnormal,
			}, rec.Key)
			state.LastAbnormal = now
		}
	} else {
		state.AbnormalState = false
	}
}

// applyKindRule dispatches on the record's tagged-variant payload and
// returns (active, abnormal). SFCI is always active and carries no
// anomaly rule; SWITCH and VNFI track only active/failure state.
func (w *Worker) applyKindRule(state *InstanceState, rec model.Record) (active, abnormal bool) {
	p := rec.Payload
	switch p.Kind {
	case model.KindServer:
		if p.Server == nil || !p.Server.Active {
			return false, false
		}
		return true, evaluateServer(state, p.Server, w.opts)
	case model.KindLink:
		if p.Link == nil || !p.Link.Active {
			return false, false
		}
		return true, evaluateLink(state, p.Link, w.opts)
	case model.KindSFCI:
		return true, false
	case model.KindSwitch:
		if p.Switch == nil {
			return false, false
		}
		return p.Switch.Active, false
	case model.KindVNFI:
		if p.VNFI == nil {
			return false, false
		}
		return p.VNFI.Active, false
	default:
		return false, false
	}
}

// emitAlert fills in the one id field appropriate to the key's kind and
// sends on anomCh. A full channel would block the data task indefinitely, so
// the send respects stopCh to remain responsive to shutdown.
func (w *Worker) emitAlert(alert model.Alert, key model.InstanceKey) {
	switch key.Kind {
	case model.KindSwitch:
		id := key.Id
		alert.SwitchID = &id
	case model.KindServer:
		id := key.Id
		alert.ServerID = &id
	case model.KindLink:
		link := key.Link
		alert.LinkID = &link
	default:
		return
	}

	metrics.ObserveAlert(string(alert.Zone), string(alert.Kind))

	select {
	case w.anomCh <- alert:
	case <-w.stopCh:
	}
}

func (w *Worker) cmdLoop() {
	for {
		select {
		case cmd := <-w.cmdCh:
			w.handleCommand(cmd)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) handleCommand(cmd model.Command) {
	switch cmd.Type {
	case model.CommandQuery:
		w.handleQuery(cmd)
	case model.CommandReset:
		w.handleReset()
	}
}

func (w *Worker) handleReset() {
	now := time.Now()
	for _, state := range w.instances {
		if state.ShouldDebounceReset(now, resetDebounce) {
			continue
		}
		state.ResetSeries(now)
	}
}

func (w *Worker) handleQuery(cmd model.Command) {
	result := model.PartialQueryResult{CmdID: cmd.CmdID, Type: cmd.QueryType}

	switch cmd.QueryType {
	case model.QueryHistoryValue:
		result.HistoryValues = make(map[model.InstanceKey][]model.HistoryPoint)
	case model.QueryAnomalyRecord:
		result.AnomalyFlags = make(map[model.InstanceKey]bool)
	case model.QueryFailureRecord:
		result.FailureFlags = make(map[model.InstanceKey]bool)
	}

	wantIDs := idSet(cmd.IDs)

	for key, state := range w.instances {
		if key.Zone != cmd.Zone {
			continue
		}
		switch cmd.QueryType {
		case model.QueryFull, "":
			result.Type = model.QueryFull
			result.Full = append(result.Full, model.InstanceSummary{
				Key:      key,
				Payload:  state.LastPayload(),
				Abnormal: state.AbnormalState,
				Failure:  state.FailureState,
			})
		case model.QueryHistoryValue:
			if key.Kind != cmd.Kind || !wantIDs[key.Id] {
				continue
			}
			result.HistoryValues[key] = state.History()
		case model.QueryAnomalyRecord:
			if key.Kind != cmd.Kind || !wantIDs[key.Id] {
				continue
			}
			result.AnomalyFlags[key] = state.AbnormalState
		case model.QueryFailureRecord:
			if key.Kind != cmd.Kind || !wantIDs[key.Id] {
				continue
			}
			result.FailureFlags[key] = state.FailureState
		case model.QueryInstanceIDs:
			if key.Kind != cmd.Kind {
				continue
			}
			result.InstanceIDs = append(result.InstanceIDs, key)
		}
	}

	select {
	case w.resCh <- result:
	case <-w.stopCh:
	}
}

func idSet(ids []int64) map[int64]bool {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (w *Worker) heartbeatLoop() {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tracked := w.trackedInstances.Load()
			metrics.SetTrackedInstances(fmt.Sprintf("%d", w.id), tracked)
			fmt.Printf("worker %d: %d instances owned, %d records processed\n",
				w.id, tracked, w.recordsProcessed.Load())
		case <-w.stopCh:
			return
		}
	}
}
