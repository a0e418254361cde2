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

// Package dispatcher explodes measurement snapshots into per-worker batches
// and routes commands to every worker. An instance is pinned to a worker the
// first time it is observed and never rebalanced, keeping per-instance state
// strictly owned by one worker with no cross-worker locking.
package dispatcher

import (
	"fmt"
	"math/rand"
	"time"

	"dcnguard/internal/detector/core"
	"dcnguard/internal/detector/model"
	"dcnguard/internal/detector/telemetry/metrics"
)

// WorkerHandle is the subset of core.Worker the Dispatcher depends on, kept
// narrow so tests can substitute a fake.
type WorkerHandle interface {
	TrySubmitData(batch []model.Record) bool
	SubmitCommand(cmd model.Command)
}

// Dispatcher owns the instance → worker assignment. Touched only by the
// single goroutine that calls Dispatch/Broadcast; no locking is needed.
type Dispatcher struct {
	workers []WorkerHandle
	mapping map[model.InstanceKey]int
	rng     *rand.Rand
}

// New constructs a Dispatcher over the given workers, in index order; the
// index IS the worker's identity for the lifetime of the run.
func New(workers []WorkerHandle) *Dispatcher {
	return &Dispatcher{
		workers: workers,
		mapping: make(map[model.InstanceKey]int),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Dispatch explodes one snapshot into N per-worker batches, assigning any
// newly observed instance a uniformly random worker index, then hands each
// non-empty batch to its worker as a single call (amortizing channel
// overhead). Workers that are still busy with a previous batch drop the new
// one; Dispatch logs and records the drop rather than blocking or retrying.
func (d *Dispatcher) Dispatch(snap model.Snapshot) {
	start := time.Now()
	defer func() { metrics.ObserveDispatchLatency(time.Since(start)) }()

	batches := make([][]model.Record, len(d.workers))
	for _, rec := range snap.Records {
		idx, ok := d.mapping[rec.Key]
		if !ok {
			idx = d.rng.Intn(len(d.workers))
			d.mapping[rec.Key] = idx
		}
		batches[idx] = append(batches[idx], rec)
	}

	for idx, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		if ok := d.workers[idx].TrySubmitData(batch); !ok {
			fmt.Printf("dispatcher: worker %d busy, dropping batch of %d records\n", idx, len(batch))
			metrics.ObserveDroppedBatch()
			continue
		}
		metrics.SetInboundDepth(fmt.Sprintf("%d", idx), 1)
	}
}

// Broadcast hands cmd, unchanged, to every worker's command channel.
func (d *Dispatcher) Broadcast(cmd model.Command) {
	for _, w := range d.workers {
		w.SubmitCommand(cmd)
	}
}

// NumWorkers reports the fan-out width, i.e. how many partial results a
// broadcast query produces per cmdId.
func (d *Dispatcher) NumWorkers() int {
	return len(d.workers)
}

var _ WorkerHandle = (*core.Worker)(nil)
