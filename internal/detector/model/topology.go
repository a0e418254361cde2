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

package model

import (
	"fmt"
	"sort"
	"sync"
)

// Topology is the per-zone directed graph of switch-to-switch links, built
// once from the first snapshot that carries LINK records and immutable
// thereafter. It is exposed read-only to the Transport Adapter and, when
// enabled, mirrored to the topology cache.
type Topology struct {
	mu    sync.RWMutex
	built bool
	graph map[Zone]map[int64]map[int64]struct{}
}

// NewTopology constructs an empty, not-yet-built Topology.
func NewTopology() *Topology {
	return &Topology{graph: make(map[Zone]map[int64]map[int64]struct{})}
}

// Build records every link in the given snapshot's records. It is a
// programming error to call Build more than once after Built() returns true;
// the source treats topology re-declaration as an invariant violation.
func (t *Topology) Build(records []Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		panic("topology: re-declaration after initial build")
	}
	for _, r := range records {
		if r.Key.Kind != KindLink {
			continue
		}
		t.addLocked(r.Key.Zone, r.Key.Link.Src, r.Key.Link.Dst)
	}
	t.built = true
}

func (t *Topology) addLocked(zone Zone, src, dst int64) {
	byZone, ok := t.graph[zone]
	if !ok {
		byZone = make(map[int64]map[int64]struct{})
		t.graph[zone] = byZone
	}
	dsts, ok := byZone[src]
	if !ok {
		dsts = make(map[int64]struct{})
		byZone[src] = dsts
	}
	dsts[dst] = struct{}{}
}

// Built reports whether the topology has been constructed from a snapshot yet.
func (t *Topology) Built() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.built
}

// Destinations returns the sorted set of destination ids reachable from src
// in the given zone.
func (t *Topology) Destinations(zone Zone, src int64) []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	byZone, ok := t.graph[zone]
	if !ok {
		return nil
	}
	dsts, ok := byZone[src]
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(dsts))
	for d := range dsts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a deep copy of the full graph as Zone -> SrcId -> sorted
// DstIds, suitable for serialization (e.g. by the topology cache).
func (t *Topology) Snapshot() map[Zone]map[int64][]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Zone]map[int64][]int64, len(t.graph))
	for zone, byZone := range t.graph {
		srcs := make(map[int64][]int64, len(byZone))
		for src, dsts := range byZone {
			ds := make([]int64, 0, len(dsts))
			for d := range dsts {
				ds = append(ds, d)
			}
			sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
			srcs[src] = ds
		}
		out[zone] = srcs
	}
	return out
}

// String renders a compact per-zone edge count, for logging.
func (t *Topology) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := 0
	for _, byZone := range t.graph {
		for _, dsts := range byZone {
			total += len(dsts)
		}
	}
	return fmt.Sprintf("topology{zones=%d edges=%d built=%v}", len(t.graph), total, t.built)
}
