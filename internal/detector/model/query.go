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

// InstanceSummary is one instance's answer to a full QUERY(zone): its last
// observed payload plus current abnormal/failure flags.
type InstanceSummary struct {
	Key      InstanceKey
	Payload  Payload
	Abnormal bool
	Failure  bool
}

// PartialQueryResult is one worker's contribution to a single cmdId. The IO
// Bridge fans these in by counting until exactly N (one per worker) have
// arrived, then merges.
type PartialQueryResult struct {
	CmdID string
	Type  QueryType

	// Full holds every owned instance in the requested zone, populated when
	// Type == QueryFull.
	Full []InstanceSummary

	// HistoryValues holds the bounded history ring for the requested
	// (kind, ids), populated when Type == QueryHistoryValue.
	HistoryValues map[InstanceKey][]HistoryPoint

	// AnomalyFlags/FailureFlags hold the current boolean state for the
	// requested (kind, ids), populated for QueryAnomalyRecord /
	// QueryFailureRecord respectively.
	AnomalyFlags map[InstanceKey]bool
	FailureFlags map[InstanceKey]bool

	// InstanceIDs holds every key this worker owns matching (zone, kind),
	// populated when Type == QueryInstanceIDs.
	InstanceIDs []InstanceKey
}

// HistoryPoint is one entry in an InstanceState's bounded history ring.
type HistoryPoint struct {
	TimestampUnixNano int64
	Payload           Payload
}
