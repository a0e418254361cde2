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

import "dcnguard/internal/detector/model"

// alertSet deduplicates alerts as they arrive, grouped Zone -> Kind -> id
// sets, so a shipped report never contains duplicate ids within a list
// (invariant 6) even if the same instance alerted more than once before the
// next drain tick.
type alertSet struct {
	switches map[model.Zone]map[model.AlertKind]map[int64]struct{}
	servers  map[model.Zone]map[model.AlertKind]map[int64]struct{}
	links    map[model.Zone]map[model.AlertKind]map[model.LinkID]struct{}
}

func newAlertSet() *alertSet {
	return &alertSet{
		switches: make(map[model.Zone]map[model.AlertKind]map[int64]struct{}),
		servers:  make(map[model.Zone]map[model.AlertKind]map[int64]struct{}),
		links:    make(map[model.Zone]map[model.AlertKind]map[model.LinkID]struct{}),
	}
}

func (s *alertSet) add(alert model.Alert) {
	switch {
	case alert.SwitchID != nil:
		idSetFor(s.switches, alert.Zone, alert.Kind)[*alert.SwitchID] = struct{}{}
	case alert.ServerID != nil:
		idSetFor(s.servers, alert.Zone, alert.Kind)[*alert.ServerID] = struct{}{}
	case alert.LinkID != nil:
		linkSetFor(s.links, alert.Zone, alert.Kind)[*alert.LinkID] = struct{}{}
	}
}

func idSetFor(m map[model.Zone]map[model.AlertKind]map[int64]struct{}, zone model.Zone, kind model.AlertKind) map[int64]struct{} {
	byKind, ok := m[zone]
	if !ok {
		byKind = make(map[model.AlertKind]map[int64]struct{})
		m[zone] = byKind
	}
	ids, ok := byKind[kind]
	if !ok {
		ids = make(map[int64]struct{})
		byKind[kind] = ids
	}
	return ids
}

func linkSetFor(m map[model.Zone]map[model.AlertKind]map[model.LinkID]struct{}, zone model.Zone, kind model.AlertKind) map[model.LinkID]struct{} {
	byKind, ok := m[zone]
	if !ok {
		byKind = make(map[model.AlertKind]map[model.LinkID]struct{})
		m[zone] = byKind
	}
	ids, ok := byKind[kind]
	if !ok {
		ids = make(map[model.LinkID]struct{})
		byKind[kind] = ids
	}
	return ids
}

func (s *alertSet) isEmpty() bool {
	return len(s.switches) == 0 && len(s.servers) == 0 && len(s.links) == 0
}

// drain renders the current contents as an AnomalyReport and resets the set
// for the next interval.
func (s *alertSet) drain() AnomalyReport {
	report := AnomalyReport{Zones: make(map[model.Zone]ZoneAnomalies)}

	zones := make(map[model.Zone]struct{})
	for z := range s.switches {
		zones[z] = struct{}{}
	}
	for z := range s.servers {
		zones[z] = struct{}{}
	}
	for z := range s.links {
		zones[z] = struct{}{}
	}

	for zone := range zones {
		report.Zones[zone] = ZoneAnomalies{
			Abnormal: IDLists{
				SwitchIDs: int64KeysOf(s.switches[zone][model.AlertAbnormal]),
				ServerIDs: int64KeysOf(s.servers[zone][model.AlertAbnormal]),
				LinkIDs:   linkKeysOf(s.links[zone][model.AlertAbnormal]),
			},
			Failure: IDLists{
				SwitchIDs: int64KeysOf(s.switches[zone][model.AlertFailure]),
				ServerIDs: int64KeysOf(s.servers[zone][model.AlertFailure]),
				LinkIDs:   linkKeysOf(s.links[zone][model.AlertFailure]),
			},
		}
	}

	*s = *newAlertSet()
	return report
}

func int64KeysOf(m map[int64]struct{}) []int64 {
	if len(m) == 0 {
		return nil
	}
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func linkKeysOf(m map[model.LinkID]struct{}) []model.LinkID {
	if len(m) == 0 {
		return nil
	}
	out := make([]model.LinkID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
