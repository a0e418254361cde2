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

import "testing"

func TestTopology_BuildAndQuery(t *testing.T) {
	topo := NewTopology()
	if topo.Built() {
		t.Fatalf("Built() = true before any Build call")
	}

	records := []Record{
		{Key: InstanceKey{Zone: ZoneTurbonet, Kind: KindLink, Link: LinkID{Src: 1, Dst: 2}}},
		{Key: InstanceKey{Zone: ZoneTurbonet, Kind: KindLink, Link: LinkID{Src: 1, Dst: 3}}},
		{Key: InstanceKey{Zone: ZoneTurbonet, Kind: KindSwitch, Id: 1}},
	}
	topo.Build(records)

	if !topo.Built() {
		t.Fatalf("Built() = false after Build")
	}

	got := topo.Destinations(ZoneTurbonet, 1)
	want := []int64{2, 3}
	if len(got) != len(want) {
		t.Fatalf("Destinations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Destinations = %v, want %v", got, want)
		}
	}

	if got := topo.Destinations(ZoneSimulator, 1); got != nil {
		t.Fatalf("Destinations for unbuilt zone = %v, want nil", got)
	}
}

func TestTopology_RebuildPanics(t *testing.T) {
	topo := NewTopology()
	topo.Build(nil)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on topology re-declaration")
		}
	}()
	topo.Build(nil)
}

func TestInstanceKey_String(t *testing.T) {
	testCases := []struct {
		name string
		key  InstanceKey
		want string
	}{
		{"Switch", InstanceKey{Zone: ZoneTurbonet, Kind: KindSwitch, Id: 5}, "TURBONET/SWITCH/5"},
		{"Link", InstanceKey{Zone: ZoneSimulator, Kind: KindLink, Link: LinkID{Src: 1, Dst: 2}}, "SIMULATOR/LINK/1-2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.key.String(); got != tc.want {
				t.Fatalf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
