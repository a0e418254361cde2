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

// Package model defines the shared vocabulary of the anomaly detector: zones,
// instance kinds and keys, the tagged-variant measurement payloads, topology,
// and alert records. Nothing in this package owns mutable state — it is the
// wire/value vocabulary that core, dispatcher and iobridge all speak.
package model

import "fmt"

// Zone is a measurement domain.
type Zone string

const (
	ZoneTurbonet  Zone = "TURBONET"
	ZoneSimulator Zone = "SIMULATOR"
)

// InstanceKind identifies the shape of a monitored entity.
type InstanceKind string

const (
	KindSwitch InstanceKind = "SWITCH"
	KindServer InstanceKind = "SERVER"
	KindLink   InstanceKind = "LINK"
	KindSFCI   InstanceKind = "SFCI"
	KindVNFI   InstanceKind = "VNFI"
)

// LinkID is the ordered (src, dst) pair identifying a link. Node-kind
// instances (switch, server, SFCI, VNFI) use a bare integer Id instead.
type LinkID struct {
	Src int64
	Dst int64
}

// InstanceKey uniquely identifies a monitored instance for the lifetime of a
// run. Id holds an int64 for node kinds, or is ignored in favor of Link for
// KindLink.
type InstanceKey struct {
	Zone Zone
	Kind InstanceKind
	Id   int64
	Link LinkID
}

// String renders the key for logging; it is not a wire format.
func (k InstanceKey) String() string {
	if k.Kind == KindLink {
		return fmt.Sprintf("%s/%s/%d-%d", k.Zone, k.Kind, k.Link.Src, k.Link.Dst)
	}
	return fmt.Sprintf("%s/%s/%d", k.Zone, k.Kind, k.Id)
}
