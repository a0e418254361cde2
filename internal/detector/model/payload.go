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

// Payload is a tagged-variant per-kind measurement body. Exactly one of the
// typed fields is populated, selected by Kind. This replaces the source's
// dynamic attribute lookup (obj.NSH_num, obj.getCpuUtil()) with a static
// switch the compiler can check.
type Payload struct {
	Kind InstanceKind

	Switch *SwitchPayload
	Server *ServerPayload
	Link   *LinkPayload
	SFCI   *SFCIPayload
	VNFI   *VNFIPayload
}

// SwitchPayload carries a switch's per-tick attributes. Core scope only
// tracks history/failure state for switches; no metric rule applies.
type SwitchPayload struct {
	Active bool
}

// ServerPayload carries a server's per-tick attributes.
type ServerPayload struct {
	Active bool
	// CPUUtilization is a per-core utilization sample vector; the worker
	// feeds its mean into the cpu_utilization TimeSeries.
	CPUUtilization []float64
	// DRAMUsagePercent is fed directly into the memory_utilization TimeSeries.
	DRAMUsagePercent float64
}

// LinkPayload carries a link's per-tick attributes.
type LinkPayload struct {
	Active bool
	// Utilization is the link's bandwidth utilization ratio in [0, 1].
	Utilization float64
	NSHCount    int64
	SYNCount    int64
	DNSCount    int64
}

// SFCIPayload carries a service-function-chain instance's attributes. SFCI
// records have no active field in the source feed — they are always treated
// as active and only logged into the history ring.
type SFCIPayload struct {
	Value float64
}

// VNFIPayload carries a virtual-network-function instance's attributes. Core
// scope only tracks history/failure state for VNFI; no metric rule applies.
type VNFIPayload struct {
	Active bool
	Value  float64
}
