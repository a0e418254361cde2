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

package audit

import "fmt"

// Options carries the knobs needed to build an audit sink and a topology
// cache client.
type Options struct {
	KafkaTopic string
	RedisAddr  string
}

// BuildAuditSink constructs the alert audit sink named by adapter. "redis" is
// reserved for the topology cache, not the alert trail, since Redis here
// backs a cache rather than an idempotent ledger.
func BuildAuditSink(adapter string, opts Options) (AlertAuditSink, error) {
	switch adapter {
	case "", "none":
		return NoopAuditSink{}, nil
	case "kafka":
		topic := opts.KafkaTopic
		if topic == "" {
			topic = "dcnguard-alerts"
		}
		return NewKafkaAuditSink(LoggingKafkaProducer{}, topic), nil
	default:
		return nil, fmt.Errorf("unknown audit adapter: %s", adapter)
	}
}

// BuildTopologyCache constructs a TopologyCache backed by a real Redis
// client when addr is non-empty, or a dependency-free logging client
// otherwise. Returns nil if enabled is false.
func BuildTopologyCache(enabled bool, addr string) *TopologyCache {
	if !enabled {
		return nil
	}
	var setter RedisSetter
	if addr != "" {
		setter = NewGoRedisSetter(addr)
	} else {
		setter = LoggingRedisSetter{}
	}
	return NewTopologyCache(setter, "")
}
