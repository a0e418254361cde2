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

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"dcnguard/internal/detector/model"
)

// RedisSetter abstracts the minimal surface needed from a Redis client to
// cache the topology blob.
type RedisSetter interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TopologyCache mirrors the immutable Topology to Redis once, after its
// first build, so external tooling can read it without talking to the
// detector's own RPC surface. It caches a snapshot of an already fully
// in-memory, immutable structure — it is not a second store of detection
// state, so it does not participate in the detection path.
type TopologyCache struct {
	client RedisSetter
	key    string
}

// NewTopologyCache constructs a cache writing to the given Redis key.
func NewTopologyCache(client RedisSetter, key string) *TopologyCache {
	if key == "" {
		key = "dcnguard:topology"
	}
	return &TopologyCache{client: client, key: key}
}

// Publish writes topo's current contents as a single JSON blob, keyed by
// zone and source id. Called once after the first snapshot carrying LINK
// records builds the topology.
func (c *TopologyCache) Publish(ctx context.Context, topo *model.Topology) error {
	b, err := json.Marshal(topo.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal topology cache doc: %w", err)
	}
	if err := c.client.Set(ctx, c.key, b, 0); err != nil {
		return fmt.Errorf("redis set topology cache: %w", err)
	}
	return nil
}

// GoRedisSetter wraps a real go-redis client.
type GoRedisSetter struct{ c *redis.Client }

// NewGoRedisSetter constructs a client wrapper for addr, e.g. "127.0.0.1:6379".
func NewGoRedisSetter(addr string) *GoRedisSetter {
	return &GoRedisSetter{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisSetter) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.c.Set(ctx, key, value, ttl).Err()
}

// LoggingRedisSetter is a dependency-free demo client that logs the write it
// would have performed. Not for production use.
type LoggingRedisSetter struct{}

func (LoggingRedisSetter) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[audit-redis-demo] SET %s TTL=%s VALUE=%v\n", key, ttl, value)
	return nil
}
