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

// Package audit mirrors every alert the detector emits to an optional,
// disabled-by-default durable sink for compliance/forensics, and optionally
// caches the immutable topology for external tooling. Neither concern
// participates in detection: an audit sink failure is logged and otherwise
// ignored, never fed back into the pipeline.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dcnguard/internal/detector/model"
)

// KafkaProducer is a minimal abstraction over a Kafka client, unchanged in
// shape from the one used elsewhere in this codebase for outbound commit
// logs: implementations should enable an idempotent producer and use a
// stable per-alert key so retries dedup at the broker.
type KafkaProducer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// AlertAuditSink receives every alert the detector emits, independent of
// delivery to the regulator over the transport.
type AlertAuditSink interface {
	RecordAlert(ctx context.Context, alert model.Alert) error
}

// NoopAuditSink discards every alert; it is the default when no adapter is
// configured.
type NoopAuditSink struct{}

func (NoopAuditSink) RecordAlert(ctx context.Context, alert model.Alert) error { return nil }

// KafkaAuditSink publishes every alert as a JSON message to a topic, keyed by
// a deterministic instance identifier so a given instance's alert history
// stays ordered per Kafka partition.
type KafkaAuditSink struct {
	producer       KafkaProducer
	topic          string
	defaultTimeout time.Duration
}

// NewKafkaAuditSink constructs a sink publishing to topic via producer.
func NewKafkaAuditSink(producer KafkaProducer, topic string) *KafkaAuditSink {
	return &KafkaAuditSink{producer: producer, topic: topic, defaultTimeout: 10 * time.Second}
}

// alertMessage is the wire shape published to the audit topic.
type alertMessage struct {
	Zone      string `json:"zone"`
	Kind      string `json:"kind"`
	SwitchID  *int64 `json:"switch_id,omitempty"`
	ServerID  *int64 `json:"server_id,omitempty"`
	LinkSrc   *int64 `json:"link_src,omitempty"`
	LinkDst   *int64 `json:"link_dst,omitempty"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// RecordAlert publishes alert to the configured topic.
func (k *KafkaAuditSink) RecordAlert(ctx context.Context, alert model.Alert) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && k.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.defaultTimeout)
		defer cancel()
	}

	msg := alertMessage{
		Zone:     string(alert.Zone),
		Kind:     string(alert.Kind),
		SwitchID: alert.SwitchID,
		ServerID: alert.ServerID,
		TsUnixMs: time.Now().UnixMilli(),
	}
	if alert.LinkID != nil {
		msg.LinkSrc = &alert.LinkID.Src
		msg.LinkDst = &alert.LinkID.Dst
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}
	key := alertKey(alert)
	headers := map[string]string{"content-type": "application/json"}
	if err := k.producer.Produce(ctx, k.topic, key, b, headers); err != nil {
		return fmt.Errorf("kafka produce alert key=%s: %w", string(key), err)
	}
	return nil
}

func alertKey(alert model.Alert) []byte {
	switch {
	case alert.SwitchID != nil:
		return []byte(fmt.Sprintf("switch:%d", *alert.SwitchID))
	case alert.ServerID != nil:
		return []byte(fmt.Sprintf("server:%d", *alert.ServerID))
	case alert.LinkID != nil:
		return []byte(fmt.Sprintf("link:%d-%d", alert.LinkID.Src, alert.LinkID.Dst))
	default:
		return []byte("unknown")
	}
}

// LoggingKafkaProducer is a dependency-free demo producer that logs the
// message it would have sent. Not for production use.
type LoggingKafkaProducer struct{}

func (LoggingKafkaProducer) Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[audit-kafka-demo] TOPIC=%s KEY=%s VALUE=%s HEADERS=%v\n", topic, string(key), string(value), headers)
	return nil
}
