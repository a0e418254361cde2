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

// Package main provides the entry point for the DCN Guard anomaly detector.
//
// It wires together the full streaming detection pipeline: the IO Bridge
// (outbound poll / inbound demux / alert drain / query fan-in), the
// Dispatcher (pinned instance-to-worker routing), the worker pool (per-
// instance time-series state and k-sigma rules), the optional Prometheus
// telemetry, the optional audit sinks (Kafka alert trail, Redis topology
// cache), and a small local debug HTTP surface. Transport itself is an
// external collaborator — this binary ships with a dependency-free logging
// Transport so the pipeline runs standalone; swap in a real one for
// production wiring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"dcnguard/internal/detector/api"
	"dcnguard/internal/detector/audit"
	"dcnguard/internal/detector/config"
	"dcnguard/internal/detector/core"
	"dcnguard/internal/detector/dispatcher"
	"dcnguard/internal/detector/iobridge"
	"dcnguard/internal/detector/model"
	"dcnguard/internal/detector/telemetry/metrics"
)

func main() {
	defaults := config.DefaultOptions()

	interval := flag.Duration("interval", defaults.Interval, "Outbound poll period I")
	numWorkers := flag.Int("num_workers", defaults.NumWorkers, "Worker pool size (fan-out width)")
	k := flag.Float64("k", defaults.K, "Sigma multiplier for the k-sigma anomaly predicate")
	normalWindowLength := flag.Int("normal_window_length", defaults.NormalWindowLength, "Warm-up sample count before is_abnormal can fire")
	abnormalWindowLength := flag.Int("abnormal_window_length", defaults.AbnormalWindowLength, "Consecutive-outlier requirement and baseline lag depth")
	cooldown := flag.Duration("cooldown", defaults.Cooldown, "Minimum interval between two alerts for the same key and kind")
	historyLenLimit := flag.Int("history_len_limit", defaults.HistoryLenLimit, "Bounded per-instance history ring length")
	linkUtilThres := flag.Float64("link_util_thres", defaults.LinkUtilThres, "Link utilization ratio above which the link anomaly rule may fire")
	linkPacketNumThres := flag.Int64("link_packet_num_thres", defaults.LinkPacketNumThres, "Packet-count floor below which a quiet link never alerts")
	cpuJitterSigma := flag.Float64("cpu_jitter_sigma", defaults.CPUJitterSigma, "CPU utilization jitter floor, in original units")
	memJitterSigma := flag.Float64("mem_jitter_sigma", defaults.MemJitterSigma, "Memory utilization jitter floor, in original units")
	sendReports := flag.Bool("send_reports", defaults.SendReports, "If false, alerts are logged but not transmitted to the transport")

	telemetryEnabled := flag.Bool("telemetry", false, "Enable in-process Prometheus telemetry (opt-in)")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	telemetryLogInterval := flag.Duration("telemetry_log_interval", 15*time.Second, "If > 0, periodically log a telemetry summary. 0 disables.")

	auditAdapter := flag.String("audit_adapter", "", `Alert audit sink adapter: "", "none" or "kafka"`)
	kafkaTopic := flag.String("kafka_topic", "dcnguard-alerts", "Kafka topic for the alert audit trail")
	topologyCacheEnabled := flag.Bool("topology_cache", false, "Enable mirroring the built topology to Redis")
	redisAddr := flag.String("redis_addr", "", "Redis address for the topology cache (e.g., 127.0.0.1:6379); empty uses a logging demo client")

	httpAddr := flag.String("http_addr", ":8080", "Local debug HTTP listen address (/healthz, /status, /metrics)")

	heartbeatInterval := flag.Duration("heartbeat_interval", 30*time.Second, "Per-worker periodic counter log interval; 0 disables")

	flag.Parse()

	opts := config.Options{
		Interval:             *interval,
		NumWorkers:           *numWorkers,
		K:                    *k,
		NormalWindowLength:   *normalWindowLength,
		AbnormalWindowLength: *abnormalWindowLength,
		Cooldown:             *cooldown,
		HistoryLenLimit:      *historyLenLimit,
		LinkUtilThres:        *linkUtilThres,
		LinkPacketNumThres:   *linkPacketNumThres,
		CPUJitterSigma:       *cpuJitterSigma,
		MemJitterSigma:       *memJitterSigma,
		SendReports:          *sendReports,
	}

	// Capture every knob for the final summary printout.
	config.SetThresholdDuration("interval", opts.Interval)
	config.SetThresholdInt64("num_workers", int64(opts.NumWorkers))
	config.SetThresholdFloat64("k", opts.K)
	config.SetThresholdInt64("normal_window_length", int64(opts.NormalWindowLength))
	config.SetThresholdInt64("abnormal_window_length", int64(opts.AbnormalWindowLength))
	config.SetThresholdDuration("cooldown", opts.Cooldown)
	config.SetThresholdInt64("history_len_limit", int64(opts.HistoryLenLimit))
	config.SetThresholdFloat64("link_util_thres", opts.LinkUtilThres)
	config.SetThresholdInt64("link_packet_num_thres", opts.LinkPacketNumThres)
	config.SetThresholdFloat64("cpu_jitter_sigma", opts.CPUJitterSigma)
	config.SetThresholdFloat64("mem_jitter_sigma", opts.MemJitterSigma)
	config.SetThresholdBool("send_reports", opts.SendReports)
	config.SetThresholdBool("telemetry", *telemetryEnabled)
	config.SetThreshold("metrics_addr", *metricsAddr)
	config.SetThreshold("audit_adapter", *auditAdapter)
	config.SetThresholdBool("topology_cache", *topologyCacheEnabled)
	config.SetThreshold("http_addr", *httpAddr)

	metrics.Enable(metrics.Config{
		Enabled:     *telemetryEnabled,
		MetricsAddr: *metricsAddr,
		LogInterval: *telemetryLogInterval,
	})

	auditSink, err := audit.BuildAuditSink(*auditAdapter, audit.Options{KafkaTopic: *kafkaTopic})
	if err != nil {
		log.Fatalf("building audit sink: %v", err)
	}
	topoCache := audit.BuildTopologyCache(*topologyCacheEnabled, *redisAddr)

	topology := model.NewTopology()

	// alertAuditCh sits between every worker's alert output and the IO
	// Bridge's own anomCh, so every alert is mirrored to the audit sink
	// before being drained and shipped to the transport.
	alertAuditCh := make(chan model.Alert, 256)
	resCh := make(chan model.PartialQueryResult, 256)

	transport := iobridge.LoggingTransport{}
	bridge := iobridge.New(transport, opts.Interval, opts.NumWorkers)

	workers := make([]*core.Worker, opts.NumWorkers)
	workerHandles := make([]dispatcher.WorkerHandle, opts.NumWorkers)
	for i := 0; i < opts.NumWorkers; i++ {
		w := core.NewWorker(i, opts, alertAuditCh, resCh, *heartbeatInterval)
		workers[i] = w
		workerHandles[i] = w
	}
	disp := dispatcher.New(workerHandles)

	stopCh := make(chan struct{})

	for _, w := range workers {
		w.Start()
	}
	bridge.Start()

	// Audit relay: every alert is recorded (if a sink is configured) before
	// being forwarded on to the IO Bridge's alert drain. A sink failure is
	// logged and otherwise ignored — it never blocks delivery to the
	// regulator.
	go func() {
		for {
			select {
			case alert := <-alertAuditCh:
				func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := auditSink.RecordAlert(ctx, alert); err != nil {
						log.Printf("audit sink: record alert failed: %v", err)
					}
				}()
				if !opts.SendReports {
					target := "unknown"
					switch {
					case alert.SwitchID != nil:
						target = fmt.Sprintf("switch %d", *alert.SwitchID)
					case alert.ServerID != nil:
						target = fmt.Sprintf("server %d", *alert.ServerID)
					case alert.LinkID != nil:
						target = fmt.Sprintf("link %d-%d", alert.LinkID.Src, alert.LinkID.Dst)
					}
					log.Printf("send_reports=false: %s %s alert for %s not transmitted", alert.Zone, alert.Kind, target)
					continue
				}
				select {
				case bridge.AnomCh() <- alert:
				case <-stopCh:
					return
				}
			case <-stopCh:
				return
			}
		}
	}()

	// Query-reply relay: workers answer into resCh; forward to the bridge's
	// own ResCh for fan-in.
	go func() {
		for {
			select {
			case partial := <-resCh:
				select {
				case bridge.ResCh() <- partial:
				case <-stopCh:
					return
				}
			case <-stopCh:
				return
			}
		}
	}()

	// Dispatch pump: snapshots build the topology on first sight of LINK
	// records, then fan out through the Dispatcher; commands broadcast
	// unchanged.
	go func() {
		for {
			select {
			case snap := <-bridge.DataCh():
				if !topology.Built() && hasLinkRecord(snap.Records) {
					topology.Build(snap.Records)
					if topoCache != nil {
						func() {
							ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
							defer cancel()
							if err := topoCache.Publish(ctx, topology); err != nil {
								log.Printf("topology cache: publish failed: %v", err)
							}
						}()
					}
				}
				disp.Dispatch(snap)
			case cmd := <-bridge.CmdCh():
				disp.Broadcast(cmd)
			case <-stopCh:
				return
			}
		}
	}()

	status := pipelineStatus{workers: workers, bridge: bridge, topology: topology}
	apiServer := api.NewServer(status, *telemetryEnabled)
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}

	go func() {
		fmt.Printf("detector debug HTTP server listening on %s\n", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not listen on %s: %v\n", *httpAddr, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nShutting down detector...")
	close(stopCh)
	bridge.Stop()
	for _, w := range workers {
		w.Stop()
	}

	printFinalSummary(workers, topology)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("debug server shutdown failed: %v", err)
	}
	fmt.Println("Detector gracefully stopped.")
}

func hasLinkRecord(records []model.Record) bool {
	for _, r := range records {
		if r.Key.Kind == model.KindLink {
			return true
		}
	}
	return false
}

// pipelineStatus implements api.StatusProvider over the running pipeline's
// live state.
type pipelineStatus struct {
	workers  []*core.Worker
	bridge   *iobridge.Bridge
	topology *model.Topology
}

func (s pipelineStatus) Status() api.Status {
	counts := make(map[int]int64, len(s.workers))
	for _, w := range s.workers {
		counts[w.ID()] = w.TrackedInstances()
	}
	return api.Status{
		WorkerInstanceCounts: counts,
		LastPollAgeSeconds:   s.bridge.LastPollAge().Seconds(),
		TopologyBuilt:        s.topology.Built(),
	}
}

// printFinalSummary prints a single, end-of-process columnar report of
// tracked instances per worker plus every configured threshold.
func printFinalSummary(workers []*core.Worker, topology *model.Topology) {
	yellow := "\x1b[33m"
	reset := "\x1b[0m"
	now := time.Now().Format(time.RFC3339)
	sep := strings.Repeat("-", 60)

	var total int64
	fmt.Printf("%s[%s] Final detector metrics\n", yellow, now)
	fmt.Println(sep)
	fmt.Printf("%-18s %12s\n", "Worker", "Instances")
	fmt.Println(sep)
	for _, w := range workers {
		n := w.TrackedInstances()
		total += n
		fmt.Printf("%-18d %12d\n", w.ID(), n)
	}
	fmt.Println(sep)
	fmt.Printf("%-18s %12d\n", "Total", total)
	fmt.Printf("%-18s %12s\n", "Topology", topology.String())
	fmt.Println(sep)

	th := config.Snapshot()
	keys := make([]string, 0, len(th))
	for k := range th {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fmt.Println("Configured thresholds")
		fmt.Println(sep)
		fmt.Printf("%-30s %24s\n", "Name", "Value")
		fmt.Println(sep)
		for _, k := range keys {
			fmt.Printf("%-30s %24s\n", k, th[k])
		}
		fmt.Println(sep)
	}
	fmt.Print(reset)
}
