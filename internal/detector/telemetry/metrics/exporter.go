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

package metrics

import (
	"fmt"
	"sync"
	"time"
)

var (
	exporterMu   sync.Mutex
	exporterStop chan struct{}
	exporterDone chan struct{}
)

// startExporter begins a goroutine that logs a columnar alert-count summary
// every interval. Stops and replaces any previously running exporter.
func startExporter(interval time.Duration) {
	exporterMu.Lock()
	defer exporterMu.Unlock()

	if exporterStop != nil {
		close(exporterStop)
		<-exporterDone
	}
	exporterStop = make(chan struct{})
	exporterDone = make(chan struct{})
	go exporterLoop(interval, exporterStop, exporterDone)
}

func exporterLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logSummary()
		case <-stop:
			return
		}
	}
}

func logSummary() {
	fmt.Printf("[%s] telemetry summary: alerts_total=%d dropped_batches_total=%d\n",
		time.Now().Format(time.RFC3339), alertsObserved.Load(), batchesDropped.Load())
}
