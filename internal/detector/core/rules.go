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

package core

import (
	"math"

	"dcnguard/internal/detector/config"
	"dcnguard/internal/detector/model"
	"dcnguard/pkg/tseries"
)

const (
	metricCPU       = "cpu_utilization"
	metricMemory    = "memory_utilization"
	metricSynRatio  = "syn_ratio"
	metricDNSRatio  = "dns_ratio"
)

// evaluateServer feeds the CPU and memory TimeSeries for a server record and
// reports whether either is currently abnormal. cpuJitter/memJitter are raw
// jitter floors in original units (CPU%, DRAM%); per the jitter-in-original-
// units convention they are divided by k when passed as MinimumSigma.
func evaluateServer(state *InstanceState, p *model.ServerPayload, opts config.Options) bool {
	cpu := state.Metric(metricCPU, tseries.Options{
		K:                    opts.K,
		NormalWindowLength:   opts.NormalWindowLength,
		AbnormalWindowLength: opts.AbnormalWindowLength,
		MinimumSigma:         safeDiv(opts.CPUJitterSigma, opts.K),
	})
	mem := state.Metric(metricMemory, tseries.Options{
		K:                    opts.K,
		NormalWindowLength:   opts.NormalWindowLength,
		AbnormalWindowLength: opts.AbnormalWindowLength,
		MinimumSigma:         safeDiv(opts.MemJitterSigma, opts.K),
	})

	cpu.Add(meanOf(p.CPUUtilization))
	mem.Add(p.DRAMUsagePercent)

	return cpu.IsAbnormal() || mem.IsAbnormal()
}

// evaluateLink feeds the syn/dns ratio TimeSeries for a link record and
// reports whether the link is currently abnormal. The util and packet-count
// thresholds exist to suppress trivial alerts on quiet links.
func evaluateLink(state *InstanceState, p *model.LinkPayload, opts config.Options) bool {
	syn := state.Metric(metricSynRatio, tseries.Options{
		K:                    opts.K,
		NormalWindowLength:   opts.NormalWindowLength,
		AbnormalWindowLength: opts.AbnormalWindowLength,
		MinimumSigma:         0,
	})
	dns := state.Metric(metricDNSRatio, tseries.Options{
		K:                    opts.K,
		NormalWindowLength:   opts.NormalWindowLength,
		AbnormalWindowLength: opts.AbnormalWindowLength,
		MinimumSigma:         0,
	})

	total := p.NSHCount + p.SYNCount + p.DNSCount
	var synRatio, dnsRatio float64
	if total > 0 {
		synRatio = float64(p.SYNCount) / float64(total)
		dnsRatio = float64(p.DNSCount) / float64(total)
	}
	syn.Add(synRatio)
	dns.Add(dnsRatio)

	if p.Utilization <= opts.LinkUtilThres {
		return false
	}
	statisticalHit := syn.IsAbnormal() || dns.IsAbnormal() || synRatio > 0.95 || dnsRatio > 0.95
	if !statisticalHit {
		return false
	}
	return p.SYNCount > opts.LinkPacketNumThres || p.DNSCount > opts.LinkPacketNumThres
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
