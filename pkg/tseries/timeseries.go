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

package tseries

// TimeSeries is an append-only log of raw samples with a k-sigma anomaly
// predicate. It deliberately lags its StatWindow by AbnormalWindowLength
// positions: the newest AbnormalWindowLength samples are never folded into
// (mu, sigma), so a sustained shift in the signal is judged against a
// baseline the shift itself never contaminated.
type TimeSeries struct {
	k                    float64
	normalWindowLength   int
	abnormalWindowLength int
	minimumSigma         float64

	log    []float64
	window *StatWindow
}

// Options configures a TimeSeries. MinimumSigma is a floor on sigma itself,
// in raw sample units. A jitter tolerance J given in original units (e.g. a
// CPU-percentage jitter) corresponds to MinimumSigma = J / k, so that the
// band half-width k*sigmaEff is never narrower than J; callers divide by k
// before constructing.
type Options struct {
	K                    float64
	NormalWindowLength   int
	AbnormalWindowLength int
	MinimumSigma         float64
}

// New constructs a TimeSeries with the given parameters.
func New(opts Options) *TimeSeries {
	return &TimeSeries{
		k:                    opts.K,
		normalWindowLength:   opts.NormalWindowLength,
		abnormalWindowLength: opts.AbnormalWindowLength,
		minimumSigma:         opts.MinimumSigma,
		window:               NewStatWindow(opts.NormalWindowLength + opts.AbnormalWindowLength),
	}
}

// Add appends a new sample. Once the log holds more than
// AbnormalWindowLength samples, the oldest sample not yet folded into the
// baseline is pushed into the StatWindow.
func (t *TimeSeries) Add(x float64) {
	t.log = append(t.log, x)
	if len(t.log) > t.abnormalWindowLength {
		t.window.Add(t.log[len(t.log)-t.abnormalWindowLength-1])
	}
}

// Len reports the number of samples logged so far.
func (t *TimeSeries) Len() int {
	return len(t.log)
}

// Values returns up to limit of the most recent samples, oldest first. A
// limit <= 0 returns the entire log.
func (t *TimeSeries) Values(limit int) []float64 {
	if limit <= 0 || limit >= len(t.log) {
		return t.log
	}
	return t.log[len(t.log)-limit:]
}

// Stats returns the StatWindow's current (mu, sigma), unaffected by the most
// recent AbnormalWindowLength samples.
func (t *TimeSeries) Stats() (mu, sigma float64) {
	return t.window.Stats()
}

// IsAbnormal reports whether every one of the last AbnormalWindowLength
// samples lies outside [mu - k*sigmaEff, mu + k*sigmaEff], where sigmaEff is
// sigma floored at MinimumSigma. It is always false until warm-up
// (NormalWindowLength + AbnormalWindowLength samples) completes. sigmaEff
// can be exactly 0, collapsing the band to the single point mu.
func (t *TimeSeries) IsAbnormal() bool {
	if len(t.log) < t.normalWindowLength+t.abnormalWindowLength {
		return false
	}

	mu, sigma := t.window.Stats()
	sigmaEff := sigma
	if sigmaEff < t.minimumSigma {
		sigmaEff = t.minimumSigma
	}

	// sigmaEff may be exactly 0 (a perfectly steady baseline with no jitter
	// floor configured): the band collapses to the single point mu, and any
	// tail sample that differs from mu is, correctly, outside it.
	low := mu - t.k*sigmaEff
	high := mu + t.k*sigmaEff

	tail := t.log[len(t.log)-t.abnormalWindowLength:]
	for _, v := range tail {
		if v >= low && v <= high {
			return false
		}
	}
	return true
}

// Reset clears both the raw log and the StatWindow, restarting warm-up.
func (t *TimeSeries) Reset() {
	t.log = nil
	t.window.Reset()
}
