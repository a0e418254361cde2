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

import (
	"math"
	"testing"
)

func refMeanStdDev(values []float64) (mu, sigma float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mu = sum / n
	var sqDiff float64
	for _, v := range values {
		d := v - mu
		sqDiff += d * d
	}
	variance := sqDiff / n
	if variance < 0 {
		variance = 0
	}
	sigma = math.Sqrt(variance)
	return mu, sigma
}

func TestStatWindow_MatchesFullRecompute(t *testing.T) {
	w := NewStatWindow(5)
	var contents []float64
	samples := []float64{10, 12, 9, 11, 10, 50, 51, 8, 9, 10, 11}

	for _, s := range samples {
		w.Add(s)
		contents = append(contents, s)
		if len(contents) > 5 {
			contents = contents[1:]
		}

		wantMu, wantSigma := refMeanStdDev(contents)
		gotMu, gotSigma := w.Stats()
		if absF(gotMu-wantMu) > 1e-6 {
			t.Fatalf("after add %.2f: mu = %.6f, want %.6f", s, gotMu, wantMu)
		}
		if absF(gotSigma-wantSigma) > 1e-6 {
			t.Fatalf("after add %.2f: sigma = %.6f, want %.6f", s, gotSigma, wantSigma)
		}
		if gotSigma < 0 {
			t.Fatalf("sigma went negative: %.6f", gotSigma)
		}
		if w.Len() != len(contents) {
			t.Fatalf("Len() = %d, want %d", w.Len(), len(contents))
		}
	}
}

func TestStatWindow_NeverExceedsLimit(t *testing.T) {
	w := NewStatWindow(3)
	for i := 0; i < 20; i++ {
		w.Add(float64(i))
		if w.Len() > 3 {
			t.Fatalf("Len() = %d, want <= 3", w.Len())
		}
	}
}

func TestStatWindow_Reset(t *testing.T) {
	w := NewStatWindow(4)
	w.Add(1)
	w.Add(2)
	w.Add(3)
	w.Reset()

	mu, sigma := w.Stats()
	if mu != 0 || sigma != 0 || w.Len() != 0 {
		t.Fatalf("after Reset: (mu, sigma, len) = (%v, %v, %v), want (0, 0, 0)", mu, sigma, w.Len())
	}
}

func TestStatWindow_ZeroLimitNeverAccumulates(t *testing.T) {
	w := NewStatWindow(0)
	w.Add(5)
	w.Add(5)
	if w.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for a zero-limit window", w.Len())
	}
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
