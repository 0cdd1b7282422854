package rppg

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestDetrendRemovesLinearRamp(t *testing.T) {
	n := 200
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = 0.3 + 0.02*float64(i)
	}

	out := detrendSignal(signal)

	if len(out) != n {
		t.Fatalf("expected length %d, got %d", n, len(out))
	}
	for i, v := range out {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("residual at index %d is %v, expected ~0 after detrending a pure ramp", i, v)
		}
	}
}

func TestDetrendPreservesOscillation(t *testing.T) {
	n := 300
	signal := make([]float64, n)
	pure := make([]float64, n)
	for i := range signal {
		s := math.Sin(2 * math.Pi * float64(i) / 25)
		pure[i] = s
		signal[i] = s + 1.5 + 0.01*float64(i)
	}

	out := detrendSignal(signal)

	// A sine over many full periods is nearly orthogonal to the fitted
	// line, so the oscillation should survive with small distortion
	// (finite-length leakage keeps the residual below ~0.08 here).
	for i := range out {
		if math.Abs(out[i]-pure[i]) > 0.1 {
			t.Fatalf("sample %d: got %v, want ~%v", i, out[i], pure[i])
		}
	}
}

func TestDetrendDegenerateInputs(t *testing.T) {
	tests := []struct {
		name   string
		signal []float64
	}{
		{"empty", nil},
		{"single", []float64{4.2}},
		{"pair", []float64{1.0, 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := detrendSignal(tt.signal)
			if len(out) != len(tt.signal) {
				t.Errorf("length changed: got %d, want %d", len(out), len(tt.signal))
			}
		})
	}
}

func TestNormalizeMatchesPopulationMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	signal := make([]float64, 500)
	for i := range signal {
		signal[i] = 10 + 5*rng.NormFloat64()
	}

	wantMean := stat.Mean(signal, nil)
	wantStd := stat.PopStdDev(signal, nil)

	if math.Abs(meanOf(signal)-wantMean) > 1e-9 {
		t.Errorf("mean: got %v, want %v", meanOf(signal), wantMean)
	}
	if math.Abs(stdOf(signal, wantMean)-wantStd) > 1e-9 {
		t.Errorf("population std: got %v, want %v", stdOf(signal, wantMean), wantStd)
	}

	out := normalizeSignal(signal)
	gotMean := stat.Mean(out, nil)
	// Population estimator, not the n-1 sample one.
	gotStd := stat.PopStdDev(out, nil)
	if math.Abs(gotMean) > 1e-9 {
		t.Errorf("normalized mean: got %v, want 0", gotMean)
	}
	if math.Abs(gotStd-1) > 1e-9 {
		t.Errorf("normalized std: got %v, want 1", gotStd)
	}
}

func TestNormalizeConstantSignal(t *testing.T) {
	signal := []float64{0.42, 0.42, 0.42, 0.42, 0.42}

	out := normalizeSignal(signal)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("index %d: got %v, want 0 (zero-variance input must map to zeros)", i, v)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5}
	normalizeSignal(signal)
	detrendSignal(signal)

	want := []float64{1, 2, 3, 4, 5}
	for i := range signal {
		if signal[i] != want[i] {
			t.Fatalf("input mutated at index %d: got %v, want %v", i, signal[i], want[i])
		}
	}
}
