package rppg

import "math"

// bandpassFilter suppresses energy outside the cardiac band. Four causal
// one-pole stages approximate a steeper band-pass than a single stage:
// high-pass, low-pass, then each applied a second time. Stage order and
// coefficient derivation affect peak-bin placement and are fixed.
func (a *Analyzer) bandpassFilter(signal []float64, fps float64) []float64 {
	out := highPassForward(signal, a.config.MinFrequency, fps)
	out = lowPassForward(out, a.config.MaxFrequency, fps)
	out = lowPassForward(out, a.config.MaxFrequency, fps)
	out = highPassForward(out, a.config.MinFrequency, fps)
	return out
}

// lowPassForward applies a first-order exponential low-pass with
// RC = 1/(2*pi*cutoff) and alpha = dt/(RC+dt)
func lowPassForward(signal []float64, cutoff, fps float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	dt := 1.0 / fps
	rc := 1.0 / (2 * math.Pi * cutoff)
	alpha := dt / (rc + dt)

	out[0] = signal[0]
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + alpha*(signal[i]-out[i-1])
	}
	return out
}

// highPassForward applies a first-order exponential high-pass with
// RC = 1/(2*pi*cutoff) and alpha = RC/(RC+dt)
func highPassForward(signal []float64, cutoff, fps float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	dt := 1.0 / fps
	rc := 1.0 / (2 * math.Pi * cutoff)
	alpha := rc / (rc + dt)

	out[0] = signal[0]
	for i := 1; i < n; i++ {
		out[i] = alpha * (out[i-1] + signal[i] - signal[i-1])
	}
	return out
}
