package rppg

import "math"

// downsampleWaveform resamples the filtered series to the fixed display
// length by nearest-available index, then scales the buffer into [-1, 1]
// by its maximum absolute value.
func (a *Analyzer) downsampleWaveform(signal []float64) []float64 {
	length := a.config.WaveformLength
	out := make([]float64, length)
	n := len(signal)

	for i := 0; i < length; i++ {
		idx := i * n / length
		if idx >= 0 && idx < n {
			out[i] = signal[idx]
		}
	}

	var maxAbs float64
	for _, v := range out {
		if math.Abs(v) > maxAbs {
			maxAbs = math.Abs(v)
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	for i := range out {
		out[i] /= maxAbs
	}
	return out
}
