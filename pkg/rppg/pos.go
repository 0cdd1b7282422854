package rppg

import "math"

// posWindow returns the sliding window length and step for the given
// sampling rate. The window spans at least one cardiac cycle at plausible
// heart rates; the floor keeps very low frame rates usable.
func (a *Analyzer) posWindow(fps float64) (length, step int) {
	length = int(math.Floor(fps * a.config.WindowSeconds))
	if length < a.config.MinWindowSize {
		length = a.config.MinWindowSize
	}
	return length, length / 2
}

// extractPulsePOS fuses the three normalized channels into one
// pulse-carrying signal via the plane-orthogonal-to-skin projection.
// Statistics are re-derived per window so the projection adapts to local
// specular and motion conditions instead of trusting one global
// normalization.
func (a *Analyzer) extractPulsePOS(r, g, b []float64, fps float64) []float64 {
	n := len(r)
	pulse := make([]float64, n)

	windowLength, step := a.posWindow(fps)

	// Iteration is over window start positions; the last samples are covered
	// by the final full window's extent. Overlapping regions accumulate the
	// contributions of both windows: the overlap-add is intentionally not
	// averaged by overlap count.
	for start := 0; start+windowLength <= n; start += step {
		end := start + windowLength

		rw := normalizeSignal(r[start:end])
		gw := normalizeSignal(g[start:end])
		bw := normalizeSignal(b[start:end])

		x := make([]float64, windowLength)
		y := make([]float64, windowLength)
		for i := 0; i < windowLength; i++ {
			x[i] = 3*rw[i] - 2*gw[i]
			y[i] = 1.5*rw[i] + gw[i] - 1.5*bw[i]
		}

		stdX := stdOf(x, meanOf(x))
		stdY := stdOf(y, meanOf(y))
		if stdY == 0 {
			stdY = 1
		}
		alpha := stdX / stdY

		for i := 0; i < windowLength; i++ {
			pulse[start+i] += x[i] + alpha*y[i]
		}
	}

	return detrendSignal(pulse)
}
