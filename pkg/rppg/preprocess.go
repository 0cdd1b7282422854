package rppg

import "math"

// detrendSignal removes the least-squares linear trend from the signal.
// Slow illumination drift and sensor warm-up would otherwise dominate the
// spectrum near DC.
func detrendSignal(signal []float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range signal {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denominator := float64(n)*sumXX - sumX*sumX
	if denominator == 0 {
		copy(out, signal)
		return out
	}

	slope := (float64(n)*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / float64(n)

	for i, v := range signal {
		out[i] = v - (slope*float64(i) + intercept)
	}
	return out
}

// normalizeSignal centers the signal and scales it to unit population
// variance. A zero standard deviation is substituted with 1, so a constant
// input maps to the all-zero sequence instead of dividing by zero.
func normalizeSignal(signal []float64) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	mean := meanOf(signal)
	std := stdOf(signal, mean)
	if std == 0 {
		std = 1
	}
	for i, v := range signal {
		out[i] = (v - mean) / std
	}
	return out
}

func meanOf(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range signal {
		sum += v
	}
	return sum / float64(len(signal))
}

// stdOf returns the population standard deviation around the given mean
func stdOf(signal []float64, mean float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range signal {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(signal)))
}
