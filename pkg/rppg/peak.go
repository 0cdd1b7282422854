package rppg

import "math"

// peakEstimate captures the outcome of the band-limited spectral peak search
type peakEstimate struct {
	peakBin    int
	refinedBin float64
	rawBPM     float64
	heartRate  int
	snr        float64
}

// analyzePeak locates the dominant bin inside the cardiac band, refines it
// by parabolic interpolation, and converts it to beats per minute.
func (a *Analyzer) analyzePeak(magnitudes []float64, fps float64, fftSize int) peakEstimate {
	minBin := int(math.Floor(a.config.MinFrequency * float64(fftSize) / fps))
	if minBin < 1 {
		// Bin 0 is DC and never part of the search
		minBin = 1
	}
	maxBin := int(math.Ceil(a.config.MaxFrequency * float64(fftSize) / fps))
	if maxBin > fftSize/2-1 {
		maxBin = fftSize/2 - 1
	}

	// Strict > resolves ties to the lowest index. When the band maps above
	// Nyquist the loop never runs and the peak stays at the band floor.
	peakBin := minBin
	var peakMag float64
	for i := minBin; i <= maxBin && i < len(magnitudes); i++ {
		if magnitudes[i] > peakMag {
			peakMag = magnitudes[i]
			peakBin = i
		}
	}

	// Parabolic refinement only for a peak strictly interior to the range;
	// an edge peak is never extrapolated outside the searched band.
	refined := float64(peakBin)
	if peakBin > minBin && peakBin < maxBin {
		alpha := magnitudes[peakBin-1]
		beta := magnitudes[peakBin]
		gamma := magnitudes[peakBin+1]
		denominator := alpha - 2*beta + gamma
		if denominator != 0 {
			refined += 0.5 * (alpha - gamma) / denominator
		}
	}

	rawBPM := refined * fps / float64(fftSize) * 60
	heartRate := int(math.Round(rawBPM))
	if heartRate < a.config.MinHeartRate {
		heartRate = a.config.MinHeartRate
	}
	if heartRate > a.config.MaxHeartRate {
		heartRate = a.config.MaxHeartRate
	}

	return peakEstimate{
		peakBin:    peakBin,
		refinedBin: refined,
		rawBPM:     rawBPM,
		heartRate:  heartRate,
		snr:        bandSNR(magnitudes, minBin, maxBin, peakBin),
	}
}

// bandSNR measures how much of the in-band power concentrates within two
// bins of the peak. Zero total power yields zero.
func bandSNR(magnitudes []float64, minBin, maxBin, peakBin int) float64 {
	var totalPower, peakPower float64
	for i := minBin; i <= maxBin && i < len(magnitudes); i++ {
		power := magnitudes[i] * magnitudes[i]
		totalPower += power
		if i >= peakBin-2 && i <= peakBin+2 {
			peakPower += power
		}
	}
	if totalPower == 0 {
		return 0
	}
	return peakPower / totalPower
}

// signalVariance is the raw second moment of the filtered series
func signalVariance(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range signal {
		sum += v * v
	}
	return sum / float64(len(signal))
}

// classify assigns the confidence tier, quality score, and message for an
// estimate. Tiers are evaluated high first; the first match wins.
func (a *Analyzer) classify(snr float64, sampleCount int, variance float64) (Confidence, int, string) {
	hasVariation := variance > a.config.VarianceFloor

	var confidence Confidence
	switch {
	case snr > a.config.HighSNRThreshold && sampleCount >= a.config.HighMinSamples && hasVariation:
		confidence = ConfidenceHigh
	case snr > a.config.MediumSNRThreshold && sampleCount >= a.config.MediumMinSamples && hasVariation:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}

	quality := 0
	if hasVariation {
		quality = int(math.Round(math.Min(snr*2, 1) * 100))
	}

	return confidence, quality, messageFor(confidence)
}

func messageFor(confidence Confidence) string {
	switch confidence {
	case ConfidenceHigh:
		return MessageHighConfidence
	case ConfidenceMedium:
		return MessageMediumConfidence
	default:
		return MessageLowConfidence
	}
}
