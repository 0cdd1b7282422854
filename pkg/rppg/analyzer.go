// Package rppg turns batches of averaged skin-region color samples into
// heart-rate estimates via remote photoplethysmography: per-channel
// detrending, a POS chrominance projection, one-pole bandpass filtering,
// a zero-padded radix-2 FFT, and a band-limited peak search with an SNR
// driven confidence heuristic.
package rppg

import (
	"fmt"
	"time"

	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

// Analyzer runs the analysis pipeline. It is immutable after construction
// and safe for concurrent use; every invocation allocates its own buffers.
type Analyzer struct {
	config *Config
	logger logging.Logger
}

// NewAnalyzer creates an analyzer with the given configuration.
// A nil config selects DefaultConfig().
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Analyzer{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "rppg",
		}),
	}
}

// Config returns the analyzer's configuration
func (a *Analyzer) Config() *Config {
	return a.config
}

// Analyze runs the full pipeline on one batch of samples. The pipeline is a
// pure function of (samples, fps): repeated calls return identical results.
func (a *Analyzer) Analyze(samples []RGBSample, fps float64) (*AnalysisResult, error) {
	result, _, err := a.AnalyzeWithDiagnostics(samples, fps)
	return result, err
}

// AnalyzeWithDiagnostics runs the pipeline and additionally reports stage
// internals for instrumentation and debug tooling. Diagnostics never feed
// back into the result.
func (a *Analyzer) AnalyzeWithDiagnostics(samples []RGBSample, fps float64) (*AnalysisResult, *Diagnostics, error) {
	n := len(samples)
	if n < a.config.MinSamples {
		return nil, nil, NewAnalysisError(ErrCodeInsufficientSamples,
			fmt.Sprintf("need at least %d samples, got %d", a.config.MinSamples, n), nil)
	}

	actualFPS := fps
	if actualFPS <= 0 {
		actualFPS = a.config.DefaultFPS
	}

	diag := &Diagnostics{}

	stageStart := time.Now()
	r := make([]float64, n)
	g := make([]float64, n)
	b := make([]float64, n)
	for i, s := range samples {
		r[i] = s.R
		g[i] = s.G
		b[i] = s.B
	}
	r = normalizeSignal(detrendSignal(r))
	g = normalizeSignal(detrendSignal(g))
	b = normalizeSignal(detrendSignal(b))
	diag.addTiming("preprocess", time.Since(stageStart))

	stageStart = time.Now()
	pulse := a.extractPulsePOS(r, g, b, actualFPS)
	diag.addTiming("pos_projection", time.Since(stageStart))

	stageStart = time.Now()
	filtered := a.bandpassFilter(pulse, actualFPS)
	diag.addTiming("bandpass", time.Since(stageStart))

	stageStart = time.Now()
	magnitudes := a.computeSpectrum(filtered)
	fftSize := len(magnitudes) * 2
	diag.addTiming("spectrum", time.Since(stageStart))

	stageStart = time.Now()
	estimate := a.analyzePeak(magnitudes, actualFPS, fftSize)
	variance := signalVariance(filtered)
	confidence, quality, message := a.classify(estimate.snr, n, variance)
	diag.addTiming("peak_analysis", time.Since(stageStart))

	stageStart = time.Now()
	waveform := a.downsampleWaveform(filtered)
	diag.addTiming("waveform", time.Since(stageStart))

	windowLength, step := a.posWindow(actualFPS)
	diag.WindowLength = windowLength
	if n >= windowLength {
		diag.WindowCount = (n-windowLength)/step + 1
	}
	diag.FFTSize = fftSize
	diag.PeakBin = estimate.peakBin
	diag.RefinedBin = estimate.refinedBin
	diag.PeakFrequencyHz = estimate.refinedBin * actualFPS / float64(fftSize)
	diag.SNR = estimate.snr
	diag.Variance = variance
	diag.RawBPM = estimate.rawBPM
	diag.Filtered = filtered
	diag.Spectrum = magnitudes

	a.logger.Debug("analysis complete", logging.Fields{
		"samples":    n,
		"fps":        actualFPS,
		"fft_size":   fftSize,
		"peak_bin":   estimate.peakBin,
		"heart_rate": estimate.heartRate,
		"snr":        estimate.snr,
		"confidence": string(confidence),
	})

	return &AnalysisResult{
		HeartRate:        estimate.heartRate,
		Confidence:       confidence,
		Waveform:         waveform,
		SignalQuality:    quality,
		SamplesProcessed: n,
		Message:          message,
		RawBPM:           estimate.rawBPM,
	}, diag, nil
}

// Analyze runs the pipeline with the default configuration
func Analyze(samples []RGBSample, fps float64) (*AnalysisResult, error) {
	return NewAnalyzer(nil).Analyze(samples, fps)
}
