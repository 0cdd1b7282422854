package rppg

import "time"

// RGBSample is one averaged skin-region color reading at a single capture
// instant. Samples are immutable once handed to the pipeline.
type RGBSample struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Confidence classifies how trustworthy a heart rate estimate is
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Per-tier result messages. The wording is part of the API contract
// consumed by capture clients, not just log text.
const (
	MessageHighConfidence   = "Strong pulse signal detected"
	MessageMediumConfidence = "Pulse signal detected with moderate confidence"
	MessageLowConfidence    = "Weak or noisy signal. Improve lighting and minimize movement"
)

// AnalysisResult is the sole externally visible artifact of one analysis.
// It is created once per invocation and never mutated afterwards.
type AnalysisResult struct {
	HeartRate        int        `json:"heartRate"`
	Confidence       Confidence `json:"confidence"`
	Waveform         []float64  `json:"waveform"`
	SignalQuality    int        `json:"signalQuality"`
	SamplesProcessed int        `json:"samplesProcessed"`
	Message          string     `json:"message"`

	// RawBPM carries the estimate before clamping to the reportable range.
	// It is not serialized; the wire contract exposes only HeartRate.
	RawBPM float64 `json:"-"`
}

// StageTiming records how long one pipeline stage took
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Diagnostics exposes pipeline internals for instrumentation and debug
// tooling. Populated alongside the result; never feeds back into it.
type Diagnostics struct {
	WindowLength    int           `json:"window_length"`
	WindowCount     int           `json:"window_count"`
	FFTSize         int           `json:"fft_size"`
	PeakBin         int           `json:"peak_bin"`
	RefinedBin      float64       `json:"refined_bin"`
	PeakFrequencyHz float64       `json:"peak_frequency_hz"`
	SNR             float64       `json:"snr"`
	Variance        float64       `json:"variance"`
	RawBPM          float64       `json:"raw_bpm"`
	Filtered        []float64     `json:"-"`
	Spectrum        []float64     `json:"-"`
	StageTimings    []StageTiming `json:"stage_timings,omitempty"`
}

func (d *Diagnostics) addTiming(stage string, duration time.Duration) {
	d.StageTimings = append(d.StageTimings, StageTiming{Stage: stage, Duration: duration})
}
