package rppg

import "fmt"

// Default tuning values for the analysis pipeline. Kept as named constants
// so the band edges and confidence thresholds stay auditable.
const (
	DefaultMinSamples       = 30
	DefaultFPS              = 10.0
	DefaultMinFrequency     = 0.75 // Hz, 45 bpm
	DefaultMaxFrequency     = 3.5  // Hz, 210 bpm
	DefaultWindowSeconds    = 1.6
	DefaultMinWindowSize    = 10
	DefaultZeroPadFactor    = 4
	DefaultWaveformLength   = 100
	DefaultMinHeartRate     = 45
	DefaultMaxHeartRate     = 180
	DefaultHighSNR          = 0.25
	DefaultMediumSNR        = 0.12
	DefaultHighMinSamples   = 150
	DefaultMediumMinSamples = 80
	DefaultVarianceFloor    = 1e-10
)

// Config holds the tuning parameters of the analysis pipeline
type Config struct {
	// MinSamples is the hard lower bound on input length. Below roughly
	// three seconds of data the spectral estimate is unreliable.
	MinSamples int

	// DefaultFPS substitutes a missing or non-positive sampling rate
	DefaultFPS float64

	// MinFrequency and MaxFrequency bound the cardiac band in Hz
	MinFrequency float64
	MaxFrequency float64

	// WindowSeconds sizes the POS sliding window; MinWindowSize floors it
	// so low frame rates still span at least one cardiac cycle
	WindowSeconds float64
	MinWindowSize int

	// ZeroPadFactor densifies FFT bins for peak interpolation accuracy
	ZeroPadFactor int

	// WaveformLength is the fixed display buffer size
	WaveformLength int

	// MinHeartRate and MaxHeartRate clamp the reported estimate in bpm
	MinHeartRate int
	MaxHeartRate int

	// Confidence tier thresholds, evaluated high first
	HighSNRThreshold   float64
	MediumSNRThreshold float64
	HighMinSamples     int
	MediumMinSamples   int

	// VarianceFloor separates a live signal from an effectively flat one
	VarianceFloor float64
}

// DefaultConfig returns the pipeline configuration with contract values
func DefaultConfig() *Config {
	return &Config{
		MinSamples:         DefaultMinSamples,
		DefaultFPS:         DefaultFPS,
		MinFrequency:       DefaultMinFrequency,
		MaxFrequency:       DefaultMaxFrequency,
		WindowSeconds:      DefaultWindowSeconds,
		MinWindowSize:      DefaultMinWindowSize,
		ZeroPadFactor:      DefaultZeroPadFactor,
		WaveformLength:     DefaultWaveformLength,
		MinHeartRate:       DefaultMinHeartRate,
		MaxHeartRate:       DefaultMaxHeartRate,
		HighSNRThreshold:   DefaultHighSNR,
		MediumSNRThreshold: DefaultMediumSNR,
		HighMinSamples:     DefaultHighMinSamples,
		MediumMinSamples:   DefaultMediumMinSamples,
		VarianceFloor:      DefaultVarianceFloor,
	}
}

// Validate checks the configuration for coherence
func (c *Config) Validate() error {
	if c.MinSamples < 2 {
		return fmt.Errorf("minimum sample count must be at least 2, got %d", c.MinSamples)
	}
	if c.DefaultFPS <= 0 {
		return fmt.Errorf("default fps must be positive, got %f", c.DefaultFPS)
	}
	if c.MinFrequency <= 0 {
		return fmt.Errorf("minimum frequency must be positive, got %f", c.MinFrequency)
	}
	if c.MaxFrequency <= c.MinFrequency {
		return fmt.Errorf("maximum frequency must exceed minimum frequency, got [%f, %f]",
			c.MinFrequency, c.MaxFrequency)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be positive, got %f", c.WindowSeconds)
	}
	if c.MinWindowSize < 2 {
		return fmt.Errorf("minimum window size must be at least 2, got %d", c.MinWindowSize)
	}
	if c.ZeroPadFactor < 1 {
		return fmt.Errorf("zero pad factor must be at least 1, got %d", c.ZeroPadFactor)
	}
	if c.WaveformLength < 1 {
		return fmt.Errorf("waveform length must be positive, got %d", c.WaveformLength)
	}
	if c.MaxHeartRate <= c.MinHeartRate {
		return fmt.Errorf("heart rate clamp range is inverted: [%d, %d]",
			c.MinHeartRate, c.MaxHeartRate)
	}
	if c.HighSNRThreshold <= c.MediumSNRThreshold {
		return fmt.Errorf("high SNR threshold must exceed medium threshold, got [%f, %f]",
			c.MediumSNRThreshold, c.HighSNRThreshold)
	}
	if c.HighMinSamples < c.MediumMinSamples {
		return fmt.Errorf("high confidence sample floor must be at least the medium floor, got [%d, %d]",
			c.MediumMinSamples, c.HighMinSamples)
	}
	return nil
}
