package app

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// SignalSpec parameterizes the synthetic pulse generator behind the
// signal-test command.
type SignalSpec struct {
	BPM        float64       // injected pulse rate
	FPS        float64       // capture frame rate
	Duration   time.Duration // capture length
	NoiseLevel float64       // gaussian noise relative to the pulse amplitude
	TrendSlope float64       // linear illumination drift per second
	Seed       int64         // rng seed, same seed gives the same recording
}

// Skin-tone reflectance baseline and the relative pulse strength of each
// color channel. Green carries the strongest pulsatile component, so the
// chrominance projection can separate pulse from intensity changes.
const (
	baseRed   = 0.62
	baseGreen = 0.41
	baseBlue  = 0.35

	pulseAmplitude = 0.004

	pulseWeightRed   = 0.33
	pulseWeightGreen = 0.77
	pulseWeightBlue  = 0.53
)

// GenerateRecording synthesizes a recording with a known pulse rate.
// Unset fields fall back to a 72 bpm, 30 fps, 10 second capture.
func GenerateRecording(spec SignalSpec) *Recording {
	if spec.BPM <= 0 {
		spec.BPM = 72
	}
	if spec.FPS <= 0 {
		spec.FPS = 30
	}
	if spec.Duration <= 0 {
		spec.Duration = 10 * time.Second
	}

	count := int(spec.Duration.Seconds() * spec.FPS)
	rng := rand.New(rand.NewSource(spec.Seed))
	omega := 2 * math.Pi * spec.BPM / 60

	samples := make([]rppg.RGBSample, count)
	for i := range samples {
		t := float64(i) / spec.FPS
		pulse := math.Sin(omega*t) * pulseAmplitude
		drift := spec.TrendSlope * t

		noise := func() float64 {
			return rng.NormFloat64() * spec.NoiseLevel * pulseAmplitude
		}

		samples[i] = rppg.RGBSample{
			R: baseRed + pulse*pulseWeightRed + drift + noise(),
			G: baseGreen + pulse*pulseWeightGreen + drift + noise(),
			B: baseBlue + pulse*pulseWeightBlue + drift + noise(),
		}
	}

	return &Recording{
		Name:    fmt.Sprintf("synthetic_%dbpm", int(math.Round(spec.BPM))),
		FPS:     spec.FPS,
		Samples: samples,
	}
}
