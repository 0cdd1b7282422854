package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

func TestGenerateRecordingDefaults(t *testing.T) {
	recording := GenerateRecording(SignalSpec{})

	assert.Equal(t, "synthetic_72bpm", recording.Name)
	assert.Equal(t, 30.0, recording.FPS)
	assert.Len(t, recording.Samples, 300)
}

func TestGenerateRecordingShape(t *testing.T) {
	recording := GenerateRecording(SignalSpec{
		BPM:      95,
		FPS:      25,
		Duration: 4 * time.Second,
	})

	assert.Equal(t, "synthetic_95bpm", recording.Name)
	assert.Equal(t, 25.0, recording.FPS)
	assert.Len(t, recording.Samples, 100)
}

func TestGenerateRecordingDeterministic(t *testing.T) {
	spec := SignalSpec{BPM: 72, NoiseLevel: 1.5, Seed: 42}

	first := GenerateRecording(spec)
	second := GenerateRecording(spec)

	assert.Equal(t, first.Samples, second.Samples)

	spec.Seed = 43
	third := GenerateRecording(spec)
	assert.NotEqual(t, first.Samples, third.Samples)
}

func TestGeneratedPulseIsRecoverable(t *testing.T) {
	analyzer := rppg.NewAnalyzer(nil)

	for _, bpm := range []float64{55, 72, 110, 150} {
		recording := GenerateRecording(SignalSpec{BPM: bpm, FPS: 30, Duration: 10 * time.Second})

		result, err := analyzer.Analyze(recording.Samples, recording.FPS)

		require.NoError(t, err)
		assert.InDelta(t, bpm, float64(result.HeartRate), 2,
			"injected %v bpm, recovered %d", bpm, result.HeartRate)
	}
}

func TestGeneratedCleanSignalRatesHighConfidence(t *testing.T) {
	analyzer := rppg.NewAnalyzer(nil)
	recording := GenerateRecording(SignalSpec{BPM: 72, FPS: 30, Duration: 10 * time.Second})

	result, err := analyzer.Analyze(recording.Samples, recording.FPS)

	require.NoError(t, err)
	assert.Equal(t, rppg.ConfidenceHigh, result.Confidence)
}

func TestGeneratedNoiseLowersQuality(t *testing.T) {
	analyzer := rppg.NewAnalyzer(nil)

	clean := GenerateRecording(SignalSpec{BPM: 72, FPS: 30, Duration: 10 * time.Second})
	noisy := GenerateRecording(SignalSpec{BPM: 72, FPS: 30, Duration: 10 * time.Second, NoiseLevel: 6, Seed: 9})

	cleanResult, err := analyzer.Analyze(clean.Samples, clean.FPS)
	require.NoError(t, err)
	noisyResult, err := analyzer.Analyze(noisy.Samples, noisy.FPS)
	require.NoError(t, err)

	assert.Less(t, noisyResult.SignalQuality, cleanResult.SignalQuality)
}

func TestGeneratedTrendIsRemoved(t *testing.T) {
	analyzer := rppg.NewAnalyzer(nil)
	recording := GenerateRecording(SignalSpec{
		BPM:        72,
		FPS:        30,
		Duration:   10 * time.Second,
		TrendSlope: 0.05,
	})

	result, err := analyzer.Analyze(recording.Samples, recording.FPS)

	require.NoError(t, err)
	assert.InDelta(t, 72, float64(result.HeartRate), 3)
}
