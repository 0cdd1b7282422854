package rppg

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

// AnalyzerTestSuite exercises the full pipeline on synthetic recordings
type AnalyzerTestSuite struct {
	suite.Suite
	analyzer *Analyzer
	logger   logging.Logger

	// Clean 75 bpm reference recording shared across tests
	referenceSamples []RGBSample
	referenceFPS     float64
}

// SetupSuite runs once before all tests
func (suite *AnalyzerTestSuite) SetupSuite() {
	suite.logger = logging.WithFields(logging.Fields{
		"component": "analyzer_test_suite",
	})

	suite.analyzer = NewAnalyzer(nil)
	suite.referenceFPS = 30
	suite.referenceSamples = suite.generatePulseSamples(75, suite.referenceFPS, 300, 0.3, 42)
}

// generatePulseSamples synthesizes a skin-tone recording with a sinusoidal
// pulse on the red channel and seeded jitter on all three channels. The
// noise level is relative to the pulse amplitude.
func (suite *AnalyzerTestSuite) generatePulseSamples(bpm, fps float64, n int, noise float64, seed int64) []RGBSample {
	rng := rand.New(rand.NewSource(seed))
	freq := bpm / 60.0
	amplitude := 0.05

	samples := make([]RGBSample, n)
	for i := range samples {
		t := float64(i) / fps
		pulse := amplitude * math.Sin(2*math.Pi*freq*t)
		samples[i] = RGBSample{
			R: 0.62 + pulse + noise*amplitude*rng.NormFloat64(),
			G: 0.45 + 0.7*pulse + noise*amplitude*rng.NormFloat64(),
			B: 0.38 + 0.4*pulse + noise*amplitude*rng.NormFloat64(),
		}
	}
	return samples
}

// generateUniformNoiseSamples synthesizes a recording where all three
// channels share one sine plus scaled noise of a fixed shape, so raising
// the scale strictly lowers the spectral peak share.
func (suite *AnalyzerTestSuite) generateUniformNoiseSamples(bpm, fps float64, n int, noiseScale float64, seed int64) []RGBSample {
	rng := rand.New(rand.NewSource(seed))
	freq := bpm / 60.0

	samples := make([]RGBSample, n)
	for i := range samples {
		t := float64(i) / fps
		v := math.Sin(2*math.Pi*freq*t) + noiseScale*rng.NormFloat64()
		samples[i] = RGBSample{R: 0.6 + 0.05*v, G: 0.45 + 0.05*v, B: 0.38 + 0.05*v}
	}
	return samples
}

func (suite *AnalyzerTestSuite) TestRecoversKnownHeartRate() {
	result, err := suite.analyzer.Analyze(suite.referenceSamples, suite.referenceFPS)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), result)

	suite.logger.Info("known rate recovery", logging.Fields{
		"heart_rate": result.HeartRate,
		"confidence": string(result.Confidence),
		"quality":    result.SignalQuality,
	})

	assert.InDelta(suite.T(), 75, result.HeartRate, 3, "should recover the synthetic 75 bpm pulse")
	assert.Contains(suite.T(), []Confidence{ConfidenceMedium, ConfidenceHigh}, result.Confidence,
		"clean long recording should not classify as low")
	assert.Equal(suite.T(), 300, result.SamplesProcessed)
}

func (suite *AnalyzerTestSuite) TestRecoversAcrossRates() {
	for _, bpm := range []float64{55, 72, 96, 130} {
		samples := suite.generatePulseSamples(bpm, 30, 450, 0.2, 7)
		result, err := suite.analyzer.Analyze(samples, 30)
		require.NoError(suite.T(), err)

		assert.InDelta(suite.T(), bpm, result.HeartRate, 4,
			"rate %v bpm should be recovered", bpm)
	}
}

func (suite *AnalyzerTestSuite) TestInsufficientSamples() {
	samples := suite.generatePulseSamples(75, 30, 29, 0, 1)

	result, err := suite.analyzer.Analyze(samples, 30)

	require.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
	assert.True(suite.T(), IsCode(err, ErrCodeInsufficientSamples))

	var analysisErr *AnalysisError
	require.ErrorAs(suite.T(), err, &analysisErr)
	assert.Contains(suite.T(), analysisErr.Message, "30")
}

func (suite *AnalyzerTestSuite) TestMinimumViableRecording() {
	samples := suite.generatePulseSamples(75, 10, 30, 0, 1)

	result, err := suite.analyzer.Analyze(samples, 10)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), result)
	suite.assertResultInvariants(result, 30)
}

func (suite *AnalyzerTestSuite) TestDeterministic() {
	first, err := suite.analyzer.Analyze(suite.referenceSamples, suite.referenceFPS)
	require.NoError(suite.T(), err)
	second, err := suite.analyzer.Analyze(suite.referenceSamples, suite.referenceFPS)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(suite.T(), err)
	secondJSON, err := json.Marshal(second)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), firstJSON, secondJSON, "serialized results must be byte-identical")
}

func (suite *AnalyzerTestSuite) TestConstantInput() {
	samples := make([]RGBSample, 120)
	for i := range samples {
		samples[i] = RGBSample{R: 0.42, G: 0.42, B: 0.42}
	}

	result, err := suite.analyzer.Analyze(samples, 30)

	require.NoError(suite.T(), err, "flat input is degraded output, not an error")
	assert.Equal(suite.T(), ConfidenceLow, result.Confidence)
	assert.Equal(suite.T(), 0, result.SignalQuality)
	assert.Equal(suite.T(), MessageLowConfidence, result.Message)
	assert.Equal(suite.T(), suite.analyzer.Config().MinHeartRate, result.HeartRate,
		"empty spectrum degrades to the clamped band floor")
	for i, v := range result.Waveform {
		assert.Zerof(suite.T(), v, "waveform[%d] should be zero for flat input", i)
	}
}

func (suite *AnalyzerTestSuite) TestConfidenceDegradesWithNoise() {
	tierRank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}

	var ranks []int
	for _, noiseScale := range []float64{0, 0.5, 2, 10} {
		samples := suite.generateUniformNoiseSamples(75, 30, 200, noiseScale, 99)
		result, err := suite.analyzer.Analyze(samples, 30)
		require.NoError(suite.T(), err)

		suite.logger.Info("noise sweep", logging.Fields{
			"noise_scale": noiseScale,
			"confidence":  string(result.Confidence),
			"quality":     result.SignalQuality,
		})
		ranks = append(ranks, tierRank[result.Confidence])
	}

	assert.Equal(suite.T(), 2, ranks[0], "noiseless recording should rate high")
	assert.Equal(suite.T(), 0, ranks[len(ranks)-1], "noise-swamped recording should rate low")
	for i := 1; i < len(ranks); i++ {
		assert.LessOrEqual(suite.T(), ranks[i], ranks[i-1],
			"confidence must not improve as noise rises")
	}
}

func (suite *AnalyzerTestSuite) TestFPSFallback() {
	samples := suite.generatePulseSamples(75, 10, 120, 0.2, 5)

	explicit, err := suite.analyzer.Analyze(samples, 10)
	require.NoError(suite.T(), err)
	zeroed, err := suite.analyzer.Analyze(samples, 0)
	require.NoError(suite.T(), err)
	negative, err := suite.analyzer.Analyze(samples, -5)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), explicit, zeroed, "fps 0 must fall back to the 10 fps default")
	assert.Equal(suite.T(), explicit, negative, "negative fps must fall back to the 10 fps default")
}

func (suite *AnalyzerTestSuite) TestWindowLongerThanRecording() {
	// 30 samples at 60 fps wants a 96-sample window, so no window fits.
	samples := suite.generatePulseSamples(75, 60, 30, 0.2, 3)

	result, diag, err := suite.analyzer.AnalyzeWithDiagnostics(samples, 60)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 96, diag.WindowLength)
	assert.Equal(suite.T(), 0, diag.WindowCount)
	assert.Equal(suite.T(), ConfidenceLow, result.Confidence)
	assert.Equal(suite.T(), 0, result.SignalQuality)
	suite.assertResultInvariants(result, 30)
}

func (suite *AnalyzerTestSuite) TestDiagnostics() {
	result, diag, err := suite.analyzer.AnalyzeWithDiagnostics(suite.referenceSamples, suite.referenceFPS)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), diag)

	assert.Equal(suite.T(), 48, diag.WindowLength, "floor(30 * 1.6)")
	assert.Equal(suite.T(), 11, diag.WindowCount, "(300-48)/24 + 1")
	assert.Equal(suite.T(), 2048, diag.FFTSize, "next power of two above 300*4")
	assert.InDelta(suite.T(), 1.25, diag.PeakFrequencyHz, 0.06)
	assert.InDelta(suite.T(), float64(result.HeartRate), diag.RawBPM, 1)
	assert.Greater(suite.T(), diag.SNR, 0.0)
	assert.Greater(suite.T(), diag.Variance, suite.analyzer.Config().VarianceFloor)
	assert.Len(suite.T(), diag.Filtered, 300)
	assert.Len(suite.T(), diag.Spectrum, 1024)

	wantStages := []string{"preprocess", "pos_projection", "bandpass", "spectrum", "peak_analysis", "waveform"}
	require.Len(suite.T(), diag.StageTimings, len(wantStages))
	for i, timing := range diag.StageTimings {
		assert.Equal(suite.T(), wantStages[i], timing.Stage)
	}
}

func (suite *AnalyzerTestSuite) TestRandomInputInvariants() {
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		samples := make([]RGBSample, 90)
		for i := range samples {
			samples[i] = RGBSample{R: rng.Float64(), G: rng.Float64(), B: rng.Float64()}
		}

		result, err := suite.analyzer.Analyze(samples, 15)
		require.NoError(suite.T(), err, "seed %d", seed)
		suite.assertResultInvariants(result, 90)
	}
}

// assertResultInvariants checks the guarantees that hold for every
// successful analysis regardless of input quality.
func (suite *AnalyzerTestSuite) assertResultInvariants(result *AnalysisResult, samples int) {
	cfg := suite.analyzer.Config()

	assert.GreaterOrEqual(suite.T(), result.HeartRate, cfg.MinHeartRate)
	assert.LessOrEqual(suite.T(), result.HeartRate, cfg.MaxHeartRate)
	assert.GreaterOrEqual(suite.T(), result.SignalQuality, 0)
	assert.LessOrEqual(suite.T(), result.SignalQuality, 100)
	assert.Equal(suite.T(), samples, result.SamplesProcessed)
	assert.Len(suite.T(), result.Waveform, cfg.WaveformLength)
	assert.Equal(suite.T(), messageFor(result.Confidence), result.Message)

	var maxAbs float64
	for _, v := range result.Waveform {
		assert.False(suite.T(), math.IsNaN(v), "waveform must not contain NaN")
		if math.Abs(v) > maxAbs {
			maxAbs = math.Abs(v)
		}
	}
	assert.LessOrEqual(suite.T(), maxAbs, 1.0)
}

// TestRunner runs the test suite
func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer(nil)

	require.NotNil(t, a.Config())
	assert.Equal(t, DefaultMinSamples, a.Config().MinSamples)
	assert.Equal(t, DefaultWaveformLength, a.Config().WaveformLength)
	assert.Equal(t, DefaultFPS, a.Config().DefaultFPS)
}

func TestPackageLevelAnalyze(t *testing.T) {
	samples := make([]RGBSample, 60)
	for i := range samples {
		samples[i] = RGBSample{
			R: 0.6 + 0.05*math.Sin(2*math.Pi*1.2*float64(i)/30),
			G: 0.45,
			B: 0.38,
		}
	}

	fromPackage, err := Analyze(samples, 30)
	require.NoError(t, err)
	fromAnalyzer, err := NewAnalyzer(nil).Analyze(samples, 30)
	require.NoError(t, err)

	assert.Equal(t, fromAnalyzer, fromPackage)
}

func TestAnalyzeNilSamples(t *testing.T) {
	result, err := Analyze(nil, 30)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, IsCode(err, ErrCodeInsufficientSamples))
}
