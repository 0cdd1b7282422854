package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRecordingJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rest.json",
		`{"name":"resting","fps":30,"samples":[{"r":0.6,"g":0.4,"b":0.3},{"r":0.61,"g":0.41,"b":0.31}]}`)

	recording, err := LoadRecording(path)

	require.NoError(t, err)
	assert.Equal(t, "resting", recording.Name)
	assert.Equal(t, 30.0, recording.FPS)
	require.Len(t, recording.Samples, 2)
	assert.Equal(t, rppg.RGBSample{R: 0.6, G: 0.4, B: 0.3}, recording.Samples[0])
}

func TestLoadRecordingYAML(t *testing.T) {
	content := `name: resting
fps: 25
samples:
  - r: 0.6
    g: 0.4
    b: 0.3
  - r: 0.61
    g: 0.41
    b: 0.31
`
	path := writeFile(t, t.TempDir(), "rest.yaml", content)

	recording, err := LoadRecording(path)

	require.NoError(t, err)
	assert.Equal(t, "resting", recording.Name)
	assert.Equal(t, 25.0, recording.FPS)
	assert.Len(t, recording.Samples, 2)
}

func TestLoadRecordingNameFallsBackToFileName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "morning_run.json",
		`{"fps":30,"samples":[{"r":0.5,"g":0.5,"b":0.5}]}`)

	recording, err := LoadRecording(path)

	require.NoError(t, err)
	assert.Equal(t, "morning_run", recording.Name)
}

func TestLoadRecordingUnknownExtensionFallsBack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "capture.dat",
		`{"name":"capture","fps":30,"samples":[{"r":0.5,"g":0.5,"b":0.5}]}`)

	recording, err := LoadRecording(path)

	require.NoError(t, err)
	assert.Equal(t, "capture", recording.Name)
}

func TestLoadRecordingMissingFile(t *testing.T) {
	_, err := LoadRecording(filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadRecordingMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.json", `{"fps": 30, "samples": [`)

	_, err := LoadRecording(path)

	assert.Error(t, err)
}

func TestLoadRecordingRejectsEmptySamples(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.json", `{"name":"empty","fps":30,"samples":[]}`)

	_, err := LoadRecording(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no samples")
}

func TestLoadRecordingRejectsNegativeFPS(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad_fps.json",
		`{"name":"bad","fps":-5,"samples":[{"r":0.5,"g":0.5,"b":0.5}]}`)

	_, err := LoadRecording(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fps")
}

func TestLoadRecordingRejectsNonFiniteSamples(t *testing.T) {
	// JSON cannot encode NaN, but YAML can; the loader must stop it there.
	content := `name: corrupt
fps: 30
samples:
  - r: 0.6
    g: .nan
    b: 0.3
`
	path := writeFile(t, t.TempDir(), "corrupt.yaml", content)

	_, err := LoadRecording(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a finite color value")
}

func TestLoadRecordingRejectsNonFiniteFPS(t *testing.T) {
	content := `name: corrupt
fps: .inf
samples:
  - r: 0.6
    g: 0.4
    b: 0.3
`
	path := writeFile(t, t.TempDir(), "inf_fps.yaml", content)

	_, err := LoadRecording(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "finite")
}

func TestSaveRecordingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := GenerateRecording(SignalSpec{BPM: 80, FPS: 30, Seed: 7})

	for _, name := range []string{"roundtrip.json", "roundtrip.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveRecording(original, path))

			loaded, err := LoadRecording(path)

			require.NoError(t, err)
			assert.Equal(t, original.Name, loaded.Name)
			assert.Equal(t, original.FPS, loaded.FPS)
			require.Len(t, loaded.Samples, len(original.Samples))
			assert.InDelta(t, original.Samples[0].G, loaded.Samples[0].G, 1e-9)
		})
	}
}

func TestSaveRecordingCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "rec.json")
	recording := GenerateRecording(SignalSpec{Seed: 1})

	require.NoError(t, SaveRecording(recording, path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
