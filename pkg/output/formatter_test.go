package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sampleResult struct {
	HeartRate  int       `json:"heartRate"`
	Confidence string    `json:"confidence"`
	Quality    int       `json:"signalQuality"`
	Waveform   []float64 `json:"waveform,omitempty"`
}

func sampleData() sampleResult {
	return sampleResult{
		HeartRate:  72,
		Confidence: "high",
		Quality:    88,
		Waveform:   []float64{0.1, -0.5, 1},
	}
}

func TestNewFormatterSelection(t *testing.T) {
	tests := []struct {
		format string
		want   Formatter
	}{
		{"json", &JSONFormatter{}},
		{"JSON", &JSONFormatter{}},
		{"yaml", &YAMLFormatter{}},
		{"csv", &CSVFormatter{}},
		{"table", &TableFormatter{}},
		{"", &JSONFormatter{}},
		{"bogus", &JSONFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.IsType(t, tt.want, NewFormatter(tt.format))
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}

	compact, err := f.Format(sampleData(), false)
	require.NoError(t, err)
	pretty, err := f.Format(sampleData(), true)
	require.NoError(t, err)

	var decoded sampleResult
	require.NoError(t, json.Unmarshal(compact, &decoded))
	assert.Equal(t, sampleData(), decoded)

	require.NoError(t, json.Unmarshal(pretty, &decoded))
	assert.Equal(t, sampleData(), decoded)

	assert.True(t, strings.HasSuffix(string(compact), "\n"))
	assert.Greater(t, len(pretty), len(compact), "indented output should be longer")
	assert.NotContains(t, string(compact), "\n  ")
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}

	encoded, err := f.Format(sampleData(), false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(encoded, &decoded))
	assert.EqualValues(t, 72, decoded["heartrate"])
	assert.Equal(t, "high", decoded["confidence"])
}

func TestCSVFormatterFlattensNestedData(t *testing.T) {
	f := &CSVFormatter{}
	data := map[string]any{
		"result": sampleData(),
		"meta":   map[string]any{"fps": 30},
	}

	encoded, err := f.Format(data, false)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(encoded)), "\n")
	assert.Equal(t, "field,value", lines[0])
	assert.Contains(t, lines, "meta.fps,30")
	assert.Contains(t, lines, "result.heartRate,72")
	assert.Contains(t, lines, "result.waveform.0,0.1")

	// Flattened keys come out sorted for stable diffs.
	for i := 2; i < len(lines); i++ {
		prev := strings.SplitN(lines[i-1], ",", 2)[0]
		cur := strings.SplitN(lines[i], ",", 2)[0]
		assert.LessOrEqual(t, prev, cur)
	}
}

func TestTableFormatterHumanizesLabels(t *testing.T) {
	f := &TableFormatter{}

	encoded, err := f.Format(map[string]any{"heart_rate": 72, "signal_quality": 88}, false)
	require.NoError(t, err)

	text := string(encoded)
	assert.Contains(t, text, "FIELD")
	assert.Contains(t, text, "VALUE")
	assert.Contains(t, text, "Heart Rate")
	assert.Contains(t, text, "Signal Quality")
	assert.NotContains(t, text, "heart_rate")
}

func TestFormattersRejectUnencodableData(t *testing.T) {
	unencodable := map[string]any{"ch": make(chan int)}

	_, err := (&JSONFormatter{}).Format(unencodable, false)
	assert.Error(t, err)

	_, err = (&CSVFormatter{}).Format(unencodable, false)
	assert.Error(t, err)
}
