package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/analysis"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

// batchReport mirrors the JSON envelope Run writes
type batchReport struct {
	Results  []map[string]any      `json:"results"`
	Summary  analysis.BatchSummary `json:"summary"`
	Insights []string              `json:"insights"`
}

func newTestApp(t *testing.T, ctx *Context) *AnalyzerApp {
	t.Helper()

	ctx.Logger = logging.NewNopLogger()
	if ctx.Config == nil {
		ctx.Config = configs.GetDefaultConfig()
	}
	if ctx.OutputFormat == "" {
		ctx.OutputFormat = "json"
	}

	app, err := NewAnalyzerApp(ctx)
	require.NoError(t, err)
	return app
}

func writeGeneratedRecording(t *testing.T, dir, name string, bpm float64) string {
	t.Helper()

	recording := GenerateRecording(SignalSpec{BPM: bpm, FPS: 30, Duration: 5 * time.Second})
	recording.Name = name
	path := filepath.Join(dir, name+".json")
	require.NoError(t, SaveRecording(recording, path))
	return path
}

func readReport(t *testing.T, path string) *batchReport {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report batchReport
	require.NoError(t, json.Unmarshal(data, &report))
	return &report
}

func TestRunBatchMixedResults(t *testing.T) {
	dir := t.TempDir()
	good1 := writeGeneratedRecording(t, dir, "resting", 65)
	good2 := writeGeneratedRecording(t, dir, "active", 120)
	bad := writeFile(t, dir, "broken.json", `{"samples": [`)
	outputFile := filepath.Join(dir, "report.json")

	app := newTestApp(t, &Context{OutputFile: outputFile})

	err := app.Run(context.Background(), []string{good1, good2, bad})

	require.NoError(t, err, "partial failures must not fail the batch")

	report := readReport(t, outputFile)
	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Summary.Analyzed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.NotEmpty(t, report.Insights)

	first := report.Results[0]
	analysisBlock, ok := first["analysis"].(map[string]any)
	require.True(t, ok, "successful result should carry the analysis block")
	assert.InDelta(t, 65, analysisBlock["heartRate"], 2)

	failed := report.Results[2]
	assert.Contains(t, failed, "error")
	assert.NotContains(t, failed, "analysis")
}

func TestRunAllFailed(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "broken.json", `not even json`)

	app := newTestApp(t, &Context{OutputFile: filepath.Join(dir, "report.json")})

	err := app.Run(context.Background(), []string{bad})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed analysis")
}

func TestRunNoFiles(t *testing.T) {
	app := newTestApp(t, &Context{})

	err := app.Run(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recording files")
}

func TestRunConcurrentMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeGeneratedRecording(t, dir, "one", 60),
		writeGeneratedRecording(t, dir, "two", 90),
		writeGeneratedRecording(t, dir, "three", 130),
	}

	seqOut := filepath.Join(dir, "seq.json")
	conOut := filepath.Join(dir, "con.json")

	seqApp := newTestApp(t, &Context{OutputFile: seqOut})
	require.NoError(t, seqApp.Run(context.Background(), paths))

	conApp := newTestApp(t, &Context{OutputFile: conOut, Concurrent: true, MaxConcurrent: 2})
	require.NoError(t, conApp.Run(context.Background(), paths))

	seq := readReport(t, seqOut)
	con := readReport(t, conOut)

	require.Len(t, con.Results, len(seq.Results))
	for i := range seq.Results {
		seqAnalysis := seq.Results[i]["analysis"].(map[string]any)
		conAnalysis := con.Results[i]["analysis"].(map[string]any)
		assert.Equal(t, seqAnalysis["heartRate"], conAnalysis["heartRate"],
			"recording %s", seq.Results[i]["source"])
	}
}

func TestRunRendersArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeGeneratedRecording(t, dir, "resting", 72)
	renderDir := filepath.Join(dir, "render")

	app := newTestApp(t, &Context{
		OutputFile: filepath.Join(dir, "report.json"),
		RenderDir:  renderDir,
	})

	require.NoError(t, app.Run(context.Background(), []string{path}))

	for _, name := range []string{"resting_waveform.png", "resting_spectrum.png"} {
		_, err := os.Stat(filepath.Join(renderDir, name))
		assert.NoError(t, err, "expected render artifact %s", name)
	}
}

func TestRunDetailedIncludesDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := writeGeneratedRecording(t, dir, "resting", 72)
	outputFile := filepath.Join(dir, "report.json")

	app := newTestApp(t, &Context{OutputFile: outputFile, Detailed: true})

	require.NoError(t, app.Run(context.Background(), []string{path}))

	report := readReport(t, outputFile)
	require.Len(t, report.Results, 1)

	diag, ok := report.Results[0]["diagnostics"].(map[string]any)
	require.True(t, ok, "detailed output should carry diagnostics")
	assert.Greater(t, diag["fft_size"], 0.0)
	assert.Greater(t, diag["snr"], 0.0)
}

func TestRunFPSOverrideWins(t *testing.T) {
	dir := t.TempDir()

	// The file claims 15 fps but the samples were captured at 30; without
	// the override the recovered rate would be half the injected one.
	recording := GenerateRecording(SignalSpec{BPM: 72, FPS: 30, Duration: 10 * time.Second})
	recording.Name = "mislabeled"
	recording.FPS = 15
	path := filepath.Join(dir, "mislabeled.json")
	require.NoError(t, SaveRecording(recording, path))

	outputFile := filepath.Join(dir, "report.json")
	app := newTestApp(t, &Context{OutputFile: outputFile, FPS: 30})

	require.NoError(t, app.Run(context.Background(), []string{path}))

	report := readReport(t, outputFile)
	analysisBlock := report.Results[0]["analysis"].(map[string]any)
	assert.InDelta(t, 72, analysisBlock["heartRate"], 2)
}

func TestNewAnalyzerAppRejectsBrokenConfig(t *testing.T) {
	cfg := configs.GetDefaultConfig()
	cfg.Worker.Count = -1

	_, err := NewAnalyzerApp(&Context{
		Logger: logging.NewNopLogger(),
		Config: cfg,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}
