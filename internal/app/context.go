// Package app wires the CLI commands to the analysis engine: recording
// loading, batch execution, debug rendering, and result output.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/analysis"
	"github.com/vitalsense/rppg-analyzer/internal/render"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
	"github.com/vitalsense/rppg-analyzer/pkg/output"
	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile    string
	OutputFile    string
	OutputFormat  string
	FPS           float64 // overrides the recording's own rate when set
	Detailed      bool
	RenderDir     string
	Concurrent    bool
	MaxConcurrent int
	Verbose       bool
	Quiet         bool
	LogLevel      string

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// AnalyzerApp handles the batch analysis application lifecycle
type AnalyzerApp struct {
	ctx    *Context
	config *configs.Config
	engine *analysis.Engine
	logger logging.Logger
}

// recordingOutcome pairs one recording's result with the pipeline
// internals captured for detailed output and rendering.
type recordingOutcome struct {
	Result      *analysis.Result
	Diagnostics *rppg.Diagnostics
}

// NewAnalyzerApp creates a new analyzer application
func NewAnalyzerApp(ctx *Context) (*AnalyzerApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	engine := analysis.NewEngine(&analysis.EngineConfig{
		Analysis: config.Analysis,
		Logger:   logger,
	})

	logger.Debug("analyzer application initialized", logging.Fields{
		"config_file":    ctx.ConfigFile,
		"output_format":  ctx.OutputFormat,
		"fps_override":   ctx.FPS,
		"detailed":       ctx.Detailed,
		"concurrent":     ctx.Concurrent,
		"max_concurrent": ctx.MaxConcurrent,
	})

	return &AnalyzerApp{
		ctx:    ctx,
		config: config,
		engine: engine,
		logger: logger,
	}, nil
}

// Engine exposes the configured analysis engine for commands that drive
// it directly.
func (app *AnalyzerApp) Engine() *analysis.Engine {
	return app.engine
}

// Run analyzes the given recording files and emits the batch report
func (app *AnalyzerApp) Run(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no recording files given")
	}

	app.logger.Debug("starting batch analysis", logging.Fields{
		"recordings": len(paths),
		"concurrent": app.ctx.Concurrent,
	})

	start := time.Now()
	outcomes := app.analyzeAll(ctx, paths)
	totalDuration := time.Since(start)

	results := make([]*analysis.Result, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = outcome.Result
	}

	calculator := analysis.NewSummaryCalculator(app.logger)
	summary := calculator.Summarize(results, totalDuration)
	insights := calculator.GenerateInsights(summary)

	if app.ctx.RenderDir != "" {
		if err := app.renderOutcomes(outcomes); err != nil {
			return fmt.Errorf("failed to render results: %w", err)
		}
	}

	if err := app.outputResults(outcomes, summary, insights); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	// Partial failures are reported in the summary; only a fully failed
	// batch fails the command.
	if summary.Failed > 0 && summary.Analyzed == 0 {
		return fmt.Errorf("all %d recordings failed analysis", summary.Failed)
	}

	return nil
}

// analyzeAll runs every recording through the engine, fanning out when
// concurrency is requested. Per-recording failures land in the outcome
// slice rather than aborting the batch.
func (app *AnalyzerApp) analyzeAll(ctx context.Context, paths []string) []*recordingOutcome {
	outcomes := make([]*recordingOutcome, len(paths))

	if !app.ctx.Concurrent || len(paths) < 2 {
		for i, path := range paths {
			outcomes[i] = app.analyzeOne(ctx, path)
		}
		return outcomes
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(app.maxConcurrent())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			outcomes[i] = app.analyzeOne(groupCtx, path)
			return nil
		})
	}

	// Workers never return errors, so Wait only observes ctx cancellation.
	_ = g.Wait()

	return outcomes
}

func (app *AnalyzerApp) maxConcurrent() int {
	if app.ctx.MaxConcurrent > 0 {
		return app.ctx.MaxConcurrent
	}
	return 4
}

// analyzeOne loads and analyzes a single recording file
func (app *AnalyzerApp) analyzeOne(ctx context.Context, path string) *recordingOutcome {
	recording, err := LoadRecording(path)
	if err != nil {
		app.logger.Warn("failed to load recording", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return failedOutcome(path, 0, err)
	}

	fps := app.ctx.FPS
	if fps == 0 {
		fps = recording.FPS
	}
	if fps == 0 {
		fps = app.config.Analysis.DefaultFPS
	}

	req := &analysis.Request{
		Samples: recording.Samples,
		FPS:     fps,
		Source:  recording.Name,
	}

	var (
		result *analysis.Result
		diag   *rppg.Diagnostics
	)
	if app.needDiagnostics() {
		result, diag, err = app.engine.AnalyzeWithDiagnostics(ctx, req)
	} else {
		result, err = app.engine.Analyze(ctx, req)
	}
	if err != nil {
		app.logger.Warn("analysis failed", logging.Fields{
			"source": recording.Name,
			"error":  err.Error(),
		})
		return failedOutcome(recording.Name, fps, err)
	}

	return &recordingOutcome{Result: result, Diagnostics: diag}
}

// needDiagnostics reports whether the engine must capture stage internals.
// Rendering needs the spectrum, detailed output needs everything.
func (app *AnalyzerApp) needDiagnostics() bool {
	return app.ctx.Detailed || app.ctx.RenderDir != ""
}

func failedOutcome(source string, fps float64, err error) *recordingOutcome {
	return &recordingOutcome{
		Result: &analysis.Result{
			Source:       source,
			FPS:          fps,
			Timestamp:    time.Now().UTC(),
			ErrorMessage: err.Error(),
			Error:        err,
		},
	}
}

// renderOutcomes writes waveform and spectrum PNGs for every successful
// recording into the render directory.
func (app *AnalyzerApp) renderOutcomes(outcomes []*recordingOutcome) error {
	if err := os.MkdirAll(app.ctx.RenderDir, 0755); err != nil {
		return fmt.Errorf("failed to create render directory: %w", err)
	}

	renderer, err := render.NewRenderer(render.Config{
		MinFrequency: app.config.Analysis.MinFrequency,
		MaxFrequency: app.config.Analysis.MaxFrequency,
	})
	if err != nil {
		return err
	}

	for _, outcome := range outcomes {
		result := outcome.Result
		if result.Error != nil || result.Analysis == nil {
			continue
		}

		name := renderBaseName(result.Source)

		waveformPath := filepath.Join(app.ctx.RenderDir, name+"_waveform.png")
		if err := writePNG(waveformPath, func(f *os.File) error {
			return renderer.WriteWaveformPNG(f, result.Analysis)
		}); err != nil {
			return err
		}

		spectrumPath := filepath.Join(app.ctx.RenderDir, name+"_spectrum.png")
		if err := writePNG(spectrumPath, func(f *os.File) error {
			return renderer.WriteSpectrumPNG(f, outcome.Diagnostics, result.FPS)
		}); err != nil {
			return err
		}

		app.logger.Debug("rendered recording", logging.Fields{
			"source":   result.Source,
			"waveform": waveformPath,
			"spectrum": spectrumPath,
		})
	}

	return nil
}

// renderBaseName reduces a result source to a safe file name stem
func renderBaseName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." {
		base = "recording"
	}
	return base
}

func writePNG(path string, write func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return file.Close()
}

// outputResults formats the batch report and writes it to the output file
// or stdout.
func (app *AnalyzerApp) outputResults(outcomes []*recordingOutcome, summary *analysis.BatchSummary, insights []string) error {
	entries := make([]map[string]any, len(outcomes))
	for i, outcome := range outcomes {
		result := outcome.Result
		entry := map[string]any{
			"source":        result.Source,
			"fps":           result.FPS,
			"processing_ms": result.ProcessingMS,
			"timestamp":     result.Timestamp,
		}
		if result.Error != nil {
			entry["error"] = result.ErrorMessage
		} else {
			entry["analysis"] = result.Analysis
		}
		if app.ctx.Detailed && outcome.Diagnostics != nil {
			entry["diagnostics"] = outcome.Diagnostics
		}
		entries[i] = entry
	}

	outputData := map[string]any{
		"results":   entries,
		"summary":   summary,
		"insights":  insights,
		"timestamp": time.Now().UTC(),
	}

	formatter := output.NewFormatter(app.ctx.OutputFormat)
	formattedData, err := formatter.Format(outputData, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// writeToFile writes data to the configured output file
func (app *AnalyzerApp) writeToFile(data []byte) error {
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	if ctx.Logger != nil {
		return ctx.Logger
	}

	level := ctx.LogLevel
	if level == "" {
		level = "info"
	}
	if ctx.Verbose {
		level = "debug"
	}
	if ctx.Quiet {
		level = "error"
	}

	logger, err := logging.NewLogger(logging.Config{Level: level, Format: "console"})
	if err != nil {
		return logging.NewDefaultLogger()
	}
	return logger
}
