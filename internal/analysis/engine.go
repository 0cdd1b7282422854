// Package analysis hosts the engine that fronts the rPPG pipeline: request
// admission, execution, and batch summarization.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// Admission error codes layered on top of the pipeline's own codes.
// The pipeline only enforces its hard minimum; upper bounds and frame
// rate limits are service policy.
const (
	ErrCodeTooManySamples = "TOO_MANY_SAMPLES"
	ErrCodeInvalidFPS     = "INVALID_FPS"
)

// Request is one analysis job
type Request struct {
	Samples []rppg.RGBSample `json:"samples"`
	FPS     float64          `json:"fps"`
	Source  string           `json:"source,omitempty"`
}

// Result wraps a pipeline result with execution metadata
type Result struct {
	Analysis     *rppg.AnalysisResult `json:"analysis,omitempty"`
	Source       string               `json:"source,omitempty"`
	FPS          float64              `json:"fps"`
	ProcessingMS float64              `json:"processing_ms"`
	Timestamp    time.Time            `json:"timestamp"`
	ErrorMessage string               `json:"error,omitempty"`

	Error error `json:"-"`
}

// EngineConfig contains configuration for the analysis engine
type EngineConfig struct {
	Analysis configs.AnalysisConfig
	Logger   logging.Logger
}

// Engine validates and executes analysis requests
type Engine struct {
	analyzer *rppg.Analyzer
	cfg      configs.AnalysisConfig
	logger   logging.Logger
}

// NewEngine creates a new analysis engine
func NewEngine(config *EngineConfig) *Engine {
	if config == nil {
		config = &EngineConfig{}
	}
	if config.Analysis.MinSamples == 0 && config.Analysis.MaxSamples == 0 {
		config.Analysis = configs.GetDefaultAnalysisConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Engine{
		analyzer: rppg.NewAnalyzer(config.Analysis.ToPipelineConfig()),
		cfg:      config.Analysis,
		logger:   logger.WithFields(logging.Fields{"component": "analysis_engine"}),
	}
}

// Config returns the engine's admission and pipeline settings
func (e *Engine) Config() configs.AnalysisConfig {
	return e.cfg
}

// ValidateRequest applies the service admission policy. The pipeline's own
// minimum-sample check still runs afterwards as the last line of defense.
func (e *Engine) ValidateRequest(req *Request) error {
	n := len(req.Samples)

	if n < e.cfg.MinSamples {
		return rppg.NewAnalysisError(rppg.ErrCodeInsufficientSamples,
			fmt.Sprintf("need at least %d samples, got %d", e.cfg.MinSamples, n), nil)
	}
	if n > e.cfg.MaxSamples {
		return rppg.NewAnalysisError(ErrCodeTooManySamples,
			fmt.Sprintf("at most %d samples per request, got %d", e.cfg.MaxSamples, n), nil)
	}
	// fps 0 means "not supplied"; the pipeline substitutes its default.
	// The window is phrased as a conjunction so NaN fails it too.
	if req.FPS != 0 && !(req.FPS >= e.cfg.MinFPS && req.FPS <= e.cfg.MaxFPS) {
		return rppg.NewAnalysisError(ErrCodeInvalidFPS,
			fmt.Sprintf("fps must be between %g and %g, got %g", e.cfg.MinFPS, e.cfg.MaxFPS, req.FPS), nil)
	}
	return nil
}

// Analyze runs one admitted request through the pipeline
func (e *Engine) Analyze(ctx context.Context, req *Request) (*Result, error) {
	result, _, err := e.analyze(ctx, req, false)
	return result, err
}

// AnalyzeWithDiagnostics runs one request and returns the pipeline's stage
// internals alongside the result.
func (e *Engine) AnalyzeWithDiagnostics(ctx context.Context, req *Request) (*Result, *rppg.Diagnostics, error) {
	return e.analyze(ctx, req, true)
}

func (e *Engine) analyze(ctx context.Context, req *Request, withDiagnostics bool) (*Result, *rppg.Diagnostics, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := e.ValidateRequest(req); err != nil {
		return nil, nil, err
	}

	e.logger.Debug("starting analysis", logging.Fields{
		"source":  req.Source,
		"samples": len(req.Samples),
		"fps":     req.FPS,
	})

	start := time.Now()

	var (
		analysisResult *rppg.AnalysisResult
		diag           *rppg.Diagnostics
		err            error
	)
	if withDiagnostics {
		analysisResult, diag, err = e.analyzer.AnalyzeWithDiagnostics(req.Samples, req.FPS)
	} else {
		analysisResult, err = e.analyzer.Analyze(req.Samples, req.FPS)
	}
	if err != nil {
		return nil, nil, err
	}

	elapsed := time.Since(start)

	e.logger.Debug("analysis completed", logging.Fields{
		"source":        req.Source,
		"heart_rate":    analysisResult.HeartRate,
		"confidence":    string(analysisResult.Confidence),
		"quality":       analysisResult.SignalQuality,
		"processing_ms": elapsed.Milliseconds(),
	})

	return &Result{
		Analysis:     analysisResult,
		Source:       req.Source,
		FPS:          req.FPS,
		ProcessingMS: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp:    time.Now().UTC(),
	}, diag, nil
}
