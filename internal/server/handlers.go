package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vitalsense/rppg-analyzer/internal/analysis"
	"github.com/vitalsense/rppg-analyzer/internal/worker"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// Stable machine-readable error codes returned by the HTTP layer. Admission
// codes (INSUFFICIENT_SAMPLES and friends) come from the analysis packages.
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeServerBusy      = "SERVER_BUSY"
	ErrCodeAnalysisTimeout = "ANALYSIS_TIMEOUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
)

// analyzeRequest is the wire shape of the analyze endpoint.
type analyzeRequest struct {
	Signals []rppg.RGBSample `json:"signals"`
	FPS     float64          `json:"fps"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type healthResponse struct {
	Status  string         `json:"status"`
	Uptime  float64        `json:"uptime"`
	Workers worker.Metrics `json:"workers"`
}

type taskOutcome struct {
	result *analysis.Result
	err    error
}

// handleAnalyze admits, queues, and runs one analysis request. The response
// body on success is the flat analysis result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)

	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusBadRequest, ErrCodeRequestTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			"request body is not valid JSON")
		return
	}

	requestID := requestIDFrom(r.Context())
	req := &analysis.Request{Samples: body.Signals, FPS: body.FPS, Source: requestID}

	if err := s.engine.ValidateRequest(req); err != nil {
		s.recordAnalysis("invalid", 0)
		s.writeAnalysisError(w, r, err)
		return
	}

	if subject, ok := r.Context().Value(authSubjectKey).(string); ok {
		s.logger.Debug("analysis admitted", logging.Fields{
			"request_id": requestID,
			"subject":    subject,
			"samples":    len(body.Signals),
		})
	}

	start := time.Now()
	outcomes := make(chan taskOutcome, 1)

	submitErr := s.pool.Submit(requestID, func(ctx context.Context) error {
		result, err := s.runAnalysis(ctx, req)
		outcomes <- taskOutcome{result: result, err: err}
		return err
	})
	if submitErr != nil {
		s.recordAnalysis("busy", time.Since(start))
		s.writeError(w, r, http.StatusServiceUnavailable, ErrCodeServerBusy,
			"analysis queue is full, retry later")
		return
	}

	timeout := s.config.Analysis.Timeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-outcomes:
		if outcome.err != nil {
			s.recordAnalysis("failed", time.Since(start))
			s.writeAnalysisError(w, r, outcome.err)
			return
		}
		s.recordAnalysis("ok", time.Since(start))
		s.writeJSON(w, http.StatusOK, outcome.result.Analysis)

	case <-timer.C:
		// The running task cannot be interrupted; its result is discarded
		// when it eventually lands on the buffered channel.
		s.recordAnalysis("timeout", time.Since(start))
		s.writeError(w, r, http.StatusGatewayTimeout, ErrCodeAnalysisTimeout,
			fmt.Sprintf("analysis did not finish within %s", timeout))

	case <-r.Context().Done():
		s.recordAnalysis("canceled", time.Since(start))
		s.logger.Warn("client disconnected before analysis finished", logging.Fields{
			"request_id": requestID,
		})
	}
}

// runAnalysis executes the engine with panic containment so a pipeline bug
// surfaces as an error response instead of killing the worker request.
func (s *Server) runAnalysis(ctx context.Context, req *analysis.Request) (result *analysis.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("analysis panicked: %v", rec)
		}
	}()
	return s.engine.Analyze(ctx, req)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Seconds(),
		Workers: s.pool.Metrics(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, ErrCodeNotFound,
		fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

// writeAnalysisError maps typed analysis errors to 400 responses with their
// machine code; anything else is an internal failure whose detail stays in
// the logs.
func (s *Server) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var analysisErr *rppg.AnalysisError
	if errors.As(err, &analysisErr) {
		s.writeError(w, r, http.StatusBadRequest, analysisErr.Code, analysisErr.Message)
		return
	}

	s.logger.Error(err, "analysis failed", logging.Fields{
		"request_id": requestIDFrom(r.Context()),
	})
	s.writeError(w, r, http.StatusInternalServerError, ErrCodeInternal,
		"analysis failed unexpectedly")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code}); err != nil {
		s.logger.Error(err, "writing error response", logging.Fields{
			"request_id": requestIDFrom(r.Context()),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "encoding response")
	}
}

func (s *Server) recordAnalysis(outcome string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordAnalysis(outcome, duration)
	}
}
