package app

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// Recording is an offline capture of per-frame skin-region color means,
// the unit the analyze and signal-test commands operate on.
type Recording struct {
	Name    string           `json:"name" yaml:"name"`
	FPS     float64          `json:"fps" yaml:"fps"`
	Samples []rppg.RGBSample `json:"samples" yaml:"samples"`
}

// LoadRecording reads a recording from a JSON or YAML file, chosen by
// extension. A missing name falls back to the file's base name.
func LoadRecording(filePath string) (*Recording, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("recording file does not exist: %s", filePath)
	}

	var (
		recording *Recording
		err       error
	)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		recording, err = loadRecordingFromYAML(filePath)
	case ".json":
		recording, err = loadRecordingFromJSON(filePath)
	default:
		// Try JSON first, then YAML
		if recording, err = loadRecordingFromJSON(filePath); err != nil {
			recording, err = loadRecordingFromYAML(filePath)
		}
	}
	if err != nil {
		return nil, err
	}

	if recording.Name == "" {
		base := filepath.Base(filePath)
		recording.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := recording.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recording %s: %w", filePath, err)
	}

	return recording, nil
}

// Validate rejects recordings the pipeline could never accept
func (r *Recording) Validate() error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("recording contains no samples")
	}
	if r.FPS < 0 {
		return fmt.Errorf("recording fps cannot be negative, got %g", r.FPS)
	}
	if math.IsNaN(r.FPS) || math.IsInf(r.FPS, 0) {
		return fmt.Errorf("recording fps must be finite")
	}
	// YAML can encode .nan and .inf; JSON cannot. Either way the pipeline
	// must never see them, so the loader is where they stop.
	for i, s := range r.Samples {
		if !isFinite(s.R) || !isFinite(s.G) || !isFinite(s.B) {
			return fmt.Errorf("recording sample %d is not a finite color value", i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func loadRecordingFromJSON(filePath string) (*Recording, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording file: %w", err)
	}

	var recording Recording
	if err := json.Unmarshal(data, &recording); err != nil {
		return nil, fmt.Errorf("failed to parse JSON recording: %w", err)
	}

	return &recording, nil
}

func loadRecordingFromYAML(filePath string) (*Recording, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording file: %w", err)
	}

	var recording Recording
	if err := yaml.Unmarshal(data, &recording); err != nil {
		return nil, fmt.Errorf("failed to parse YAML recording: %w", err)
	}

	return &recording, nil
}

// SaveRecording writes a recording to a JSON or YAML file, chosen by
// extension. Directories are created as needed.
func SaveRecording(recording *Recording, filePath string) error {
	var (
		data []byte
		err  error
	)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(recording)
	default:
		data, err = json.MarshalIndent(recording, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write recording file: %w", err)
	}

	return nil
}
