package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Analysis pipeline configuration
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Worker pool configuration
	Worker WorkerConfig `mapstructure:"worker"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// AnalysisConfig contains pipeline tuning and request admission settings
type AnalysisConfig struct {
	// Admission limits applied before the pipeline runs
	MinSamples int           `mapstructure:"min_samples"`
	MaxSamples int           `mapstructure:"max_samples"`
	MinFPS     float64       `mapstructure:"min_fps"`
	MaxFPS     float64       `mapstructure:"max_fps"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// Pipeline tuning
	DefaultFPS         float64 `mapstructure:"default_fps"`
	MinFrequency       float64 `mapstructure:"min_frequency"`
	MaxFrequency       float64 `mapstructure:"max_frequency"`
	WindowSeconds      float64 `mapstructure:"window_seconds"`
	MinWindowSize      int     `mapstructure:"min_window_size"`
	ZeroPadFactor      int     `mapstructure:"zero_pad_factor"`
	WaveformLength     int     `mapstructure:"waveform_length"`
	MinHeartRate       int     `mapstructure:"min_heart_rate"`
	MaxHeartRate       int     `mapstructure:"max_heart_rate"`
	HighSNRThreshold   float64 `mapstructure:"high_snr_threshold"`
	MediumSNRThreshold float64 `mapstructure:"medium_snr_threshold"`
	HighMinSamples     int     `mapstructure:"high_min_samples"`
	MediumMinSamples   int     `mapstructure:"medium_min_samples"`
	VarianceFloor      float64 `mapstructure:"variance_floor"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AuthEnabled     bool          `mapstructure:"auth_enabled"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

// WorkerConfig contains analysis worker pool settings
type WorkerConfig struct {
	Count     int `mapstructure:"count"`
	QueueSize int `mapstructure:"queue_size"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision       int  `mapstructure:"precision"`
	IncludeMetadata bool `mapstructure:"include_metadata"`
	Timestamps      bool `mapstructure:"timestamps"`
	Colors          bool `mapstructure:"colors"`
	IncludeWaveform bool `mapstructure:"include_waveform"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if err := validateAnalysis(&config.Analysis); err != nil {
		return err
	}
	if err := validateServer(&config.Server); err != nil {
		return err
	}

	if config.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if config.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker queue size must be positive")
	}

	if config.Output.Precision < 0 {
		return fmt.Errorf("output precision cannot be negative")
	}

	return nil
}

func validateAnalysis(cfg *AnalysisConfig) error {
	if cfg.MinSamples < 2 {
		return fmt.Errorf("analysis minimum samples must be at least 2")
	}
	if cfg.MaxSamples < cfg.MinSamples {
		return fmt.Errorf("analysis maximum samples must not be below the minimum")
	}
	if cfg.MinFPS <= 0 || cfg.MaxFPS < cfg.MinFPS {
		return fmt.Errorf("analysis fps bounds must satisfy 0 < min <= max")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("analysis timeout must be positive")
	}
	if cfg.DefaultFPS <= 0 {
		return fmt.Errorf("analysis default fps must be positive")
	}
	if cfg.MinFrequency <= 0 || cfg.MaxFrequency <= cfg.MinFrequency {
		return fmt.Errorf("analysis frequency band must satisfy 0 < min < max")
	}
	if cfg.WindowSeconds <= 0 {
		return fmt.Errorf("analysis window seconds must be positive")
	}
	if cfg.MinWindowSize < 2 {
		return fmt.Errorf("analysis minimum window size must be at least 2")
	}
	if cfg.ZeroPadFactor < 1 {
		return fmt.Errorf("analysis zero pad factor must be at least 1")
	}
	if cfg.WaveformLength <= 0 {
		return fmt.Errorf("analysis waveform length must be positive")
	}
	if cfg.MinHeartRate <= 0 || cfg.MaxHeartRate <= cfg.MinHeartRate {
		return fmt.Errorf("analysis heart rate bounds must satisfy 0 < min < max")
	}
	if cfg.MediumSNRThreshold < 0 || cfg.HighSNRThreshold < cfg.MediumSNRThreshold {
		return fmt.Errorf("analysis snr thresholds must satisfy 0 <= medium <= high")
	}
	if cfg.MediumMinSamples < 0 || cfg.HighMinSamples < cfg.MediumMinSamples {
		return fmt.Errorf("analysis confidence sample floors must satisfy 0 <= medium <= high")
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive")
	}
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return fmt.Errorf("server jwt secret is required when auth is enabled")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("server rate limit must be positive")
	}
	if cfg.RateBurst < 1 {
		return fmt.Errorf("server rate burst must be at least 1")
	}
	return nil
}

// ToPipelineConfig maps the analysis section onto the pipeline configuration
func (c *AnalysisConfig) ToPipelineConfig() *rppg.Config {
	return &rppg.Config{
		MinSamples:         c.MinSamples,
		DefaultFPS:         c.DefaultFPS,
		MinFrequency:       c.MinFrequency,
		MaxFrequency:       c.MaxFrequency,
		WindowSeconds:      c.WindowSeconds,
		MinWindowSize:      c.MinWindowSize,
		ZeroPadFactor:      c.ZeroPadFactor,
		WaveformLength:     c.WaveformLength,
		MinHeartRate:       c.MinHeartRate,
		MaxHeartRate:       c.MaxHeartRate,
		HighSNRThreshold:   c.HighSNRThreshold,
		MediumSNRThreshold: c.MediumSNRThreshold,
		HighMinSamples:     c.HighMinSamples,
		MediumMinSamples:   c.MediumMinSamples,
		VarianceFloor:      c.VarianceFloor,
	}
}

// Address returns the host:port the server binds to
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
