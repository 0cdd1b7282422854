package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

// SetDefaults registers default configuration values for all components
// on the given viper instance. Values from config files, environment, and
// flags take precedence.
func SetDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("output_format", "table")

	// Directory defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("config_dir", filepath.Join(home, ".config", "rppg-analyzer"))
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "rppg-analyzer"))

	// Analysis admission defaults
	v.SetDefault("analysis.min_samples", rppg.DefaultMinSamples)
	v.SetDefault("analysis.max_samples", 1000)
	v.SetDefault("analysis.min_fps", 1.0)
	v.SetDefault("analysis.max_fps", 60.0)
	v.SetDefault("analysis.timeout", 10*time.Second)

	// Analysis pipeline defaults
	v.SetDefault("analysis.default_fps", rppg.DefaultFPS)
	v.SetDefault("analysis.min_frequency", rppg.DefaultMinFrequency)
	v.SetDefault("analysis.max_frequency", rppg.DefaultMaxFrequency)
	v.SetDefault("analysis.window_seconds", rppg.DefaultWindowSeconds)
	v.SetDefault("analysis.min_window_size", rppg.DefaultMinWindowSize)
	v.SetDefault("analysis.zero_pad_factor", rppg.DefaultZeroPadFactor)
	v.SetDefault("analysis.waveform_length", rppg.DefaultWaveformLength)
	v.SetDefault("analysis.min_heart_rate", rppg.DefaultMinHeartRate)
	v.SetDefault("analysis.max_heart_rate", rppg.DefaultMaxHeartRate)
	v.SetDefault("analysis.high_snr_threshold", rppg.DefaultHighSNR)
	v.SetDefault("analysis.medium_snr_threshold", rppg.DefaultMediumSNR)
	v.SetDefault("analysis.high_min_samples", rppg.DefaultHighMinSamples)
	v.SetDefault("analysis.medium_min_samples", rppg.DefaultMediumMinSamples)
	v.SetDefault("analysis.variance_floor", rppg.DefaultVarianceFloor)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.auth_enabled", true)
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics_enabled", true)

	// Worker defaults
	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.queue_size", 64)

	// Output defaults
	v.SetDefault("output.precision", 2)
	v.SetDefault("output.include_metadata", true)
	v.SetDefault("output.timestamps", true)
	v.SetDefault("output.colors", true)
	v.SetDefault("output.include_waveform", true)
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		LogFormat:    "console",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "rppg-analyzer"),
		DataDir:      filepath.Join(home, ".local", "share", "rppg-analyzer"),

		// Analysis configuration defaults
		Analysis: GetDefaultAnalysisConfig(),

		// Server configuration defaults
		Server: GetDefaultServerConfig(),

		// Worker configuration defaults
		Worker: GetDefaultWorkerConfig(),

		// Output configuration defaults
		Output: GetDefaultOutputConfig(),
	}
}

// GetDefaultAnalysisConfig returns default analysis settings
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSamples: rppg.DefaultMinSamples,
		MaxSamples: 1000,
		MinFPS:     1.0,
		MaxFPS:     60.0,
		Timeout:    10 * time.Second,

		DefaultFPS:         rppg.DefaultFPS,
		MinFrequency:       rppg.DefaultMinFrequency,
		MaxFrequency:       rppg.DefaultMaxFrequency,
		WindowSeconds:      rppg.DefaultWindowSeconds,
		MinWindowSize:      rppg.DefaultMinWindowSize,
		ZeroPadFactor:      rppg.DefaultZeroPadFactor,
		WaveformLength:     rppg.DefaultWaveformLength,
		MinHeartRate:       rppg.DefaultMinHeartRate,
		MaxHeartRate:       rppg.DefaultMaxHeartRate,
		HighSNRThreshold:   rppg.DefaultHighSNR,
		MediumSNRThreshold: rppg.DefaultMediumSNR,
		HighMinSamples:     rppg.DefaultHighMinSamples,
		MediumMinSamples:   rppg.DefaultMediumMinSamples,
		VarianceFloor:      rppg.DefaultVarianceFloor,
	}
}

// GetDefaultServerConfig returns default HTTP server settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    1 << 20,
		AuthEnabled:     true,
		JWTSecret:       "",
		TokenTTL:        24 * time.Hour,
		RateLimit:       10,
		RateBurst:       20,
		CORSOrigins:     []string{"*"},
		MetricsEnabled:  true,
	}
}

// GetDefaultWorkerConfig returns default worker pool settings
func GetDefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Count:     4,
		QueueSize: 64,
	}
}

// GetDefaultOutputConfig returns default output formatting settings
func GetDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Precision:       2,
		IncludeMetadata: true,
		Timestamps:      true,
		Colors:          true,
		IncludeWaveform: true,
	}
}

// GetProductionServerConfig returns production-hardened server settings
func GetProductionServerConfig() ServerConfig {
	cfg := GetDefaultServerConfig()
	cfg.AuthEnabled = true
	cfg.RateLimit = 5
	cfg.RateBurst = 10
	cfg.CORSOrigins = nil
	return cfg
}

// GetDevelopmentServerConfig returns relaxed server settings for local work
func GetDevelopmentServerConfig() ServerConfig {
	cfg := GetDefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.AuthEnabled = false
	cfg.RateLimit = 100
	cfg.RateBurst = 200
	cfg.CORSOrigins = []string{"*"}
	return cfg
}

// HighAccuracyAnalysisConfig returns settings that trade latency for finer
// spectral resolution and stricter confidence floors.
func HighAccuracyAnalysisConfig() AnalysisConfig {
	cfg := GetDefaultAnalysisConfig()
	cfg.ZeroPadFactor = 8
	cfg.HighMinSamples = 240
	cfg.MediumMinSamples = 120
	cfg.Timeout = 20 * time.Second
	return cfg
}

// FastAnalysisConfig returns settings optimized for interactive latency
func FastAnalysisConfig() AnalysisConfig {
	cfg := GetDefaultAnalysisConfig()
	cfg.ZeroPadFactor = 2
	cfg.MaxSamples = 600
	cfg.Timeout = 5 * time.Second
	return cfg
}

// GetDefaultOutputConfigForFormat returns output config tuned for a format
func GetDefaultOutputConfigForFormat(format string) OutputConfig {
	base := GetDefaultOutputConfig()

	switch format {
	case "json", "yaml":
		base.Colors = false
		base.Precision = 6
	case "csv":
		base.Colors = false
		base.IncludeMetadata = false
		base.Timestamps = false
	case "table":
		base.Colors = true
		base.IncludeWaveform = false
	default:
		// Keep defaults
	}

	return base
}
