package app

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vitalsense/rppg-analyzer/configs"
)

// loadAndMergeConfig builds the configuration the application runs with:
// viper state (or an injected config), section defaults for anything left
// unset, then CLI flag overrides, validated as a whole.
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config := ctx.Config
	if config == nil {
		loaded, err := configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load base configuration: %w", err)
		}
		config = loaded
	}

	applyConfigDefaults(config)
	mergeContextOverrides(config, ctx)

	// The offline commands never bind the server, so a missing JWT secret
	// must not block them. The serve command re-validates the full config
	// and the server constructor enforces the secret.
	check := *config
	if check.Server.AuthEnabled && check.Server.JWTSecret == "" {
		check.Server.AuthEnabled = false
	}
	if err := configs.ValidateConfig(&check); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyConfigDefaults fills sections the config source left empty. Outside
// the cobra flow viper carries no defaults, so a zero section means the
// source never mentioned it.
func applyConfigDefaults(config *configs.Config) {
	if config.Analysis.MinSamples == 0 && config.Analysis.MaxSamples == 0 {
		config.Analysis = configs.GetDefaultAnalysisConfig()
	}
	if config.Server.Port == 0 {
		config.Server = configs.GetDefaultServerConfig()
	}
	if config.Worker.Count == 0 {
		config.Worker = configs.GetDefaultWorkerConfig()
	}
	if config.Output == (configs.OutputConfig{}) {
		config.Output = configs.GetDefaultOutputConfig()
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "table"
	}
}

// mergeContextOverrides applies CLI flags on top of the loaded config
func mergeContextOverrides(config *configs.Config, ctx *Context) {
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
		config.Output = configs.GetDefaultOutputConfigForFormat(ctx.OutputFormat)
	} else {
		ctx.OutputFormat = config.OutputFormat
	}

	if ctx.Verbose {
		config.Verbose = true
		config.LogLevel = "debug"
	}
	if ctx.Quiet {
		config.LogLevel = "error"
	}
}

// DescribeConfig loads and validates the effective configuration and
// prints its key settings. Used by the config-test command.
func DescribeConfig(ctx *Context) error {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return err
	}

	source := ctx.ConfigFile
	if source == "" {
		source = "defaults"
	}

	fmt.Printf("✅ Configuration is valid (%s)\n", source)
	fmt.Printf("   - analysis: %d-%d samples, fps %g-%g, timeout %s\n",
		config.Analysis.MinSamples, config.Analysis.MaxSamples,
		config.Analysis.MinFPS, config.Analysis.MaxFPS, config.Analysis.Timeout)
	fmt.Printf("   - frequency band: %.2f-%.2f Hz, heart rate %d-%d bpm\n",
		config.Analysis.MinFrequency, config.Analysis.MaxFrequency,
		config.Analysis.MinHeartRate, config.Analysis.MaxHeartRate)
	fmt.Printf("   - server: %s (auth: %t, rate limit: %g/s, metrics: %t)\n",
		config.Server.Address(), config.Server.AuthEnabled,
		config.Server.RateLimit, config.Server.MetricsEnabled)
	fmt.Printf("   - workers: %d, queue size %d\n",
		config.Worker.Count, config.Worker.QueueSize)
	fmt.Printf("   - output format: %s\n", config.OutputFormat)

	if config.Server.AuthEnabled && config.Server.JWTSecret == "" {
		fmt.Printf("⚠️  auth is enabled but no JWT secret is set; serve will refuse to start\n")
	}

	return nil
}

// GenerateExampleConfig writes an example configuration file with every
// setting at its default. The keys match what the config loader reads.
func GenerateExampleConfig(outputFile string) error {
	example := map[string]any{
		"log_level":     "info",
		"log_format":    "console",
		"output_format": "table",
		"analysis": map[string]any{
			"min_samples":   30,
			"max_samples":   1000,
			"min_fps":       1.0,
			"max_fps":       60.0,
			"timeout":       "10s",
			"default_fps":   10.0,
			"min_frequency": 0.75,
			"max_frequency": 3.5,
		},
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             8080,
			"read_timeout":     "15s",
			"write_timeout":    "30s",
			"shutdown_timeout": "15s",
			"max_body_bytes":   1 << 20,
			"auth_enabled":     true,
			"jwt_secret":       "change-me",
			"token_ttl":        "24h",
			"rate_limit":       10.0,
			"rate_burst":       20,
			"cors_origins":     []string{"*"},
			"metrics_enabled":  true,
		},
		"worker": map[string]any{
			"count":      4,
			"queue_size": 64,
		},
		"output": map[string]any{
			"precision":        2,
			"include_metadata": true,
			"include_waveform": true,
		},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("✅ Example configuration written to: %s\n", outputFile)
	return nil
}
