package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/app"
)

var (
	// Config test command flags
	configTestGenerate string
)

// configTestCmd represents the config-test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured
format to help verify that your YAML configuration is being parsed correctly.

Examples:
  # Test with default config file
  rppg-analyzer config-test

  # Test with specific config file
  rppg-analyzer --config /path/to/config.yaml config-test

  # Write a commented example configuration
  rppg-analyzer config-test --generate config.yaml`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)

	configTestCmd.Flags().StringVar(&configTestGenerate, "generate", "",
		"write an example configuration file and exit")
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	if configTestGenerate != "" {
		return app.GenerateExampleConfig(configTestGenerate)
	}

	fmt.Println("RPPG ANALYZER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Log Format", config.LogFormat)
	printKeyValue("Output Format", config.OutputFormat)

	printSection("ANALYSIS ADMISSION")
	printKeyValue("Min Samples", fmt.Sprintf("%d", config.Analysis.MinSamples))
	printKeyValue("Max Samples", fmt.Sprintf("%d", config.Analysis.MaxSamples))
	printKeyValue("FPS Range", fmt.Sprintf("%g - %g", config.Analysis.MinFPS, config.Analysis.MaxFPS))
	printKeyValue("Timeout", config.Analysis.Timeout.String())

	printSection("PIPELINE CONFIGURATION")
	printKeyValue("Default FPS", fmt.Sprintf("%g", config.Analysis.DefaultFPS))
	printKeyValue("Frequency Band", fmt.Sprintf("%.2f - %.2f Hz", config.Analysis.MinFrequency, config.Analysis.MaxFrequency))
	printKeyValue("Window Seconds", fmt.Sprintf("%g", config.Analysis.WindowSeconds))
	printKeyValue("Min Window Size", fmt.Sprintf("%d", config.Analysis.MinWindowSize))
	printKeyValue("Zero Pad Factor", fmt.Sprintf("%d", config.Analysis.ZeroPadFactor))
	printKeyValue("Waveform Length", fmt.Sprintf("%d", config.Analysis.WaveformLength))
	printKeyValue("Heart Rate Range", fmt.Sprintf("%d - %d bpm", config.Analysis.MinHeartRate, config.Analysis.MaxHeartRate))
	printKeyValue("SNR Thresholds", fmt.Sprintf("high %.2f, medium %.2f", config.Analysis.HighSNRThreshold, config.Analysis.MediumSNRThreshold))
	printKeyValue("Sample Thresholds", fmt.Sprintf("high %d, medium %d", config.Analysis.HighMinSamples, config.Analysis.MediumMinSamples))
	printKeyValue("Variance Floor", fmt.Sprintf("%.1e", config.Analysis.VarianceFloor))

	printSection("SERVER CONFIGURATION")
	printKeyValue("Address", config.Server.Address())
	printKeyValue("Read Timeout", config.Server.ReadTimeout.String())
	printKeyValue("Write Timeout", config.Server.WriteTimeout.String())
	printKeyValue("Idle Timeout", config.Server.IdleTimeout.String())
	printKeyValue("Shutdown Timeout", config.Server.ShutdownTimeout.String())
	printKeyValue("Max Body Bytes", fmt.Sprintf("%d", config.Server.MaxBodyBytes))
	printKeyValue("Auth Enabled", fmt.Sprintf("%t", config.Server.AuthEnabled))
	printKeyValue("JWT Secret Set", fmt.Sprintf("%t", config.Server.JWTSecret != ""))
	printKeyValue("Token TTL", config.Server.TokenTTL.String())
	printKeyValue("Rate Limit", fmt.Sprintf("%g req/s, burst %d", config.Server.RateLimit, config.Server.RateBurst))
	printKeyValue("CORS Origins", fmt.Sprintf("(%d) %v", len(config.Server.CORSOrigins), config.Server.CORSOrigins))
	printKeyValue("Metrics Enabled", fmt.Sprintf("%t", config.Server.MetricsEnabled))

	printSection("WORKER POOL")
	printKeyValue("Workers", fmt.Sprintf("%d", config.Worker.Count))
	printKeyValue("Queue Size", fmt.Sprintf("%d", config.Worker.QueueSize))

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Include Metadata", fmt.Sprintf("%t", config.Output.IncludeMetadata))
	printKeyValue("Include Waveform", fmt.Sprintf("%t", config.Output.IncludeWaveform))
	printKeyValue("Timestamps", fmt.Sprintf("%t", config.Output.Timestamps))
	printKeyValue("Colors", fmt.Sprintf("%t", config.Output.Colors))

	fmt.Println()
	if err := app.DescribeConfig(&app.Context{
		ConfigFile: configFile,
		Verbose:    verbose,
		Quiet:      quiet,
		LogLevel:   logLevel,
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", configFileInUse())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func configFileInUse() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(defaults, no file found)"
}
