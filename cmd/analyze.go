package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitalsense/rppg-analyzer/internal/app"
)

var (
	// Analyze command flags
	analyzeFPS           float64
	analyzeDetailed      bool
	analyzeRenderDir     string
	analyzeConcurrent    bool
	analyzeMaxConcurrent int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [recording-files...]",
	Short: "Analyze recorded RGB traces for heart rate",
	Long: `Analyze one or more recorded RGB traces and estimate heart rate.

Each recording file holds per-frame RGB means as JSON or YAML. The
analyzer detrends and normalizes the channels, extracts the pulse with
a chrominance projection, band-pass filters it, and locates the
dominant spectral peak with sub-bin refinement.

Examples:
  # Analyze a single recording
  rppg-analyzer analyze session.json

  # Analyze several recordings concurrently at a fixed frame rate
  rppg-analyzer analyze --concurrent --fps 30 morning.json evening.yaml

  # Include per-stage diagnostics and render waveform/spectrum PNGs
  rppg-analyzer analyze --detailed --render ./plots session.json

  # Write a YAML report to a file
  rppg-analyzer analyze --format yaml --output report.yaml session.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx := &app.Context{
		ConfigFile:    configFile,
		OutputFile:    outputFile,
		OutputFormat:  outputFormat,
		FPS:           analyzeFPS,
		Detailed:      analyzeDetailed,
		RenderDir:     analyzeRenderDir,
		Concurrent:    analyzeConcurrent,
		MaxConcurrent: analyzeMaxConcurrent,
		Verbose:       verbose,
		Quiet:         quiet,
		LogLevel:      logLevel,
	}

	analyzerApp, err := app.NewAnalyzerApp(appCtx)
	if err != nil {
		return err
	}

	return analyzerApp.Run(ctx, args)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Float64Var(&analyzeFPS, "fps", 0,
		"sampling rate in frames per second (overrides the recording's own rate)")
	analyzeCmd.Flags().BoolVar(&analyzeDetailed, "detailed", false,
		"include per-stage diagnostics in the report")
	analyzeCmd.Flags().StringVar(&analyzeRenderDir, "render", "",
		"directory for waveform and spectrum PNGs")
	analyzeCmd.Flags().BoolVar(&analyzeConcurrent, "concurrent", false,
		"analyze recordings concurrently")
	analyzeCmd.Flags().IntVar(&analyzeMaxConcurrent, "max-concurrent", 4,
		"maximum concurrent analyses")
}
