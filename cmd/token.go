package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/server"
)

var (
	// Token command flags
	tokenSecret  string
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the analysis API",
	Long: `Mint an HS256 bearer token accepted by the serve command.

The signing secret comes from --secret, the RPPG_SERVER_JWT_SECRET
environment variable, or the configuration file, in that order. Only
the token is printed to stdout so it can be captured directly:

  TOKEN=$(rppg-analyzer token --subject capture-client)
  curl -H "Authorization: Bearer $TOKEN" ...

Examples:
  # Token with the configured secret and TTL
  rppg-analyzer token

  # Short-lived token for a specific client
  rppg-analyzer token --subject browser-demo --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	secret := tokenSecret
	if secret == "" {
		secret = config.Server.JWTSecret
	}
	if secret == "" {
		return fmt.Errorf("no signing secret: pass --secret or set RPPG_SERVER_JWT_SECRET")
	}

	ttl := tokenTTL
	if ttl == 0 {
		ttl = config.Server.TokenTTL
	}

	token, err := server.GenerateToken(secret, tokenSubject, ttl)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	if verbose {
		fmt.Fprintf(os.Stderr, "subject: %s\nexpires: %s\n",
			tokenSubject, time.Now().Add(ttl).UTC().Format(time.RFC3339))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "",
		"signing secret (overrides config)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "dev",
		"subject claim for the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0,
		"token lifetime (default: the configured token_ttl)")
}
