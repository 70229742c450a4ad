// Package cli implements the echelon terminal client.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"echelon-backend/internal/client"
	"echelon-backend/internal/logger"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "echelon",
	Short: "Terminal client for the Echelon assistant",
	Long: `echelon talks to an Echelon server: chat with the assistant,
manage tasks and read your activity analytics.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	apiURL  string
	token   string
	verbose bool
)

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("ECHELON_API_URL", "http://localhost:8080"), "Echelon API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("ECHELON_TOKEN"), "access token for the API")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client errors to stderr")
}

func newClient() *client.Client {
	return client.New(apiURL, token)
}

func cliLogger() zerolog.Logger {
	level := "error"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewWithWriter(level, "console", os.Stderr)
	if err != nil {
		return zerolog.Nop()
	}
	return log
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
