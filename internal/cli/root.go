// Package cli provides the command-line interface for veilmark.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilmark/veilmark/internal/api"
	"github.com/veilmark/veilmark/internal/config"
	"github.com/veilmark/veilmark/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config, client and session store (the composition root)
	cfg        config.Config
	client     *api.Client
	session    *service.Session
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "veilmark",
	Short: "Watermarking and evidence anchoring client",
	Long: `Veilmark is the command-line client for the Veilmark watermarking and
infringement-monitoring service.

Embed digital fingerprints into images, text, and video in bulk, anchor
asset fingerprints on chain as legal evidence, and track batch progress.
The heavy lifting (DCT/QIM embedding, detection, blockchain anchoring)
happens server-side.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, cleanup := config.NewLogger(cfg.LogFile, level)
		slog.SetDefault(logger)
		logCleanup = cleanup

		client = api.New(cfg.ServerURL, cfg.Token, cfg.HTTPTimeout)
		session = service.NewSession()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "watermark service URL (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(anchorCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "veilmark "+Version)
	},
}
