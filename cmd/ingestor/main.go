package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hazards_directory/internal/adapters/observability"
	"hazards_directory/internal/shared"
)

var cfg shared.Config

var rootCmd = &cobra.Command{
	Use:           "ingestor",
	Short:         "Loads and maintains the provider directory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = shared.Load()
		// initialize global logger (console in dev, JSON otherwise)
		log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
		observability.Serve(cfg.MetricsAddr, observability.InitRegistry())
	},
}

func init() {
	rootCmd.AddCommand(importCmd, backfillZipCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("ingestor failed")
		os.Exit(1)
	}
}
