package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hazards_directory/internal/app"
	"hazards_directory/internal/storage"
)

var backfillZipCmd = &cobra.Command{
	Use:   "backfill-zip",
	Short: "Fill missing zip codes from provider addresses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.BackfillWorkers
		}

		store, closeStore, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		rep, err := app.NewZipBackfillService(store, workers, cfg.BackfillRPS).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "backfill-zip")
		}
		log.Info().
			Int("scanned", rep.Scanned).
			Int("matched", rep.Matched).
			Int("updated", rep.Updated).
			Int("failed", rep.Failed).
			Msg("zip backfill done")
		return nil
	},
}

func init() {
	backfillZipCmd.Flags().Int("workers", 0, "concurrent updates (default BACKFILL_WORKERS)")
}
