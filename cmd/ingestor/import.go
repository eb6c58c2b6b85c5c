package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	redisad "hazards_directory/internal/adapters/redis"
	"hazards_directory/internal/app"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/importer"
	"hazards_directory/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import providers from a CSV export",
	Long:  "Reads a provider CSV, drops rows without a name or state, and upserts the rest on place_id in chunks.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("csv")
		if path == "" {
			return eris.New("import: --csv is required")
		}
		chunk, _ := cmd.Flags().GetInt("chunk-size")
		if chunk <= 0 {
			chunk = cfg.ImportChunkSize
		}

		rows, err := importer.ReadFile(ctx, path)
		if err != nil {
			return err
		}
		log.Info().Str("file", path).Int("records", len(rows)).Msg("csv loaded")

		store, closeStore, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		var cache domain.Cache
		if cfg.RedisAddr != "" {
			rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer rc.Close()
			cache = rc
		}

		rep, err := app.NewImportService(store, cache, chunk).Import(ctx, rows)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		if rep.ChunksFailed > 0 {
			log.Warn().Int("chunks_failed", rep.ChunksFailed).Int("chunks", rep.Chunks).Msg("import finished with failed chunks")
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("csv", "", "path to the provider CSV file")
	importCmd.Flags().Int("chunk-size", 0, "rows per upsert batch (default IMPORT_CHUNK_SIZE)")
}
