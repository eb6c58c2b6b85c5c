package app

import (
	"context"
	"maps"
	"slices"

	"github.com/rs/zerolog/log"

	"hazards_directory/internal/adapters/observability"
	"hazards_directory/internal/domain"
)

const DefaultChunkSize = 100

// ImportReport summarises one import run.
type ImportReport struct {
	Read         int `json:"read"`
	Valid        int `json:"valid"`
	Upserted     int `json:"upserted"`
	Chunks       int `json:"chunks"`
	ChunksFailed int `json:"chunks_failed"`
}

type ImportService struct {
	store     domain.ProviderStore
	cache     domain.Cache
	chunkSize int
}

// NewImportService writes rows through store in chunks of chunkSize
// (DefaultChunkSize when <= 0). c may be nil.
func NewImportService(s domain.ProviderStore, c domain.Cache, chunkSize int) *ImportService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ImportService{store: s, cache: c, chunkSize: chunkSize}
}

// Import normalises rows, drops those without a name or state and upserts
// the rest chunk by chunk. A failed chunk is logged and counted; the
// remaining chunks still run. Only cancellation aborts the run.
func (s *ImportService) Import(ctx context.Context, rows []domain.RawProvider) (ImportReport, error) {
	rep := ImportReport{Read: len(rows)}

	valid := make([]domain.Provider, 0, len(rows))
	for _, r := range rows {
		p := mapRaw(r)
		if p.ProviderName == "" || p.State == "" {
			continue
		}
		valid = append(valid, p)
	}
	rep.Valid = len(valid)
	touched := map[string]struct{}{}

	for i := 0; i < len(valid); i += s.chunkSize {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		chunk := dedupeByPlaceID(valid[i:min(i+s.chunkSize, len(valid))])
		idx := i/s.chunkSize + 1
		rep.Chunks++

		affected, err := s.store.UpsertProviders(ctx, chunk)
		observability.ObserveImportChunk(len(chunk), err)
		if err != nil {
			rep.ChunksFailed++
			log.Error().Err(err).Int("chunk", idx).Int("rows", len(chunk)).Msg("import chunk failed")
			continue
		}
		rep.Upserted += len(chunk)
		for _, p := range chunk {
			touched[p.State] = struct{}{}
		}
		log.Info().Int("chunk", idx).Int("rows", len(chunk)).Int("affected", affected).Msg("import chunk ok")
	}

	// imported rows can add states and counties to the cached lists
	if s.cache != nil && len(touched) > 0 {
		keys := []string{statesKey}
		for _, st := range slices.Sorted(maps.Keys(touched)) {
			keys = append(keys, countiesKey(st))
		}
		evictKeys(ctx, s.cache, keys...)
	}
	log.Info().
		Int("read", rep.Read).
		Int("valid", rep.Valid).
		Int("upserted", rep.Upserted).
		Int("chunks_failed", rep.ChunksFailed).
		Msg("import complete")
	return rep, nil
}

// dedupeByPlaceID keeps the first row for each place id. Rows without a
// place id are always kept.
func dedupeByPlaceID(chunk []domain.Provider) []domain.Provider {
	seen := make(map[string]struct{}, len(chunk))
	out := make([]domain.Provider, 0, len(chunk))
	for _, p := range chunk {
		if p.PlaceID != nil {
			if _, dup := seen[*p.PlaceID]; dup {
				continue
			}
			seen[*p.PlaceID] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}
