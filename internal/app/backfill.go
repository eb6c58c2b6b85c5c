package app

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"hazards_directory/internal/adapters/observability"
	"hazards_directory/internal/domain"
)

// trailing 5-digit zip, optionally ZIP+4, at the end of an address
var zipRe = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\s*$`)

// ExtractZipCode returns the 5-digit zip ending address.
func ExtractZipCode(address string) (string, bool) {
	m := zipRe.FindStringSubmatch(address)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type BackfillReport struct {
	Scanned int `json:"scanned"`
	Matched int `json:"matched"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ZipBackfillService fills zip_code from the address for rows that lack one.
type ZipBackfillService struct {
	store   domain.ProviderStore
	workers int64
	rl      *rate.Limiter
}

func NewZipBackfillService(s domain.ProviderStore, workers, rps int) *ZipBackfillService {
	if workers <= 0 {
		workers = 8
	}
	lim := rate.Inf
	if rps > 0 {
		lim = rate.Limit(rps)
	}
	return &ZipBackfillService{store: s, workers: int64(workers), rl: rate.NewLimiter(lim, max(rps, 1))}
}

// Run updates every matching row. Per-row failures are counted, not returned.
func (s *ZipBackfillService) Run(ctx context.Context) (BackfillReport, error) {
	refs, err := s.store.ProvidersMissingZip(ctx)
	if err != nil {
		return BackfillReport{}, err
	}
	log.Info().Int("candidates", len(refs)).Msg("zip backfill starting")

	var (
		matched, updated, failed atomic.Int64
		wg                       sync.WaitGroup
	)
	sem := semaphore.NewWeighted(s.workers)

	for _, ref := range refs {
		zip, ok := ExtractZipCode(ref.Address)
		if !ok {
			observability.ObserveBackfill("no_match")
			continue
		}
		matched.Add(1)

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(id, zip string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.rl.Wait(ctx); err != nil {
				failed.Add(1)
				return
			}
			if err := s.store.SetZipCode(ctx, id, zip); err != nil {
				failed.Add(1)
				observability.ObserveBackfill("error")
				log.Warn().Str("id", id).Err(err).Msg("zip update failed")
				return
			}
			updated.Add(1)
			observability.ObserveBackfill("updated")
		}(ref.ID, zip)
	}
	wg.Wait()

	rep := BackfillReport{
		Scanned: len(refs),
		Matched: int(matched.Load()),
		Updated: int(updated.Load()),
		Failed:  int(failed.Load()),
	}
	log.Info().Int("updated", rep.Updated).Int("failed", rep.Failed).Msg("zip backfill completed")
	return rep, ctx.Err()
}
