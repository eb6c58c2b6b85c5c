// Package storage selects and instruments the provider store backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"hazards_directory/internal/adapters/observability"
	"hazards_directory/internal/adapters/postgrest"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
	"hazards_directory/internal/shared"
	"hazards_directory/internal/storage/memory"
	mysqlrepo "hazards_directory/internal/storage/mysql"
	"hazards_directory/internal/storage/postgres"
)

// Open connects the backend named by cfg.StoreDriver. The returned close
// func releases its connections and is never nil.
func Open(ctx context.Context, cfg shared.Config) (domain.ProviderStore, func(), error) {
	noop := func() {}
	switch cfg.StoreDriver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, noop, eris.Wrap(err, "storage: sql.Open")
		}
		db.SetMaxOpenConns(cfg.DBMaxConns)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, eris.Wrap(err, "storage: mysql ping")
		}
		return Instrument("mysql", mysqlrepo.New(db)), func() { db.Close() }, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
		if err != nil {
			return nil, noop, err
		}
		return Instrument("postgres", postgres.New(pool)), pool.Close, nil

	case "postgrest":
		cl, err := postgrest.New(cfg.PostgRESTURL, cfg.PostgRESTKey, cfg.PostgRESTRPS)
		if err != nil {
			return nil, noop, err
		}
		return Instrument("postgrest", postgrest.NewStore(cl)), noop, nil

	case "memory":
		log.Warn().Msg("using in-memory provider store; data is not persisted")
		return Instrument("memory", memory.New()), noop, nil
	}
	return nil, noop, eris.Errorf("storage: unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// Instrumented records call metrics and turns backend failures into
// *domain.StoreError. Not-found and context errors pass through unchanged.
type Instrumented struct {
	backend string
	next    domain.ProviderStore
}

func Instrument(backend string, next domain.ProviderStore) *Instrumented {
	return &Instrumented{backend: backend, next: next}
}

func (s *Instrumented) observe(ctx context.Context, op string, start time.Time, err error) error {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		result = "canceled"
	default:
		result = "error"
		log.Error().Err(err).
			Str("backend", s.backend).Str("op", op).Str("err_type", observability.LabelErr(err)).
			Msg("store call failed")
		err = &domain.StoreError{Backend: s.backend, Op: op, Err: err}
	}
	observability.ObserveStore(s.backend, op, result, time.Since(start))
	return err
}

func (s *Instrumented) UpsertProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	start := time.Now()
	out, err := s.next.UpsertProvider(ctx, p)
	return out, s.observe(ctx, "upsert_provider", start, err)
}

func (s *Instrumented) UpsertProviders(ctx context.Context, ps []domain.Provider) (int, error) {
	start := time.Now()
	n, err := s.next.UpsertProviders(ctx, ps)
	return n, s.observe(ctx, "upsert_providers", start, err)
}

func (s *Instrumented) SetZipCode(ctx context.Context, id, zip string) error {
	start := time.Now()
	return s.observe(ctx, "set_zip_code", start, s.next.SetZipCode(ctx, id, zip))
}

func (s *Instrumented) ListProviders(ctx context.Context, q query.Query) (domain.ProviderList, error) {
	start := time.Now()
	out, err := s.next.ListProviders(ctx, q)
	return out, s.observe(ctx, "list_providers", start, err)
}

func (s *Instrumented) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	start := time.Now()
	out, err := s.next.GetProvider(ctx, id)
	return out, s.observe(ctx, "get_provider", start, err)
}

func (s *Instrumented) DistinctStates(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := s.next.DistinctStates(ctx)
	return out, s.observe(ctx, "distinct_states", start, err)
}

func (s *Instrumented) DistinctCounties(ctx context.Context, state string) ([]string, error) {
	start := time.Now()
	out, err := s.next.DistinctCounties(ctx, state)
	return out, s.observe(ctx, "distinct_counties", start, err)
}

func (s *Instrumented) ProvidersMissingZip(ctx context.Context) ([]domain.AddressRef, error) {
	start := time.Now()
	out, err := s.next.ProvidersMissingZip(ctx)
	return out, s.observe(ctx, "providers_missing_zip", start, err)
}
