// Package postgres is the ProviderStore backed by a Postgres (Supabase) database through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
)

// Pool is the subset of *pgxpool.Pool the repo uses, so pgxmock can stand in.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ pool Pool }

func New(pool Pool) *Repo { return &Repo{pool: pool} }

// Connect opens a pool against databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

const providerColumns = "id::text, state, county, zip_code, service_category, provider_name, primary_category, " +
	"address, phone, website, rating, review_count, place_id, description, created_at, updated_at"

var upsertColumns = []string{
	"state", "county", "zip_code", "service_category", "provider_name", "primary_category",
	"address", "phone", "website", "rating", "review_count", "place_id", "description",
}

func (r *Repo) ListProviders(ctx context.Context, q query.Query) (domain.ProviderList, error) {
	where, args := q.Where(query.Postgres)

	var out domain.ProviderList
	if q.CountExact {
		if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM providers"+where, args...).Scan(&out.Total); err != nil {
			return domain.ProviderList{}, eris.Wrap(err, "postgres: count providers")
		}
	}

	n := len(args)
	sql := fmt.Sprintf("SELECT %s FROM providers%s%s LIMIT $%d OFFSET $%d",
		providerColumns, where, q.OrderClause(), n+1, n+2)
	rows, err := r.pool.Query(ctx, sql, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "postgres: list providers")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return domain.ProviderList{}, eris.Wrap(err, "postgres: scan provider")
		}
		out.Items = append(out.Items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "postgres: list providers")
	}
	if !q.CountExact {
		out.Total = len(out.Items)
	}
	return out, nil
}

func (r *Repo) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+providerColumns+" FROM providers WHERE id::text = $1", id)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Provider{}, eris.Wrapf(domain.ErrNotFound, "postgres: provider %s", id)
	}
	if err != nil {
		return domain.Provider{}, eris.Wrapf(err, "postgres: get provider %s", id)
	}
	return p, nil
}

func (r *Repo) UpsertProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	sql, args := upsertSQL([]domain.Provider{p})
	stored, err := scanProvider(r.pool.QueryRow(ctx, sql+" RETURNING "+providerColumns, args...))
	if err != nil {
		return domain.Provider{}, eris.Wrap(err, "postgres: upsert provider")
	}
	return stored, nil
}

// UpsertProviders writes ps in one statement. Callers must not repeat a
// place_id within ps: Postgres rejects a statement touching a row twice.
func (r *Repo) UpsertProviders(ctx context.Context, ps []domain.Provider) (int, error) {
	if len(ps) == 0 {
		return 0, nil
	}
	sql, args := upsertSQL(ps)
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert %d providers", len(ps))
	}
	return int(tag.RowsAffected()), nil
}

// upsertSQL builds INSERT ... ON CONFLICT (place_id) DO UPDATE SET col = EXCLUDED.col.
func upsertSQL(ps []domain.Provider) (string, []any) {
	cols := make([]string, len(upsertColumns))
	for i, c := range upsertColumns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}

	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*len(upsertColumns))
	for _, p := range ps {
		ph := make([]string, len(upsertColumns))
		for i := range ph {
			ph[i] = fmt.Sprintf("$%d", len(args)+i+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			p.State, p.County, p.ZipCode, string(p.ServiceCategory), p.ProviderName, p.PrimaryCategory,
			p.Address, p.Phone, p.Website, p.Rating, p.ReviewCount, p.PlaceID, p.Description,
		)
	}

	var set []string
	for _, c := range cols {
		if c == `"place_id"` {
			continue
		}
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	set = append(set, `"updated_at" = now()`)

	return fmt.Sprintf("INSERT INTO providers (%s) VALUES %s ON CONFLICT (place_id) DO UPDATE SET %s",
		strings.Join(cols, ", "), strings.Join(values, ", "), strings.Join(set, ", ")), args
}

func (r *Repo) DistinctStates(ctx context.Context) ([]string, error) {
	return r.column(ctx, "postgres: distinct states", "SELECT DISTINCT state FROM providers ORDER BY state")
}

func (r *Repo) DistinctCounties(ctx context.Context, state string) ([]string, error) {
	return r.column(ctx, "postgres: distinct counties",
		"SELECT DISTINCT county FROM providers WHERE state = $1 ORDER BY county", state)
}

func (r *Repo) column(ctx context.Context, op, sql string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, eris.Wrap(err, op)
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), op)
}

func (r *Repo) ProvidersMissingZip(ctx context.Context) ([]domain.AddressRef, error) {
	rows, err := r.pool.Query(ctx, "SELECT id::text, address FROM providers WHERE zip_code IS NULL")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: providers missing zip")
	}
	defer rows.Close()

	var out []domain.AddressRef
	for rows.Next() {
		var ref domain.AddressRef
		if err := rows.Scan(&ref.ID, &ref.Address); err != nil {
			return nil, eris.Wrap(err, "postgres: scan address ref")
		}
		out = append(out, ref)
	}
	return out, eris.Wrap(rows.Err(), "postgres: providers missing zip")
}

func (r *Repo) SetZipCode(ctx context.Context, id, zip string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE providers SET zip_code = $1, updated_at = now() WHERE id::text = $2", zip, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set zip for %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(domain.ErrNotFound, "postgres: provider %s", id)
	}
	return nil
}

func scanProvider(row pgx.Row) (domain.Provider, error) {
	var (
		p        domain.Provider
		category string
		rating   *float64
		reviews  *int32
	)
	err := row.Scan(
		&p.ID,
		&p.State,
		&p.County,
		&p.ZipCode,
		&category,
		&p.ProviderName,
		&p.PrimaryCategory,
		&p.Address,
		&p.Phone,
		&p.Website,
		&rating,
		&reviews,
		&p.PlaceID,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Provider{}, err
	}
	p.ServiceCategory = domain.Category(category)
	p.Rating = rating
	if reviews != nil {
		n := int(*reviews)
		p.ReviewCount = &n
	}
	return p, nil
}
