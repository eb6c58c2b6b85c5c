package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListProviders(ctx context.Context, q query.Query) (domain.ProviderList, error) {
	where, args := q.Where(query.MySQL)

	var out domain.ProviderList
	if q.CountExact {
		if err := r.db.QueryRowContext(ctx, countProvidersSQL+where, args...).Scan(&out.Total); err != nil {
			return domain.ProviderList{}, eris.Wrap(err, "mysql: count providers")
		}
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	rows, err := r.db.QueryContext(ctx, selectProvidersSQL+where+q.OrderClause()+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "mysql: list providers")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return domain.ProviderList{}, eris.Wrap(err, "mysql: scan provider")
		}
		out.Items = append(out.Items, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "mysql: list providers")
	}
	if !q.CountExact {
		out.Total = len(out.Items)
	}
	return out, nil
}

func (r *Repo) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	p, err := scanProvider(r.db.QueryRowContext(ctx, getProviderSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Provider{}, eris.Wrapf(domain.ErrNotFound, "mysql: provider %s", id)
	}
	if err != nil {
		return domain.Provider{}, eris.Wrapf(err, "mysql: get provider %s", id)
	}
	return p, nil
}

func (r *Repo) UpsertProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, upsertPrefix+upsertRow+upsertOnDup, upsertArgs(id, p)...); err != nil {
		return domain.Provider{}, eris.Wrap(err, "mysql: upsert provider")
	}

	// Read back: a conflicting place_id keeps the existing row id.
	var row *sql.Row
	if p.PlaceID != nil {
		row = r.db.QueryRowContext(ctx, getProviderByPlaceSQL, *p.PlaceID)
	} else {
		row = r.db.QueryRowContext(ctx, getProviderSQL, id)
	}
	stored, err := scanProvider(row)
	if err != nil {
		return domain.Provider{}, eris.Wrap(err, "mysql: read back provider")
	}
	return stored, nil
}

func (r *Repo) UpsertProviders(ctx context.Context, ps []domain.Provider) (int, error) {
	if len(ps) == 0 {
		return 0, nil
	}
	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*14) // 14 params per row
	for _, p := range ps {
		values = append(values, upsertRow)
		args = append(args, upsertArgs(uuid.NewString(), p)...)
	}
	sqlStr := upsertPrefix + strings.Join(values, ",") + upsertOnDup
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return 0, eris.Wrapf(err, "mysql: upsert %d providers", len(ps))
	}
	return len(ps), nil
}

func upsertArgs(id string, p domain.Provider) []any {
	return []any{
		id,
		p.State,
		p.County,
		valStr(p.ZipCode),
		string(p.ServiceCategory),
		p.ProviderName,
		valStr(p.PrimaryCategory),
		p.Address,
		valStr(p.Phone),
		valStr(p.Website),
		valF64(p.Rating),
		valInt(p.ReviewCount),
		valStr(p.PlaceID),
		valStr(p.Description),
	}
}

func (r *Repo) DistinctStates(ctx context.Context) ([]string, error) {
	return r.column(ctx, "mysql: distinct states", distinctStatesSQL)
}

func (r *Repo) DistinctCounties(ctx context.Context, state string) ([]string, error) {
	return r.column(ctx, "mysql: distinct counties", distinctCountiesSQL, state)
}

func (r *Repo) column(ctx context.Context, op, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
	rows, err := r.db.QueryContext(ctx, missingZipSQL)
	if err != nil {
		return nil, eris.Wrap(err, "mysql: providers missing zip")
	}
	defer rows.Close()

	var out []domain.AddressRef
	for rows.Next() {
		var ref domain.AddressRef
		if err := rows.Scan(&ref.ID, &ref.Address); err != nil {
			return nil, eris.Wrap(err, "mysql: scan address ref")
		}
		out = append(out, ref)
	}
	return out, eris.Wrap(rows.Err(), "mysql: providers missing zip")
}

func (r *Repo) SetZipCode(ctx context.Context, id, zip string) error {
	res, err := r.db.ExecContext(ctx, setZipSQL, zip, id)
	if err != nil {
		return eris.Wrapf(err, "mysql: set zip for %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return eris.Wrapf(domain.ErrNotFound, "mysql: provider %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProvider(s scanner) (domain.Provider, error) {
	var (
		p                                        domain.Provider
		category                                 string
		zip, primary, phone, website, place, des sql.NullString
		rating                                   sql.NullFloat64
		reviews                                  sql.NullInt64
	)
	if err := s.Scan(
		&p.ID,
		&p.State,
		&p.County,
		&zip,
		&category,
		&p.ProviderName,
		&primary,
		&p.Address,
		&phone,
		&website,
		&rating,
		&reviews,
		&place,
		&des,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.Provider{}, err
	}
	p.ServiceCategory = domain.Category(category)
	p.ZipCode = nullStr(zip)
	p.PrimaryCategory = nullStr(primary)
	p.Phone = nullStr(phone)
	p.Website = nullStr(website)
	p.PlaceID = nullStr(place)
	p.Description = nullStr(des)
	if rating.Valid {
		f := rating.Float64
		p.Rating = &f
	}
	if reviews.Valid {
		n := int(reviews.Int64)
		p.ReviewCount = &n
	}
	return p, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
