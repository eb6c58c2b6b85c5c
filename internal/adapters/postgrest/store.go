package postgrest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
)

const (
	table = "providers"
	// pageSize stays under the default Supabase max-rows cap.
	pageSize = 1000
)

// Store is a domain.ProviderStore over the PostgREST providers table.
type Store struct{ c *Client }

func NewStore(c *Client) *Store { return &Store{c: c} }

// writeRow is the insert payload. Every row in a batch carries the same
// keys, which PostgREST requires for bulk upserts.
type writeRow struct {
	State           string   `json:"state"`
	County          string   `json:"county"`
	ZipCode         *string  `json:"zip_code"`
	ServiceCategory string   `json:"service_category"`
	ProviderName    string   `json:"provider_name"`
	PrimaryCategory *string  `json:"primary_category"`
	Address         string   `json:"address"`
	Phone           *string  `json:"phone"`
	Website         *string  `json:"website"`
	Rating          *float64 `json:"rating"`
	ReviewCount     *int     `json:"review_count"`
	PlaceID         *string  `json:"place_id"`
	Description     *string  `json:"description"`
}

func toWriteRow(p domain.Provider) writeRow {
	return writeRow{
		State:           p.State,
		County:          p.County,
		ZipCode:         p.ZipCode,
		ServiceCategory: string(p.ServiceCategory),
		ProviderName:    p.ProviderName,
		PrimaryCategory: p.PrimaryCategory,
		Address:         p.Address,
		Phone:           p.Phone,
		Website:         p.Website,
		Rating:          p.Rating,
		ReviewCount:     p.ReviewCount,
		PlaceID:         p.PlaceID,
		Description:     p.Description,
	}
}

func upsertParams() url.Values {
	return url.Values{"on_conflict": {"place_id"}}
}

func (s *Store) ListProviders(ctx context.Context, q query.Query) (domain.ProviderList, error) {
	r := request{method: http.MethodGet, table: table, params: q.PostgREST()}
	if q.CountExact {
		r.prefer = []string{"count=exact"}
	}

	var items []domain.Provider
	h, err := s.c.do(ctx, r, &items)
	if err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "postgrest: list providers")
	}
	total := len(items)
	if q.CountExact {
		if n := contentRangeTotal(h); n >= 0 {
			total = n
		}
	}
	return domain.ProviderList{Items: items, Total: total}, nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	params := url.Values{"select": {"*"}, "id": {"eq." + id}, "limit": {"1"}}
	var items []domain.Provider
	if _, err := s.c.do(ctx, request{method: http.MethodGet, table: table, params: params}, &items); err != nil {
		return domain.Provider{}, eris.Wrapf(err, "postgrest: get provider %s", id)
	}
	if len(items) == 0 {
		return domain.Provider{}, eris.Wrapf(domain.ErrNotFound, "postgrest: provider %s", id)
	}
	return items[0], nil
}

func (s *Store) UpsertProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	r := request{
		method: http.MethodPost,
		table:  table,
		params: upsertParams(),
		body:   []writeRow{toWriteRow(p)},
		prefer: []string{"resolution=merge-duplicates", "return=representation"},
	}
	var out []domain.Provider
	if _, err := s.c.do(ctx, r, &out); err != nil {
		return domain.Provider{}, eris.Wrap(err, "postgrest: upsert provider")
	}
	if len(out) == 0 {
		return domain.Provider{}, eris.New("postgrest: upsert returned no rows")
	}
	return out[0], nil
}

func (s *Store) UpsertProviders(ctx context.Context, ps []domain.Provider) (int, error) {
	if len(ps) == 0 {
		return 0, nil
	}
	rows := make([]writeRow, len(ps))
	for i, p := range ps {
		rows[i] = toWriteRow(p)
	}
	r := request{
		method: http.MethodPost,
		table:  table,
		params: upsertParams(),
		body:   rows,
		prefer: []string{"resolution=merge-duplicates", "return=minimal"},
	}
	if _, err := s.c.do(ctx, r, nil); err != nil {
		return 0, eris.Wrapf(err, "postgrest: upsert %d providers", len(ps))
	}
	return len(ps), nil
}

func (s *Store) SetZipCode(ctx context.Context, id, zip string) error {
	r := request{
		method: http.MethodPatch,
		table:  table,
		params: url.Values{"id": {"eq." + id}},
		body:   map[string]string{"zip_code": zip},
		prefer: []string{"return=representation"},
	}
	var out []struct {
		ID string `json:"id"`
	}
	if _, err := s.c.do(ctx, r, &out); err != nil {
		return eris.Wrapf(err, "postgrest: set zip for %s", id)
	}
	if len(out) == 0 {
		return eris.Wrapf(domain.ErrNotFound, "postgrest: provider %s", id)
	}
	return nil
}

func (s *Store) DistinctStates(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "state", url.Values{})
}

func (s *Store) DistinctCounties(ctx context.Context, state string) ([]string, error) {
	return s.distinct(ctx, "county", url.Values{"state": {"eq." + state}})
}

// distinct pages through col in sorted order and collapses repeats.
// PostgREST has no DISTINCT, so the dedupe happens here.
func (s *Store) distinct(ctx context.Context, col string, params url.Values) ([]string, error) {
	params.Set("select", col)
	params.Set("order", col+".asc")

	out := []string{}
	for offset := 0; ; offset += pageSize {
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		var rows []map[string]string
		if _, err := s.c.do(ctx, request{method: http.MethodGet, table: table, params: params}, &rows); err != nil {
			return nil, eris.Wrapf(err, "postgrest: distinct %s", col)
		}
		for _, row := range rows {
			v := row[col]
			if len(out) == 0 || out[len(out)-1] != v {
				out = append(out, v)
			}
		}
		if len(rows) < pageSize {
			return out, nil
		}
	}
}

func (s *Store) ProvidersMissingZip(ctx context.Context) ([]domain.AddressRef, error) {
	params := url.Values{
		"select":   {"id,address"},
		"zip_code": {"is.null"},
		"order":    {"id.asc"},
	}
	var out []domain.AddressRef
	for offset := 0; ; offset += pageSize {
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		var rows []struct {
			ID      string `json:"id"`
			Address string `json:"address"`
		}
		if _, err := s.c.do(ctx, request{method: http.MethodGet, table: table, params: params}, &rows); err != nil {
			return nil, eris.Wrap(err, "postgrest: providers missing zip")
		}
		for _, r := range rows {
			out = append(out, domain.AddressRef{ID: r.ID, Address: r.Address})
		}
		if len(rows) < pageSize {
			return out, nil
		}
	}
}
