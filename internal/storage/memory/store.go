// Package memory is an in-process ProviderStore used by tests and local runs.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
)

type Store struct {
	mu    sync.RWMutex
	rows  []domain.Provider // insertion order
	byID  map[string]int
	now   func() time.Time
	newID func() string
}

func New() *Store {
	return &Store{
		byID:  map[string]int{},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Seed inserts records as-is, assigning ids and timestamps where missing.
func (s *Store) Seed(ps ...domain.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
			p.UpdatedAt = p.CreatedAt
		}
		s.byID[p.ID] = len(s.rows)
		s.rows = append(s.rows, p)
	}
}

func field(p domain.Provider, f query.Field) string {
	switch f {
	case query.FieldID:
		return p.ID
	case query.FieldState:
		return p.State
	case query.FieldCounty:
		return p.County
	case query.FieldZipCode:
		if p.ZipCode == nil {
			return ""
		}
		return *p.ZipCode
	case query.FieldServiceCategory:
		return string(p.ServiceCategory)
	case query.FieldProviderName:
		return p.ProviderName
	case query.FieldAddress:
		return p.Address
	}
	return ""
}

func (s *Store) ListProviders(ctx context.Context, q query.Query) (domain.ProviderList, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProviderList{}, eris.Wrap(err, "memory: list providers")
	}
	s.mu.RLock()
	matched := make([]domain.Provider, 0, len(s.rows))
	for _, p := range s.rows {
		if q.Matches(func(f query.Field) string { return field(p, f) }) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	if q.OrderBy != "" {
		slices.SortStableFunc(matched, func(a, b domain.Provider) int {
			c := cmp.Compare(field(a, q.OrderBy), field(b, q.OrderBy))
			if !q.Ascending {
				c = -c
			}
			return c
		})
	}

	from, to := q.Window(len(matched))
	return domain.ProviderList{Items: slices.Clone(matched[from:to]), Total: len(matched)}, nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return domain.Provider{}, eris.Wrapf(domain.ErrNotFound, "memory: provider %s", id)
	}
	return s.rows[i], nil
}

func (s *Store) UpsertProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(p), nil
}

func (s *Store) UpsertProviders(ctx context.Context, ps []domain.Provider) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "memory: upsert providers")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range ps {
		s.upsertLocked(p)
	}
	return len(ps), nil
}

// upsertLocked replaces every field of the row sharing p's place id,
// keeping its id and created_at; rows without a place id are always new.
func (s *Store) upsertLocked(p domain.Provider) domain.Provider {
	now := s.now()
	if p.PlaceID != nil {
		for i, cur := range s.rows {
			if cur.PlaceID != nil && *cur.PlaceID == *p.PlaceID {
				p.ID, p.CreatedAt, p.UpdatedAt = cur.ID, cur.CreatedAt, now
				s.rows[i] = p
				return p
			}
		}
	}
	p.ID = s.newID()
	p.CreatedAt, p.UpdatedAt = now, now
	s.byID[p.ID] = len(s.rows)
	s.rows = append(s.rows, p)
	return p
}

func (s *Store) DistinctStates(ctx context.Context) ([]string, error) {
	return s.distinct(func(p domain.Provider) (string, bool) { return p.State, true }), nil
}

func (s *Store) DistinctCounties(ctx context.Context, state string) ([]string, error) {
	return s.distinct(func(p domain.Provider) (string, bool) { return p.County, p.State == state }), nil
}

func (s *Store) distinct(pick func(domain.Provider) (string, bool)) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range s.rows {
		v, ok := pick(p)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s *Store) ProvidersMissingZip(ctx context.Context) ([]domain.AddressRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AddressRef
	for _, p := range s.rows {
		if p.ZipCode == nil {
			out = append(out, domain.AddressRef{ID: p.ID, Address: p.Address})
		}
	}
	return out, nil
}

func (s *Store) SetZipCode(ctx context.Context, id, zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return eris.Wrapf(domain.ErrNotFound, "memory: provider %s", id)
	}
	z := strings.TrimSpace(zip)
	s.rows[i].ZipCode = &z
	s.rows[i].UpdatedAt = s.now()
	return nil
}
