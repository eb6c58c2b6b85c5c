package curation

import (
	"cmp"
	"slices"

	"hazards_directory/internal/domain"
)

const (
	DefaultMinRating = 4.0
	DefaultOverFetch = 2
)

type TopRatedOptions struct {
	MinRating float64
	Limit     int
}

// SelectTopRated keeps candidates rated at least MinRating, best first
// (rating, then review count), truncated to Limit. Candidates should be
// over-fetched by the caller to make up for the ones filtered out.
func SelectTopRated(candidates []domain.Provider, opts TopRatedOptions) []domain.Provider {
	if opts.Limit <= 0 {
		return nil
	}
	out := make([]domain.Provider, 0, len(candidates))
	for _, p := range candidates {
		if p.Rating != nil && *p.Rating >= opts.MinRating {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Provider) int {
		if c := cmp.Compare(*b.Rating, *a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(reviews(b), reviews(a))
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func reviews(p domain.Provider) int {
	if p.ReviewCount == nil {
		return 0
	}
	return *p.ReviewCount
}
