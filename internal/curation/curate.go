package curation

import (
	"slices"

	"hazards_directory/internal/domain"
)

// FilterDirty returns the records IsDirty rejects removed, order preserved.
func FilterDirty(ps []domain.Provider) []domain.Provider {
	out := make([]domain.Provider, 0, len(ps))
	for _, p := range ps {
		if !IsDirty(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasContactData is true when p has an address, a phone or any rating.
// This is a display-ordering signal only; see SelectTopRated for ranking.
func HasContactData(p domain.Provider) bool {
	return p.Address != "" || (p.Phone != nil && *p.Phone != "") || p.Rating != nil
}

// SortByCompleteness moves records without contact data after those with it.
// Both groups keep their relative order. The input is not modified.
func SortByCompleteness(ps []domain.Provider) []domain.Provider {
	out := slices.Clone(ps)
	slices.SortStableFunc(out, func(a, b domain.Provider) int {
		ah, bh := HasContactData(a), HasContactData(b)
		switch {
		case ah && !bh:
			return -1
		case !ah && bh:
			return 1
		}
		return 0
	})
	return out
}

// Curate drops dirty records and sinks incomplete ones to the end.
func Curate(ps []domain.Provider) []domain.Provider {
	return SortByCompleteness(FilterDirty(ps))
}
