package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"hazards_directory/internal/domain"
)

// CreateProviderInput is a decoded JSON body. Keys follow the provider's
// snake_case field names; see payloadAliases for accepted spellings.
type CreateProviderInput map[string]any

type CommandService struct {
	store domain.ProviderStore
	cache domain.Cache
}

// NewCommandService wires the write side. c may be nil.
func NewCommandService(s domain.ProviderStore, c domain.Cache) *CommandService {
	return &CommandService{store: s, cache: c}
}

// CreateProvider validates in, upserts it on place_id and returns the stored row.
func (s *CommandService) CreateProvider(ctx context.Context, in CreateProviderInput) (domain.Provider, error) {
	if missing := missingFields(in); len(missing) > 0 {
		return domain.Provider{}, &domain.ValidationError{Missing: missing}
	}

	stored, err := s.store.UpsertProvider(ctx, mapPayload(in))
	if err != nil {
		return domain.Provider{}, err
	}

	// A new row can add a state or county and replaces any cached copy of itself.
	if s.cache != nil {
		evictKeys(ctx, s.cache, statesKey, countiesKey(stored.State), providerKey(stored.ID))
	}
	log.Info().Str("id", stored.ID).Str("state", stored.State).Msg("provider created")
	return stored, nil
}

// evictKeys drops keys from c. Failures are logged; the TTL bounds staleness.
func evictKeys(ctx context.Context, c domain.Cache, keys ...string) {
	for _, k := range keys {
		if err := c.Del(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("cache evict failed")
		}
	}
}
