package domain

import (
	"context"

	"hazards_directory/internal/query"
)

type ProviderStore interface {
	// Write paths
	UpsertProvider(ctx context.Context, p Provider) (Provider, error)
	UpsertProviders(ctx context.Context, ps []Provider) (int, error)
	SetZipCode(ctx context.Context, id, zip string) error

	// Read paths
	ListProviders(ctx context.Context, q query.Query) (ProviderList, error)
	GetProvider(ctx context.Context, id string) (Provider, error)
	DistinctStates(ctx context.Context) ([]string, error)
	DistinctCounties(ctx context.Context, state string) ([]string, error)
	ProvidersMissingZip(ctx context.Context) ([]AddressRef, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ProviderList is one slice of a filtered listing plus the pre-slice total.
type ProviderList struct {
	Items []Provider
	Total int
}

// AddressRef is the projection used by the zip backfill.
type AddressRef struct {
	ID      string
	Address string
}
