package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
	"hazards_directory/internal/shared"
	"hazards_directory/internal/storage"
	"hazards_directory/internal/storage/memory"
)

type brokenStore struct {
	domain.ProviderStore
	err error
}

func (b brokenStore) ListProviders(context.Context, query.Query) (domain.ProviderList, error) {
	return domain.ProviderList{}, b.err
}

func TestInstrument_WrapsBackendFailures(t *testing.T) {
	s := storage.Instrument("fake", brokenStore{err: errors.New("connection refused")})

	_, err := s.ListProviders(context.Background(), query.Build(query.Filters{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStore))

	var se *domain.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "fake", se.Backend)
	assert.Equal(t, "list_providers", se.Op)
}

func TestInstrument_PassesThroughNotFoundAndCancel(t *testing.T) {
	s := storage.Instrument("memory", memory.New())
	_, err := s.GetProvider(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrStore))

	s = storage.Instrument("fake", brokenStore{err: context.Canceled})
	_, err = s.ListProviders(context.Background(), query.Build(query.Filters{}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrStore))
}

func TestOpen_Memory(t *testing.T) {
	st, closeFn, err := storage.Open(context.Background(), shared.Config{StoreDriver: "memory"})
	require.NoError(t, err)
	defer closeFn()

	p, err := st.UpsertProvider(context.Background(), domain.Provider{State: "Florida", ProviderName: "A"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, closeFn, err := storage.Open(context.Background(), shared.Config{StoreDriver: "sqlite"})
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestOpen_PostgRESTNeedsKey(t *testing.T) {
	_, _, err := storage.Open(context.Background(), shared.Config{StoreDriver: "postgrest", PostgRESTURL: "http://localhost"})
	assert.Error(t, err)
}
