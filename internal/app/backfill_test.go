package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazards_directory/internal/app"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/storage/memory"
)

func TestExtractZipCode(t *testing.T) {
	cases := []struct {
		address string
		want    string
		ok      bool
	}{
		{"123 Main St, Miami, FL 33101", "33101", true},
		{"123 Main St, Miami, FL 33101-1234", "33101", true},
		{"123 Main St, Miami, FL 33101   ", "33101", true},
		{"12345 Ocean Dr, Miami, FL", "", false},
		{"PO Box 1, FL 3310", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := app.ExtractZipCode(c.address)
		assert.Equal(t, c.ok, ok, c.address)
		assert.Equal(t, c.want, got, c.address)
	}
}

func TestZipBackfill_Run(t *testing.T) {
	st := memory.New()
	st.Seed(
		domain.Provider{ID: "a", ProviderName: "A", Address: "1 Main St, Tampa, FL 33602"},
		domain.Provider{ID: "b", ProviderName: "B", Address: "2 Main St, Atlanta, GA 30301-0001"},
		domain.Provider{ID: "c", ProviderName: "C", Address: "no zip here"},
		domain.Provider{ID: "d", ProviderName: "D", Address: "4 Main St, FL 32301", ZipCode: ptr("32399")},
	)

	rep, err := app.NewZipBackfillService(st, 2, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.BackfillReport{Scanned: 3, Matched: 2, Updated: 2}, rep)

	a, err := st.GetProvider(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, a.ZipCode)
	assert.Equal(t, "33602", *a.ZipCode)

	b, _ := st.GetProvider(context.Background(), "b")
	assert.Equal(t, "30301", *b.ZipCode)

	d, _ := st.GetProvider(context.Background(), "d")
	assert.Equal(t, "32399", *d.ZipCode, "existing zips are left alone")

	rep, err = app.NewZipBackfillService(st, 2, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Scanned)
	assert.Zero(t, rep.Updated)
}
