package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/importer"
)

const sample = "\xef\xbb\xbfState,County,Service Category,Provider Name,Primary Category,Address,Phone,Website,Rating,ReviewCount,PlaceId,Description,Extra\n" +
	"Florida,Leon,Mold,Alpha Mold,mold_remediation,\"1 Main St, Tallahassee, FL 32301\",555-0100,https://alpha.example,4.8,120,ChIJ-1,Family owned,ignored\n" +
	"\n" +
	"Georgia,Cobb,,Beta Pest,,2 Oak Ave,,,,,,,\n"

func TestDecode(t *testing.T) {
	rows, err := importer.Decode(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)

	want := []domain.RawProvider{
		{
			State: "Florida", County: "Leon", ServiceCategory: "Mold", ProviderName: "Alpha Mold",
			PrimaryCategory: "mold_remediation", Address: "1 Main St, Tallahassee, FL 32301",
			Phone: "555-0100", Website: "https://alpha.example", Rating: "4.8", ReviewCount: "120",
			PlaceID: "ChIJ-1", Description: "Family owned",
		},
		{State: "Georgia", County: "Cobb", ProviderName: "Beta Pest", Address: "2 Oak Ave"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ReorderedAndMissingColumns(t *testing.T) {
	in := "Provider Name,State\nGamma Water,Texas\n"
	rows, err := importer.Decode(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gamma Water", rows[0].ProviderName)
	assert.Equal(t, "Texas", rows[0].State)
	assert.Empty(t, rows[0].County)
}

func TestDecode_Empty(t *testing.T) {
	rows, err := importer.Decode(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	rows, err := importer.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = importer.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
