package seo_test

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazards_directory/internal/domain"
	"hazards_directory/internal/seo"
)

func ptr[T any](v T) *T { return &v }

func TestLocalBusiness_Full(t *testing.T) {
	p := domain.Provider{
		ProviderName:    "Alpha Mold",
		Address:         "1 Main St",
		County:          "Leon",
		State:           "Florida",
		Phone:           ptr("555-0100"),
		Website:         ptr("https://alpha.example"),
		Rating:          ptr(4.8),
		ReviewCount:     ptr(120),
		PrimaryCategory: ptr("mold_remediation"),
	}
	b, err := json.Marshal(seo.LocalBusiness(p))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "https://schema.org", got["@context"])
	assert.Equal(t, "HomeAndConstructionBusiness", got["@type"])
	assert.Equal(t, "555-0100", got["telephone"])
	addr := got["address"].(map[string]any)
	assert.Equal(t, "Leon", addr["addressLocality"])
	assert.Equal(t, "US", addr["addressCountry"])
	rating := got["aggregateRating"].(map[string]any)
	assert.Equal(t, 4.8, rating["ratingValue"])
	assert.Equal(t, float64(120), rating["reviewCount"])
}

func TestLocalBusiness_Minimal(t *testing.T) {
	s := seo.LocalBusiness(domain.Provider{ProviderName: "Beta", Rating: ptr(4.5)})
	assert.Equal(t, "LocalBusiness", s.Type)
	assert.Nil(t, s.AggregateRating, "rating without review count carries no aggregate")

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "telephone")
	assert.NotContains(t, string(b), `"url"`)
}

func TestSchemaType(t *testing.T) {
	assert.Equal(t, "Plumber", seo.SchemaType(ptr("plumber")))
	assert.Equal(t, "HVACBusiness", seo.SchemaType(ptr("hvac")))
	assert.Equal(t, "LocalBusiness", seo.SchemaType(ptr("pest_control_service")))
	assert.Equal(t, "LocalBusiness", seo.SchemaType(nil))
}

func TestSitemap(t *testing.T) {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out, err := seo.Sitemap("https://hazards.example/", []domain.Provider{
		{ID: "a1", UpdatedAt: updated},
		{ID: "b2"},
	})
	require.NoError(t, err)

	var set struct {
		URLs []struct {
			Loc        string `xml:"loc"`
			ChangeFreq string `xml:"changefreq"`
			Priority   string `xml:"priority"`
			LastMod    string `xml:"lastmod"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(out, &set))
	require.Len(t, set.URLs, 4)
	assert.Equal(t, "https://hazards.example/", set.URLs[0].Loc)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "https://hazards.example/providers", set.URLs[1].Loc)
	assert.Equal(t, "https://hazards.example/providers/a1", set.URLs[2].Loc)
	assert.Equal(t, "weekly", set.URLs[2].ChangeFreq)
	assert.Equal(t, "2025-03-01T12:00:00Z", set.URLs[2].LastMod)
	assert.Empty(t, set.URLs[3].LastMod)
	assert.True(t, strings.HasPrefix(string(out), "<?xml"))
	assert.Contains(t, string(out), `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
}

func TestRobots(t *testing.T) {
	assert.Equal(t,
		"User-agent: *\nAllow: /\n\nSitemap: https://hazards.example/sitemap.xml\n",
		seo.Robots("https://hazards.example"))
}

func TestListingMeta(t *testing.T) {
	m := seo.ListingMeta("Florida", "Mold")
	assert.Equal(t, "Mold Providers in Florida | Hazards Directory", m.Title)
	assert.Contains(t, m.Description, "mold professionals in Florida")

	assert.Equal(t, "All Providers | Hazards Directory", seo.ListingMeta("", "").Title)
	assert.Equal(t, "Providers in Texas | Hazards Directory", seo.ListingMeta("Texas", "").Title)
	assert.Equal(t, "Pest Providers | Hazards Directory", seo.ListingMeta("", "Pest").Title)
}
