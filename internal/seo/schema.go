// Package seo renders the structured data, sitemap and robots file for the directory.
package seo

import (
	"hazards_directory/internal/domain"
)

const (
	schemaContext = "https://schema.org"
	SiteName      = "Hazards Directory"
	siteBlurb     = "Find trusted mold remediation, water damage restoration, and pest control providers across the United States."
)

// schemaTypes maps a provider's primary_category to a schema.org business type.
var schemaTypes = map[string]string{
	"mold_removal":                     "HomeAndConstructionBusiness",
	"mold_remediation":                 "HomeAndConstructionBusiness",
	"water_damage_restoration_service": "HomeAndConstructionBusiness",
	"fire_damage_restoration_service":  "HomeAndConstructionBusiness",
	"plumber":                          "Plumber",
	"electrician":                      "Electrician",
	"hvac":                             "HVACBusiness",
}

type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	AddressCountry  string `json:"addressCountry"`
}

type AggregateRating struct {
	Type        string  `json:"@type"`
	RatingValue float64 `json:"ratingValue"`
	ReviewCount int     `json:"reviewCount"`
}

// LocalBusinessSchema is the JSON-LD block for a provider page.
type LocalBusinessSchema struct {
	Context         string           `json:"@context"`
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	Address         PostalAddress    `json:"address"`
	Telephone       string           `json:"telephone,omitempty"`
	URL             string           `json:"url,omitempty"`
	AggregateRating *AggregateRating `json:"aggregateRating,omitempty"`
}

func LocalBusiness(p domain.Provider) LocalBusinessSchema {
	s := LocalBusinessSchema{
		Context: schemaContext,
		Type:    SchemaType(p.PrimaryCategory),
		Name:    p.ProviderName,
		Address: PostalAddress{
			Type:            "PostalAddress",
			StreetAddress:   p.Address,
			AddressLocality: p.County,
			AddressRegion:   p.State,
			AddressCountry:  "US",
		},
	}
	if p.Phone != nil {
		s.Telephone = *p.Phone
	}
	if p.Website != nil {
		s.URL = *p.Website
	}
	// both must be present and non-zero
	if p.Rating != nil && *p.Rating != 0 && p.ReviewCount != nil && *p.ReviewCount != 0 {
		s.AggregateRating = &AggregateRating{
			Type:        "AggregateRating",
			RatingValue: *p.Rating,
			ReviewCount: *p.ReviewCount,
		}
	}
	return s
}

// SchemaType is LocalBusiness unless primaryCategory has a more specific type.
func SchemaType(primaryCategory *string) string {
	if primaryCategory != nil {
		if t, ok := schemaTypes[*primaryCategory]; ok {
			return t
		}
	}
	return "LocalBusiness"
}

type OrganizationSchema struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func Organization(siteURL string) OrganizationSchema {
	return OrganizationSchema{
		Context:     schemaContext,
		Type:        "Organization",
		Name:        SiteName,
		URL:         siteURL,
		Description: siteBlurb,
	}
}
