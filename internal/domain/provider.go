package domain

import (
	"strings"
	"time"
)

// Provider is a single row of the providers table.
type Provider struct {
	ID              string    `json:"id"`
	State           string    `json:"state"`
	County          string    `json:"county"`
	ZipCode         *string   `json:"zip_code"`
	ServiceCategory Category  `json:"service_category"`
	ProviderName    string    `json:"provider_name"`
	PrimaryCategory *string   `json:"primary_category"`
	Address         string    `json:"address"`
	Phone           *string   `json:"phone"`
	Website         *string   `json:"website"`
	Rating          *float64  `json:"rating"`
	ReviewCount     *int      `json:"review_count"`
	PlaceID         *string   `json:"place_id"`
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Category is the service category. The four known values are matched
// case-insensitively; anything else is kept verbatim.
type Category string

const (
	CategoryMold  Category = "Mold"
	CategoryWater Category = "Water"
	CategoryPest  Category = "Pest"
	CategoryRadon Category = "Radon"
)

// DefaultCategory is used when a record arrives without a category.
const DefaultCategory = CategoryMold

var knownCategories = []Category{CategoryMold, CategoryWater, CategoryPest, CategoryRadon}

var categoryLabels = map[Category]string{
	CategoryMold:  "Mold Remediation",
	CategoryWater: "Water Damage Restoration",
	CategoryPest:  "Pest Control Services",
	CategoryRadon: "Radon Testing & Mitigation",
}

func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range knownCategories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return Category(s)
}

// Known reports whether c is one of Mold, Water, Pest or Radon.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the human-readable name; unknown categories fall back to their raw text.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func KnownCategories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}

// RawProvider is an unnormalised record as it arrives from a CSV row.
type RawProvider struct {
	State           string
	County          string
	ServiceCategory string
	ProviderName    string
	PrimaryCategory string
	Address         string
	Phone           string
	Website         string
	Rating          string
	ReviewCount     string
	PlaceID         string
	Description     string
}
