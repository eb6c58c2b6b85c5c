package app

import (
	"math"
	"strconv"
	"strings"

	"hazards_directory/internal/domain"
)

/********** alias registry (single source of truth) **********/

// payloadAliases lists the accepted keys for each provider field. The API
// uses snake_case; the CSV header spellings are accepted too so exported
// rows can be posted back unchanged.
var payloadAliases = map[string][]string{
	"state":            {"state", "State"},
	"county":           {"county", "County"},
	"service_category": {"service_category", "Service Category", "category"},
	"provider_name":    {"provider_name", "Provider Name"},
	"primary_category": {"primary_category", "Primary Category"},
	"address":          {"address", "Address"},
	"phone":            {"phone", "Phone"},
	"website":          {"website", "Website"},
	"rating":           {"rating", "Rating"},
	"review_count":     {"review_count", "ReviewCount"},
	"place_id":         {"place_id", "PlaceId"},
	"description":      {"description", "Description"},
	"zip_code":         {"zip_code", "ZipCode"},
}

// requiredFields are checked in this order; the order shows up in error messages.
var requiredFields = []string{"state", "county", "provider_name", "address"}

/********** tiny helpers **********/

// lookupAlias returns the first present value for a field's aliases.
func lookupAlias(m map[string]any, field string) any {
	for _, k := range payloadAliases[field] {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// lookupStr returns the field as trimmed text, or "".
func lookupStr(m map[string]any, field string) string {
	switch v := lookupAlias(m, field).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == 0 || math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: number from a JSON number or a string like "4,5".
func getFloatFlexible(v any) *float64 {
	switch t := v.(type) {
	case float64:
		if t == 0 || math.IsNaN(t) {
			return nil
		}
		f := t
		return &f
	case int:
		if t == 0 {
			return nil
		}
		f := float64(t)
		return &f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return &f
		}
	}
	return nil
}

// getIntFlexible: integer from a JSON number or a string; "12.7" gives 12.
func getIntFlexible(v any) *int {
	switch t := v.(type) {
	case float64:
		if t == 0 || math.IsNaN(t) {
			return nil
		}
		n := int(t)
		return &n
	case int:
		if t == 0 {
			return nil
		}
		n := t
		return &n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if n, err := strconv.Atoi(s); err == nil {
			return &n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n := int(f)
			return &n
		}
	}
	return nil
}

/********** mappers **********/

// missingFields lists required fields that are absent, empty or zero.
func missingFields(m map[string]any) []string {
	var missing []string
	for _, f := range requiredFields {
		if lookupStr(m, f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// mapPayload builds a provider from a JSON body. Callers validate first.
func mapPayload(m map[string]any) domain.Provider {
	category := domain.ParseCategory(lookupStr(m, "service_category"))
	if category == "" {
		category = domain.DefaultCategory
	}
	return domain.Provider{
		State:           lookupStr(m, "state"),
		County:          lookupStr(m, "county"),
		ZipCode:         ptrStr(lookupStr(m, "zip_code")),
		ServiceCategory: category,
		ProviderName:    lookupStr(m, "provider_name"),
		PrimaryCategory: ptrStr(lookupStr(m, "primary_category")),
		Address:         lookupStr(m, "address"),
		Phone:           ptrStr(lookupStr(m, "phone")),
		Website:         ptrStr(lookupStr(m, "website")),
		Rating:          getFloatFlexible(lookupAlias(m, "rating")),
		ReviewCount:     getIntFlexible(lookupAlias(m, "review_count")),
		PlaceID:         ptrStr(lookupStr(m, "place_id")),
		Description:     ptrStr(lookupStr(m, "description")),
	}
}

// mapRaw normalises a CSV row: fields are trimmed, blank optionals become
// nil and a blank category falls back to Mold.
func mapRaw(r domain.RawProvider) domain.Provider {
	category := domain.ParseCategory(r.ServiceCategory)
	if category == "" {
		category = domain.DefaultCategory
	}
	return domain.Provider{
		State:           strings.TrimSpace(r.State),
		County:          strings.TrimSpace(r.County),
		ServiceCategory: category,
		ProviderName:    strings.TrimSpace(r.ProviderName),
		PrimaryCategory: ptrStr(strings.TrimSpace(r.PrimaryCategory)),
		Address:         strings.TrimSpace(r.Address),
		Phone:           ptrStr(strings.TrimSpace(r.Phone)),
		Website:         ptrStr(strings.TrimSpace(r.Website)),
		Rating:          getFloatFlexible(r.Rating),
		ReviewCount:     getIntFlexible(r.ReviewCount),
		PlaceID:         ptrStr(strings.TrimSpace(r.PlaceID)),
		Description:     ptrStr(strings.TrimSpace(r.Description)),
	}
}
