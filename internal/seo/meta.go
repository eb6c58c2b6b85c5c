package seo

import (
	"fmt"
	"strings"
)

// PageMeta is the title and description of a listing page.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListingMeta describes a provider listing filtered by state and/or category.
func ListingMeta(state, category string) PageMeta {
	var title, desc string
	switch {
	case state != "" && category != "":
		title = fmt.Sprintf("%s Providers in %s", category, state)
		desc = fmt.Sprintf("Find %s professionals in %s. Compare ratings, reviews, and services.", strings.ToLower(category), state)
	case state != "":
		title = "Providers in " + state
		desc = fmt.Sprintf("Find mold, water damage, and pest control professionals in %s.", state)
	case category != "":
		title = category + " Providers"
		desc = fmt.Sprintf("Find %s professionals across the United States.", strings.ToLower(category))
	default:
		title = "All Providers"
		desc = "Browse verified mold remediation, water damage, and pest control providers."
	}
	return PageMeta{Title: title + " | " + SiteName, Description: desc}
}
