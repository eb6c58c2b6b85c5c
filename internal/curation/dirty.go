// Package curation decides which provider records are shown and in what order.
package curation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"hazards_directory/internal/domain"
)

// MaxNameLength is the longest provider name not treated as a scraped page title.
const MaxNameLength = 80

// Rule flags a provider name carrying a scraping artifact.
type Rule struct {
	Name  string
	Match func(name string) bool
}

var (
	platformSuffix = regexp.MustCompile(`(?i)- (Facebook|Yelp|Google|Instagram|Twitter|LinkedIn)$`)
	ctaAfterParen  = regexp.MustCompile(`(?i)\) (Call|Get|Click|Visit|Contact|Find|Buy|Try)`)
)

// DirtyRules are evaluated in order; the first match wins.
var DirtyRules = []Rule{
	{
		Name:  "pdf-marker",
		Match: func(name string) bool { return strings.HasPrefix(name, "[PDF]") },
	},
	{
		Name:  "ellipsis",
		Match: func(name string) bool { return strings.Contains(name, "...") },
	},
	{
		Name:  "too-long",
		Match: func(name string) bool { return utf8.RuneCountInString(name) > MaxNameLength },
	},
	{
		Name:  "platform-suffix",
		Match: platformSuffix.MatchString,
	},
	{
		// "(ABC Restoration) Call Today" style ad copy
		Name: "cta-ad-copy",
		Match: func(name string) bool {
			return strings.HasPrefix(name, "(") && ctaAfterParen.MatchString(name)
		},
	},
}

// DirtyReason returns the name of the first rule matching p's name.
func DirtyReason(p domain.Provider) (string, bool) {
	for _, r := range DirtyRules {
		if r.Match(p.ProviderName) {
			return r.Name, true
		}
	}
	return "", false
}

// IsDirty reports whether p looks like low-quality scraped data.
func IsDirty(p domain.Provider) bool {
	_, dirty := DirtyReason(p)
	return dirty
}
