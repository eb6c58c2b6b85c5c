package curation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"hazards_directory/internal/curation"
	"hazards_directory/internal/domain"
)

func named(name string) domain.Provider { return domain.Provider{ProviderName: name} }

func TestIsDirty(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		dirty  bool
		reason string
	}{
		{"pdf marker", "[PDF] Mold Report 2021", true, "pdf-marker"},
		{"ellipsis", "Best Mold Guys... Call Now", true, "ellipsis"},
		{"ninety chars", strings.Repeat("a", 90), true, "too-long"},
		{"eighty chars is fine", strings.Repeat("a", 80), false, ""},
		{"platform suffix", "ABC Pest Control - Facebook", true, "platform-suffix"},
		{"platform suffix any case", "ABC Pest Control - yelp", true, "platform-suffix"},
		{"platform mid-name", "Google Pest Control", false, ""},
		{"cta ad copy", "(ABC Restoration) Call Today", true, "cta-ad-copy"},
		{"cta ad copy lower", "( ABC ) visit us", true, "cta-ad-copy"},
		{"paren without cta", "(ABC Restoration) Inc", false, ""},
		{"cta without leading paren", "ABC (Restoration) Call Today", false, ""},
		{"clean", "ABC Mold Remediation LLC", false, ""},
		{"empty", "", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := named(tc.input)
			assert.Equal(t, tc.dirty, curation.IsDirty(p))
			reason, ok := curation.DirtyReason(p)
			assert.Equal(t, tc.dirty, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestIsDirty_MultiByteLengthCountsRunes(t *testing.T) {
	// 80 runes, well over 80 bytes
	assert.False(t, curation.IsDirty(named(strings.Repeat("é", 80))))
	assert.True(t, curation.IsDirty(named(strings.Repeat("é", 81))))
}

func TestIsDirty_Deterministic(t *testing.T) {
	p := named("Best Mold Guys... Call Now")
	before := p
	for i := 0; i < 3; i++ {
		assert.True(t, curation.IsDirty(p))
	}
	assert.Equal(t, before, p)
}

func TestDirtyRules_EachRuleIndependently(t *testing.T) {
	samples := map[string]string{
		"pdf-marker":      "[PDF] Report",
		"ellipsis":        "Trunc...",
		"too-long":        strings.Repeat("x", 81),
		"platform-suffix": "Name - LinkedIn",
		"cta-ad-copy":     "(Name) Get a quote",
	}
	for _, r := range curation.DirtyRules {
		s, ok := samples[r.Name]
		if !assert.True(t, ok, "no sample for rule %s", r.Name) {
			continue
		}
		assert.True(t, r.Match(s), r.Name)
		assert.False(t, r.Match("ABC Mold Remediation LLC"), r.Name)
	}
}
