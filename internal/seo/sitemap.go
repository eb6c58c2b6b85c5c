package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"hazards_directory/internal/domain"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
	LastMod    string `xml:"lastmod,omitempty"`
}

// Sitemap lists the static pages followed by one entry per provider.
func Sitemap(baseURL string, providers []domain.Provider) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlset{
		Xmlns: sitemapNS,
		URLs: []sitemapURL{
			{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"},
			{Loc: base + "/providers", ChangeFreq: "daily", Priority: "0.9"},
		},
	}
	for _, p := range providers {
		u := sitemapURL{
			Loc:        fmt.Sprintf("%s/providers/%s", base, p.ID),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots allows every crawler and points at the sitemap.
func Robots(baseURL string) string {
	return "User-agent: *\nAllow: /\n\nSitemap: " + strings.TrimRight(baseURL, "/") + "/sitemap.xml\n"
}
