package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/project-scout/internal/sites"
)

// ExternalDetailURL finds the link to the tenderer's own posting inside a
// detail page, for sites that only relay projects. Returns false when the
// descriptor has no external-link selector or the page carries no such link.
// When the descriptor names a query parameter, the real target is unwrapped
// from the redirect URL.
func ExternalDetailURL(html string, d *sites.Descriptor) (string, bool) {
	if d.Detail.ExternalURLSelector == "" {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	href, ok := doc.Find(d.Detail.ExternalURLSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	resolved, err := d.ResolveURL(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}

	if d.Detail.ExternalURLParam != "" {
		if parsed, err := url.Parse(resolved); err == nil {
			if target := parsed.Query().Get(d.Detail.ExternalURLParam); target != "" {
				return target, true
			}
		}
	}

	return resolved, true
}
