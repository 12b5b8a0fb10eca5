// Package scrape extracts listing cards and their cheap fields from rendered
// listing pages, driven entirely by the site descriptor's selector rules.
package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/project-scout/internal/sites"
	"github.com/jonathan/project-scout/internal/types"
)

// Card is one listing entry on the current page.
type Card struct {
	sel *goquery.Selection
}

// Cards parses the listing HTML and returns the cards inside the configured
// list container.
func Cards(html string, d *sites.Descriptor) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Site: d.Name, Message: "failed to parse listing HTML", Cause: err}
	}
	grid := doc.Find(d.ListSelector).First()
	if grid.Length() == 0 {
		return nil, &ParseError{Site: d.Name, Message: "list selector matched nothing: " + d.ListSelector}
	}
	var cards []Card
	grid.Find(d.CardSelector).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, Card{sel: s})
	})
	return cards, nil
}

// Pinned reports whether the site flags this card as promoted.
func (c Card) Pinned(d *sites.Descriptor) bool {
	if d.PinnedClass != "" && c.sel.HasClass(d.PinnedClass) {
		return true
	}
	if d.PinnedBadgeSelector != "" && c.sel.Find(d.PinnedBadgeSelector).Length() > 0 {
		return true
	}
	return false
}

// Fields extracts the cheap listing-card fields per the descriptor rules.
// The URL is resolved against the site base; fields whose configured label
// matches no adjacent label node stay unset rather than guessing.
func (c Card) Fields(d *sites.Descriptor) types.ProjectFields {
	f := types.ProjectFields{Pinned: c.Pinned(d)}

	if d.Fields.Title.Selector != "" {
		f.Title = text(c.sel.Find(d.Fields.Title.Selector).First())
	}
	if d.Fields.URL.Selector != "" {
		if href, ok := c.sel.Find(d.Fields.URL.Selector).First().Attr("href"); ok {
			if resolved, err := d.ResolveURL(strings.TrimSpace(href)); err == nil {
				f.URL = resolved
			}
		}
	}

	f.SiteProjectID = c.labeled(d.Fields.SiteProjectID)
	f.Duration = c.labeled(d.Fields.Duration)
	f.StartDate = c.labeled(d.Fields.StartDate)
	f.Tenderer = c.labeled(d.Fields.Tenderer)
	f.ReleaseDate = c.releaseDate(d.Fields.ReleaseDate)
	f.Location = c.location(d.Fields.Location)

	if keywords := c.industry(d.Fields.Industry); len(keywords) > 0 {
		tf := make(map[string]int, len(keywords))
		for _, kw := range keywords {
			tf[kw]++
		}
		f.RequirementsTF = tf
	}

	if f.Tenderer == "" {
		f.Tenderer = d.Defaults.Tenderer
	}
	if d.Defaults.Rate != "" {
		f.Rate = d.Defaults.Rate
	}
	return f
}

// labeled extracts a field whose selector may be shared between fields.
// With a label configured, only the element whose parent carries a matching
// label node is taken; without one, the first match wins.
func (c Card) labeled(rule sites.FieldRule) string {
	if rule.Selector == "" {
		return ""
	}
	if rule.Label == "" {
		return text(c.sel.Find(rule.Selector).First())
	}
	var out string
	c.sel.Find(rule.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := s.Parent().Find("small").First()
		if label.Length() > 0 && text(label) == rule.Label {
			out = text(s)
			return false
		}
		return true
	})
	return out
}

// releaseDate handles the inline "label: date" pattern some sites use: when
// the element text starts with the label, only the remainder is the date.
func (c Card) releaseDate(rule sites.FieldRule) string {
	if rule.Selector == "" {
		return ""
	}
	if rule.Label != "" {
		if v := c.labeled(rule); v != "" {
			return v
		}
	}
	raw := text(c.sel.Find(rule.Selector).First())
	if rule.Label != "" && strings.HasPrefix(raw, rule.Label) {
		return strings.TrimSpace(strings.TrimPrefix(raw, rule.Label))
	}
	return raw
}

// location joins the element's text nodes, dropping separator glyphs nested
// markup tends to leave behind.
func (c Card) location(rule sites.FieldRule) string {
	if rule.Selector == "" {
		return ""
	}
	el := c.sel.Find(rule.Selector).First()
	if el.Length() == 0 {
		return ""
	}
	var parts []string
	for _, part := range strings.Fields(el.Text()) {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "‐") {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

// industry collects tag/keyword chips, skipping "+N more" style overflow
// entries.
func (c Card) industry(rule sites.FieldRule) []string {
	if rule.Selector == "" {
		return nil
	}
	var keywords []string
	c.sel.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
		kw := text(s)
		if kw != "" && !strings.HasPrefix(kw, "+") {
			keywords = append(keywords, kw)
		}
	})
	return keywords
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
