package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/project-scout/internal/sites"
)

// ControlKind classifies the descriptor's "next" control. The pagination
// style is decided by inspecting the rendered element, not hardcoded per
// site: a link navigates to a fresh page, a button appends to the current
// one.
type ControlKind int

const (
	ControlNone ControlKind = iota
	ControlLink
	ControlButton
)

// NextControl inspects the listing HTML for the descriptor's next-page
// control. For ControlLink the returned string is the href resolved against
// the site base.
func NextControl(html string, d *sites.Descriptor) (ControlKind, string, error) {
	if d.PaginationDisabled() {
		return ControlNone, "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ControlNone, "", &ParseError{Site: d.Name, Message: "failed to parse listing HTML", Cause: err}
	}
	el := doc.Find(d.NextPageSelector).First()
	if el.Length() == 0 {
		return ControlNone, "", nil
	}
	if goquery.NodeName(el) == "button" {
		return ControlButton, "", nil
	}
	href, ok := el.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ControlNone, "", nil
	}
	resolved, err := d.ResolveURL(strings.TrimSpace(href))
	if err != nil {
		return ControlNone, "", err
	}
	return ControlLink, resolved, nil
}

// CountCards returns the number of cards currently in the list container.
// Used to detect load-more exhaustion: an unchanged count after a click is
// the only reliable signal, since the control may stay visible indefinitely.
func CountCards(html string, d *sites.Descriptor) int {
	cards, err := Cards(html, d)
	if err != nil {
		return 0
	}
	return len(cards)
}
