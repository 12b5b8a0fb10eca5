// Package sites defines the static per-site descriptors that drive scanning.
// A descriptor is loaded and validated once at startup and never mutated.
package sites

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/go-playground/validator/v10"
)

// DefaultLoadMoreCap bounds load-more clicks per site when the descriptor does
// not override it. Load-more controls can stay visible after the site is
// exhausted, so the entry-count comparison plus this cap are the only
// termination signals.
const DefaultLoadMoreCap = 50

// FieldRule extracts one listing-card field. Selector may be shared between
// fields; Label disambiguates by matching an adjacent label text node. When a
// label is configured but none matches, the field stays unset.
type FieldRule struct {
	Selector string `json:"selector"`
	Label    string `json:"label,omitempty"`
}

// CardFields holds the extraction rules for the cheap listing-page fields.
type CardFields struct {
	Title         FieldRule `json:"title" validate:"required"`
	URL           FieldRule `json:"url" validate:"required"`
	SiteProjectID FieldRule `json:"site_project_id"`
	Location      FieldRule `json:"location"`
	Duration      FieldRule `json:"duration"`
	StartDate     FieldRule `json:"start_date"`
	ReleaseDate   FieldRule `json:"release_date"`
	Industry      FieldRule `json:"industry"`
	Tenderer      FieldRule `json:"tenderer"`
}

// Defaults provides static fallback values for fields a site never exposes on
// its cards.
type Defaults struct {
	Tenderer string `json:"tenderer,omitempty"`
	Rate     string `json:"rate,omitempty"`
}

// Detail configures the detail-page step. Some aggregator sites link out to
// the real listing; ExternalURLSelector/Param describe that indirection.
type Detail struct {
	ExternalURLSelector string `json:"external_url_selector,omitempty"`
	ExternalURLParam    string `json:"external_url_param,omitempty"`
}

// Descriptor describes one listing source.
type Descriptor struct {
	Name         string `json:"name" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
	ListSelector string `json:"list_selector" validate:"required"`
	CardSelector string `json:"card_selector" validate:"required"`

	// Exactly one pagination style, or neither for single-page sites.
	NextPageSelector string `json:"next_page_selector,omitempty"`
	LoadMoreCap      int    `json:"load_more_cap,omitempty" validate:"gte=0"`

	// Cards carrying either marker bypass the date-based termination rules.
	PinnedClass         string `json:"pinned_class,omitempty"`
	PinnedBadgeSelector string `json:"pinned_badge_selector,omitempty"`

	Fields   CardFields `json:"fields"`
	Defaults Defaults   `json:"defaults"`
	Detail   Detail     `json:"detail"`
}

// PaginationDisabled reports whether the descriptor declares a single-page
// site ("N/A" is the historical sentinel kept for existing configs).
func (d *Descriptor) PaginationDisabled() bool {
	return d.NextPageSelector == "" || d.NextPageSelector == "N/A"
}

// MaxLoadMoreAttempts returns the per-site load-more cap.
func (d *Descriptor) MaxLoadMoreAttempts() int {
	if d.LoadMoreCap > 0 {
		return d.LoadMoreCap
	}
	return DefaultLoadMoreCap
}

// ResolveURL resolves a possibly relative href against the site's base URL.
func (d *Descriptor) ResolveURL(href string) (string, error) {
	base, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", d.URL, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads descriptors from a JSON file and validates each one. Validation
// happens here, once, so the orchestrator can trust every descriptor field.
func Load(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates descriptors from JSON.
func Parse(data []byte) ([]Descriptor, error) {
	var wrapper struct {
		Sites []Descriptor `json:"sites"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse sites JSON: %w", err)
	}
	if len(wrapper.Sites) == 0 {
		return nil, fmt.Errorf("no sites configured")
	}
	for i := range wrapper.Sites {
		d := &wrapper.Sites[i]
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("site %q invalid: %w", d.Name, err)
		}
		if _, err := url.Parse(d.URL); err != nil {
			return nil, fmt.Errorf("site %q has invalid URL: %w", d.Name, err)
		}
	}
	return wrapper.Sites, nil
}
