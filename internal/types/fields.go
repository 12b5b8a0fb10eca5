// Package types provides type definitions for structured data used throughout the project-scout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ProjectFields is a partial project record. The cheap listing-card pass and
// the detail-page extractor each produce one; the consolidator merges them.
// Any field may be empty.
type ProjectFields struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	ReleaseDate   string `json:"release_date,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	Location      string `json:"location,omitempty"`
	Tenderer      string `json:"tenderer,omitempty"`
	SiteProjectID string `json:"site_project_id,omitempty"`
	Rate          string `json:"rate,omitempty"`
	URL           string `json:"url,omitempty"`
	Budget        string `json:"budget,omitempty"`
	Duration      string `json:"duration,omitempty"`
	Workload      string `json:"workload,omitempty"`

	// RequirementsTF maps a requirement to its raw occurrence count on the
	// source page(s). The key set is the project's requirement list.
	RequirementsTF map[string]int `json:"requirements,omitempty"`

	// Pinned marks a card the site flags as promoted. Only set by the
	// listing-card pass.
	Pinned bool `json:"-"`
}

// Requirements returns the requirement names without counts.
func (f *ProjectFields) Requirements() []string {
	if len(f.RequirementsTF) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.RequirementsTF))
	for skill := range f.RequirementsTF {
		out = append(out, skill)
	}
	return out
}
