package scan

import (
	"github.com/jonathan/project-scout/internal/dates"
	"github.com/jonathan/project-scout/internal/types"
)

// Consolidate merges the fields scraped from a listing card with the fields
// extracted from the detail page. Scalar fields prefer the detail value when
// it is non-empty; requirement counts from both sources are summed so a
// skill badge on the card and mentions in the description both contribute.
func Consolidate(card, detail *types.ProjectFields) *types.ProjectFields {
	merged := *card

	merged.Title = pick(card.Title, detail.Title)
	merged.Description = pick(card.Description, detail.Description)
	merged.ReleaseDate = pick(card.ReleaseDate, detail.ReleaseDate)
	merged.StartDate = pick(card.StartDate, detail.StartDate)
	merged.Location = pick(card.Location, detail.Location)
	merged.Tenderer = pick(card.Tenderer, detail.Tenderer)
	merged.SiteProjectID = pick(card.SiteProjectID, detail.SiteProjectID)
	merged.Rate = pick(card.Rate, detail.Rate)
	merged.Budget = pick(card.Budget, detail.Budget)
	merged.Duration = pick(card.Duration, detail.Duration)
	merged.Workload = pick(card.Workload, detail.Workload)

	merged.RequirementsTF = make(map[string]int, len(card.RequirementsTF)+len(detail.RequirementsTF))
	for skill, count := range card.RequirementsTF {
		merged.RequirementsTF[skill] += count
	}
	for skill, count := range detail.RequirementsTF {
		merged.RequirementsTF[skill] += count
	}

	if unusableDate(merged.StartDate) {
		merged.StartDate = dates.Today()
	}

	return &merged
}

// pick prefers the detail value over the card value when it is usable.
func pick(card, detail string) string {
	if detail != "" && detail != card {
		return detail
	}
	return card
}

// unusableDate reports whether a start date needs the today fallback. Sites
// render missing dates as empty strings or placeholder text.
func unusableDate(s string) bool {
	switch s {
	case "", "N/A", "Invalid Date":
		return true
	}
	return false
}
