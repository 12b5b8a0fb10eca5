package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/project-scout/internal/dates"
	"github.com/jonathan/project-scout/internal/types"
)

func TestConsolidate_ScalarsPreferDetail(t *testing.T) {
	card := &types.ProjectFields{
		Title:       "Go Dev",
		ReleaseDate: "12.03.2026",
		Location:    "Berlin",
		Tenderer:    "listed by site",
		URL:         "https://example.com/p/1",
		StartDate:   "01.04.2026",
	}
	detail := &types.ProjectFields{
		Title:       "Senior Go Developer (m/f/d)",
		Description: "Long description",
		Tenderer:    "Acme GmbH",
	}

	merged := Consolidate(card, detail)

	assert.Equal(t, "Senior Go Developer (m/f/d)", merged.Title)
	assert.Equal(t, "Long description", merged.Description)
	assert.Equal(t, "Acme GmbH", merged.Tenderer)
	assert.Equal(t, "12.03.2026", merged.ReleaseDate, "empty detail value keeps card value")
	assert.Equal(t, "Berlin", merged.Location)
	assert.Equal(t, "https://example.com/p/1", merged.URL, "URL comes from the card")
}

func TestConsolidate_RequirementCountsSum(t *testing.T) {
	card := &types.ProjectFields{
		StartDate:      "01.04.2026",
		RequirementsTF: map[string]int{"python": 2},
	}
	detail := &types.ProjectFields{
		RequirementsTF: map[string]int{"python": 1, "sql": 1},
	}

	merged := Consolidate(card, detail)
	assert.Equal(t, map[string]int{"python": 3, "sql": 1}, merged.RequirementsTF)
}

func TestConsolidate_StartDateFallback(t *testing.T) {
	for _, placeholder := range []string{"", "N/A", "Invalid Date"} {
		t.Run("placeholder "+placeholder, func(t *testing.T) {
			merged := Consolidate(
				&types.ProjectFields{StartDate: placeholder},
				&types.ProjectFields{},
			)
			assert.Equal(t, dates.Today(), merged.StartDate)
		})
	}

	merged := Consolidate(
		&types.ProjectFields{StartDate: "15.05.2026"},
		&types.ProjectFields{},
	)
	assert.Equal(t, "15.05.2026", merged.StartDate, "real start dates survive")
}

func TestConsolidate_DoesNotMutateInputs(t *testing.T) {
	card := &types.ProjectFields{RequirementsTF: map[string]int{"go": 1}, StartDate: "01.01.2026"}
	detail := &types.ProjectFields{RequirementsTF: map[string]int{"go": 2}}

	_ = Consolidate(card, detail)
	assert.Equal(t, 1, card.RequirementsTF["go"])
	assert.Equal(t, 2, detail.RequirementsTF["go"])
}
