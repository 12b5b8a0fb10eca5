package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/project-scout/internal/db"
)

func project(id int64, mutate func(*db.Project)) *db.Project {
	p := &db.Project{
		ID:        id,
		SiteName:  "site-a",
		Title:     "Go Developer",
		Tenderer:  "Acme",
		Location:  "Berlin",
		StartDate: "01.04.2026",
		URL:       "https://site-a.example.com/p/" + string(rune('0'+id)),
	}
	if mutate != nil {
		mutate(p)
	}
	return p
}

func TestCompute_SiteProjectIDRule(t *testing.T) {
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.SiteProjectID = "4711"; p.Title = "Newest copy" }),
		project(2, func(p *db.Project) { p.SiteProjectID = "4711"; p.Title = "Older copy"; p.Tenderer = "Other" }),
	})

	assert.Equal(t, []int64{2}, plan.RemoveIDs)
	assert.Equal(t, Removal{Reason: ReasonSiteProjectID, KeptID: 1}, plan.Reasons[2])
}

func TestCompute_SiteProjectIDMatchesAcrossSites(t *testing.T) {
	// Aggregators mirror postings under the original site's ID, including
	// sloppy whitespace.
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.SiteProjectID = "P-100"; p.Title = "A"; p.Tenderer = "X" }),
		project(2, func(p *db.Project) {
			p.SiteProjectID = " P-100 "
			p.SiteName = "site-b"
			p.Title = "B"
			p.Tenderer = "Y"
		}),
	})

	assert.Equal(t, []int64{2}, plan.RemoveIDs)
	assert.Equal(t, Removal{Reason: ReasonSiteProjectID, KeptID: 1}, plan.Reasons[2])
}

func TestCompute_URLRule(t *testing.T) {
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.URL = "https://x.example.com/p/1"; p.Title = "A"; p.Tenderer = "X" }),
		project(2, func(p *db.Project) { p.URL = "https://x.example.com/p/1"; p.Title = "B"; p.Tenderer = "Y" }),
	})

	assert.Equal(t, []int64{2}, plan.RemoveIDs)
	assert.Equal(t, Removal{Reason: ReasonURL, KeptID: 1}, plan.Reasons[2])
}

func TestCompute_TitleTendererCaseInsensitive(t *testing.T) {
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.Title = "GO Developer"; p.Tenderer = "ACME" }),
		project(2, func(p *db.Project) { p.Title = "go developer "; p.Tenderer = " acme" }),
	})

	assert.Equal(t, []int64{2}, plan.RemoveIDs)
	assert.Equal(t, Removal{Reason: ReasonTitleTenderer, KeptID: 1}, plan.Reasons[2])
}

func TestCompute_TitleLocationStartDateRule(t *testing.T) {
	plan := Compute([]*db.Project{
		// Different tenderers (one is an agency relay) but identical title,
		// location, and start date.
		project(1, func(p *db.Project) { p.Tenderer = "Agency A" }),
		project(2, func(p *db.Project) { p.Tenderer = "Agency B" }),
	})

	assert.Equal(t, []int64{2}, plan.RemoveIDs)
	assert.Equal(t, Removal{Reason: ReasonTitlePlace, KeptID: 1}, plan.Reasons[2])
}

func TestCompute_EmptyFieldsNeverMatch(t *testing.T) {
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.SiteProjectID = ""; p.Tenderer = ""; p.Location = ""; p.Title = "A" }),
		project(2, func(p *db.Project) { p.SiteProjectID = ""; p.Tenderer = ""; p.Location = ""; p.Title = "B" }),
	})

	assert.Empty(t, plan.RemoveIDs)
}

func TestCompute_NewestCopySurvives(t *testing.T) {
	// Input is ordered newest first; the first occurrence is kept.
	plan := Compute([]*db.Project{
		project(10, func(p *db.Project) { p.ReleaseDate = "20.08.2026" }),
		project(11, func(p *db.Project) { p.ReleaseDate = "10.08.2026" }),
	})

	assert.Equal(t, []int64{11}, plan.RemoveIDs)
	_, kept := plan.SortOrders[10]
	assert.True(t, kept)
}

func TestCompute_SortOrdersAreDense(t *testing.T) {
	plan := Compute([]*db.Project{
		project(1, func(p *db.Project) { p.Title = "A"; p.Tenderer = "X"; p.Location = "L1" }),
		project(2, nil),
		project(3, nil), // duplicate of 2
		project(4, func(p *db.Project) { p.Title = "C"; p.Tenderer = "Z"; p.Location = "L3" }),
	})

	assert.Equal(t, []int64{3}, plan.RemoveIDs)
	assert.Equal(t, map[int64]int{1: 0, 2: 1, 4: 2}, plan.SortOrders)
}

type fakeStore struct {
	projects   []*db.Project
	removedIDs []int64
	sortOrders map[int64]int
}

func (s *fakeStore) ListProjectsByDateDesc(ctx context.Context) ([]*db.Project, error) {
	return s.projects, nil
}

func (s *fakeStore) ApplyDedup(ctx context.Context, removeIDs []int64, sortOrders map[int64]int) error {
	s.removedIDs = removeIDs
	s.sortOrders = sortOrders

	removed := make(map[int64]struct{}, len(removeIDs))
	for _, id := range removeIDs {
		removed[id] = struct{}{}
	}
	var kept []*db.Project
	for _, p := range s.projects {
		if _, gone := removed[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	s.projects = kept
	return nil
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	store := &fakeStore{projects: []*db.Project{
		project(1, nil),
		project(2, nil),
		project(3, func(p *db.Project) { p.Title = "Unique"; p.Tenderer = "Q"; p.Location = "L9" }),
	}}
	engine := NewEngine(store, nil)

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Examined)
	assert.Equal(t, 1, first.Removed)
	assert.Equal(t, 2, first.Kept)

	second, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Examined)
	assert.Zero(t, second.Removed)
}
