// Package dedup removes duplicate project rows. Sites re-list the same
// project with new URLs, and aggregators mirror each other's postings, so a
// scan is followed by a dedup pass over the whole table.
package dedup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/project-scout/internal/db"
)

// Removal reasons, recorded per removed row.
const (
	ReasonSiteProjectID = "same site project id"
	ReasonURL           = "same url"
	ReasonTitleTenderer = "same title and tenderer"
	ReasonTitlePlace    = "same title, location and start date"
)

// Removal explains one removed row: the rule that matched and the surviving
// row it duplicates.
type Removal struct {
	Reason string `json:"reason"`
	KeptID int64  `json:"keptId"`
}

// Plan is the outcome of a dedup computation, before it is applied.
type Plan struct {
	// RemoveIDs lists the rows to delete, in input order.
	RemoveIDs []int64
	// Reasons maps each removed ID to its removal record.
	Reasons map[int64]Removal
	// SortOrders maps each surviving ID to its zero-based rank, newest
	// release date first.
	SortOrders map[int64]int
}

// Summary reports what a dedup run did.
type Summary struct {
	Examined int `json:"examined"`
	Removed  int `json:"removed"`
	Kept     int `json:"kept"`
}

// Compute builds a dedup plan for projects ordered newest release date
// first. The newest copy of every duplicate group survives; later rows are
// removed when any identity rule matches an already-kept row.
func Compute(projects []*db.Project) *Plan {
	plan := &Plan{
		Reasons:    make(map[int64]Removal),
		SortOrders: make(map[int64]int),
	}

	// Each index maps an identity key to the ID of the row that claimed it.
	bySiteProjectID := make(map[string]int64)
	byURL := make(map[string]int64)
	byTitleTenderer := make(map[string]int64)
	byTitlePlace := make(map[string]int64)

	rank := 0
	for _, p := range projects {
		if removal, ok := match(p, bySiteProjectID, byURL, byTitleTenderer, byTitlePlace); ok {
			plan.RemoveIDs = append(plan.RemoveIDs, p.ID)
			plan.Reasons[p.ID] = removal
			continue
		}

		if key := siteProjectKey(p); key != "" {
			bySiteProjectID[key] = p.ID
		}
		if key := norm(p.URL); key != "" {
			byURL[key] = p.ID
		}
		if key := titleTendererKey(p); key != "" {
			byTitleTenderer[key] = p.ID
		}
		if key := titlePlaceKey(p); key != "" {
			byTitlePlace[key] = p.ID
		}

		plan.SortOrders[p.ID] = rank
		rank++
	}

	return plan
}

func match(p *db.Project, bySiteProjectID, byURL, byTitleTenderer, byTitlePlace map[string]int64) (Removal, bool) {
	if key := siteProjectKey(p); key != "" {
		if kept, ok := bySiteProjectID[key]; ok {
			return Removal{Reason: ReasonSiteProjectID, KeptID: kept}, true
		}
	}
	if key := norm(p.URL); key != "" {
		if kept, ok := byURL[key]; ok {
			return Removal{Reason: ReasonURL, KeptID: kept}, true
		}
	}
	if key := titleTendererKey(p); key != "" {
		if kept, ok := byTitleTenderer[key]; ok {
			return Removal{Reason: ReasonTitleTenderer, KeptID: kept}, true
		}
	}
	if key := titlePlaceKey(p); key != "" {
		if kept, ok := byTitlePlace[key]; ok {
			return Removal{Reason: ReasonTitlePlace, KeptID: kept}, true
		}
	}
	return Removal{}, false
}

// norm maps an identity field to its comparison form. Sites pad extracted
// fields with stray whitespace, so every key is trimmed before comparison.
func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// siteProjectKey identifies a project by the ID its site assigned it. The
// key is deliberately not scoped per site: aggregators mirror each other's
// postings under the original ID, so the same ID on two sites is the same
// project.
func siteProjectKey(p *db.Project) string {
	return strings.TrimSpace(p.SiteProjectID)
}

func titleTendererKey(p *db.Project) string {
	title, tenderer := norm(p.Title), norm(p.Tenderer)
	if title == "" || tenderer == "" {
		return ""
	}
	return title + "\x00" + tenderer
}

func titlePlaceKey(p *db.Project) string {
	title, location, start := norm(p.Title), norm(p.Location), strings.TrimSpace(p.StartDate)
	if title == "" || location == "" || start == "" {
		return ""
	}
	return title + "\x00" + location + "\x00" + start
}

// Store is the persistence surface the engine needs.
type Store interface {
	ListProjectsByDateDesc(ctx context.Context) ([]*db.Project, error)
	ApplyDedup(ctx context.Context, removeIDs []int64, sortOrders map[int64]int) error
}

// Engine loads the project table, computes a plan, and applies it in one
// transaction.
type Engine struct {
	store Store
	log   *zap.Logger
}

// NewEngine creates a dedup engine.
func NewEngine(store Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// Run deduplicates the stored projects. Running it twice in a row removes
// nothing the second time.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	projects, err := e.store.ListProjectsByDateDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	plan := Compute(projects)
	if err := e.store.ApplyDedup(ctx, plan.RemoveIDs, plan.SortOrders); err != nil {
		return nil, fmt.Errorf("failed to apply dedup plan: %w", err)
	}

	summary := &Summary{
		Examined: len(projects),
		Removed:  len(plan.RemoveIDs),
		Kept:     len(plan.SortOrders),
	}
	for id, removal := range plan.Reasons {
		e.log.Debug("removed duplicate",
			zap.Int64("project_id", id),
			zap.String("reason", removal.Reason),
			zap.Int64("kept_id", removal.KeptID))
	}
	e.log.Info("dedup complete",
		zap.Int("examined", summary.Examined),
		zap.Int("removed", summary.Removed))
	return summary, nil
}
