// Package tfidf maintains the skill relevance index. Term frequencies live
// on each project row; this package computes the corpus-wide inverse
// document frequencies.
package tfidf

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jonathan/project-scout/internal/db"
)

// Compute derives idf values from the current project corpus. For each skill
// occurring in at least one project, idf = ln(totalDocs / docFreq), where
// totalDocs counts only projects that carry requirements at all: a project
// whose extraction produced nothing says nothing about skill rarity. Skills
// absent from the corpus are not in the result; their stored values stay
// untouched so a shrinking corpus does not erase history.
func Compute(projects []*db.Project) map[string]float64 {
	total := 0
	docFreq := make(map[string]int)
	for _, p := range projects {
		counted := false
		for skill, count := range p.RequirementsTF {
			if count > 0 {
				docFreq[skill]++
				counted = true
			}
		}
		if counted {
			total++
		}
	}
	if total == 0 {
		return map[string]float64{}
	}

	idfs := make(map[string]float64, len(docFreq))
	for skill, freq := range docFreq {
		idfs[skill] = math.Log(float64(total) / float64(freq))
	}
	return idfs
}

// Store is the persistence surface the index needs.
type Store interface {
	ListProjects(ctx context.Context) ([]*db.Project, error)
	UpsertSkillIDFs(ctx context.Context, idfs map[string]float64) error
}

// Index recomputes and persists skill idf values.
type Index struct {
	store Store
	log   *zap.Logger
}

// NewIndex creates a relevance index over the given store.
func NewIndex(store Store, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{store: store, log: log}
}

// Rebuild recomputes idf values from the stored projects and writes them.
// Returns the number of skills updated.
func (i *Index) Rebuild(ctx context.Context) (int, error) {
	projects, err := i.store.ListProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load projects: %w", err)
	}

	idfs := Compute(projects)
	if err := i.store.UpsertSkillIDFs(ctx, idfs); err != nil {
		return 0, fmt.Errorf("failed to store idf values: %w", err)
	}

	i.log.Info("relevance index rebuilt",
		zap.Int("projects", len(projects)),
		zap.Int("skills", len(idfs)))
	return len(idfs), nil
}
