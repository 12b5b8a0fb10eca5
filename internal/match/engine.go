// Package match scores employee profiles against project requirements: an
// exact/synonym cascade first, embeddings for the remainder, tf-idf weights
// throughout.
package match

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/project-scout/internal/db"
)

// DefaultThreshold is the minimum embedding similarity that still counts as
// a match.
const DefaultThreshold = 0.9

// DefaultTopMissing bounds the missing-skill summary.
const DefaultTopMissing = 10

// Scores for the non-embedding cascade stages.
const (
	exactScore   = 1.0
	synonymScore = 0.95
)

// warmupConcurrency bounds parallel embedding requests during cache warm-up.
const warmupConcurrency = 4

// Embedder computes text embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Store is the persistence surface the engine needs: idf weights and the
// skill embedding cache.
type Store interface {
	GetSkillIDFs(ctx context.Context) (map[string]float64, error)
	GetSkillEmbedding(ctx context.Context, name string) ([]float64, bool, error)
	SaveSkillEmbedding(ctx context.Context, name string, embedding []float64) error
}

// MatchKind tells how a requirement was satisfied.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSynonym   MatchKind = "synonym"
	MatchEmbedding MatchKind = "embedding"
	MatchMissing   MatchKind = "missing"
)

// SkillMatch is the per-requirement outcome. Requirement keeps the project's
// own spelling; comparisons run on the normalized form.
type SkillMatch struct {
	Requirement  string    `json:"requirement"`
	TF           int       `json:"tf"`
	IDF          float64   `json:"idf"`
	Weight       float64   `json:"weight"`
	Kind         MatchKind `json:"kind"`
	MatchedSkill string    `json:"matchedSkill,omitempty"`
	Score        float64   `json:"score"`
	Contribution float64   `json:"contribution"`
}

// Result is one employee scored against one project.
type Result struct {
	ProjectID  int64        `json:"projectId"`
	EmployeeID int64        `json:"employeeId"`
	Percentage float64      `json:"percentage"`
	Matches    []SkillMatch `json:"matches"`
	// TopMissing lists the heaviest unmatched requirements.
	TopMissing []string `json:"topMissing"`
	// Degraded is set when the embedding stage was unavailable and only the
	// exact/synonym cascade ran.
	Degraded bool `json:"degraded"`
}

// CorpusResult ranks one employee against the whole project corpus.
type CorpusResult struct {
	EmployeeID int64     `json:"employeeId"`
	Results    []*Result `json:"results"`
	// TopMissing lists the requirements missed most often across all
	// evaluated projects.
	TopMissing []string `json:"topMissing"`
	Degraded   bool     `json:"degraded"`
}

// Options configures a matching engine.
type Options struct {
	Threshold     float64
	DistanceModel string
	TopMissing    int
}

// Engine scores employees against projects.
type Engine struct {
	store    Store
	embedder Embedder
	opts     Options
	log      *zap.Logger
}

// NewEngine creates a matching engine. embedder may be nil; the engine then
// runs degraded with only the exact/synonym cascade.
func NewEngine(store Store, embedder Embedder, opts Options, log *zap.Logger) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.DistanceModel == "" {
		opts.DistanceModel = ModelEuclidean
	}
	if opts.TopMissing <= 0 {
		opts.TopMissing = DefaultTopMissing
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, embedder: embedder, opts: opts, log: log}
}

// Match scores one employee against one project's requirements.
func (e *Engine) Match(ctx context.Context, project *db.Project, employee *db.Employee) (*Result, error) {
	idfs, err := e.store.GetSkillIDFs(ctx)
	if err != nil {
		return nil, err
	}
	return e.score(ctx, project, employee, idfs), nil
}

// MatchAll scores one employee against every given project and ranks the
// results by match percentage, highest first. The corpus-wide missing-skill
// summary holds the requirements that went unmatched most often.
func (e *Engine) MatchAll(ctx context.Context, projects []*db.Project, employee *db.Employee) (*CorpusResult, error) {
	idfs, err := e.store.GetSkillIDFs(ctx)
	if err != nil {
		return nil, err
	}

	corpus := &CorpusResult{
		EmployeeID: employee.ID,
		Results:    make([]*Result, 0, len(projects)),
	}

	missingCounts := make(map[string]int)
	missingLabels := make(map[string]string)
	var missingOrder []string

	for _, project := range projects {
		result := e.score(ctx, project, employee, idfs)
		corpus.Results = append(corpus.Results, result)
		if result.Degraded {
			corpus.Degraded = true
		}
		for _, m := range result.Matches {
			if m.Kind != MatchMissing {
				continue
			}
			key := normalize(m.Requirement)
			if _, ok := missingCounts[key]; !ok {
				missingLabels[key] = m.Requirement
				missingOrder = append(missingOrder, key)
			}
			missingCounts[key]++
		}
	}

	sort.SliceStable(corpus.Results, func(i, j int) bool {
		return corpus.Results[i].Percentage > corpus.Results[j].Percentage
	})

	sort.SliceStable(missingOrder, func(i, j int) bool {
		return missingCounts[missingOrder[i]] > missingCounts[missingOrder[j]]
	})
	if len(missingOrder) > e.opts.TopMissing {
		missingOrder = missingOrder[:e.opts.TopMissing]
	}
	for _, key := range missingOrder {
		corpus.TopMissing = append(corpus.TopMissing, missingLabels[key])
	}
	return corpus, nil
}

// score runs the cascade over every requirement of one project.
func (e *Engine) score(ctx context.Context, project *db.Project, employee *db.Employee, idfs map[string]float64) *Result {
	skills := normalizedSkills(employee.Skills)

	result := &Result{
		ProjectID:  project.ID,
		EmployeeID: employee.ID,
		Degraded:   e.embedder == nil,
	}

	var totalWeight, totalContribution float64
	seen := make(map[string]struct{}, len(project.RequirementsTF))

	for _, requirement := range sortedRequirements(project.RequirementsTF) {
		tf := project.RequirementsTF[requirement]
		req := normalize(requirement)
		if _, ok := seen[req]; ok {
			continue
		}
		seen[req] = struct{}{}
		weight := float64(tf) * idfs[req]

		m := SkillMatch{
			Requirement: requirement,
			TF:          tf,
			IDF:         idfs[req],
			Weight:      weight,
			Kind:        MatchMissing,
		}

		e.cascade(ctx, &m, req, skills, result)

		switch m.Kind {
		case MatchMissing:
		case MatchEmbedding:
			// The similarity gates the match; once past the threshold the
			// requirement counts in full.
			m.Contribution = weight
		default:
			m.Contribution = weight * m.Score
		}

		totalWeight += weight
		totalContribution += m.Contribution
		result.Matches = append(result.Matches, m)
	}

	if totalWeight > 0 {
		result.Percentage = 100 * totalContribution / totalWeight
	}
	result.TopMissing = topMissing(result.Matches, e.opts.TopMissing)
	return result
}

// normalizedSkills maps a skill list to comparison form, dropping duplicates
// while keeping the first occurrence's position.
func normalizedSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		n := normalize(skill)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// cascade resolves one requirement: exact, then synonym, then (for hard
// skills) embedding similarity. An exception pair cancels a match at any
// stage.
func (e *Engine) cascade(ctx context.Context, m *SkillMatch, req string, skills []string, result *Result) {
	for _, skill := range skills {
		if skill == req {
			m.Kind = MatchExact
			m.MatchedSkill = skill
			m.Score = exactScore
			return
		}
	}

	for _, skill := range skills {
		if Synonyms(req, skill) {
			if Exception(req, skill) {
				continue
			}
			m.Kind = MatchSynonym
			m.MatchedSkill = skill
			m.Score = synonymScore
			return
		}
	}

	// Soft skills stop here: their embeddings cluster too tightly to mean
	// anything.
	if SoftSkill(req) {
		return
	}
	if e.embedder == nil {
		return
	}

	reqVec, err := e.embedding(ctx, req)
	if err != nil {
		e.log.Warn("embedding unavailable, degrading", zap.String("skill", req), zap.Error(err))
		result.Degraded = true
		return
	}

	bestScore := 0.0
	bestSkill := ""
	for _, skill := range skills {
		if Exception(req, skill) || SoftSkill(skill) {
			continue
		}
		skillVec, err := e.embedding(ctx, skill)
		if err != nil {
			e.log.Warn("embedding unavailable, degrading", zap.String("skill", skill), zap.Error(err))
			result.Degraded = true
			continue
		}
		if score := Similarity(e.opts.DistanceModel, reqVec, skillVec); score > bestScore {
			bestScore = score
			bestSkill = skill
		}
	}

	if bestScore >= e.opts.Threshold {
		m.Kind = MatchEmbedding
		m.MatchedSkill = bestSkill
		m.Score = bestScore
	}
}

// embedding returns a skill's vector, preferring the persistent cache.
func (e *Engine) embedding(ctx context.Context, skill string) ([]float64, error) {
	if vec, ok, err := e.store.GetSkillEmbedding(ctx, skill); err == nil && ok {
		return vec, nil
	} else if err != nil {
		return nil, err
	}

	vec, err := e.embedder.Embed(ctx, skill)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveSkillEmbedding(ctx, skill, vec); err != nil {
		e.log.Warn("failed to cache embedding", zap.String("skill", skill), zap.Error(err))
	}
	return vec, nil
}

// WarmUp embeds any uncached skills ahead of matching, a few at a time.
func (e *Engine) WarmUp(ctx context.Context, skills []string) error {
	if e.embedder == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, skill := range skills {
		skill := normalize(skill)
		if SoftSkill(skill) {
			continue
		}
		g.Go(func() error {
			_, err := e.embedding(ctx, skill)
			return err
		})
	}
	return g.Wait()
}

func sortedRequirements(tf map[string]int) []string {
	out := make([]string, 0, len(tf))
	for skill := range tf {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// topMissing returns the heaviest unmatched requirements, at most limit.
func topMissing(matches []SkillMatch, limit int) []string {
	var missing []SkillMatch
	for _, m := range matches {
		if m.Kind == MatchMissing {
			missing = append(missing, m)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Weight > missing[j].Weight
	})
	if len(missing) > limit {
		missing = missing[:limit]
	}
	out := make([]string, len(missing))
	for i, m := range missing {
		out[i] = m.Requirement
	}
	return out
}
