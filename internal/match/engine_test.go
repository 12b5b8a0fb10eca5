package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/project-scout/internal/db"
)

type fakeStore struct {
	mu    sync.Mutex
	idfs  map[string]float64
	cache map[string][]float64
	saved []string
}

func (s *fakeStore) GetSkillIDFs(ctx context.Context) (map[string]float64, error) {
	return s.idfs, nil
}

func (s *fakeStore) GetSkillEmbedding(ctx context.Context, name string) ([]float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vec, ok := s.cache[name]
	return vec, ok, nil
}

func (s *fakeStore) SaveSkillEmbedding(ctx context.Context, name string, embedding []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache == nil {
		s.cache = map[string][]float64{}
	}
	s.cache[name] = embedding
	s.saved = append(s.saved, name)
	return nil
}

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	err     error
	calls   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return nil, fmt.Errorf("no vector for %s", text)
}

func engineWith(store Store, embedder Embedder) *Engine {
	return NewEngine(store, embedder, Options{DistanceModel: ModelCosine}, nil)
}

func TestMatch_ExactAndMissing(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0, "cobol": 2.0}}
	engine := engineWith(store, nil)

	project := &db.Project{ID: 7, RequirementsTF: map[string]int{"go": 2, "cobol": 1}}
	employee := &db.Employee{ID: 3, Skills: []string{"Go"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)

	// weights: go = 2*1.0 = 2, cobol = 1*2.0 = 2; only go matched at 1.0.
	assert.InDelta(t, 50.0, result.Percentage, 1e-9)
	assert.Equal(t, []string{"cobol"}, result.TopMissing)
	assert.Equal(t, int64(7), result.ProjectID)
	assert.Equal(t, int64(3), result.EmployeeID)

	byReq := matchesByRequirement(result)
	assert.Equal(t, MatchExact, byReq["go"].Kind)
	assert.Equal(t, "go", byReq["go"].MatchedSkill)
	assert.Equal(t, MatchMissing, byReq["cobol"].Kind)
	assert.Zero(t, byReq["cobol"].Contribution)
}

func TestMatch_ListedSkillCountsInFull(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0}}
	engine := engineWith(store, nil)

	project := &db.Project{RequirementsTF: map[string]int{"go": 1}}
	employee := &db.Employee{Skills: []string{"go"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.Percentage, 1e-9,
		"an exact skill match contributes its whole weight")
}

func TestMatch_SynonymScoresBelowExact(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"k8s": 1.0}}
	engine := engineWith(store, nil)

	project := &db.Project{RequirementsTF: map[string]int{"k8s": 1}}
	employee := &db.Employee{Skills: []string{"kubernetes"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.InDelta(t, 95.0, result.Percentage, 1e-9)

	byReq := matchesByRequirement(result)
	assert.Equal(t, MatchSynonym, byReq["k8s"].Kind)
	assert.Equal(t, "kubernetes", byReq["k8s"].MatchedSkill)
}

func TestMatch_QuotedRequirementStillMatches(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"python": 1.0}}
	engine := engineWith(store, nil)

	project := &db.Project{RequirementsTF: map[string]int{`"python"`: 1}}
	employee := &db.Employee{Skills: []string{"python"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.Percentage, 1e-9,
		"quote characters around extracted requirements must not block a match")
}

func TestMatch_RequirementKeepsProjectSpelling(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"postgresql": 1.0}}
	engine := engineWith(store, nil)

	project := &db.Project{RequirementsTF: map[string]int{"PostgreSQL": 1}}
	employee := &db.Employee{Skills: []string{"postgresql"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, "PostgreSQL", result.Matches[0].Requirement,
		"the report shows the requirement as the project wrote it")
	assert.Equal(t, MatchExact, result.Matches[0].Kind)
}

func TestMatch_HigherTFCarriesMoreWeight(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0, "sql": 1.0}}
	engine := engineWith(store, nil)

	employee := &db.Employee{Skills: []string{"go"}}

	low, err := engine.Match(context.Background(),
		&db.Project{RequirementsTF: map[string]int{"go": 1, "sql": 3}}, employee)
	require.NoError(t, err)

	high, err := engine.Match(context.Background(),
		&db.Project{RequirementsTF: map[string]int{"go": 3, "sql": 1}}, employee)
	require.NoError(t, err)

	assert.Greater(t, high.Percentage, low.Percentage,
		"matching the frequently-mentioned skill must score higher")
}

func TestMatch_EmbeddingStage(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"fastapi": 1.0}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"fastapi": {1, 0, 0},
		"flask":   {0.99, 0.14, 0}, // cosine ≈ 0.990 with fastapi
		"excel":   {0, 0, 1},
	}}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"fastapi": 1}}
	employee := &db.Employee{Skills: []string{"flask", "excel"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.False(t, result.Degraded)

	byReq := matchesByRequirement(result)
	require.Equal(t, MatchEmbedding, byReq["fastapi"].Kind)
	assert.Equal(t, "flask", byReq["fastapi"].MatchedSkill)
	assert.GreaterOrEqual(t, byReq["fastapi"].Score, 0.9)
}

func TestMatch_EmbeddingAboveThresholdCountsInFull(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"fastapi": 1.0}}
	// cosine ≈ 0.995, above the 0.9 threshold but below 1.
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"fastapi": {1, 0},
		"flask":   {0.995, 0.0999},
	}}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"fastapi": 1}}
	employee := &db.Employee{Skills: []string{"flask"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)

	byReq := matchesByRequirement(result)
	require.Equal(t, MatchEmbedding, byReq["fastapi"].Kind)
	assert.InDelta(t, 100.0, result.Percentage, 1e-9,
		"similarity gates the match; past the threshold the weight counts whole")
	assert.InDelta(t, byReq["fastapi"].Weight, byReq["fastapi"].Contribution, 1e-9)
}

func TestMatch_EmbeddingBelowThresholdIsMissing(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"fastapi": 1.0}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"fastapi": {1, 0, 0},
		"excel":   {0, 0, 1},
	}}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"fastapi": 1}}
	employee := &db.Employee{Skills: []string{"excel"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.Zero(t, result.Percentage)
	assert.Equal(t, []string{"fastapi"}, result.TopMissing)
}

func TestMatch_ExceptionOverridesEmbedding(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"java": 1.0}}
	// Identical vectors: without the exception table this would be a perfect
	// embedding match.
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"java":       {1, 0},
		"javascript": {1, 0},
	}}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"java": 1}}
	employee := &db.Employee{Skills: []string{"javascript"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)

	byReq := matchesByRequirement(result)
	assert.Equal(t, MatchMissing, byReq["java"].Kind)
	assert.Zero(t, result.Percentage)
}

func TestMatch_SoftSkillsNeverEmbed(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"teamwork": 1.0}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{}}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"teamwork": 1}}
	employee := &db.Employee{Skills: []string{"leadership"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)

	byReq := matchesByRequirement(result)
	assert.Equal(t, MatchMissing, byReq["teamwork"].Kind)
	assert.Empty(t, embedder.calls, "soft skills must not reach the embedder")
}

func TestMatch_DegradedWithoutEmbedder(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0, "fastapi": 1.0}}
	engine := engineWith(store, nil)

	project := &db.Project{RequirementsTF: map[string]int{"go": 1, "fastapi": 1}}
	employee := &db.Employee{Skills: []string{"go", "flask"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.InDelta(t, 50.0, result.Percentage, 1e-9, "exact cascade still works")
}

func TestMatch_DegradesOnEmbedderFailure(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"fastapi": 1.0}}
	embedder := &fakeEmbedder{err: errors.New("quota exhausted")}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"fastapi": 1}}
	employee := &db.Employee{Skills: []string{"flask"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestMatch_TopMissingOrderedByWeight(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{
		"a": 1.0, "b": 3.0, "c": 2.0,
	}}
	engine := NewEngine(store, nil, Options{TopMissing: 2}, nil)

	project := &db.Project{RequirementsTF: map[string]int{"a": 1, "b": 1, "c": 1}}
	employee := &db.Employee{Skills: []string{}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, result.TopMissing)
}

func TestMatch_UsesCachedEmbeddings(t *testing.T) {
	store := &fakeStore{
		idfs: map[string]float64{"fastapi": 1.0},
		cache: map[string][]float64{
			"fastapi": {1, 0},
			"flask":   {1, 0},
		},
	}
	embedder := &fakeEmbedder{}
	engine := engineWith(store, embedder)

	project := &db.Project{RequirementsTF: map[string]int{"fastapi": 1}}
	employee := &db.Employee{Skills: []string{"flask"}}

	result, err := engine.Match(context.Background(), project, employee)
	require.NoError(t, err)
	assert.Empty(t, embedder.calls, "cached vectors skip the embedder")

	byReq := matchesByRequirement(result)
	assert.Equal(t, MatchEmbedding, byReq["fastapi"].Kind)
}

func TestMatchAll_RanksByPercentage(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0, "rust": 1.0, "sql": 1.0}}
	engine := engineWith(store, nil)

	projects := []*db.Project{
		{ID: 1, RequirementsTF: map[string]int{"rust": 1}},
		{ID: 2, RequirementsTF: map[string]int{"go": 1}},
		{ID: 3, RequirementsTF: map[string]int{"go": 1, "sql": 1}},
	}
	employee := &db.Employee{ID: 9, Skills: []string{"go"}}

	corpus, err := engine.MatchAll(context.Background(), projects, employee)
	require.NoError(t, err)

	require.Len(t, corpus.Results, 3)
	assert.Equal(t, int64(9), corpus.EmployeeID)
	assert.Equal(t, int64(2), corpus.Results[0].ProjectID, "full match ranks first")
	assert.Equal(t, int64(3), corpus.Results[1].ProjectID)
	assert.Equal(t, int64(1), corpus.Results[2].ProjectID, "zero match ranks last")
	assert.True(t, corpus.Degraded)
}

func TestMatchAll_TopMissingByFrequency(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{"go": 1.0, "rust": 1.0, "cobol": 1.0}}
	engine := NewEngine(store, nil, Options{TopMissing: 1}, nil)

	// rust is missing from two projects, cobol from one.
	projects := []*db.Project{
		{ID: 1, RequirementsTF: map[string]int{"rust": 1, "cobol": 1}},
		{ID: 2, RequirementsTF: map[string]int{"rust": 1, "go": 1}},
	}
	employee := &db.Employee{Skills: []string{"go"}}

	corpus, err := engine.MatchAll(context.Background(), projects, employee)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, corpus.TopMissing)
}

func TestMatchAll_EmptyCorpus(t *testing.T) {
	store := &fakeStore{idfs: map[string]float64{}}
	engine := engineWith(store, nil)

	corpus, err := engine.MatchAll(context.Background(), nil, &db.Employee{ID: 4})
	require.NoError(t, err)
	assert.Empty(t, corpus.Results)
	assert.Empty(t, corpus.TopMissing)
}

func TestWarmUp(t *testing.T) {
	store := &fakeStore{cache: map[string][]float64{"go": {1}}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"rust": {1}, "zig": {1},
	}}
	engine := engineWith(store, embedder)

	err := engine.WarmUp(context.Background(), []string{"Go", "rust", "zig", "teamwork"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"rust", "zig"}, store.saved,
		"cached and soft skills are skipped")
}

func TestSimilarity(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.InDelta(t, 0.0, Cosine(a, b), 1e-9)
	assert.Zero(t, Cosine(a, []float64{1}), "length mismatch")

	assert.InDelta(t, 1.0, InverseEuclidean(a, a), 1e-9)
	assert.Zero(t, InverseEuclidean(a, b), "distance sqrt(2) is far beyond the scale")
}

func matchesByRequirement(result *Result) map[string]SkillMatch {
	out := make(map[string]SkillMatch, len(result.Matches))
	for _, m := range result.Matches {
		out[m.Requirement] = m
	}
	return out
}
