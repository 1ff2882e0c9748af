package matcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillpath/core/internal/modules/embedding"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalog = `{"roles": [
	{"id": "backend", "name": "Backend Developer", "category": "Engineering", "seniority_level": 2,
	 "core_skills": ["Python", "SQL", "Docker"],
	 "salary_range": {"min": 70000, "max": 100000},
	 "career_progression": ["Senior Backend Developer"]},
	{"id": "senior-backend", "name": "Senior Backend Developer", "category": "Engineering", "seniority_level": 3,
	 "core_skills": ["Python", "SQL", "Docker"],
	 "advanced_skills": ["System Design", "Kubernetes"],
	 "salary_range": {"min": 100000, "max": 140000}},
	{"id": "data-analyst", "name": "Data Analyst", "category": "Data", "seniority_level": 1,
	 "core_skills": ["SQL", "Excel"],
	 "salary_range": {"min": 50000, "max": 70000}},
	{"id": "frontend", "name": "Frontend Developer", "category": "Engineering", "seniority_level": 2,
	 "core_skills": ["JavaScript", "CSS", "HTML"],
	 "salary_range": {"min": 65000, "max": 95000}}
]}`

func testSnapshot(t *testing.T) *knowledge.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	snap, err := knowledge.Load(path)
	require.NoError(t, err)
	return snap
}

func lexicalMatcher(t *testing.T, snap *knowledge.Snapshot) *Matcher {
	t.Helper()
	m, err := New(snap, nil, Weights{Semantic: 0.5, Lexical: 0.5}, zap.NewNop())
	require.NoError(t, err)
	return m
}

type failingIndex struct{}

func (failingIndex) Query(context.Context, string) ([]embedding.Similarity, error) {
	return nil, errors.New("embedding service down")
}

type fixedIndex struct {
	scores map[string]float64
}

func (f fixedIndex) Query(context.Context, string) ([]embedding.Similarity, error) {
	out := make([]embedding.Similarity, 0, len(f.scores))
	for id, score := range f.scores {
		out = append(out, embedding.Similarity{RoleID: id, Score: score})
	}
	return out, nil
}

func TestNewRejectsBadWeights(t *testing.T) {
	snap := testSnapshot(t)

	_, err := New(snap, nil, Weights{Semantic: 0.7, Lexical: 0.5}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(snap, nil, Weights{Semantic: -0.5, Lexical: 1.5}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(snap, nil, Weights{Semantic: 0.3, Lexical: 0.7}, zap.NewNop())
	assert.NoError(t, err)
}

func TestMatchValidatesInput(t *testing.T) {
	m := lexicalMatcher(t, testSnapshot(t))
	candidate := NewCandidateProfile([]string{"Python"})

	for _, topK := range []int{0, -3, MaxTopK + 1} {
		_, err := m.Match(context.Background(), candidate, topK)
		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err), "top_k=%d", topK)
	}

	_, err := m.Match(context.Background(), NewCandidateProfile(nil), 5)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestMatchLexicalOnly(t *testing.T) {
	m := lexicalMatcher(t, testSnapshot(t))
	candidate := NewCandidateProfile([]string{"Python", "SQL"})

	matches, err := m.Match(context.Background(), candidate, 4)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	best := matches[0]
	assert.Equal(t, "Backend Developer", best.Role.Name)
	assert.InDelta(t, 2.0/3.0, best.LexicalScore, 1e-9)
	// without an index the semantic score falls back to lexical,
	// so the blended score equals the lexical score
	assert.InDelta(t, best.LexicalScore, best.Score, 1e-9)
	assert.Equal(t, []string{"Python", "SQL"}, best.MatchingSkills)
	assert.Equal(t, []string{"Docker"}, best.MissingSkills)

	// worst match still has a score in [0,1]
	last := matches[len(matches)-1]
	assert.Equal(t, "Frontend Developer", last.Role.Name)
	assert.Zero(t, last.LexicalScore)
	assert.GreaterOrEqual(t, last.Score, 0.0)
	assert.LessOrEqual(t, matches[0].Score, 1.0)
}

func TestMatchTruncatesToTopK(t *testing.T) {
	m := lexicalMatcher(t, testSnapshot(t))
	matches, err := m.Match(context.Background(), NewCandidateProfile([]string{"SQL"}), 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMatchFallsBackWhenIndexFails(t *testing.T) {
	snap := testSnapshot(t)
	m, err := New(snap, failingIndex{}, Weights{Semantic: 0.5, Lexical: 0.5}, zap.NewNop())
	require.NoError(t, err)

	matches, err := m.Match(context.Background(), NewCandidateProfile([]string{"Python", "SQL"}), 3)
	require.NoError(t, err, "embedding failures must not surface")
	assert.Equal(t, "Backend Developer", matches[0].Role.Name)
	assert.InDelta(t, matches[0].LexicalScore, matches[0].Score, 1e-9)
}

func TestMatchBlendsSemanticScores(t *testing.T) {
	snap := testSnapshot(t)
	m, err := New(snap, fixedIndex{scores: map[string]float64{
		"backend":        0.9,
		"senior-backend": 0.8,
		"data-analyst":   0.4,
		"frontend":       0.1,
	}}, Weights{Semantic: 0.5, Lexical: 0.5}, zap.NewNop())
	require.NoError(t, err)

	matches, err := m.Match(context.Background(), NewCandidateProfile([]string{"Python", "SQL"}), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	best := matches[0]
	assert.Equal(t, "Backend Developer", best.Role.Name)
	assert.InDelta(t, 0.9, best.SemanticScore, 1e-9)
	assert.InDelta(t, 0.5*0.9+0.5*(2.0/3.0), best.Score, 1e-9)
}

func TestMatchTieBreaksByNameAscending(t *testing.T) {
	m := lexicalMatcher(t, testSnapshot(t))

	// a skill nobody has: every role scores 0, ordering is by name
	matches, err := m.Match(context.Background(), NewCandidateProfile([]string{"COBOL"}), 4)
	require.NoError(t, err)

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match.Role.Name)
	}
	assert.Equal(t, []string{
		"Backend Developer",
		"Data Analyst",
		"Frontend Developer",
		"Senior Backend Developer",
	}, names)
}

func TestMatchRole(t *testing.T) {
	m := lexicalMatcher(t, testSnapshot(t))
	candidate := NewCandidateProfile([]string{"Python", "sql"})

	match, err := m.MatchRole(context.Background(), candidate, "senior backend developer")
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Developer", match.Role.Name)
	assert.Equal(t, []string{"Python", "SQL"}, match.MatchingSkills)
	assert.Equal(t, []string{"Docker", "System Design", "Kubernetes"}, match.MissingSkills)

	_, err = m.MatchRole(context.Background(), candidate, "Astronaut")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestNewCandidateProfile(t *testing.T) {
	a := NewCandidateProfile([]string{"Python", " SQL ", "python", ""})
	b := NewCandidateProfile([]string{"sql", "PYTHON"})

	assert.Equal(t, []string{"python", "sql"}, a.Skills)
	assert.Equal(t, a.Fingerprint, b.Fingerprint, "identical skill sets share a fingerprint")
	assert.Equal(t, "python, sql", a.SkillText())

	c := NewCandidateProfile([]string{"python"})
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestOverlapKeepsRoleCasing(t *testing.T) {
	matching, missing := Overlap(
		[]string{"Python", "SQL", "Docker"},
		[]string{"python", "docker"},
	)
	assert.Equal(t, []string{"Python", "Docker"}, matching)
	assert.Equal(t, []string{"SQL"}, missing)
}
