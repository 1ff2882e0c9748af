package matcher

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/skillpath/core/internal/modules/embedding"
	"github.com/skillpath/core/internal/modules/knowledge"
	"github.com/skillpath/core/internal/pkg/apperr"
	"go.uber.org/zap"
)

// MaxTopK bounds how many recommendations a single request may ask for.
const MaxTopK = 20

// Weights blends semantic and lexical scores. They must sum to 1.
type Weights struct {
	Semantic float64
	Lexical  float64
}

// SemanticIndex answers similarity queries over the role catalog.
type SemanticIndex interface {
	Query(ctx context.Context, text string) ([]embedding.Similarity, error)
}

// Matcher ranks catalog roles against a candidate's skill set.
type Matcher struct {
	snap    *knowledge.Snapshot
	index   SemanticIndex // nil disables semantic scoring entirely
	weights Weights
	logger  *zap.Logger
}

func New(snap *knowledge.Snapshot, index SemanticIndex, weights Weights, logger *zap.Logger) (*Matcher, error) {
	if weights.Semantic < 0 || weights.Lexical < 0 {
		return nil, fmt.Errorf("matcher weights must be non-negative")
	}
	if sum := weights.Semantic + weights.Lexical; math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("matcher weights must sum to 1.0, got %.4f", sum)
	}
	return &Matcher{snap: snap, index: index, weights: weights, logger: logger}, nil
}

// Match returns the topK best role matches, score descending. Embedding
// failures degrade to lexical-only scoring and never surface to the caller.
func (m *Matcher) Match(ctx context.Context, candidate CandidateProfile, topK int) ([]RoleMatch, error) {
	if topK <= 0 {
		return nil, apperr.Validation("top_k must be positive, got %d", topK)
	}
	if topK > MaxTopK {
		return nil, apperr.Validation("top_k must be at most %d, got %d", MaxTopK, topK)
	}
	if len(candidate.Skills) == 0 {
		return nil, apperr.Validation("candidate skill set is empty")
	}

	semantic := m.semanticScores(ctx, candidate)

	roles := m.snap.All()
	matches := make([]RoleMatch, 0, len(roles))
	for i := range roles {
		role := roles[i]
		match := m.scoreRole(&role, candidate, semantic)
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].LexicalScore != matches[j].LexicalScore {
			return matches[i].LexicalScore > matches[j].LexicalScore
		}
		return matches[i].Role.Name < matches[j].Role.Name
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// MatchRole scores the candidate against one named role.
func (m *Matcher) MatchRole(ctx context.Context, candidate CandidateProfile, roleName string) (*RoleMatch, error) {
	if len(candidate.Skills) == 0 {
		return nil, apperr.Validation("candidate skill set is empty")
	}
	role, err := m.snap.ByName(roleName)
	if err != nil {
		return nil, err
	}
	match := m.scoreRole(role, candidate, m.semanticScores(ctx, candidate))
	return &match, nil
}

// semanticScores queries the embedding index, returning nil on any failure
// so scoring falls back to lexical-only.
func (m *Matcher) semanticScores(ctx context.Context, candidate CandidateProfile) map[string]float64 {
	if m.index == nil {
		return nil
	}
	similarities, err := m.index.Query(ctx, candidate.SkillText())
	if err != nil {
		m.logger.Warn("semantic scoring unavailable, falling back to lexical only", zap.Error(err))
		return nil
	}
	scores := make(map[string]float64, len(similarities))
	for _, sim := range similarities {
		scores[sim.RoleID] = sim.Score
	}
	return scores
}

func (m *Matcher) scoreRole(role *knowledge.Role, candidate CandidateProfile, semantic map[string]float64) RoleMatch {
	matching, missing := Overlap(role.RequiredSkills(), candidate.Skills)

	var lexical float64
	if required := len(matching) + len(missing); required > 0 {
		lexical = float64(len(matching)) / float64(required)
	}

	semanticScore := lexical
	if score, ok := semantic[role.ID]; ok {
		semanticScore = score
	}

	return RoleMatch{
		Role:           *role,
		Score:          m.weights.Semantic*semanticScore + m.weights.Lexical*lexical,
		SemanticScore:  semanticScore,
		LexicalScore:   lexical,
		MatchingSkills: matching,
		MissingSkills:  missing,
	}
}

// Overlap partitions the required skills into those the candidate has and
// those they lack. Comparison is case-insensitive and whitespace-normalized;
// returned skills keep the role's original casing.
func Overlap(required, candidateSkills []string) (matching, missing []string) {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[knowledge.NormalizeSkill(skill)] = struct{}{}
	}

	matching = make([]string, 0, len(required))
	missing = make([]string, 0, len(required))
	for _, skill := range required {
		if _, ok := have[knowledge.NormalizeSkill(skill)]; ok {
			matching = append(matching, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	return matching, missing
}
