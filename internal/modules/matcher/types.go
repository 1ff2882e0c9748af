package matcher

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/skillpath/core/internal/modules/knowledge"
)

// CandidateProfile is the normalized skill set of one candidate.
// Created once per request, never mutated.
type CandidateProfile struct {
	Fingerprint string
	Skills      []string
}

// NewCandidateProfile normalizes and deduplicates the skills and derives
// a stable fingerprint, so identical skill sets share cache keys.
func NewCandidateProfile(skills []string) CandidateProfile {
	normalized := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		key := knowledge.NormalizeSkill(skill)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	sort.Strings(normalized)

	h := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return CandidateProfile{
		Fingerprint: fmt.Sprintf("%x", h),
		Skills:      normalized,
	}
}

// SkillText is the free-text form of the skill set used for embedding.
func (c CandidateProfile) SkillText() string {
	return strings.Join(c.Skills, ", ")
}

// RoleMatch is one scored recommendation. Ephemeral, recomputed per request.
type RoleMatch struct {
	Role           knowledge.Role `json:"role"`
	Score          float64        `json:"score"`
	SemanticScore  float64        `json:"semantic_score"`
	LexicalScore   float64        `json:"lexical_score"`
	MatchingSkills []string       `json:"matching_skills"`
	MissingSkills  []string       `json:"missing_skills"`
}

// GapReport estimates upskilling time for a set of missing skills.
type GapReport struct {
	Weeks      map[string]int `json:"weeks"`
	TotalWeeks int            `json:"total_weeks"`
}

// ProgressionStep is one suggested next career move.
type ProgressionStep struct {
	Role         knowledge.Role        `json:"role"`
	SkillsNeeded []string              `json:"skills_needed"`
	SalaryRange  knowledge.SalaryRange `json:"salary_range"`
}
