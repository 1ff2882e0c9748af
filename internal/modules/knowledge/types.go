package knowledge

import "strings"

// SalaryRange is an annual salary band in whole currency units.
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Role is one entry of the immutable role catalog.
type Role struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Category         string      `json:"category"`
	SeniorityLevel   int         `json:"seniority_level"`
	Summary          string      `json:"role_summary"`
	CoreSkills       []string    `json:"core_skills"`
	AdvancedSkills   []string    `json:"advanced_skills"`
	Technologies     []string    `json:"technologies"`
	Responsibilities []string    `json:"responsibilities"`
	SalaryRange      SalaryRange `json:"salary_range"`
	Progression      []string    `json:"career_progression"`
}

// RequiredSkills returns the union of all skill tiers, deduplicated,
// in core → advanced → technologies order.
func (r *Role) RequiredSkills() []string {
	out := make([]string, 0, len(r.CoreSkills)+len(r.AdvancedSkills)+len(r.Technologies))
	seen := make(map[string]struct{})
	for _, tier := range [][]string{r.CoreSkills, r.AdvancedSkills, r.Technologies} {
		for _, skill := range tier {
			key := NormalizeSkill(skill)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, skill)
		}
	}
	return out
}

// EmbeddingText builds the text representation embedded for similarity search.
func (r *Role) EmbeddingText() string {
	parts := []string{r.Name}
	if r.Summary != "" {
		parts = append(parts, r.Summary)
	}
	if len(r.CoreSkills) > 0 {
		parts = append(parts, "Core skills: "+strings.Join(r.CoreSkills, ", "))
	}
	if len(r.AdvancedSkills) > 0 {
		parts = append(parts, "Advanced skills: "+strings.Join(r.AdvancedSkills, ", "))
	}
	if len(r.Technologies) > 0 {
		parts = append(parts, "Technologies: "+strings.Join(r.Technologies, ", "))
	}
	if len(r.Responsibilities) > 0 {
		parts = append(parts, strings.Join(r.Responsibilities, ". "))
	}
	return strings.Join(parts, " | ")
}

// NormalizeSkill lowercases and trims a skill name for set comparisons.
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
