package matcher

import "github.com/skillpath/core/internal/modules/knowledge"

// Learning-time estimates per skill tier, in weeks.
const (
	coreSkillWeeks     = 2
	advancedSkillWeeks = 1
	toolSkillWeeks     = 1
	defaultSkillWeeks  = 1 // skills the catalog does not know
)

// GapAnalyzer estimates upskilling time for missing skills. The lookup
// table is derived from the catalog's skill tiers at construction time;
// estimation itself is deterministic and makes no external calls.
type GapAnalyzer struct {
	weeksBySkill map[string]int
}

func NewGapAnalyzer(snap *knowledge.Snapshot) *GapAnalyzer {
	weeks := make(map[string]int)
	// A skill appearing as core anywhere keeps the core estimate even if
	// another role lists it as a tool.
	for _, role := range snap.All() {
		for _, skill := range role.Technologies {
			setIfHigher(weeks, skill, toolSkillWeeks)
		}
		for _, skill := range role.AdvancedSkills {
			setIfHigher(weeks, skill, advancedSkillWeeks)
		}
		for _, skill := range role.CoreSkills {
			setIfHigher(weeks, skill, coreSkillWeeks)
		}
	}
	return &GapAnalyzer{weeksBySkill: weeks}
}

func setIfHigher(weeks map[string]int, skill string, estimate int) {
	key := knowledge.NormalizeSkill(skill)
	if key == "" {
		return
	}
	if current, ok := weeks[key]; !ok || estimate > current {
		weeks[key] = estimate
	}
}

// Estimate maps each missing skill to its learning time and sums the total.
func (g *GapAnalyzer) Estimate(missingSkills []string) GapReport {
	report := GapReport{Weeks: make(map[string]int, len(missingSkills))}
	for _, skill := range missingSkills {
		if _, dup := report.Weeks[skill]; dup {
			continue
		}
		estimate := defaultSkillWeeks
		if weeks, ok := g.weeksBySkill[knowledge.NormalizeSkill(skill)]; ok {
			estimate = weeks
		}
		report.Weeks[skill] = estimate
		report.TotalWeeks += estimate
	}
	return report
}
