package matcher

import (
	"sort"

	"github.com/skillpath/core/internal/modules/knowledge"
)

// Advisor suggests next career steps from the role catalog.
type Advisor struct {
	snap *knowledge.Snapshot
}

func NewAdvisor(snap *knowledge.Snapshot) *Advisor {
	return &Advisor{snap: snap}
}

// NextSteps returns candidate next roles for the given current role.
// Roles named in the current role's progression chain come first, in chain
// order; the remainder are same-category roles with higher seniority or
// salary, ordered by smallest skill delta then salary ascending.
func (a *Advisor) NextSteps(currentRole string) ([]ProgressionStep, error) {
	current, err := a.snap.ByName(currentRole)
	if err != nil {
		return nil, err
	}

	steps := make([]ProgressionStep, 0)
	seen := map[string]struct{}{knowledge.NormalizeSkill(current.Name): {}}

	for _, name := range current.Progression {
		next, err := a.snap.ByName(name)
		if err != nil {
			continue // chain entries outside the catalog are advisory only
		}
		key := knowledge.NormalizeSkill(next.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		steps = append(steps, a.step(current, next))
	}

	heuristic := make([]ProgressionStep, 0)
	for _, role := range a.snap.All() {
		key := knowledge.NormalizeSkill(role.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		if role.Category != current.Category {
			continue
		}
		if role.SeniorityLevel <= current.SeniorityLevel &&
			role.SalaryRange.Min <= current.SalaryRange.Min {
			continue
		}
		seen[key] = struct{}{}
		next := role
		heuristic = append(heuristic, a.step(current, &next))
	}

	sort.Slice(heuristic, func(i, j int) bool {
		if len(heuristic[i].SkillsNeeded) != len(heuristic[j].SkillsNeeded) {
			return len(heuristic[i].SkillsNeeded) < len(heuristic[j].SkillsNeeded)
		}
		if heuristic[i].SalaryRange.Min != heuristic[j].SalaryRange.Min {
			return heuristic[i].SalaryRange.Min < heuristic[j].SalaryRange.Min
		}
		return heuristic[i].Role.Name < heuristic[j].Role.Name
	})

	return append(steps, heuristic...), nil
}

func (a *Advisor) step(current, next *knowledge.Role) ProgressionStep {
	_, needed := Overlap(next.RequiredSkills(), normalizedSkills(current.RequiredSkills()))
	return ProgressionStep{
		Role:         *next,
		SkillsNeeded: needed,
		SalaryRange:  next.SalaryRange,
	}
}

func normalizedSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		out = append(out, knowledge.NormalizeSkill(skill))
	}
	return out
}
