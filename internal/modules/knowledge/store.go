package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/skillpath/core/internal/pkg/apperr"
)

//go:embed catalog.json
var defaultCatalog []byte

// Snapshot is the immutable, loaded role catalog. It is built once at
// startup and shared by reference; nothing mutates it afterwards.
type Snapshot struct {
	roles  []Role
	byName map[string]int
}

type catalogFile struct {
	Roles []Role `json:"roles"`
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Snapshot, error) {
	raw := defaultCatalog
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %q: %w", path, err)
		}
		raw = content
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("catalog contains no roles")
	}

	snap := &Snapshot{
		roles:  file.Roles,
		byName: make(map[string]int, len(file.Roles)),
	}
	for i := range snap.roles {
		role := &snap.roles[i]
		if strings.TrimSpace(role.Name) == "" {
			return nil, fmt.Errorf("catalog role %d has no name", i)
		}
		if len(role.RequiredSkills()) == 0 {
			return nil, fmt.Errorf("catalog role %q has no skills", role.Name)
		}
		key := NormalizeSkill(role.Name)
		if _, dup := snap.byName[key]; dup {
			return nil, fmt.Errorf("catalog role %q is duplicated", role.Name)
		}
		if strings.TrimSpace(role.ID) == "" {
			role.ID = strings.ReplaceAll(key, " ", "-")
		}
		snap.byName[key] = i
	}
	return snap, nil
}

// All returns every role in catalog order. Callers must not modify the result.
func (s *Snapshot) All() []Role {
	return s.roles
}

// ByName looks up a role by case-insensitive name.
func (s *Snapshot) ByName(name string) (*Role, error) {
	i, ok := s.byName[NormalizeSkill(name)]
	if !ok {
		return nil, apperr.NotFound("role %q not found", strings.TrimSpace(name))
	}
	return &s.roles[i], nil
}

// SkillTiers returns all unique catalog skills grouped by tier.
func (s *Snapshot) SkillTiers() map[string][]string {
	tiers := map[string][]string{
		"core":         {},
		"advanced":     {},
		"technologies": {},
	}
	seen := map[string]map[string]struct{}{
		"core":         {},
		"advanced":     {},
		"technologies": {},
	}
	for _, role := range s.roles {
		for tier, skills := range map[string][]string{
			"core":         role.CoreSkills,
			"advanced":     role.AdvancedSkills,
			"technologies": role.Technologies,
		} {
			for _, skill := range skills {
				key := NormalizeSkill(skill)
				if key == "" {
					continue
				}
				if _, ok := seen[tier][key]; ok {
					continue
				}
				seen[tier][key] = struct{}{}
				tiers[tier] = append(tiers[tier], skill)
			}
		}
	}
	return tiers
}
