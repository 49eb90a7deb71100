package core

import (
	"sort"

	"mnyama/pkg/domain"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// capacity and diet coexistence block, capacity overhang warns.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewHabitatCapacityRule())
	engine.Register(NewDietCompatibilityRule())
	engine.Register(NewHabitatOverhangRule())
	return engine
}

type habitatSet map[string]struct{}

func (s habitatSet) add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

// sorted resolves the set against view, skipping habitats that no longer exist.
func (s habitatSet) sorted(view domain.RuleView) []Habitat {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Habitat, 0, len(ids))
	for _, id := range ids {
		if h, ok := view.FindHabitat(id); ok {
			out = append(out, h)
		}
	}
	return out
}

// addSpeciesHabitats adds every habitat holding a creature of speciesID.
func (s habitatSet) addSpeciesHabitats(view domain.RuleView, speciesID string) {
	for _, m := range view.ListMemberships() {
		if c, ok := view.FindCreature(m.CreatureID); ok && c.SpeciesID == speciesID {
			s.add(m.HabitatID)
		}
	}
}

func (s habitatSet) addCreatureHabitats(view domain.RuleView, creatureID string) {
	for _, h := range view.CreatureHabitats(creatureID) {
		s.add(h.ID)
	}
}

func createdMemberships(changes []Change) []Membership {
	var out []Membership
	for _, change := range changes {
		if change.Entity != domain.EntityMembership || change.Action != domain.ActionCreate {
			continue
		}
		if m, ok := change.After.(Membership); ok {
			out = append(out, m)
		}
	}
	return out
}

// speciesUpdate returns the before/after pair of a species update change.
func speciesUpdate(change Change) (before, after Species, ok bool) {
	if change.Entity != domain.EntitySpecies || change.Action != domain.ActionUpdate {
		return Species{}, Species{}, false
	}
	before, okBefore := change.Before.(Species)
	after, okAfter := change.After.(Species)
	return before, after, okBefore && okAfter
}

func creatureUpdate(change Change) (before, after Creature, ok bool) {
	if change.Entity != domain.EntityCreature || change.Action != domain.ActionUpdate {
		return Creature{}, Creature{}, false
	}
	before, okBefore := change.Before.(Creature)
	after, okAfter := change.After.(Creature)
	return before, after, okBefore && okAfter
}
