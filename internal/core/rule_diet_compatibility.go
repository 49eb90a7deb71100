package core

import (
	"context"
	"fmt"
	"sort"

	"mnyama/pkg/domain"
)

// NewDietCompatibilityRule blocks transactions that leave incompatible diets
// sharing a habitat. It checks habitats gaining a member, habitats holding a
// species whose diet changed, and habitats of a creature that changed species.
func NewDietCompatibilityRule() domain.Rule {
	return dietCompatibilityRule{}
}

type dietCompatibilityRule struct{}

func (dietCompatibilityRule) Name() string { return "diet_compatibility" }

func (r dietCompatibilityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := habitatSet{}
	for _, m := range createdMemberships(changes) {
		touched.add(m.HabitatID)
	}
	for _, change := range changes {
		if before, after, ok := speciesUpdate(change); ok && before.Diet != after.Diet {
			touched.addSpeciesHabitats(view, after.ID)
		}
		if before, after, ok := creatureUpdate(change); ok && before.SpeciesID != after.SpeciesID {
			touched.addCreatureHabitats(view, after.ID)
		}
	}

	res := domain.Result{}
	for _, habitat := range touched.sorted(view) {
		a, b, conflict := firstConflict(domain.OccupantsOf(view, habitat.ID))
		if !conflict {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message: fmt.Sprintf("habitat %s (%s) would house %s (%s) with %s (%s)",
				habitat.Name, habitat.ID, a.CreatureID, a.Diet, b.CreatureID, b.Diet),
			Entity:   domain.EntityHabitat,
			EntityID: habitat.ID,
		})
	}
	return res, nil
}

// firstConflict returns the lowest-id incompatible pair among occupants.
func firstConflict(occupants []domain.Occupant) (domain.Occupant, domain.Occupant, bool) {
	ordered := append([]domain.Occupant(nil), occupants...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatureID < ordered[j].CreatureID })
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if !domain.Compatible(ordered[i].Diet, ordered[j].Diet) {
				return ordered[i], ordered[j], true
			}
		}
	}
	return domain.Occupant{}, domain.Occupant{}, false
}
