package core

import (
	"context"
	"fmt"

	"mnyama/pkg/domain"
)

// NewHabitatOverhangRule warns when an update leaves a habitat holding more
// footprint than its capacity: a confirmed shrink, a species growing, or a
// creature moving to a larger species. Nobody is evicted.
func NewHabitatOverhangRule() domain.Rule {
	return habitatOverhangRule{}
}

type habitatOverhangRule struct{}

func (habitatOverhangRule) Name() string { return "habitat_overhang" }

func (r habitatOverhangRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := habitatSet{}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityHabitat:
			if change.Action != domain.ActionUpdate {
				continue
			}
			before, okBefore := change.Before.(Habitat)
			after, okAfter := change.After.(Habitat)
			if okBefore && okAfter && after.Capacity < before.Capacity {
				touched.add(after.ID)
			}
		case domain.EntitySpecies:
			if before, after, ok := speciesUpdate(change); ok && after.Size > before.Size {
				touched.addSpeciesHabitats(view, after.ID)
			}
		case domain.EntityCreature:
			if before, after, ok := creatureUpdate(change); ok && before.SpeciesID != after.SpeciesID {
				touched.addCreatureHabitats(view, after.ID)
			}
		}
	}

	res := domain.Result{}
	for _, habitat := range touched.sorted(view) {
		occ := domain.HabitatOccupancy(view, habitat)
		if !occ.Overhang() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message: fmt.Sprintf("habitat %s (%s) holds %d against capacity %d; %d over",
				habitat.Name, habitat.ID, occ.Occupied, occ.Capacity, occ.Occupied-occ.Capacity),
			Entity:   domain.EntityHabitat,
			EntityID: habitat.ID,
		})
	}
	return res, nil
}
