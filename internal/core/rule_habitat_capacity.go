package core

import (
	"context"
	"fmt"

	"mnyama/pkg/domain"
)

// NewHabitatCapacityRule blocks any transaction that adds a membership to a
// habitat whose occupied footprint then exceeds its capacity.
func NewHabitatCapacityRule() domain.Rule {
	return habitatCapacityRule{}
}

type habitatCapacityRule struct{}

func (habitatCapacityRule) Name() string { return "habitat_capacity" }

func (r habitatCapacityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := habitatSet{}
	for _, m := range createdMemberships(changes) {
		touched.add(m.HabitatID)
	}
	res := domain.Result{}
	for _, habitat := range touched.sorted(view) {
		occ := domain.HabitatOccupancy(view, habitat)
		if !occ.Overhang() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("habitat %s (%s) over capacity: %d/%d", habitat.Name, habitat.ID, occ.Occupied, occ.Capacity),
			Entity:   domain.EntityHabitat,
			EntityID: habitat.ID,
		})
	}
	return res, nil
}
