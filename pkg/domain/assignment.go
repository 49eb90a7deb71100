package domain

import (
	"fmt"
	"sort"
)

// RejectReason identifies why an allocation command was refused.
type RejectReason string

// Allocation rejection reasons.
const (
	ReasonCapacityExceeded RejectReason = "capacity_exceeded"
	ReasonDietConflict     RejectReason = "diet_conflict"
	ReasonNotAMember       RejectReason = "not_a_member"
)

// Rejection is an expected, domain-level refusal. It carries enough data for
// a caller to explain the refusal without further lookups.
type Rejection struct {
	Reason     RejectReason `json:"reason"`
	CreatureID string       `json:"creature_id"`
	HabitatID  string       `json:"habitat_id"`

	// Capacity figures, set for ReasonCapacityExceeded.
	Occupied  int `json:"occupied,omitempty"`
	Footprint int `json:"footprint,omitempty"`
	Capacity  int `json:"capacity,omitempty"`

	// Conflict details, set for ReasonDietConflict.
	ConflictingCreatureID string `json:"conflicting_creature_id,omitempty"`
	IncomingDiet          Diet   `json:"incoming_diet,omitempty"`
	ConflictingDiet       Diet   `json:"conflicting_diet,omitempty"`
}

// Message renders a human readable explanation.
func (r Rejection) Message() string {
	switch r.Reason {
	case ReasonCapacityExceeded:
		return fmt.Sprintf("habitat %s would exceed capacity: %d occupied + %d required > %d", r.HabitatID, r.Occupied, r.Footprint, r.Capacity)
	case ReasonDietConflict:
		return fmt.Sprintf("creature %s (%s) cannot coexist with %s (%s)", r.CreatureID, r.IncomingDiet, r.ConflictingCreatureID, r.ConflictingDiet)
	case ReasonNotAMember:
		return fmt.Sprintf("creature %s is not in habitat %s", r.CreatureID, r.HabitatID)
	default:
		return string(r.Reason)
	}
}

// Occupant pairs a creature with the species-derived values the allocation
// checks need.
type Occupant struct {
	CreatureID string
	Diet       Diet
	Footprint  int
}

// EvaluateAssignment applies the capacity check and then the pairwise diet
// check for an incoming creature. It returns nil when the assignment may
// proceed. Occupants are inspected in ascending creature id order so repeated
// evaluations against unchanged state report the same conflict.
func EvaluateAssignment(habitat Habitat, incoming Occupant, occupants []Occupant) *Rejection {
	occupied := 0
	for _, o := range occupants {
		occupied += o.Footprint
	}
	if occupied+incoming.Footprint > habitat.Capacity {
		return &Rejection{
			Reason:     ReasonCapacityExceeded,
			CreatureID: incoming.CreatureID,
			HabitatID:  habitat.ID,
			Occupied:   occupied,
			Footprint:  incoming.Footprint,
			Capacity:   habitat.Capacity,
		}
	}

	ordered := append([]Occupant(nil), occupants...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatureID < ordered[j].CreatureID })
	for _, o := range ordered {
		if !Compatible(incoming.Diet, o.Diet) {
			return &Rejection{
				Reason:                ReasonDietConflict,
				CreatureID:            incoming.CreatureID,
				HabitatID:             habitat.ID,
				ConflictingCreatureID: o.CreatureID,
				IncomingDiet:          incoming.Diet,
				ConflictingDiet:       o.Diet,
			}
		}
	}
	return nil
}
