package core

import (
	"context"
	"errors"
	"sort"

	"mnyama/pkg/domain"
)

// Allocator decides and records creature placements. Every command that
// touches a habitat holds that habitat's lock for the whole check-then-act
// sequence and runs inside one store transaction.
type Allocator struct {
	svc *Service
}

// AssignmentOutcome classifies a TryAssign result.
type AssignmentOutcome string

const (
	OutcomeAssigned        AssignmentOutcome = "assigned"
	OutcomeAlreadyAssigned AssignmentOutcome = "already_assigned"
	OutcomeRejected        AssignmentOutcome = "rejected"
)

// AssignmentResult reports what TryAssign did. Occupancy is the habitat load
// after the command.
type AssignmentResult struct {
	Outcome    AssignmentOutcome `json:"outcome"`
	CreatureID string            `json:"creature_id"`
	HabitatID  string            `json:"habitat_id"`
	Membership *Membership       `json:"membership,omitempty"`
	Rejection  *Rejection        `json:"rejection,omitempty"`
	Occupancy  Occupancy         `json:"occupancy"`
}

// OK reports whether the creature is now in the habitat.
func (r AssignmentResult) OK() bool { return r.Outcome != OutcomeRejected }

// UnassignOutcome classifies an Unassign result.
type UnassignOutcome string

const (
	OutcomeUnassigned       UnassignOutcome = "unassigned"
	OutcomeUnassignRejected UnassignOutcome = "rejected"
)

// UnassignResult reports what Unassign did.
type UnassignResult struct {
	Outcome    UnassignOutcome `json:"outcome"`
	CreatureID string          `json:"creature_id"`
	HabitatID  string          `json:"habitat_id"`
	Rejection  *Rejection      `json:"rejection,omitempty"`
	Occupancy  Occupancy       `json:"occupancy"`
}

// OK reports whether a membership was removed.
func (r UnassignResult) OK() bool { return r.Outcome == OutcomeUnassigned }

// ResizeOutcome classifies a Resize result.
type ResizeOutcome string

const (
	OutcomeResized              ResizeOutcome = "resized"
	OutcomeRequiresConfirmation ResizeOutcome = "requires_confirmation"
)

// ResizeResult reports what Resize did. Warnings carries the overhang
// violation when a confirmed shrink leaves the habitat over capacity.
type ResizeResult struct {
	Outcome          ResizeOutcome `json:"outcome"`
	HabitatID        string        `json:"habitat_id"`
	PreviousCapacity int           `json:"previous_capacity"`
	Capacity         int           `json:"capacity"`
	Occupied         int           `json:"occupied"`
	Warnings         []Violation   `json:"warnings,omitempty"`
}

// OccupancyReport describes one habitat's load.
type OccupancyReport struct {
	HabitatID      string         `json:"habitat_id"`
	Name           string         `json:"name"`
	Biome          string         `json:"biome"`
	Occupied       int            `json:"occupied"`
	Capacity       int            `json:"capacity"`
	Percent        float64        `json:"pct"`
	Free           int            `json:"free"`
	Classification Classification `json:"classification"`
	OccupantIDs    []string       `json:"occupant_ids"`
}

// TryAssign places a creature into a habitat unless capacity or diet forbid it.
// Rejections are returned as values with a nil error.
func (a *Allocator) TryAssign(ctx context.Context, creatureID, habitatID string) (AssignmentResult, error) {
	s := a.svc
	result := AssignmentResult{CreatureID: creatureID, HabitatID: habitatID}
	_, err := s.instrument(ctx, "assign_creature", func(ctx context.Context) (outcome, error) {
		unlock := s.locks.lock(habitatID)
		defer unlock()

		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			creature, ok := tx.FindCreature(creatureID)
			if !ok {
				return notFound(domain.EntityCreature, creatureID)
			}
			habitat, ok := tx.FindHabitat(habitatID)
			if !ok {
				return notFound(domain.EntityHabitat, habitatID)
			}
			view := tx.Snapshot()
			if view.IsMember(creatureID, habitatID) {
				result.Outcome = OutcomeAlreadyAssigned
				result.Occupancy = domain.HabitatOccupancy(view, habitat)
				return errNoChange
			}
			incoming := domain.OccupantFor(view, creature)
			if rejection := domain.EvaluateAssignment(habitat, incoming, domain.OccupantsOf(view, habitatID)); rejection != nil {
				result.Outcome = OutcomeRejected
				result.Rejection = rejection
				result.Occupancy = domain.HabitatOccupancy(view, habitat)
				return errNoChange
			}
			membership, err := tx.AddMembership(creatureID, habitatID)
			if err != nil {
				return err
			}
			result.Outcome = OutcomeAssigned
			result.Membership = &membership
			result.Occupancy = domain.HabitatOccupancy(tx.Snapshot(), habitat)
			return nil
		})
		if errors.Is(err, errNoChange) {
			err = nil
		}
		return outcome{entityID: membershipID(creatureID, habitatID), result: res, rejected: result.Outcome == OutcomeRejected}, err
	})
	if err != nil {
		return AssignmentResult{CreatureID: creatureID, HabitatID: habitatID}, err
	}
	return result, nil
}

// Unassign removes a membership. It never produces capacity or diet
// rejections; a missing membership is reported as ReasonNotAMember.
func (a *Allocator) Unassign(ctx context.Context, creatureID, habitatID string) (UnassignResult, error) {
	s := a.svc
	result := UnassignResult{CreatureID: creatureID, HabitatID: habitatID}
	_, err := s.instrument(ctx, "unassign_creature", func(ctx context.Context) (outcome, error) {
		unlock := s.locks.lock(habitatID)
		defer unlock()

		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindCreature(creatureID); !ok {
				return notFound(domain.EntityCreature, creatureID)
			}
			habitat, ok := tx.FindHabitat(habitatID)
			if !ok {
				return notFound(domain.EntityHabitat, habitatID)
			}
			if !tx.Snapshot().IsMember(creatureID, habitatID) {
				result.Outcome = OutcomeUnassignRejected
				result.Rejection = &Rejection{Reason: domain.ReasonNotAMember, CreatureID: creatureID, HabitatID: habitatID}
				result.Occupancy = domain.HabitatOccupancy(tx.Snapshot(), habitat)
				return errNoChange
			}
			if err := tx.RemoveMembership(creatureID, habitatID); err != nil {
				return err
			}
			result.Outcome = OutcomeUnassigned
			result.Occupancy = domain.HabitatOccupancy(tx.Snapshot(), habitat)
			return nil
		})
		if errors.Is(err, errNoChange) {
			err = nil
		}
		return outcome{entityID: membershipID(creatureID, habitatID), result: res, rejected: result.Outcome == OutcomeUnassignRejected}, err
	})
	if err != nil {
		return UnassignResult{CreatureID: creatureID, HabitatID: habitatID}, err
	}
	return result, nil
}

// UnassignAll removes the creature from every habitat it belongs to and
// returns the ids of the habitats it left, in ascending order.
func (a *Allocator) UnassignAll(ctx context.Context, creatureID string) ([]string, error) {
	var left []string
	_, err := a.svc.instrument(ctx, "unassign_all", func(ctx context.Context) (outcome, error) {
		var err error
		left, err = a.unassignAll(ctx, creatureID)
		return outcome{entityID: creatureID}, err
	})
	return left, err
}

// unassignAll takes the habitat locks one at a time.
func (a *Allocator) unassignAll(ctx context.Context, creatureID string) ([]string, error) {
	s := a.svc
	var habitatIDs []string
	err := s.view(ctx, func(view TransactionView) error {
		if _, ok := view.FindCreature(creatureID); !ok {
			return notFound(domain.EntityCreature, creatureID)
		}
		for _, h := range view.CreatureHabitats(creatureID) {
			habitatIDs = append(habitatIDs, h.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(habitatIDs)

	left := make([]string, 0, len(habitatIDs))
	for _, habitatID := range habitatIDs {
		removed, err := a.removeIfMember(ctx, creatureID, habitatID)
		if err != nil {
			return left, err
		}
		if removed {
			left = append(left, habitatID)
		}
	}
	return left, nil
}

func (a *Allocator) removeIfMember(ctx context.Context, creatureID, habitatID string) (bool, error) {
	s := a.svc
	unlock := s.locks.lock(habitatID)
	defer unlock()
	removed := false
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if !tx.Snapshot().IsMember(creatureID, habitatID) {
			return errNoChange
		}
		removed = true
		return tx.RemoveMembership(creatureID, habitatID)
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	return removed && err == nil, err
}

// Classify returns the habitat's fullness class.
func (a *Allocator) Classify(ctx context.Context, habitatID string) (Classification, error) {
	occ, err := a.svc.occupancy(ctx, habitatID)
	if err != nil {
		return "", err
	}
	return occ.Classify(), nil
}

// OccupancyReport returns load figures and the sorted occupant ids.
func (a *Allocator) OccupancyReport(ctx context.Context, habitatID string) (OccupancyReport, error) {
	var report OccupancyReport
	err := a.svc.view(ctx, func(view TransactionView) error {
		h, ok := view.FindHabitat(habitatID)
		if !ok {
			return notFound(domain.EntityHabitat, habitatID)
		}
		report = occupancyReport(view, h)
		return nil
	})
	return report, err
}

// Resize changes a habitat's capacity. Shrinking below the current occupied
// footprint needs confirmed; without it nothing changes and the result asks
// for confirmation. Occupants are never evicted.
func (a *Allocator) Resize(ctx context.Context, habitatID string, newCapacity int, confirmed bool) (ResizeResult, error) {
	s := a.svc
	result := ResizeResult{HabitatID: habitatID, Capacity: newCapacity}
	_, err := s.instrument(ctx, "resize_habitat", func(ctx context.Context) (outcome, error) {
		if newCapacity <= 0 {
			return outcome{entityID: habitatID}, domain.ValidationError{Entity: domain.EntityHabitat, Field: "capacity", Message: "habitat capacity must be positive"}
		}
		unlock := s.locks.lock(habitatID)
		defer unlock()

		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			habitat, ok := tx.FindHabitat(habitatID)
			if !ok {
				return notFound(domain.EntityHabitat, habitatID)
			}
			occ := domain.HabitatOccupancy(tx.Snapshot(), habitat)
			result.PreviousCapacity = habitat.Capacity
			result.Occupied = occ.Occupied
			if newCapacity < occ.Occupied && !confirmed {
				result.Outcome = OutcomeRequiresConfirmation
				return errNoChange
			}
			if newCapacity == habitat.Capacity {
				result.Outcome = OutcomeResized
				return errNoChange
			}
			_, err := tx.UpdateHabitat(habitatID, func(h *Habitat) error {
				h.Capacity = newCapacity
				return nil
			})
			if err == nil {
				result.Outcome = OutcomeResized
			}
			return err
		})
		if errors.Is(err, errNoChange) {
			err = nil
		}
		result.Warnings = res.Warnings()
		return outcome{entityID: habitatID, result: res, rejected: result.Outcome == OutcomeRequiresConfirmation}, err
	})
	if err != nil {
		return ResizeResult{HabitatID: habitatID, Capacity: newCapacity}, err
	}
	return result, nil
}

func occupancyReport(view TransactionView, h Habitat) OccupancyReport {
	occ := domain.HabitatOccupancy(view, h)
	occupants := sortedCreatures(view.HabitatOccupants(h.ID))
	ids := make([]string, 0, len(occupants))
	for _, c := range occupants {
		ids = append(ids, c.ID)
	}
	return OccupancyReport{
		HabitatID:      h.ID,
		Name:           h.Name,
		Biome:          h.Biome,
		Occupied:       occ.Occupied,
		Capacity:       occ.Capacity,
		Percent:        occ.Percent(),
		Free:           occ.Free(),
		Classification: occ.Classify(),
		OccupantIDs:    ids,
	}
}

func sortedCreatures(creatures []Creature) []Creature {
	out := append([]Creature(nil), creatures...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func membershipID(creatureID, habitatID string) string {
	return domain.MembershipKey{CreatureID: creatureID, HabitatID: habitatID}.String()
}
