package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateSpecies(Species) (Species, error)
	UpdateSpecies(id string, mutator func(*Species) error) (Species, error)
	DeleteSpecies(id string) error
	CreateCreature(Creature) (Creature, error)
	UpdateCreature(id string, mutator func(*Creature) error) (Creature, error)
	DeleteCreature(id string) error
	CreateHabitat(Habitat) (Habitat, error)
	UpdateHabitat(id string, mutator func(*Habitat) error) (Habitat, error)
	DeleteHabitat(id string) error
	AddMembership(creatureID, habitatID string) (Membership, error)
	RemoveMembership(creatureID, habitatID string) error
	FindSpecies(id string) (Species, bool)
	FindCreature(id string) (Creature, bool)
	FindHabitat(id string) (Habitat, bool)
}

// TransactionView provides read-only access to snapshot data for rules,
// allocation checks and reports. List results are ordered by id.
type TransactionView interface {
	ListSpecies() []Species
	ListCreatures() []Creature
	ListHabitats() []Habitat
	ListMemberships() []Membership
	FindSpecies(id string) (Species, bool)
	FindCreature(id string) (Creature, bool)
	FindHabitat(id string) (Habitat, bool)
	HabitatOccupants(habitatID string) []Creature
	CreatureHabitats(creatureID string) []Habitat
	IsMember(creatureID, habitatID string) bool
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSpecies(id string) (Species, bool)
	ListSpecies() []Species
	GetCreature(id string) (Creature, bool)
	ListCreatures() []Creature
	GetHabitat(id string) (Habitat, bool)
	ListHabitats() []Habitat
	ListMemberships() []Membership
}

// FootprintResolver returns a footprint function bound to the species visible
// in view. Creatures whose species is missing fall back to the default size.
func FootprintResolver(view TransactionView) func(Creature) int {
	cache := make(map[string]int)
	return func(c Creature) int {
		if size, ok := cache[c.SpeciesID]; ok {
			return size
		}
		size := DefaultSpeciesSize
		if sp, ok := view.FindSpecies(c.SpeciesID); ok {
			size = sp.Size
		}
		cache[c.SpeciesID] = size
		return size
	}
}

// HabitatOccupancy derives the occupancy of a habitat from view.
func HabitatOccupancy(view TransactionView, habitat Habitat) Occupancy {
	footprint := FootprintResolver(view)
	return Occupancy{
		Occupied: OccupiedBy(view.HabitatOccupants(habitat.ID), footprint),
		Capacity: habitat.Capacity,
	}
}

// OccupantsOf resolves the diet and footprint of every occupant of a habitat.
func OccupantsOf(view TransactionView, habitatID string) []Occupant {
	creatures := view.HabitatOccupants(habitatID)
	out := make([]Occupant, 0, len(creatures))
	for _, c := range creatures {
		out = append(out, OccupantFor(view, c))
	}
	return out
}

// OccupantFor resolves the species-derived allocation values for c.
func OccupantFor(view TransactionView, c Creature) Occupant {
	o := Occupant{CreatureID: c.ID, Footprint: DefaultSpeciesSize}
	if sp, ok := view.FindSpecies(c.SpeciesID); ok {
		o.Diet = sp.Diet
		o.Footprint = sp.Size
	}
	return o
}
