package domain

import "sort"

// fakeView is a minimal TransactionView over plain maps for package tests.
type fakeView struct {
	species     map[string]Species
	creatures   map[string]Creature
	habitats    map[string]Habitat
	memberships []Membership
}

func newFakeView() *fakeView {
	return &fakeView{
		species:   make(map[string]Species),
		creatures: make(map[string]Creature),
		habitats:  make(map[string]Habitat),
	}
}

func (v *fakeView) addSpecies(id string, diet Diet, size int) {
	v.species[id] = Species{Base: Base{ID: id}, Name: id, Diet: diet, Size: size}
}

func (v *fakeView) addCreature(id, speciesID string) {
	v.creatures[id] = Creature{Base: Base{ID: id}, Name: id, SpeciesID: speciesID}
}

func (v *fakeView) addHabitat(id string, capacity int) {
	v.habitats[id] = Habitat{Base: Base{ID: id}, Name: id, Biome: "test", Capacity: capacity}
}

func (v *fakeView) assign(creatureID, habitatID string) {
	v.memberships = append(v.memberships, Membership{CreatureID: creatureID, HabitatID: habitatID})
}

func (v *fakeView) ListSpecies() []Species {
	out := make([]Species, 0, len(v.species))
	for _, s := range v.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *fakeView) ListCreatures() []Creature {
	out := make([]Creature, 0, len(v.creatures))
	for _, c := range v.creatures {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *fakeView) ListHabitats() []Habitat {
	out := make([]Habitat, 0, len(v.habitats))
	for _, h := range v.habitats {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *fakeView) ListMemberships() []Membership { return append([]Membership(nil), v.memberships...) }

func (v *fakeView) FindSpecies(id string) (Species, bool) {
	s, ok := v.species[id]
	return s, ok
}

func (v *fakeView) FindCreature(id string) (Creature, bool) {
	c, ok := v.creatures[id]
	return c, ok
}

func (v *fakeView) FindHabitat(id string) (Habitat, bool) {
	h, ok := v.habitats[id]
	return h, ok
}

func (v *fakeView) HabitatOccupants(habitatID string) []Creature {
	var out []Creature
	for _, m := range v.memberships {
		if m.HabitatID == habitatID {
			out = append(out, v.creatures[m.CreatureID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *fakeView) CreatureHabitats(creatureID string) []Habitat {
	var out []Habitat
	for _, m := range v.memberships {
		if m.CreatureID == creatureID {
			out = append(out, v.habitats[m.HabitatID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *fakeView) IsMember(creatureID, habitatID string) bool {
	for _, m := range v.memberships {
		if m.CreatureID == creatureID && m.HabitatID == habitatID {
			return true
		}
	}
	return false
}
