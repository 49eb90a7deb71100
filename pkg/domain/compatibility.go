package domain

// Compatible reports whether creatures of the two diets may share a habitat.
// Only the carnivore/herbivore pairing is excluded; omnivores and same-diet
// pairs always coexist.
func Compatible(a, b Diet) bool {
	if a == DietCarnivore && b == DietHerbivore {
		return false
	}
	if a == DietHerbivore && b == DietCarnivore {
		return false
	}
	return true
}
