package core

import (
	"context"

	"mnyama/pkg/domain"
)

// CreateSpecies persists a new species after defaults and validation.
func (s *Service) CreateSpecies(ctx context.Context, species Species) (Species, Result, error) {
	var created Species
	res, err := s.mutate(ctx, "create_species", "", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateSpecies(species)
		return created.ID, err
	})
	return created, res, err
}

// UpdateSpecies mutates a species. Diet and size changes are checked against
// every habitat the species occupies.
func (s *Service) UpdateSpecies(ctx context.Context, id string, mutator func(*Species) error) (Species, Result, error) {
	var updated Species
	res, err := s.mutate(ctx, "update_species", id, func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateSpecies(id, mutator)
		return "", err
	})
	return updated, res, err
}

// DeleteSpecies removes a species that no creature references.
func (s *Service) DeleteSpecies(ctx context.Context, id string) (Result, error) {
	return s.mutate(ctx, "delete_species", id, func(tx Transaction) (string, error) {
		return "", tx.DeleteSpecies(id)
	})
}

// CreateCreature persists a new creature of an existing species.
func (s *Service) CreateCreature(ctx context.Context, creature Creature) (Creature, Result, error) {
	var created Creature
	res, err := s.mutate(ctx, "create_creature", "", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateCreature(creature)
		return created.ID, err
	})
	return created, res, err
}

// UpdateCreature mutates a creature. Species reassignment must name an
// existing species; the image reference is managed by the image operations.
func (s *Service) UpdateCreature(ctx context.Context, id string, mutator func(*Creature) error) (Creature, Result, error) {
	var updated Creature
	res, err := s.mutate(ctx, "update_creature", id, func(tx Transaction) (string, error) {
		current, ok := tx.FindCreature(id)
		if !ok {
			return "", notFound(domain.EntityCreature, id)
		}
		var err error
		updated, err = tx.UpdateCreature(id, func(c *Creature) error {
			if err := mutator(c); err != nil {
				return err
			}
			if !sameImageRef(current.ImageRef, c.ImageRef) {
				return domain.ValidationError{Entity: domain.EntityCreature, Field: "image_ref", Message: "image reference is managed by AttachCreatureImage"}
			}
			return nil
		})
		return "", err
	})
	return updated, res, err
}

// DeleteCreature removes the creature from every habitat, deletes the record
// and then its image artifact. An artifact failure is logged only.
func (s *Service) DeleteCreature(ctx context.Context, id string) (Result, error) {
	var image *string
	res, err := s.instrument(ctx, "delete_creature", func(ctx context.Context) (outcome, error) {
		if _, err := s.allocator.unassignAll(ctx, id); err != nil {
			return outcome{entityID: id}, err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if c, ok := tx.FindCreature(id); ok {
				image = c.ImageRef
			}
			return tx.DeleteCreature(id)
		})
		return outcome{entityID: id, result: res}, err
	})
	if err != nil {
		return res, err
	}
	if image != nil {
		s.deleteArtifact(ctx, id, *image)
	}
	return res, nil
}

// FootprintOf resolves a creature's footprint through its current species.
func (s *Service) FootprintOf(ctx context.Context, creatureID string) (int, error) {
	var footprint int
	err := s.view(ctx, func(view TransactionView) error {
		c, ok := view.FindCreature(creatureID)
		if !ok {
			return notFound(domain.EntityCreature, creatureID)
		}
		footprint = domain.OccupantFor(view, c).Footprint
		return nil
	})
	return footprint, err
}

// GetSpecies returns a species or NotFoundError.
func (s *Service) GetSpecies(id string) (Species, error) {
	sp, ok := s.store.GetSpecies(id)
	if !ok {
		return Species{}, notFound(domain.EntitySpecies, id)
	}
	return sp, nil
}

// GetCreature returns a creature or NotFoundError.
func (s *Service) GetCreature(id string) (Creature, error) {
	c, ok := s.store.GetCreature(id)
	if !ok {
		return Creature{}, notFound(domain.EntityCreature, id)
	}
	return c, nil
}

// ListSpecies returns all species ordered by id.
func (s *Service) ListSpecies() []Species { return s.store.ListSpecies() }

// ListCreatures returns all creatures ordered by id.
func (s *Service) ListCreatures() []Creature { return s.store.ListCreatures() }

func sameImageRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Service) deleteArtifact(ctx context.Context, creatureID, key string) {
	if s.blobs == nil {
		s.logger.Warn("image artifact left behind, no blob store", "creature_id", creatureID, "key", key)
		return
	}
	if _, err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("delete image artifact", "creature_id", creatureID, "key", key, "error", err)
	}
}
