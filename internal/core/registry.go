package core

import (
	"context"

	"mnyama/pkg/domain"
)

// CreateHabitat persists a new habitat.
func (s *Service) CreateHabitat(ctx context.Context, habitat Habitat) (Habitat, Result, error) {
	var created Habitat
	res, err := s.mutate(ctx, "create_habitat", "", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateHabitat(habitat)
		return created.ID, err
	})
	return created, res, err
}

// UpdateHabitat changes a habitat's name or biome. Capacity changes go
// through Allocator.Resize, which knows about occupancy.
func (s *Service) UpdateHabitat(ctx context.Context, id string, mutator func(*Habitat) error) (Habitat, Result, error) {
	var updated Habitat
	res, err := s.mutate(ctx, "update_habitat", id, func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateHabitat(id, func(h *Habitat) error {
			capacity := h.Capacity
			if err := mutator(h); err != nil {
				return err
			}
			if h.Capacity != capacity {
				return domain.ValidationError{Entity: domain.EntityHabitat, Field: "capacity", Message: "capacity changes must use Resize"}
			}
			return nil
		})
		return "", err
	})
	return updated, res, err
}

// DeleteHabitat removes an unoccupied habitat.
func (s *Service) DeleteHabitat(ctx context.Context, id string) (Result, error) {
	return s.mutate(ctx, "delete_habitat", id, func(tx Transaction) (string, error) {
		return "", tx.DeleteHabitat(id)
	})
}

// GetHabitat returns a habitat or NotFoundError.
func (s *Service) GetHabitat(id string) (Habitat, error) {
	h, ok := s.store.GetHabitat(id)
	if !ok {
		return Habitat{}, notFound(domain.EntityHabitat, id)
	}
	return h, nil
}

// ListHabitats returns all habitats ordered by id.
func (s *Service) ListHabitats() []Habitat { return s.store.ListHabitats() }

// OccupantsOf returns the habitat's occupants ordered by id.
func (s *Service) OccupantsOf(ctx context.Context, habitatID string) ([]Creature, error) {
	var occupants []Creature
	err := s.view(ctx, func(view TransactionView) error {
		if _, ok := view.FindHabitat(habitatID); !ok {
			return notFound(domain.EntityHabitat, habitatID)
		}
		occupants = sortedCreatures(view.HabitatOccupants(habitatID))
		return nil
	})
	return occupants, err
}

// Occupied returns the summed footprint of a habitat's occupants.
func (s *Service) Occupied(ctx context.Context, habitatID string) (int, error) {
	occ, err := s.occupancy(ctx, habitatID)
	return occ.Occupied, err
}

func (s *Service) occupancy(ctx context.Context, habitatID string) (Occupancy, error) {
	var occ Occupancy
	err := s.view(ctx, func(view TransactionView) error {
		h, ok := view.FindHabitat(habitatID)
		if !ok {
			return notFound(domain.EntityHabitat, habitatID)
		}
		occ = domain.HabitatOccupancy(view, h)
		return nil
	})
	return occ, err
}
