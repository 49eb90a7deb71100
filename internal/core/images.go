package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"mnyama/internal/blob"
	"mnyama/pkg/domain"
)

// ErrImagesDisabled is returned by image operations when no blob store is configured.
var ErrImagesDisabled = errors.New("core: creature images require a blob store")

// ImageOptions describes an uploaded creature image.
type ImageOptions struct {
	// Ext is the file extension, with or without the dot.
	Ext string
	// ContentType is detected from the payload when empty.
	ContentType string
}

// AttachCreatureImage stores r as the creature's image and points ImageRef at
// it. A previous image under a different key is deleted after the record is
// updated.
func (s *Service) AttachCreatureImage(ctx context.Context, creatureID string, r io.Reader, opts ImageOptions) (Creature, blob.Info, error) {
	var (
		updated Creature
		info    blob.Info
	)
	_, err := s.instrument(ctx, "attach_creature_image", func(ctx context.Context) (outcome, error) {
		out := outcome{entityID: creatureID}
		if s.blobs == nil {
			return out, ErrImagesDisabled
		}
		current, err := s.GetCreature(creatureID)
		if err != nil {
			return out, err
		}
		payload, err := io.ReadAll(r)
		if err != nil {
			return out, fmt.Errorf("read image: %w", err)
		}

		key := blob.CreatureImageKey(creatureID, opts.Ext)
		putOpts := blob.PutOptions{
			ContentType: opts.ContentType,
			Metadata:    map[string]string{"creature_id": creatureID},
		}
		info, err = s.blobs.Put(ctx, key, bytes.NewReader(payload), putOpts)
		if errors.Is(err, blob.ErrExists) {
			if _, err := s.blobs.Delete(ctx, key); err != nil {
				return out, fmt.Errorf("replace image %s: %w", key, err)
			}
			info, err = s.blobs.Put(ctx, key, bytes.NewReader(payload), putOpts)
		}
		if err != nil {
			return out, fmt.Errorf("store image %s: %w", key, err)
		}

		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateCreature(creatureID, func(c *Creature) error {
				ref := info.Key
				c.ImageRef = &ref
				return nil
			})
			return err
		})
		out.result = res
		if err != nil {
			// Same key means the existing ref now points at the new payload.
			if current.ImageRef == nil || *current.ImageRef != info.Key {
				s.deleteArtifact(ctx, creatureID, info.Key)
			}
			return out, err
		}
		if current.ImageRef != nil && *current.ImageRef != info.Key {
			s.deleteArtifact(ctx, creatureID, *current.ImageRef)
		}
		return out, nil
	})
	if err != nil {
		return Creature{}, blob.Info{}, err
	}
	return updated, info, nil
}

// RemoveCreatureImage clears ImageRef and deletes the artifact. It is a no-op
// for creatures without an image.
func (s *Service) RemoveCreatureImage(ctx context.Context, creatureID string) (Creature, error) {
	var (
		updated Creature
		removed *string
	)
	_, err := s.instrument(ctx, "remove_creature_image", func(ctx context.Context) (outcome, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindCreature(creatureID)
			if !ok {
				return notFound(domain.EntityCreature, creatureID)
			}
			if current.ImageRef == nil {
				updated = current
				return errNoChange
			}
			removed = current.ImageRef
			var err error
			updated, err = tx.UpdateCreature(creatureID, func(c *Creature) error {
				c.ImageRef = nil
				return nil
			})
			return err
		})
		if errors.Is(err, errNoChange) {
			err = nil
		}
		return outcome{entityID: creatureID, result: res}, err
	})
	if err != nil {
		return Creature{}, err
	}
	if removed != nil {
		s.deleteArtifact(ctx, creatureID, *removed)
	}
	return updated, nil
}

// CreatureImageURL returns a time-limited GET URL for the creature's image.
func (s *Service) CreatureImageURL(ctx context.Context, creatureID string, expiry time.Duration) (string, error) {
	if s.blobs == nil {
		return "", ErrImagesDisabled
	}
	c, err := s.GetCreature(creatureID)
	if err != nil {
		return "", err
	}
	if c.ImageRef == nil {
		return "", fmt.Errorf("creature %s has no image: %w", creatureID, blob.ErrNotFound)
	}
	return s.blobs.PresignURL(ctx, *c.ImageRef, blob.SignedURLOptions{Expiry: expiry})
}
