// Package blob is the entry point for artifact storage. Callers depend on the
// Store interface here; the drivers live under internal/infra/blob.
package blob

import (
	"mnyama/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrInvalidKey  = core.ErrInvalidKey
)

// CreatureImageKey builds the artifact key for a creature image.
func CreatureImageKey(creatureID, ext string) string { return core.CreatureImageKey(creatureID, ext) }

// CreatureImagePrefix returns the key prefix for one creature's images.
func CreatureImagePrefix(creatureID string) string { return core.CreatureImagePrefix(creatureID) }
