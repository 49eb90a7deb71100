// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by mnyama.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySpecies identifies a species record.
	EntitySpecies EntityType = "species"
	// EntityCreature identifies an individual creature record.
	EntityCreature EntityType = "creature"
	// EntityHabitat identifies a habitat record.
	EntityHabitat EntityType = "habitat"
	// EntityMembership identifies a creature/habitat join record.
	EntityMembership EntityType = "membership"
)

// Diet classifies what a species eats. Only the three canonical values are valid.
type Diet string

// Canonical diet values.
const (
	DietCarnivore Diet = "Carnivore"
	DietHerbivore Diet = "Herbivore"
	DietOmnivore  Diet = "Omnivore"
)

// Diets returns the canonical diet values in display order.
func Diets() []Diet {
	return []Diet{DietCarnivore, DietHerbivore, DietOmnivore}
}

// Valid reports whether d is one of the canonical diets.
func (d Diet) Valid() bool {
	switch d {
	case DietCarnivore, DietHerbivore, DietOmnivore:
		return true
	default:
		return false
	}
}

// ParseDiet resolves a diet label case-insensitively.
func ParseDiet(raw string) (Diet, error) {
	trimmed := strings.TrimSpace(raw)
	for _, d := range Diets() {
		if strings.EqualFold(trimmed, string(d)) {
			return d, nil
		}
	}
	return "", ValidationError{Entity: EntitySpecies, Field: "diet", Message: dietMessage(raw)}
}

func dietMessage(raw string) string {
	return fmt.Sprintf("diet %q must be one of: Carnivore, Herbivore, Omnivore", raw)
}

// Species defaults applied when fields are left empty.
const (
	DefaultSpeciesSize  = 10
	DefaultThreatStatus = "Stable"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Species is a classification shared by creatures. Size is the per-individual
// footprint every creature of the species occupies inside a habitat.
type Species struct {
	Base
	Name           string `json:"name"`
	Diet           Diet   `json:"diet"`
	Size           int    `json:"size"`
	NaturalHabitat string `json:"natural_habitat,omitempty"`
	ThreatStatus   string `json:"threat_status"`
}

// ApplyDefaults fills the size and threat status defaults.
func (s *Species) ApplyDefaults() {
	if s.Size == 0 {
		s.Size = DefaultSpeciesSize
	}
	if strings.TrimSpace(s.ThreatStatus) == "" {
		s.ThreatStatus = DefaultThreatStatus
	}
}

// Validate checks the species invariants enforced at write time.
func (s Species) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ValidationError{Entity: EntitySpecies, Field: "name", Message: "species name cannot be empty"}
	}
	if !s.Diet.Valid() {
		return ValidationError{Entity: EntitySpecies, Field: "diet", Message: dietMessage(string(s.Diet))}
	}
	if s.Size <= 0 {
		return ValidationError{Entity: EntitySpecies, Field: "size", Message: fmt.Sprintf("species size must be positive, got %d", s.Size)}
	}
	return nil
}

// Creature is an individual animal. Its footprint is never stored; it is
// always resolved through the owning species.
type Creature struct {
	Base
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	SpeciesID string  `json:"species_id"`
	ImageRef  *string `json:"image_ref,omitempty"`
}

// Validate checks creature fields that do not require other records.
func (c Creature) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Entity: EntityCreature, Field: "name", Message: "creature name cannot be empty"}
	}
	if c.Age < 0 {
		return ValidationError{Entity: EntityCreature, Field: "age", Message: fmt.Sprintf("creature age must not be negative, got %d", c.Age)}
	}
	if strings.TrimSpace(c.SpeciesID) == "" {
		return ValidationError{Entity: EntityCreature, Field: "species_id", Message: "creature requires a species"}
	}
	return nil
}

// Habitat is a bounded-capacity enclosure. Capacity is expressed in the same
// unit as species size (square footage).
type Habitat struct {
	Base
	Name     string `json:"name"`
	Biome    string `json:"biome"`
	Capacity int    `json:"capacity"`
}

// Validate checks habitat invariants enforced at write time.
func (h Habitat) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ValidationError{Entity: EntityHabitat, Field: "name", Message: "habitat name cannot be empty"}
	}
	if strings.TrimSpace(h.Biome) == "" {
		return ValidationError{Entity: EntityHabitat, Field: "biome", Message: "habitat biome cannot be empty"}
	}
	if h.Capacity <= 0 {
		return ValidationError{Entity: EntityHabitat, Field: "capacity", Message: fmt.Sprintf("habitat capacity must be positive, got %d", h.Capacity)}
	}
	return nil
}

// Membership records that a creature occupies a habitat. Memberships are the
// only link between the two; neither side owns the other.
type Membership struct {
	CreatureID string    `json:"creature_id"`
	HabitatID  string    `json:"habitat_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Key returns the composite identity of the membership.
func (m Membership) Key() MembershipKey {
	return MembershipKey{CreatureID: m.CreatureID, HabitatID: m.HabitatID}
}

// MembershipKey is the composite identifier of a membership.
type MembershipKey struct {
	CreatureID string
	HabitatID  string
}

// String renders the key for change logs.
func (k MembershipKey) String() string {
	return k.CreatureID + "@" + k.HabitatID
}

// Action enumerates supported CRUD operations captured in change records.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes a mutation applied within a transaction. Before and After
// hold value copies of the affected record.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking warnings carried by the result.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + e.Result.Violations[0].Message
}
