package domain

import "fmt"

// ValidationError reports malformed input. It is always recoverable by the caller.
type ValidationError struct {
	Entity  EntityType
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("invalid %s %s: %s", e.Entity, e.Field, e.Message)
}

// NotFoundError is returned when a referenced id is unknown.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InUseError is returned when a record cannot be deleted because other
// records still reference it.
type InUseError struct {
	Entity    EntityType
	ID        string
	Dependent EntityType
	Count     int
}

func (e InUseError) Error() string {
	return fmt.Sprintf("%s %s still referenced by %d %s record(s)", e.Entity, e.ID, e.Count, e.Dependent)
}
