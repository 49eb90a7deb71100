package core

import "mnyama/pkg/domain"

type (
	EntityType         = domain.EntityType
	Diet               = domain.Diet
	Severity           = domain.Severity
	Base               = domain.Base
	Species            = domain.Species
	Creature           = domain.Creature
	Habitat            = domain.Habitat
	Membership         = domain.Membership
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Classification     = domain.Classification
	Occupancy          = domain.Occupancy
	Rejection          = domain.Rejection
	RejectReason       = domain.RejectReason
)

const (
	EntitySpecies    = domain.EntitySpecies
	EntityCreature   = domain.EntityCreature
	EntityHabitat    = domain.EntityHabitat
	EntityMembership = domain.EntityMembership
)

const (
	DietCarnivore = domain.DietCarnivore
	DietHerbivore = domain.DietHerbivore
	DietOmnivore  = domain.DietOmnivore
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ClassificationEmpty     = domain.ClassificationEmpty
	ClassificationAvailable = domain.ClassificationAvailable
	ClassificationNearFull  = domain.ClassificationNearFull
	ClassificationFull      = domain.ClassificationFull
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine returns an engine without any rules registered.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}
