package core

import (
	"context"
	"time"

	"mnyama/internal/blob"
	"mnyama/pkg/domain"
)

// Logger is the structured logging surface used by the service. Arguments
// after msg are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AuditStatus describes how an audited operation ended.
type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusRejected AuditStatus = "rejected"
	AuditStatusError    AuditStatus = "error"
)

// AuditEntry is emitted once per mutating service operation.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and latency.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is finished with the operation error, nil on success.
type TraceSpan interface {
	End(err error)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Clock supplies timestamps to the service and, where supported, the store.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger. A nil logger is ignored.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the clock used for audit timestamps and record times.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithBlobStore enables creature image artifacts.
func WithBlobStore(store blob.Store) ServiceOption {
	return func(s *Service) {
		s.blobs = store
	}
}

type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

// auditedOperations lists the operations that produce audit entries; reads
// are traced and measured but not audited.
var auditedOperations = map[string]operationMeta{
	"create_species":        {domain.EntitySpecies, domain.ActionCreate},
	"update_species":        {domain.EntitySpecies, domain.ActionUpdate},
	"delete_species":        {domain.EntitySpecies, domain.ActionDelete},
	"create_creature":       {domain.EntityCreature, domain.ActionCreate},
	"update_creature":       {domain.EntityCreature, domain.ActionUpdate},
	"delete_creature":       {domain.EntityCreature, domain.ActionDelete},
	"attach_creature_image": {domain.EntityCreature, domain.ActionUpdate},
	"remove_creature_image": {domain.EntityCreature, domain.ActionUpdate},
	"create_habitat":        {domain.EntityHabitat, domain.ActionCreate},
	"update_habitat":        {domain.EntityHabitat, domain.ActionUpdate},
	"delete_habitat":        {domain.EntityHabitat, domain.ActionDelete},
	"resize_habitat":        {domain.EntityHabitat, domain.ActionUpdate},
	"assign_creature":       {domain.EntityMembership, domain.ActionCreate},
	"unassign_creature":     {domain.EntityMembership, domain.ActionDelete},
	"unassign_all":          {domain.EntityMembership, domain.ActionDelete},
}

// outcome is what an instrumented operation reports back to instrument.
type outcome struct {
	entityID string
	result   Result
	rejected bool
}

// instrument runs fn inside a span and feeds the metrics, audit and log sinks.
// Rejections count as successful operations for metrics and tracing.
func (s *Service) instrument(ctx context.Context, op string, fn func(context.Context) (outcome, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()
	out, err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	switch {
	case err != nil:
		s.logger.Error("operation failed", "operation", op, "entity_id", out.entityID, "error", err)
		s.recordAudit(ctx, op, out.entityID, AuditStatusError, duration, err)
		return out.result, err
	case out.rejected:
		s.logger.Info("operation rejected", "operation", op, "entity_id", out.entityID)
		s.recordAudit(ctx, op, out.entityID, AuditStatusRejected, duration, nil)
	default:
		s.logger.Debug("operation completed", "operation", op, "entity_id", out.entityID, "duration", duration)
		s.recordAudit(ctx, op, out.entityID, AuditStatusSuccess, duration, nil)
	}
	for _, w := range out.result.Warnings() {
		s.logger.Warn("rule warning", "operation", op, "rule", w.Rule, "entity_id", w.EntityID, "message", w.Message)
	}
	return out.result, nil
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, status AuditStatus, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    status,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
