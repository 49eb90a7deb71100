package core

import (
	"context"
	"errors"
	"io"
	"time"

	"mnyama/internal/blob"
	"mnyama/pkg/domain"
)

// errNoChange aborts a transaction whose outcome is a rejection or a no-op,
// so nothing is committed or persisted.
var errNoChange = errors.New("core: no change")

// Service exposes the catalog and registry operations over a persistent
// store, plus the allocator and reporter built on the same store.
type Service struct {
	store  PersistentStore
	engine *RulesEngine
	blobs  blob.Store
	locks  *habitatLocks

	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock

	allocator *Allocator
	reporter  *Reporter
}

type rulesEngineProvider interface {
	RulesEngine() *RulesEngine
}

type clockSetter interface {
	SetNowFunc(func() time.Time)
}

// NewService constructs a service backed by store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:   store,
		locks:   newHabitatLocks(),
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		clock:   systemClock{},
	}
	if provider, ok := store.(rulesEngineProvider); ok {
		svc.engine = provider.RulesEngine()
	}
	for _, opt := range opts {
		opt(svc)
	}
	if _, custom := svc.clock.(systemClock); !custom {
		if setter, ok := store.(clockSetter); ok {
			setter.SetNowFunc(svc.clock.Now)
		}
	}
	svc.allocator = &Allocator{svc: svc}
	svc.reporter = &Reporter{svc: svc}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying store.
func (s *Service) Store() PersistentStore { return s.store }

// RulesEngine returns the engine the store evaluates, when the store exposes it.
func (s *Service) RulesEngine() *RulesEngine { return s.engine }

// Blobs returns the artifact store, nil when images are disabled.
func (s *Service) Blobs() blob.Store { return s.blobs }

// Allocator returns the allocation engine.
func (s *Service) Allocator() *Allocator { return s.allocator }

// Reporter returns the read-only reporting aggregator.
func (s *Service) Reporter() *Reporter { return s.reporter }

// Close releases the store when it holds external resources.
func (s *Service) Close() error {
	if closer, ok := s.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// view runs fn against an immutable snapshot of the store.
func (s *Service) view(ctx context.Context, fn func(TransactionView) error) error {
	return s.store.View(ctx, fn)
}

// mutate runs a single-entity write through instrument.
func (s *Service) mutate(ctx context.Context, op, entityID string, fn func(Transaction) (string, error)) (Result, error) {
	return s.instrument(ctx, op, func(ctx context.Context) (outcome, error) {
		id := entityID
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			created, err := fn(tx)
			if created != "" {
				id = created
			}
			return err
		})
		return outcome{entityID: id, result: res}, err
	})
}

func notFound(entity domain.EntityType, id string) error {
	return domain.NotFoundError{Entity: entity, ID: id}
}
