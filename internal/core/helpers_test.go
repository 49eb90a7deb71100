package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

func (c *captureAuditRecorder) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entry := range c.entries {
		if entry.Operation == op {
			n++
		}
	}
	return n
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	mu      sync.Mutex
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.level == level && r.msg == msg {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func mustSpecies(t *testing.T, svc *Service, sp Species) Species {
	t.Helper()
	created, _, err := svc.CreateSpecies(context.Background(), sp)
	if err != nil {
		t.Fatalf("create species %s: %v", sp.Name, err)
	}
	return created
}

func mustCreature(t *testing.T, svc *Service, c Creature) Creature {
	t.Helper()
	created, _, err := svc.CreateCreature(context.Background(), c)
	if err != nil {
		t.Fatalf("create creature %s: %v", c.Name, err)
	}
	return created
}

func mustHabitat(t *testing.T, svc *Service, h Habitat) Habitat {
	t.Helper()
	created, _, err := svc.CreateHabitat(context.Background(), h)
	if err != nil {
		t.Fatalf("create habitat %s: %v", h.Name, err)
	}
	return created
}

func mustAssign(t *testing.T, svc *Service, creatureID, habitatID string) AssignmentResult {
	t.Helper()
	res, err := svc.Allocator().TryAssign(context.Background(), creatureID, habitatID)
	if err != nil {
		t.Fatalf("assign %s to %s: %v", creatureID, habitatID, err)
	}
	if res.Outcome != OutcomeAssigned {
		t.Fatalf("assign %s to %s: expected assigned, got %+v", creatureID, habitatID, res)
	}
	return res
}

// savanna seeds a 100 capacity habitat, lions of size 50 and a zebra of size 30.
type savanna struct {
	habitat Habitat
	lion    Species
	zebra   Species
	lions   []Creature
	stripes Creature
}

func seedSavanna(t *testing.T, svc *Service) savanna {
	t.Helper()
	s := savanna{}
	s.lion = mustSpecies(t, svc, Species{Base: Base{ID: "sp-lion"}, Name: "Lion", Diet: DietCarnivore, Size: 50})
	s.zebra = mustSpecies(t, svc, Species{Base: Base{ID: "sp-zebra"}, Name: "Zebra", Diet: DietHerbivore, Size: 30})
	s.habitat = mustHabitat(t, svc, Habitat{Base: Base{ID: "hab-savanna"}, Name: "Savanna", Biome: "Grassland", Capacity: 100})
	for _, name := range []string{"Simba", "Nala", "Mufasa"} {
		s.lions = append(s.lions, mustCreature(t, svc, Creature{Base: Base{ID: "cr-" + name}, Name: name, Age: 4, SpeciesID: s.lion.ID}))
	}
	s.stripes = mustCreature(t, svc, Creature{Base: Base{ID: "cr-Stripes"}, Name: "Stripes", Age: 2, SpeciesID: s.zebra.ID})
	return s
}

func fixedClock(ts time.Time) Clock {
	return ClockFunc(func() time.Time { return ts })
}
