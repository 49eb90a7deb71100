package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mnyama/pkg/domain"
)

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindHabitat("missing"); ok {
			t.Fatalf("expected missing habitat lookup")
		}
		sp, err := tx.CreateSpecies(domain.Species{Name: "Lion", Diet: domain.DietCarnivore, Size: 50})
		if err != nil {
			return err
		}
		created, err := tx.CreateCreature(domain.Creature{Name: "Simba", Age: 3, SpeciesID: sp.ID})
		if err != nil {
			return err
		}
		if created.ID == "" {
			t.Fatalf("expected generated ID")
		}
		view := tx.Snapshot()
		if len(view.ListCreatures()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListCreatures()) != 1 {
		t.Fatalf("expected persisted creature")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListCreatures()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListCreatures()) != 1 || len(store.ListSpecies()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

func TestStoreRuleViolation(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateHabitat(domain.Habitat{Name: "Fail", Biome: "Desert", Capacity: 10})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if len(store.ListHabitats()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestStoreFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateHabitat(domain.Habitat{Name: "Arctic", Biome: "Tundra", Capacity: 20}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(store.ListHabitats()) != 0 {
		t.Fatalf("expected rollback")
	}
}

func TestStoreUsesInjectedClock(t *testing.T) {
	store := NewStore(nil)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	store.SetNowFunc(nil)
	var habitat domain.Habitat
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		habitat, err = tx.CreateHabitat(domain.Habitat{Name: "Jungle", Biome: "Rainforest", Capacity: 40})
		return err
	})
	if err != nil {
		t.Fatalf("create habitat: %v", err)
	}
	if !habitat.CreatedAt.Equal(fixed) || !habitat.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected fixed timestamps, got %v/%v", habitat.CreatedAt, habitat.UpdatedAt)
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(ctx context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	res.Merge(domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}})
	return res, nil
}

func TestUpdateHabitatErrors(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var nf domain.NotFoundError
		if _, err := tx.UpdateHabitat("missing", func(*domain.Habitat) error { return nil }); !errors.As(err, &nf) {
			t.Fatalf("expected missing habitat error, got %v", err)
		}
		h, err := tx.CreateHabitat(domain.Habitat{Name: "Unit", Biome: "Grassland", Capacity: 2})
		if err != nil {
			return err
		}
		if _, err = tx.UpdateHabitat(h.ID, func(*domain.Habitat) error { return fmt.Errorf("boom") }); err == nil {
			t.Fatalf("expected mutator error")
		}
		if _, err = tx.UpdateHabitat(h.ID, func(hab *domain.Habitat) error { hab.Capacity = 0; return nil }); err == nil {
			t.Fatalf("expected capacity validation error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestStoreCommitHook(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	create := func(name string) error {
		_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, e := tx.CreateHabitat(domain.Habitat{Name: name, Biome: "Wetland", Capacity: 10})
			return e
		})
		return err
	}

	var seen []int
	store.SetCommitHook(func(_ context.Context, next Snapshot) error {
		seen = append(seen, len(next.Habitats))
		return nil
	})
	if err := create("Pond"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("expected hook to see the pending state, got %v", seen)
	}

	store.SetCommitHook(func(context.Context, Snapshot) error { return errors.New("disk full") })
	if err := create("Marsh"); err == nil || err.Error() != "disk full" {
		t.Fatalf("expected hook error, got %v", err)
	}
	if hs := store.ListHabitats(); len(hs) != 1 || hs[0].Name != "Pond" {
		t.Fatalf("rejected commit must keep the previous state, got %+v", hs)
	}

	store.SetCommitHook(nil)
	if err := create("Marsh"); err != nil {
		t.Fatalf("create without hook: %v", err)
	}
}
