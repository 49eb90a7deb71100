package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDefaultRulesEngineRegistration(t *testing.T) {
	names := NewDefaultRulesEngine().Rules()
	want := []string{"habitat_capacity", "diet_compatibility", "habitat_overhang"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestCapacityRuleBlocksDirectMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	s := seedSavanna(t, svc)

	_, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		for _, lion := range s.lions {
			if _, err := tx.AddMembership(lion.ID, s.habitat.ID); err != nil {
				return err
			}
		}
		return nil
	})
	var rv RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	v := rv.Result.Violations[0]
	if v.Rule != "habitat_capacity" || v.Severity != SeverityBlock || !strings.Contains(v.Message, "150/100") {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if len(svc.Store().ListMemberships()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestDietRuleBlocksDirectMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	s := seedSavanna(t, svc)

	_, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.AddMembership(s.stripes.ID, s.habitat.ID); err != nil {
			return err
		}
		_, err := tx.AddMembership(s.lions[0].ID, s.habitat.ID)
		return err
	})
	var rv RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	found := false
	for _, v := range rv.Result.Violations {
		if v.Rule == "diet_compatibility" && strings.Contains(v.Message, "cr-Simba (Carnivore) with cr-Stripes (Herbivore)") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected diet violation naming the pair, got %+v", rv.Result.Violations)
	}
}

func TestOverhangRuleIgnoresGrowth(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	s := seedSavanna(t, svc)
	mustAssign(t, svc, s.lions[0].ID, s.habitat.ID)

	res, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateHabitat(s.habitat.ID, func(h *Habitat) error {
			h.Capacity = 40
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if w := res.Warnings(); len(w) != 1 || !strings.Contains(w[0].Message, "holds 50 against capacity 40; 10 over") {
		t.Fatalf("unexpected warnings: %+v", w)
	}

	res, err = svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateHabitat(s.habitat.ID, func(h *Habitat) error {
			h.Capacity = 45
			return nil
		})
		return err
	})
	if err != nil || len(res.Violations) != 0 {
		t.Fatalf("growth must not warn: %+v err=%v", res, err)
	}
}
