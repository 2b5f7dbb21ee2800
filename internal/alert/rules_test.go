package alert

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
)

var ctxBG = context.Background()

func TestCreateRuleDefaultsActive(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)

	rule, err := rm.CreateRule(ctxBG, f.reservoir.ID, f.owner.ID, models.ConditionLessThan, -2.5)
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if !rule.IsActive {
		t.Error("new rule is not active")
	}
	if rule.ReservoirID != f.reservoir.ID || rule.Threshold != -2.5 {
		t.Errorf("unexpected rule %+v", rule)
	}
}

func TestCreateRuleErrors(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)

	if _, err := rm.CreateRule(ctxBG, 9999, f.owner.ID, models.ConditionEquals, 1); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing reservoir: got %v, want ErrNotFound", err)
	}
	if _, err := rm.CreateRule(ctxBG, f.reservoir.ID, f.stranger.ID, models.ConditionEquals, 1); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger: got %v, want ErrPermissionDenied", err)
	}
	if _, err := rm.CreateRule(ctxBG, f.reservoir.ID, f.owner.ID, models.ConditionEquals, math.NaN()); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("NaN threshold: got %v, want ErrInvalidArgument", err)
	}

	var count int64
	f.db.Model(&models.AlertRule{}).Count(&count)
	if count != 0 {
		t.Errorf("rules stored after failed creates: %d", count)
	}
}

func TestListRules(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)
	f.addRule(t, models.ConditionGreaterThan, 80)
	f.addRule(t, models.ConditionLessThan, 10)

	rules, err := rm.ListRules(ctxBG, f.reservoir.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if _, err := rm.ListRules(ctxBG, f.reservoir.ID, f.stranger.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger: got %v", err)
	}
	if _, err := rm.ListRules(ctxBG, 4242, f.owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing reservoir: got %v", err)
	}
}

func TestUpdateRulePartial(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)
	rule := f.addRule(t, models.ConditionGreaterThan, 80)

	threshold := 90.0
	updated, err := rm.UpdateRule(ctxBG, rule.ID, f.owner.ID, RuleUpdate{Threshold: &threshold})
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if updated.Threshold != 90 {
		t.Errorf("threshold = %v, want 90", updated.Threshold)
	}
	if updated.ConditionType != models.ConditionGreaterThan || !updated.IsActive {
		t.Errorf("absent fields changed: %+v", updated)
	}

	cond := models.ConditionLessThanOrEqual
	inactive := false
	updated, err = rm.UpdateRule(ctxBG, rule.ID, f.owner.ID, RuleUpdate{ConditionType: &cond, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if updated.ConditionType != cond || updated.IsActive || updated.Threshold != 90 {
		t.Errorf("unexpected rule after second update: %+v", updated)
	}

	same, err := rm.UpdateRule(ctxBG, rule.ID, f.owner.ID, RuleUpdate{})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if same.Threshold != 90 {
		t.Errorf("empty update changed rule: %+v", same)
	}
}

func TestUpdateRuleErrors(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)
	rule := f.addRule(t, models.ConditionGreaterThan, 80)

	threshold := 1.0
	if _, err := rm.UpdateRule(ctxBG, rule.ID, f.stranger.ID, RuleUpdate{Threshold: &threshold}); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger: got %v", err)
	}
	if _, err := rm.UpdateRule(ctxBG, 777, f.owner.ID, RuleUpdate{Threshold: &threshold}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing rule: got %v", err)
	}
	bad := models.ConditionType("between")
	if _, err := rm.UpdateRule(ctxBG, rule.ID, f.owner.ID, RuleUpdate{ConditionType: &bad}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("bad condition: got %v", err)
	}

	got, err := rm.GetRule(ctxBG, rule.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if got.Threshold != 80 {
		t.Errorf("rejected update was applied: %+v", got)
	}
}

func TestDeleteRule(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)
	rule := f.addRule(t, models.ConditionGreaterThan, 80)

	if err := rm.DeleteRule(ctxBG, rule.ID, f.stranger.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger delete: got %v", err)
	}
	if err := rm.DeleteRule(ctxBG, rule.ID, f.owner.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if _, err := rm.GetRule(ctxBG, rule.ID, f.owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted rule still found: %v", err)
	}
	if err := rm.DeleteRule(ctxBG, rule.ID, f.owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestActiveRules(t *testing.T) {
	f := newFixture(t)
	rm := NewRuleManager(f.db)
	on := f.addRule(t, models.ConditionGreaterThan, 80)
	off := f.addRule(t, models.ConditionLessThan, 10)
	if _, err := rm.SetActive(ctxBG, off.ID, f.owner.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	rules, err := rm.ActiveRules(ctxBG, f.reservoir.ID)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != on.ID {
		t.Errorf("active rules = %+v, want only rule %d", rules, on.ID)
	}
}

func TestInactiveRuleInsertKeepsFlag(t *testing.T) {
	f := newFixture(t)
	rule := &models.AlertRule{ReservoirID: f.reservoir.ID, ConditionType: models.ConditionGreaterThan, Threshold: 5, IsActive: false}
	if err := f.db.Create(rule).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	rules, err := NewRuleManager(f.db).ActiveRules(ctxBG, f.reservoir.ID)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("rule inserted inactive was stored active: %+v", rules)
	}
}
