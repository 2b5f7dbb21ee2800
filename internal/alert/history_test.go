package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/reservoireye/internal/models"
)

type capturePublisher struct {
	payloads []any
	err      error
}

func (p *capturePublisher) Publish(payload any) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestAppendRequiresTerminalStatus(t *testing.T) {
	f := newFixture(t)
	rule := f.addRule(t, models.ConditionGreaterThan, 1)
	h := NewAlertHistory(f.db, nil)

	err := h.Append(ctxBG, &models.AlertEvent{
		RuleID:      rule.ID,
		TriggeredAt: time.Now(),
		SentTo:      f.owner.Email,
		Status:      models.AlertStatusPending,
	})
	if err == nil {
		t.Fatal("pending event was stored")
	}
	if n := len(f.events(t)); n != 0 {
		t.Errorf("stored %d events, want 0", n)
	}
}

func TestAlertEventsAreImmutable(t *testing.T) {
	f := newFixture(t)
	rule := f.addRule(t, models.ConditionGreaterThan, 1)
	h := NewAlertHistory(f.db, nil)

	event := &models.AlertEvent{RuleID: rule.ID, TriggeredAt: time.Now(), SentTo: f.owner.Email, Status: models.AlertStatusFailed}
	if err := h.Append(ctxBG, event); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := h.Append(ctxBG, event); !errors.Is(err, models.ErrAlertEventImmutable) {
		t.Errorf("re-append: got %v", err)
	}

	event.Status = models.AlertStatusSent
	if err := f.db.Save(event).Error; !errors.Is(err, models.ErrAlertEventImmutable) {
		t.Errorf("Save: got %v, want ErrAlertEventImmutable", err)
	}
	if err := f.db.Delete(event).Error; !errors.Is(err, models.ErrAlertEventImmutable) {
		t.Errorf("Delete: got %v, want ErrAlertEventImmutable", err)
	}

	stored := f.events(t)
	if len(stored) != 1 || stored[0].Status != models.AlertStatusFailed {
		t.Errorf("stored events = %+v", stored)
	}
}

func TestFindHistoryByUser(t *testing.T) {
	f := newFixture(t)
	rule := f.addRule(t, models.ConditionGreaterThan, 1)

	other := models.Reservoir{UserID: f.stranger.ID, Name: "Other", Capacity: 10}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatal(err)
	}
	otherRule, err := NewRuleManager(f.db).CreateRule(ctxBG, other.ID, f.stranger.ID, models.ConditionLessThan, 5)
	if err != nil {
		t.Fatal(err)
	}

	h := NewAlertHistory(f.db, nil)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := &models.AlertEvent{RuleID: rule.ID, TriggeredAt: base.Add(time.Duration(i) * time.Minute), SentTo: f.owner.Email, Status: models.AlertStatusSent}
		if err := h.Append(ctxBG, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Append(ctxBG, &models.AlertEvent{RuleID: otherRule.ID, TriggeredAt: base, SentTo: f.stranger.Email, Status: models.AlertStatusSent}); err != nil {
		t.Fatal(err)
	}

	events, err := h.FindHistoryByUser(ctxBG, f.owner.ID, 0, 0)
	if err != nil {
		t.Fatalf("FindHistoryByUser: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].TriggeredAt.After(events[i-1].TriggeredAt) {
			t.Errorf("events not ordered newest first: %v after %v", events[i].TriggeredAt, events[i-1].TriggeredAt)
		}
	}

	page, err := h.FindHistoryByUser(ctxBG, f.owner.ID, 1, 1)
	if err != nil {
		t.Fatalf("FindHistoryByUser page: %v", err)
	}
	if len(page) != 1 || !page[0].TriggeredAt.Equal(base.Add(time.Minute)) {
		t.Errorf("page = %+v", page)
	}

	none, err := h.FindHistoryByUser(ctxBG, 9999, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("unknown user got %d events", len(none))
	}
}

func TestAppendPublishes(t *testing.T) {
	f := newFixture(t)
	rule := f.addRule(t, models.ConditionGreaterThan, 1)
	pub := &capturePublisher{err: errors.New("bus down")}
	h := NewAlertHistory(f.db, pub)

	event := &models.AlertEvent{RuleID: rule.ID, TriggeredAt: time.Now(), SentTo: f.owner.Email, Status: models.AlertStatusSent}
	if err := h.Append(ctxBG, event); err != nil {
		t.Fatalf("publish failure leaked into Append: %v", err)
	}
	if len(pub.payloads) != 1 {
		t.Errorf("published %d payloads, want 1", len(pub.payloads))
	}
	n, err := h.CountByRule(ctxBG, rule.ID)
	if err != nil || n != 1 {
		t.Errorf("CountByRule = %d, %v", n, err)
	}
}
