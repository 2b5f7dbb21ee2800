package alert

import (
	"context"
	"fmt"

	"github.com/reservoireye/internal/logger"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// EventPublisher receives every alert event after it has been stored.
type EventPublisher interface {
	Publish(payload any) error
}

// AlertHistory is the append-only log of rule triggers and their delivery
// outcome.
type AlertHistory struct {
	db        *gorm.DB
	publisher EventPublisher
}

func NewAlertHistory(db *gorm.DB, publisher EventPublisher) *AlertHistory {
	return &AlertHistory{db: db, publisher: publisher}
}

// Append stores event. The event must already carry its final status.
func (h *AlertHistory) Append(ctx context.Context, event *models.AlertEvent) error {
	if event.ID != 0 {
		return fmt.Errorf("alert event %d already stored: %w", event.ID, models.ErrAlertEventImmutable)
	}
	if err := h.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record alert event: %w", err)
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(event); err != nil {
			log := logger.WithComponent("alert")
			log.Warn().Err(err).Uint("event_id", event.ID).Msg("failed to publish alert event")
		}
	}
	return nil
}

// FindHistoryByUser returns the events of every rule on reservoirs owned by
// userID, newest first.
func (h *AlertHistory) FindHistoryByUser(ctx context.Context, userID uint, limit, offset int) ([]models.AlertEvent, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	events := []models.AlertEvent{}
	err := h.db.WithContext(ctx).
		Select("alert_events.*").
		Joins("JOIN alert_rules ON alert_rules.id = alert_events.rule_id").
		Joins("JOIN reservoirs ON reservoirs.id = alert_rules.reservoir_id").
		Where("reservoirs.user_id = ?", userID).
		Order("alert_events.triggered_at DESC").
		Order("alert_events.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert history: %w", err)
	}
	return events, nil
}

// CountByRule returns how many events a rule has produced.
func (h *AlertHistory) CountByRule(ctx context.Context, ruleID uint) (int64, error) {
	var n int64
	if err := h.db.WithContext(ctx).
		Model(&models.AlertEvent{}).
		Where("rule_id = ?", ruleID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count alert events: %w", err)
	}
	return n, nil
}
