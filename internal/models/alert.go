package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type AlertStatus string

const (
	AlertStatusPending AlertStatus = "pending"
	AlertStatusSent    AlertStatus = "sent"
	AlertStatusFailed  AlertStatus = "failed"
)

// IsTerminal reports whether the status is a completed delivery outcome.
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusSent || s == AlertStatusFailed
}

// ErrAlertEventImmutable is returned when something tries to rewrite history.
var ErrAlertEventImmutable = errors.New("alert events are append-only")

// AlertEvent records one rule firing and the outcome of its single delivery
// attempt. Rows are inserted once with a terminal status and never updated.
type AlertEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	RuleID      uint        `gorm:"not null;index:idx_alert_events_rule_triggered,priority:1" json:"rule_id"`
	TriggeredAt time.Time   `gorm:"not null;index:idx_alert_events_rule_triggered,priority:2" json:"triggered_at"`
	SentTo      string      `gorm:"not null" json:"sent_to"`
	Status      AlertStatus `gorm:"not null" json:"status"`

	Rule AlertRule `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AlertEvent) TableName() string {
	return "alert_events"
}

func (e *AlertEvent) BeforeCreate(tx *gorm.DB) error {
	if !e.Status.IsTerminal() {
		return errors.New("alert event must be stored with a terminal status")
	}
	return nil
}

func (e *AlertEvent) BeforeUpdate(tx *gorm.DB) error {
	return ErrAlertEventImmutable
}

func (e *AlertEvent) BeforeDelete(tx *gorm.DB) error {
	return ErrAlertEventImmutable
}
