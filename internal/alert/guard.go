package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

// Ownership is resolved by explicit lookups along User -> Reservoir -> Rule
// and checked once per operation.

func reservoirOwner(ctx context.Context, db *gorm.DB, reservoirID uint) (uint, error) {
	var reservoir models.Reservoir
	err := db.WithContext(ctx).
		Select("id", "user_id").
		Where("id = ?", reservoirID).
		First(&reservoir).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("reservoir %d: %w", reservoirID, apperror.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load reservoir %d: %w", reservoirID, err)
	}
	return reservoir.UserID, nil
}

// ruleWithOwner loads a rule joined with its reservoir and returns the id of
// the reservoir's owner.
func ruleWithOwner(ctx context.Context, db *gorm.DB, ruleID uint) (*models.AlertRule, uint, error) {
	var rule models.AlertRule
	err := db.WithContext(ctx).
		Joins("Reservoir").
		Where("alert_rules.id = ?", ruleID).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("rule %d: %w", ruleID, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load rule %d: %w", ruleID, err)
	}
	if rule.Reservoir.ID == 0 {
		return nil, 0, fmt.Errorf("rule %d: %w", ruleID, apperror.ErrNotFound)
	}
	return &rule, rule.Reservoir.UserID, nil
}

func authorize(ownerID, callerID uint) error {
	if ownerID != callerID {
		return apperror.ErrPermissionDenied
	}
	return nil
}
