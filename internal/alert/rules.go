package alert

import (
	"context"
	"fmt"

	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

// RuleManager stores alert rules. Every caller facing operation is scoped to
// the user owning the rule's reservoir.
type RuleManager struct {
	db *gorm.DB
}

// RuleUpdate carries a partial update; nil fields are left unchanged.
type RuleUpdate struct {
	ConditionType *models.ConditionType `json:"condition_type,omitempty"`
	Threshold     *float64              `json:"threshold,omitempty"`
	IsActive      *bool                 `json:"is_active,omitempty"`
}

func NewRuleManager(db *gorm.DB) *RuleManager {
	return &RuleManager{db: db}
}

func (rm *RuleManager) ListRules(ctx context.Context, reservoirID, callerID uint) ([]models.AlertRule, error) {
	owner, err := reservoirOwner(ctx, rm.db, reservoirID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, callerID); err != nil {
		return nil, err
	}

	rules := []models.AlertRule{}
	if err := rm.db.WithContext(ctx).
		Where("reservoir_id = ?", reservoirID).
		Order("id").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch rules: %w", err)
	}
	return rules, nil
}

func (rm *RuleManager) GetRule(ctx context.Context, ruleID, callerID uint) (*models.AlertRule, error) {
	rule, owner, err := ruleWithOwner(ctx, rm.db, ruleID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, callerID); err != nil {
		return nil, err
	}
	return rule, nil
}

func (rm *RuleManager) CreateRule(ctx context.Context, reservoirID, callerID uint, condition models.ConditionType, threshold float64) (*models.AlertRule, error) {
	owner, err := reservoirOwner(ctx, rm.db, reservoirID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, callerID); err != nil {
		return nil, err
	}
	if err := ValidateCondition(condition, threshold); err != nil {
		return nil, err
	}

	rule := &models.AlertRule{
		ReservoirID:   reservoirID,
		ConditionType: condition,
		Threshold:     threshold,
		IsActive:      true,
	}
	if err := rm.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return rule, nil
}

func (rm *RuleManager) UpdateRule(ctx context.Context, ruleID, callerID uint, update RuleUpdate) (*models.AlertRule, error) {
	rule, owner, err := ruleWithOwner(ctx, rm.db, ruleID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, callerID); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.ConditionType != nil {
		if err := ValidateCondition(*update.ConditionType, rule.Threshold); err != nil {
			return nil, err
		}
		changes["condition_type"] = *update.ConditionType
	}
	if update.Threshold != nil {
		if err := validateThreshold(*update.Threshold); err != nil {
			return nil, err
		}
		changes["threshold"] = *update.Threshold
	}
	if update.IsActive != nil {
		changes["is_active"] = *update.IsActive
	}
	if len(changes) == 0 {
		return rule, nil
	}

	if err := rm.db.WithContext(ctx).
		Model(&models.AlertRule{ID: rule.ID}).
		Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}

	updated, _, err := ruleWithOwner(ctx, rm.db, ruleID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive enables or disables a rule.
func (rm *RuleManager) SetActive(ctx context.Context, ruleID, callerID uint, active bool) (*models.AlertRule, error) {
	return rm.UpdateRule(ctx, ruleID, callerID, RuleUpdate{IsActive: &active})
}

func (rm *RuleManager) DeleteRule(ctx context.Context, ruleID, callerID uint) error {
	rule, owner, err := ruleWithOwner(ctx, rm.db, ruleID)
	if err != nil {
		return err
	}
	if err := authorize(owner, callerID); err != nil {
		return err
	}
	if err := rm.db.WithContext(ctx).Delete(&models.AlertRule{}, rule.ID).Error; err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}

// ActiveRules returns a snapshot of the rules to evaluate for a reservoir.
// It is not scoped to a caller; only the evaluation pipeline uses it.
func (rm *RuleManager) ActiveRules(ctx context.Context, reservoirID uint) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := rm.db.WithContext(ctx).
		Where("reservoir_id = ? AND is_active = ?", reservoirID, true).
		Order("id").
		Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active rules: %w", err)
	}
	return rules, nil
}
