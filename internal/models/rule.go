package models

// ConditionType is the comparison applied between a measured value and a
// rule threshold.
type ConditionType string

const (
	ConditionGreaterThan        ConditionType = "greater_than"
	ConditionLessThan           ConditionType = "less_than"
	ConditionEquals             ConditionType = "equals"
	ConditionNotEquals          ConditionType = "not_equals"
	ConditionGreaterThanOrEqual ConditionType = "greater_than_or_equal"
	ConditionLessThanOrEqual    ConditionType = "less_than_or_equal"
)

func IsValidCondition(c ConditionType) bool {
	switch c {
	case ConditionGreaterThan, ConditionLessThan,
		ConditionEquals, ConditionNotEquals,
		ConditionGreaterThanOrEqual, ConditionLessThanOrEqual:
		return true
	}
	return false
}

// Symbol returns the operator used in notification text.
func (c ConditionType) Symbol() string {
	switch c {
	case ConditionGreaterThan:
		return ">"
	case ConditionLessThan:
		return "<"
	case ConditionEquals:
		return "=="
	case ConditionNotEquals:
		return "!="
	case ConditionGreaterThanOrEqual:
		return ">="
	case ConditionLessThanOrEqual:
		return "<="
	default:
		return string(c)
	}
}

// AlertRule is a threshold condition attached to a reservoir. Only active
// rules are evaluated.
type AlertRule struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ReservoirID   uint          `gorm:"not null;index" json:"reservoir_id"`
	ConditionType ConditionType `gorm:"not null" json:"condition_type"`
	Threshold     float64       `gorm:"not null" json:"threshold"`
	IsActive      bool          `gorm:"not null" json:"is_active"`

	Reservoir Reservoir `gorm:"foreignKey:ReservoirID;constraint:OnDelete:CASCADE" json:"-"`
}
