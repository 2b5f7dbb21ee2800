package models

import "time"

type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

func IsValidDeviceStatus(s DeviceStatus) bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusOffline, DeviceStatusMaintenance:
		return true
	}
	return false
}

// Device is a sensor that submits measurements with its API key. It may be
// detached from any reservoir, in which case its readings trigger nothing.
type Device struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	ReservoirID *uint        `gorm:"index" json:"reservoir_id"`
	Name        string       `gorm:"not null" json:"name"`
	APIKey      string       `gorm:"column:api_key;uniqueIndex;not null" json:"-"`
	Status      DeviceStatus `gorm:"not null;default:offline" json:"status"`
	LastSeen    *time.Time   `json:"last_seen"`

	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reservoir *Reservoir `gorm:"foreignKey:ReservoirID;constraint:OnDelete:SET NULL" json:"-"`
}

// MaskedAPIKey keeps only the last four characters of the key.
func (d *Device) MaskedAPIKey() string {
	if len(d.APIKey) <= 4 {
		return "****"
	}
	return "****" + d.APIKey[len(d.APIKey)-4:]
}
