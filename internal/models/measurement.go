package models

import "time"

type Measurement struct {
	Time     time.Time `gorm:"primaryKey;autoIncrement:false" json:"time"`
	DeviceID uint      `gorm:"primaryKey;autoIncrement:false" json:"device_id"`
	Value    float64   `gorm:"not null" json:"value"`

	Device Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}
