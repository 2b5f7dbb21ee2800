package models

// Reservoir is a monitored tank. It has exactly one owning user.
type Reservoir struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index" json:"user_id"`
	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description"`
	Capacity    float64 `gorm:"not null" json:"capacity"`
	Location    *string `json:"location"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
