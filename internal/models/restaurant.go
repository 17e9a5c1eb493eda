package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkingHours maps a weekday name to free text such as "09:00 - 22:00".
// It is shown to guests and never used to accept or reject a booking.
type WorkingHours map[string]string

type Restaurant struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"_id"`
	OwnerID string `gorm:"type:varchar(36);index" json:"ownerId"`

	Name        string `gorm:"size:120;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Contact     string `gorm:"size:40" json:"contact"`
	Email       string `gorm:"size:120" json:"email"`

	TotalSeats   int          `gorm:"not null" json:"totalSeats"`
	WorkingHours WorkingHours `gorm:"type:text;serializer:json" json:"workingHours"`
	Images       []string     `gorm:"type:text;serializer:json" json:"images"`
	Timezone     string       `gorm:"size:64" json:"timezone"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
