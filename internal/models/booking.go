package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Booking struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"_id"`

	RestaurantID string     `gorm:"type:varchar(36);not null;index:idx_bookings_window,priority:1" json:"restaurantId"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ReservationTime time.Time `gorm:"not null;index:idx_bookings_window,priority:2" json:"reservationTime"`
	EndTime         time.Time `gorm:"not null" json:"endTime"`
	Duration        string    `gorm:"size:8;not null" json:"duration"`
	Guests          int       `gorm:"not null" json:"guests"`

	UserName  string `gorm:"size:120;not null" json:"userName"`
	UserEmail string `gorm:"size:120;not null;index" json:"userEmail"`

	Status      string     `gorm:"size:20;default:'confirmed';index" json:"status"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
