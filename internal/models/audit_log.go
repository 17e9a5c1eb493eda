package models

import "time"

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RestaurantID string `gorm:"type:varchar(36);index" json:"restaurantId"`
	Actor        string `gorm:"size:120" json:"actor"`
	Action       string `gorm:"size:50;not null" json:"action"`

	Entity   string `gorm:"size:50" json:"entity"`
	EntityID string `gorm:"type:varchar(36)" json:"entityId"`
	Metadata string `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
}
