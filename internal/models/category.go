package models

import "time"

// Category labels transactions as a kind of income or expense.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:64;not null"`
	Type      string `gorm:"size:16;index;not null"` // income / expense
	Scope     Scope  `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID   *uint  `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
