package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a bank account, card or cash pot transactions belong to.
type Account struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:64;not null"`
	Type           string          `gorm:"size:16;not null"` // checking / savings / credit / cash
	Currency       string          `gorm:"size:8;not null;default:USD"`
	OpeningBalance decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	Scope          Scope           `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID        *uint           `gorm:"index"` // required when Scope is PERSONAL
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}
