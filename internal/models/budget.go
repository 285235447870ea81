package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/recurrence"
)

// BudgetGoal caps spending for a category over a recurring period.
// Progress against the goal is computed per request, never stored.
type BudgetGoal struct {
	ID           uint                 `gorm:"primaryKey"`
	Name         string               `gorm:"size:64;not null"`
	CategoryID   uint                 `gorm:"index;not null"`
	TargetAmount decimal.Decimal      `gorm:"type:DECIMAL(20,8);not null"` // positive cap per period
	Currency     string               `gorm:"size:8;not null;default:USD"`
	Period       recurrence.Frequency `gorm:"size:16;not null;default:monthly"`
	Scope        Scope                `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID      *uint                `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Category Category `gorm:"constraint:OnDelete:CASCADE"`
}
