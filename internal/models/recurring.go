package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/recurrence"
)

// RecurringTransaction is a schedule that materializes transactions: a bill,
// a paycheck, or (when IsTransfer is set) a recurring transfer between two
// accounts.
type RecurringTransaction struct {
	ID          uint                 `gorm:"primaryKey"`
	AccountID   uint                 `gorm:"index;not null"`
	CategoryID  *uint                `gorm:"index"`
	Description string               `gorm:"size:255;not null"`
	Amount      decimal.Decimal      `gorm:"type:DECIMAL(20,8);not null"` // negative = expense
	Currency    string               `gorm:"size:8;not null;default:USD"`
	Frequency   recurrence.Frequency `gorm:"size:16;not null"`
	StartDate   time.Time            `gorm:"not null"`
	EndDate     *time.Time
	NextDueDate time.Time `gorm:"index;not null"`
	IsTransfer  bool      `gorm:"not null;default:false"`
	ToAccountID *uint     `gorm:"index"` // destination, required for transfers
	Active      bool      `gorm:"index;not null;default:true"`
	Scope       Scope     `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID     *uint     `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Account Account `gorm:"constraint:OnDelete:CASCADE"`
}

// IsExpense reports whether the schedule books money out.
func (r *RecurringTransaction) IsExpense() bool {
	return r.Amount.IsNegative()
}
