package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction sources.
const (
	SourceManual    = "manual"
	SourceImport    = "import"
	SourceRecurring = "recurring"
	SourceChat      = "chat"
)

// Transaction is a single dated money movement on an account.
// Amount is negative for expenses and positive for income.
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`
	AccountID   uint            `gorm:"index;not null"`
	CategoryID  *uint           `gorm:"index"`
	Description string          `gorm:"size:255;not null"`
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	Currency    string          `gorm:"size:8;not null;default:USD"`
	Date        time.Time       `gorm:"index;not null"`
	Scope       Scope           `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID     *uint           `gorm:"index"`
	Source      string          `gorm:"size:16;not null;default:manual"`
	// RecurringTransactionID links a materialized instance back to its schedule.
	RecurringTransactionID *uint   `gorm:"index"`
	ImportBatchID          *string `gorm:"size:36;index"` // uuid of the CSV import run
	CreatedAt              time.Time
	UpdatedAt              time.Time
	DeletedAt              gorm.DeletedAt `gorm:"index"`

	Account  Account  `gorm:"constraint:OnDelete:CASCADE"`
	Category Category `gorm:"constraint:OnDelete:SET NULL"`
}
