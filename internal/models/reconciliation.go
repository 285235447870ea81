package models

import (
	"time"

	"github.com/shopspring/decimal"

	"homebudget/internal/apperr"
)

// Confidence buckets a numeric match score. The bucket is derived once at
// creation and never recomputed.
type Confidence string

const (
	// Score >= 0.85 buckets High, >= 0.60 Medium, anything lower Low.
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a score to its bucket.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Reconciliation match statuses. Suggested is the only non-terminal state.
const (
	MatchSuggested   = "suggested"
	MatchAccepted    = "accepted"
	MatchRejected    = "rejected"
	MatchAutoMatched = "auto_matched"
)

// ReconciliationMatch links an imported transaction to one scheduled instance
// of a recurring transaction. It moves one way, from Suggested to a terminal
// state; any mutation after resolution is rejected.
type ReconciliationMatch struct {
	ID                     uint       `gorm:"primaryKey"`
	ImportedTransactionID  uint       `gorm:"index;not null"`
	RecurringTransactionID uint       `gorm:"index;not null"`
	ScheduledDate          time.Time  `gorm:"not null"`
	ConfidenceScore        float64    `gorm:"not null"`
	ConfidenceLevel        Confidence `gorm:"size:16;not null"`
	Status                 string     `gorm:"size:16;index;not null"`
	// AmountVariance is expected minus actual.
	AmountVariance decimal.Decimal `gorm:"type:DECIMAL(20,8);not null"`
	DateOffsetDays int             `gorm:"not null"`
	Scope          Scope           `gorm:"size:16;index;not null;default:SHARED"`
	OwnerID        *uint           `gorm:"index"`
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// NewMatchParams carries everything needed to propose a match.
type NewMatchParams struct {
	ImportedTransactionID  uint
	RecurringTransactionID uint
	ScheduledDate          time.Time
	ConfidenceScore        float64
	AmountVariance         decimal.Decimal
	DateOffsetDays         int
	Scope                  Scope
	OwnerID                *uint
}

// NewReconciliationMatch validates and builds a Suggested match.
func NewReconciliationMatch(p NewMatchParams) (*ReconciliationMatch, error) {
	if p.ImportedTransactionID == 0 {
		return nil, apperr.Validationf("reconciliation match requires an imported transaction id")
	}
	if p.RecurringTransactionID == 0 {
		return nil, apperr.Validationf("reconciliation match requires a recurring transaction id")
	}
	if p.ConfidenceScore < 0 || p.ConfidenceScore > 1 {
		return nil, apperr.Validationf("confidence score %v outside [0,1]", p.ConfidenceScore)
	}
	if !ValidScope(p.Scope) {
		return nil, apperr.Validationf("invalid scope %q", p.Scope)
	}
	if p.Scope == ScopePersonal && p.OwnerID == nil {
		return nil, apperr.Validationf("personal match requires an owner")
	}

	return &ReconciliationMatch{
		ImportedTransactionID:  p.ImportedTransactionID,
		RecurringTransactionID: p.RecurringTransactionID,
		ScheduledDate:          p.ScheduledDate,
		ConfidenceScore:        p.ConfidenceScore,
		ConfidenceLevel:        ConfidenceFor(p.ConfidenceScore),
		Status:                 MatchSuggested,
		AmountVariance:         p.AmountVariance,
		DateOffsetDays:         p.DateOffsetDays,
		Scope:                  p.Scope,
		OwnerID:                p.OwnerID,
	}, nil
}

// Accept resolves the match as confirmed by a user.
func (m *ReconciliationMatch) Accept() error {
	return m.resolve(MatchAccepted)
}

// Reject resolves the match as wrong.
func (m *ReconciliationMatch) Reject() error {
	return m.resolve(MatchRejected)
}

// AutoMatch resolves the match without user review.
func (m *ReconciliationMatch) AutoMatch() error {
	return m.resolve(MatchAutoMatched)
}

// Resolved reports whether the match has reached a terminal state.
func (m *ReconciliationMatch) Resolved() bool {
	return m.Status != MatchSuggested
}

func (m *ReconciliationMatch) resolve(status string) error {
	if m.Status != MatchSuggested {
		return apperr.Validationf("match already resolved as %s", m.Status)
	}
	now := time.Now().UTC()
	m.Status = status
	m.ResolvedAt = &now
	return nil
}
