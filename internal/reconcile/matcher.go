package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"homebudget/internal/models"
	"homebudget/internal/recurrence"
)

// Matcher runs the matching pass over persisted data.
type Matcher struct {
	db  *gorm.DB
	cfg Config
}

func NewMatcher(db *gorm.DB, cfg Config) *Matcher {
	return &Matcher{db: db, cfg: cfg}
}

// RunResult counts what one matching pass did.
type RunResult struct {
	Scanned     int `json:"scanned"`
	Suggested   int `json:"suggested"`
	AutoMatched int `json:"autoMatched"`
}

// Run scores every unresolved imported transaction against the scheduled
// instances of active recurring transactions and persists the matches.
// The scoped callback narrows queries to the request's budget scope.
func (m *Matcher) Run(ctx context.Context, scoped func(*gorm.DB) *gorm.DB) (RunResult, error) {
	res := RunResult{}

	var imported []models.Transaction
	if err := scoped(m.db.WithContext(ctx)).
		Where("source = ?", models.SourceImport).
		Where("recurring_transaction_id IS NULL").
		Find(&imported).Error; err != nil {
		return res, fmt.Errorf("load imported transactions: %w", err)
	}

	var recurring []models.RecurringTransaction
	if err := scoped(m.db.WithContext(ctx)).
		Where("active = ?", true).
		Find(&recurring).Error; err != nil {
		return res, fmt.Errorf("load recurring transactions: %w", err)
	}

	for i := range imported {
		tx := &imported[i]
		res.Scanned++

		// already linked by an unresolved or confirmed match
		var open int64
		if err := m.db.WithContext(ctx).Model(&models.ReconciliationMatch{}).
			Where("imported_transaction_id = ? AND status IN ?",
				tx.ID, []string{models.MatchSuggested, models.MatchAccepted, models.MatchAutoMatched}).
			Count(&open).Error; err != nil {
			return res, err
		}
		if open > 0 {
			continue
		}

		match, err := m.bestMatch(ctx, tx, recurring)
		if err != nil {
			return res, err
		}
		if match == nil {
			continue
		}

		if m.cfg.AutoMatch && match.ConfidenceScore >= m.cfg.AutoMatchThreshold {
			if err := match.AutoMatch(); err != nil {
				return res, err
			}
		}
		if err := m.db.WithContext(ctx).Create(match).Error; err != nil {
			return res, fmt.Errorf("persist match: %w", err)
		}
		if match.Resolved() {
			res.AutoMatched++
			if err := m.link(ctx, tx.ID, match.RecurringTransactionID); err != nil {
				return res, err
			}
		} else {
			res.Suggested++
		}
	}

	slog.Info("reconciliation pass complete",
		"scanned", res.Scanned, "suggested", res.Suggested, "auto_matched", res.AutoMatched)
	return res, nil
}

// bestMatch scores tx against every candidate instance and keeps the winner,
// or nil when nothing clears the suggestion floor.
func (m *Matcher) bestMatch(ctx context.Context, tx *models.Transaction, recurring []models.RecurringTransaction) (*models.ReconciliationMatch, error) {
	from := tx.Date.AddDate(0, 0, -m.cfg.DateToleranceDays)
	to := tx.Date.AddDate(0, 0, m.cfg.DateToleranceDays)

	var best *models.ReconciliationMatch
	for i := range recurring {
		rec := &recurring[i]
		if rec.Currency != tx.Currency {
			continue
		}
		for _, scheduled := range recurrence.InstancesBetween(rec.Frequency, rec.StartDate, from, to) {
			if rec.EndDate != nil && scheduled.After(*rec.EndDate) {
				continue
			}

			// one row per (imported, recurring, scheduled date); re-runs skip
			var dup int64
			if err := m.db.WithContext(ctx).Model(&models.ReconciliationMatch{}).
				Where("imported_transaction_id = ? AND recurring_transaction_id = ? AND scheduled_date = ?",
					tx.ID, rec.ID, scheduled).
				Count(&dup).Error; err != nil {
				return nil, err
			}
			if dup > 0 {
				continue
			}

			score := m.cfg.Score(
				Imported{Amount: tx.Amount, Date: tx.Date, Description: tx.Description},
				Candidate{ExpectedAmount: rec.Amount, ScheduledDate: scheduled, Description: rec.Description},
			)
			if score < m.cfg.MinSuggestScore {
				continue
			}
			if best != nil && score <= best.ConfidenceScore {
				continue
			}

			match, err := models.NewReconciliationMatch(models.NewMatchParams{
				ImportedTransactionID:  tx.ID,
				RecurringTransactionID: rec.ID,
				ScheduledDate:          scheduled,
				ConfidenceScore:        score,
				AmountVariance:         rec.Amount.Sub(tx.Amount),
				DateOffsetDays:         DaysApart(tx.Date, scheduled),
				Scope:                  tx.Scope,
				OwnerID:                tx.OwnerID,
			})
			if err != nil {
				return nil, err
			}
			best = match
		}
	}
	return best, nil
}

// Accept resolves a suggested match and links the imported transaction to its
// schedule.
func (m *Matcher) Accept(ctx context.Context, match *models.ReconciliationMatch) error {
	if err := match.Accept(); err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Save(match).Error; err != nil {
		return err
	}
	return m.link(ctx, match.ImportedTransactionID, match.RecurringTransactionID)
}

// Reject resolves a suggested match as wrong.
func (m *Matcher) Reject(ctx context.Context, match *models.ReconciliationMatch) error {
	if err := match.Reject(); err != nil {
		return err
	}
	return m.db.WithContext(ctx).Save(match).Error
}

func (m *Matcher) link(ctx context.Context, txID, recurringID uint) error {
	return m.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", txID).
		Update("recurring_transaction_id", recurringID).Error
}
