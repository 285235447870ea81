// Package reconcile matches imported bank transactions against scheduled
// instances of recurring transactions.
//
// Matching is two-phase: candidate selection by date window, then weighted
// scoring on amount closeness, date proximity and description similarity.
// Scores at or above the auto-match threshold resolve immediately; the rest
// are queued as suggestions for review.
package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"homebudget/internal/config"
)

// Config tunes candidate selection and scoring.
type Config struct {
	// DateToleranceDays bounds how far an imported transaction may land from
	// a scheduled date and still be considered.
	DateToleranceDays int

	// AmountTolerancePercent is the relative difference at which the amount
	// component of the score reaches zero.
	AmountTolerancePercent float64

	// Component weights; they should sum to 1.
	AmountWeight      float64
	DateWeight        float64
	DescriptionWeight float64

	// MinSuggestScore is the floor below which no match is persisted.
	MinSuggestScore float64

	// AutoMatchThreshold resolves a match without review when reached.
	AutoMatchThreshold float64
	AutoMatch          bool
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays:      5,
		AmountTolerancePercent: 0.10,
		AmountWeight:           0.5,
		DateWeight:             0.3,
		DescriptionWeight:      0.2,
		MinSuggestScore:        0.40,
		AutoMatchThreshold:     0.95,
		AutoMatch:              true,
	}
}

// FromAppConfig overlays the YAML-configured knobs on the defaults.
func FromAppConfig(rc config.ReconcileConfig) Config {
	c := DefaultConfig()
	if rc.DateToleranceDays > 0 {
		c.DateToleranceDays = rc.DateToleranceDays
	}
	if rc.AmountTolerancePercent > 0 {
		c.AmountTolerancePercent = rc.AmountTolerancePercent
	}
	if rc.MinSuggestScore > 0 {
		c.MinSuggestScore = rc.MinSuggestScore
	}
	if rc.AutoMatchThreshold > 0 {
		c.AutoMatchThreshold = rc.AutoMatchThreshold
	}
	c.AutoMatch = rc.AutoMatch
	return c
}

// Imported is the subset of an imported transaction the scorer reads.
type Imported struct {
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// Candidate is one scheduled instance of a recurring transaction.
type Candidate struct {
	ExpectedAmount decimal.Decimal
	ScheduledDate  time.Time
	Description    string
}

// Score rates how well an imported transaction fits a candidate, in [0,1].
func (c Config) Score(tx Imported, cand Candidate) float64 {
	score := c.AmountWeight*c.amountComponent(tx.Amount, cand.ExpectedAmount) +
		c.DateWeight*c.dateComponent(tx.Date, cand.ScheduledDate) +
		c.DescriptionWeight*descriptionSimilarity(tx.Description, cand.Description)
	return clamp01(score)
}

func (c Config) amountComponent(actual, expected decimal.Decimal) float64 {
	if expected.IsZero() {
		if actual.IsZero() {
			return 1
		}
		return 0
	}
	pct, _ := expected.Sub(actual).Abs().Div(expected.Abs()).Float64()
	return clamp01(1 - pct/c.AmountTolerancePercent)
}

func (c Config) dateComponent(actual, scheduled time.Time) float64 {
	days := DaysApart(actual, scheduled)
	if c.DateToleranceDays <= 0 {
		if days == 0 {
			return 1
		}
		return 0
	}
	return clamp01(1 - float64(days)/float64(c.DateToleranceDays))
}

// descriptionSimilarity is 1 minus the normalized levenshtein distance of the
// uppercased descriptions.
func descriptionSimilarity(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp01(1 - float64(dist)/float64(maxLen))
}

// DaysApart returns the whole days between two instants, ignoring sign.
func DaysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
