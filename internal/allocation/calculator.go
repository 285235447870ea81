// Package allocation computes how much of each paycheck to set aside for
// recurring bills, with rule-based warnings when the plan does not add up.
package allocation

import (
	"fmt"

	"homebudget/internal/money"
	"homebudget/internal/recurrence"
)

// Bill is a recurring expense projected into the shape the calculator needs.
// Amount is negative for expenses; the calculator works on its magnitude.
type Bill struct {
	Description            string               `json:"description"`
	Amount                 money.Money          `json:"amount"`
	Frequency              recurrence.Frequency `json:"frequency"`
	RecurringTransactionID uint                 `json:"recurringTransactionId"`
}

// Allocation is the slice of one bill's annualized cost attributed to a
// single paycheck.
type Allocation struct {
	Bill        Bill        `json:"bill"`
	PerPaycheck money.Money `json:"perPaycheck"`
	Annual      money.Money `json:"annual"`
}

// WarningType enumerates the summary warnings.
type WarningType string

const (
	WarnInsufficientIncome WarningType = "insufficient_income"
	WarnCannotReconcile    WarningType = "cannot_reconcile"
	WarnNoBillsConfigured  WarningType = "no_bills_configured"
	WarnNoIncomeConfigured WarningType = "no_income_configured"
)

// Warning flags a problem found while summarizing; Amount carries the
// shortfall where one exists.
type Warning struct {
	Type    WarningType  `json:"type"`
	Message string       `json:"message"`
	Amount  *money.Money `json:"amount,omitempty"`
}

// Summary is the full spending plan for one pay frequency. Built fresh per
// request; nothing here is persisted.
type Summary struct {
	Allocations      []Allocation         `json:"allocations"`
	TotalPerPaycheck money.Money          `json:"totalPerPaycheck"`
	TotalAnnualBills money.Money          `json:"totalAnnualBills"`
	Frequency        recurrence.Frequency `json:"frequency"`
	Warnings         []Warning            `json:"warnings"`
	PaycheckAmount   *money.Money         `json:"paycheckAmount,omitempty"`
	AnnualIncome     *money.Money         `json:"annualIncome,omitempty"`
}

// HasWarnings reports whether the summary carries any warning.
func (s *Summary) HasWarnings() bool { return len(s.Warnings) > 0 }

// CannotReconcile reports whether annual bills exceed annual income.
func (s *Summary) CannotReconcile() bool {
	for _, w := range s.Warnings {
		if w.Type == WarnCannotReconcile {
			return true
		}
	}
	return false
}

// Calculator is stateless; one instance can serve every request.
type Calculator struct {
	// DefaultCurrency is used for zero totals when there are no bills and no
	// paycheck amount to take a currency from.
	DefaultCurrency string
}

func NewCalculator(defaultCurrency string) *Calculator {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Calculator{DefaultCurrency: defaultCurrency}
}

// Allocate converts one bill into its per-paycheck and annual amounts.
// Per-paycheck is rounded to cents, half away from zero.
func (c *Calculator) Allocate(bill Bill, paycheckFrequency recurrence.Frequency) (Allocation, error) {
	billPeriods, err := recurrence.PeriodsPerYear(bill.Frequency)
	if err != nil {
		return Allocation{}, fmt.Errorf("bill %q: %w", bill.Description, err)
	}
	payPeriods, err := recurrence.PeriodsPerYear(paycheckFrequency)
	if err != nil {
		return Allocation{}, err
	}

	annual := bill.Amount.Abs().MulInt(billPeriods)
	perPaycheck := annual.DivInt(payPeriods).Round2()

	return Allocation{Bill: bill, PerPaycheck: perPaycheck, Annual: annual}, nil
}

// Summarize builds the spending plan for all bills against one pay frequency.
// paycheckAmount is optional; when nil the summary carries a NoIncomeConfigured
// warning instead of income math.
//
// Totals take the currency of the first bill. A paycheck amount in a different
// currency is used as-is, without conversion: the summary exposes both
// currencies so the caller can see the mismatch.
func (c *Calculator) Summarize(bills []Bill, paycheckFrequency recurrence.Frequency, paycheckAmount *money.Money) (*Summary, error) {
	payPeriods, err := recurrence.PeriodsPerYear(paycheckFrequency)
	if err != nil {
		return nil, err
	}

	s := &Summary{Frequency: paycheckFrequency, PaycheckAmount: paycheckAmount}

	if paycheckAmount != nil {
		annualIncome := paycheckAmount.MulInt(payPeriods)
		s.AnnualIncome = &annualIncome
	}

	if len(bills) == 0 {
		currency := c.DefaultCurrency
		if paycheckAmount != nil {
			currency = paycheckAmount.Currency
		}
		s.TotalPerPaycheck = money.Zero(currency)
		s.TotalAnnualBills = money.Zero(currency)
		s.Warnings = append(s.Warnings, Warning{
			Type:    WarnNoBillsConfigured,
			Message: "no recurring bills are configured",
		})
		return s, nil
	}

	currency := bills[0].Amount.Currency
	totalPerPaycheck := money.Zero(currency)
	totalAnnual := money.Zero(currency)

	for _, bill := range bills {
		alloc, err := c.Allocate(bill, paycheckFrequency)
		if err != nil {
			return nil, err
		}
		s.Allocations = append(s.Allocations, alloc)

		// Totals are sums of the per-bill figures, not re-derived from each
		// other, so rounding drift stays inside each bill.
		if totalPerPaycheck, err = totalPerPaycheck.Add(alloc.PerPaycheck); err != nil {
			return nil, err
		}
		if totalAnnual, err = totalAnnual.Add(alloc.Annual); err != nil {
			return nil, err
		}
	}
	s.TotalPerPaycheck = totalPerPaycheck
	s.TotalAnnualBills = totalAnnual

	if paycheckAmount == nil {
		s.Warnings = append(s.Warnings, Warning{
			Type:    WarnNoIncomeConfigured,
			Message: "no paycheck amount configured; cannot check affordability",
		})
		return s, nil
	}

	// Income checks compare magnitudes across possibly different currencies;
	// see the currency note on Summarize.
	if s.TotalAnnualBills.GreaterThan(*s.AnnualIncome) {
		shortfall := money.Money{
			Currency: s.TotalAnnualBills.Currency,
			Amount:   s.TotalAnnualBills.Amount.Sub(s.AnnualIncome.Amount),
		}
		s.Warnings = append(s.Warnings, Warning{
			Type:    WarnCannotReconcile,
			Message: fmt.Sprintf("annual bills exceed annual income by %s", shortfall),
			Amount:  &shortfall,
		})
	}
	if s.TotalPerPaycheck.GreaterThan(*paycheckAmount) {
		shortfall := money.Money{
			Currency: s.TotalPerPaycheck.Currency,
			Amount:   s.TotalPerPaycheck.Amount.Sub(paycheckAmount.Amount),
		}
		s.Warnings = append(s.Warnings, Warning{
			Type:    WarnInsufficientIncome,
			Message: fmt.Sprintf("bills per paycheck exceed the paycheck by %s", shortfall),
			Amount:  &shortfall,
		})
	}

	return s, nil
}
