package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/allocation"
	"homebudget/internal/apperr"
	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/money"
	"homebudget/internal/recurrence"
	"homebudget/internal/util"
)

// AllocationHandler serves the paycheck allocation calculator over the
// configured recurring bills.
type AllocationHandler struct {
	db   *gorm.DB
	calc *allocation.Calculator
}

func NewAllocationHandler(db *gorm.DB, calc *allocation.Calculator) *AllocationHandler {
	return &AllocationHandler{db: db, calc: calc}
}

// Paycheck computes how much of each paycheck to set aside for the active
// recurring bills. Query parameters: frequency (required), amount and
// currency (optional paycheck income).
func (h *AllocationHandler) Paycheck(c *gin.Context) {
	freq := recurrence.Frequency(c.Query("frequency"))
	if !recurrence.Valid(freq) {
		util.ProblemFromErr(c, apperr.Validationf("unknown frequency %q", c.Query("frequency")))
		return
	}

	var paycheck *money.Money
	if raw := c.Query("amount"); raw != "" {
		currency := c.Query("currency")
		if currency == "" {
			currency = defaultCurrency()
		}
		m, err := money.FromString(currency, raw)
		if err != nil {
			util.ProblemFromErr(c, apperr.Validationf("invalid amount %q", raw))
			return
		}
		paycheck = &m
	}

	bills, err := h.activeBills(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	summary, err := h.calc.Summarize(bills, freq, paycheck)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// activeBills projects the scope's active recurring expenses into calculator
// bills. Transfers and income schedules are not bills.
func (h *AllocationHandler) activeBills(c *gin.Context) ([]allocation.Bill, error) {
	var recs []models.RecurringTransaction
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		Where("active = ? AND is_transfer = ?", true, false).
		Find(&recs).Error; err != nil {
		return nil, err
	}

	var bills []allocation.Bill
	for i := range recs {
		rec := &recs[i]
		if !rec.IsExpense() {
			continue
		}
		amount, err := money.New(rec.Currency, rec.Amount)
		if err != nil {
			return nil, err
		}
		bills = append(bills, allocation.Bill{
			Description:            rec.Description,
			Amount:                 amount,
			Frequency:              rec.Frequency,
			RecurringTransactionID: rec.ID,
		})
	}
	return bills, nil
}
