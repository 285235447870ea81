package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/apperr"
	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/recurrence"
	"homebudget/internal/util"
)

// BudgetHandler serves budget goals and their progress.
type BudgetHandler struct {
	db *gorm.DB
}

func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{db: db}
}

type budgetRequest struct {
	Name         string `json:"name" binding:"required"`
	CategoryID   uint   `json:"categoryId" binding:"required"`
	TargetAmount string `json:"targetAmount" binding:"required"`
	Currency     string `json:"currency"`
	Period       string `json:"period"`
}

// List returns goals visible in the request scope.
func (h *BudgetHandler) List(c *gin.Context) {
	var goals []models.BudgetGoal
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		Order("name").Find(&goals).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// Create adds a goal in the request's write scope.
func (h *BudgetHandler) Create(c *gin.Context) {
	goal, err := h.fromRequest(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Create(goal).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// Update rewrites a goal.
func (h *BudgetHandler) Update(c *gin.Context) {
	existing, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	goal, err := h.fromRequest(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	existing.Name = goal.Name
	existing.CategoryID = goal.CategoryID
	existing.TargetAmount = goal.TargetAmount
	existing.Currency = goal.Currency
	existing.Period = goal.Period
	if err := h.db.Save(existing).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

// Delete soft-deletes a goal.
func (h *BudgetHandler) Delete(c *gin.Context) {
	goal, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Delete(goal).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type budgetProgress struct {
	Goal        models.BudgetGoal `json:"goal"`
	PeriodStart time.Time         `json:"periodStart"`
	PeriodEnd   time.Time         `json:"periodEnd"`
	Spent       decimal.Decimal   `json:"spent"` // positive magnitude
	Remaining   decimal.Decimal   `json:"remaining"`
	Over        bool              `json:"over"`
}

// Progress reports spending against every goal for the current period.
// Progress is always computed fresh from transactions, never stored.
func (h *BudgetHandler) Progress(c *gin.Context) {
	var goals []models.BudgetGoal
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		Find(&goals).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	now := time.Now()
	out := make([]budgetProgress, 0, len(goals))
	for _, goal := range goals {
		start, end := periodBounds(goal.Period, now)

		var sum decimal.NullDecimal
		err := h.db.WithContext(c.Request.Context()).Model(&models.Transaction{}).
			Scopes(middleware.ScopedQuery(c)).
			Where("category_id = ? AND amount < 0 AND date >= ? AND date < ?", goal.CategoryID, start, end).
			Select("SUM(amount)").Scan(&sum).Error
		if err != nil {
			util.ProblemFromErr(c, err)
			return
		}

		spent := decimal.Zero
		if sum.Valid {
			spent = sum.Decimal.Abs()
		}
		remaining := goal.TargetAmount.Sub(spent)
		out = append(out, budgetProgress{
			Goal:        goal,
			PeriodStart: start,
			PeriodEnd:   end,
			Spent:       spent,
			Remaining:   remaining,
			Over:        remaining.IsNegative(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// periodBounds returns the half-open [start, end) window containing now.
func periodBounds(period recurrence.Frequency, now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch period {
	case recurrence.Daily:
		return day, day.AddDate(0, 0, 1)
	case recurrence.Weekly, recurrence.BiWeekly:
		// weeks start Monday
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		if period == recurrence.BiWeekly {
			return start, start.AddDate(0, 0, 14)
		}
		return start, start.AddDate(0, 0, 7)
	case recurrence.Quarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start := time.Date(y, qm, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 3, 0)
	case recurrence.Yearly:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0)
	default: // monthly
		start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	}
}

func (h *BudgetHandler) find(c *gin.Context) (*models.BudgetGoal, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var goal models.BudgetGoal
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&goal, id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (h *BudgetHandler) fromRequest(c *gin.Context) (*models.BudgetGoal, error) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.Validationf("%s", err.Error())
	}

	var cat models.Category
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&cat, req.CategoryID).Error; err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || !amount.IsPositive() {
		return nil, apperr.Validationf("targetAmount must be a positive decimal")
	}

	period := recurrence.Monthly
	if req.Period != "" {
		period = recurrence.Frequency(req.Period)
		if !recurrence.Valid(period) {
			return nil, apperr.Validationf("unknown period %q", req.Period)
		}
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency()
	}

	scope, ownerID := middleware.WriteTarget(c)
	return &models.BudgetGoal{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		TargetAmount: amount,
		Currency:     currency,
		Period:       period,
		Scope:        scope,
		OwnerID:      ownerID,
	}, nil
}
