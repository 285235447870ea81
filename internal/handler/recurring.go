package handler

import (
	"fmt"
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

// RecurringHandler serves recurring transaction and transfer schedules.
type RecurringHandler struct {
	db *gorm.DB
}

func NewRecurringHandler(db *gorm.DB) *RecurringHandler {
	return &RecurringHandler{db: db}
}

type recurringRequest struct {
	AccountID   uint   `json:"accountId" binding:"required"`
	CategoryID  *uint  `json:"categoryId"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=income expense"`
	Frequency   string `json:"frequency" binding:"required"`
	StartDate   string `json:"startDate" binding:"required"`
	EndDate     string `json:"endDate"`
	IsTransfer  bool   `json:"isTransfer"`
	ToAccountID *uint  `json:"toAccountId"`
	Active      *bool  `json:"active"`
}

// List returns schedules visible in the request scope. ?active=true filters
// to live ones.
func (h *RecurringHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Scopes(middleware.ScopedQuery(c))
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var recs []models.RecurringTransaction
	if err := q.Order("next_due_date").Find(&recs).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Get returns one schedule.
func (h *RecurringHandler) Get(c *gin.Context) {
	rec, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create adds a schedule. NextDueDate starts at StartDate.
func (h *RecurringHandler) Create(c *gin.Context) {
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rec, err := h.fromRequest(c, &req)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	rec.NextDueDate = rec.StartDate
	rec.Active = true
	if req.Active != nil {
		rec.Active = *req.Active
	}

	if err := h.db.Create(rec).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Update rewrites a schedule's editable fields. NextDueDate is preserved
// unless the start date moved past it.
func (h *RecurringHandler) Update(c *gin.Context) {
	existing, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rec, err := h.fromRequest(c, &req)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	existing.AccountID = rec.AccountID
	existing.CategoryID = rec.CategoryID
	existing.Description = rec.Description
	existing.Amount = rec.Amount
	existing.Currency = rec.Currency
	existing.Frequency = rec.Frequency
	existing.StartDate = rec.StartDate
	existing.EndDate = rec.EndDate
	existing.IsTransfer = rec.IsTransfer
	existing.ToAccountID = rec.ToAccountID
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if existing.NextDueDate.Before(existing.StartDate) {
		existing.NextDueDate = existing.StartDate
	}

	if err := h.db.Save(existing).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

// Delete soft-deletes a schedule. Materialized transactions stay.
func (h *RecurringHandler) Delete(c *gin.Context) {
	rec, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Delete(rec).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type materializeResponse struct {
	Created     []models.Transaction `json:"created"`
	NextDueDate time.Time            `json:"nextDueDate"`
}

// Materialize books every instance due up to today as real transactions (two
// legs each for a transfer) and advances NextDueDate past them.
func (h *RecurringHandler) Materialize(c *gin.Context) {
	rec, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if !rec.Active {
		util.ProblemFromErr(c, apperr.Validationf("schedule %d is inactive", rec.ID))
		return
	}

	today := time.Now()
	if rec.NextDueDate.After(today) {
		util.ProblemFromErr(c, apperr.Validationf("schedule %d is not due until %s",
			rec.ID, rec.NextDueDate.Format(time.DateOnly)))
		return
	}

	var created []models.Transaction
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for !rec.NextDueDate.After(today) {
			if rec.EndDate != nil && rec.NextDueDate.After(*rec.EndDate) {
				break
			}
			booked, err := h.book(tx, rec)
			if err != nil {
				return err
			}
			created = append(created, booked...)
			rec.NextDueDate = recurrence.Next(rec.Frequency, rec.NextDueDate)
		}
		return tx.Save(rec).Error
	})
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	c.JSON(http.StatusOK, materializeResponse{Created: created, NextDueDate: rec.NextDueDate})
}

// book creates the due transaction, or both transfer legs.
func (h *RecurringHandler) book(tx *gorm.DB, rec *models.RecurringTransaction) ([]models.Transaction, error) {
	base := models.Transaction{
		AccountID:              rec.AccountID,
		CategoryID:             rec.CategoryID,
		Description:            rec.Description,
		Amount:                 rec.Amount,
		Currency:               rec.Currency,
		Date:                   rec.NextDueDate,
		Scope:                  rec.Scope,
		OwnerID:                rec.OwnerID,
		Source:                 models.SourceRecurring,
		RecurringTransactionID: &rec.ID,
	}

	if !rec.IsTransfer {
		if err := tx.Create(&base).Error; err != nil {
			return nil, err
		}
		return []models.Transaction{base}, nil
	}

	var to models.Account
	if err := tx.First(&to, *rec.ToAccountID).Error; err != nil {
		return nil, fmt.Errorf("transfer destination: %w", err)
	}

	out := base
	out.Amount = rec.Amount.Abs().Neg()
	in := base
	in.AccountID = to.ID
	in.Currency = to.Currency
	in.Amount = rec.Amount.Abs()

	if err := tx.Create(&out).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&in).Error; err != nil {
		return nil, err
	}
	return []models.Transaction{out, in}, nil
}

func (h *RecurringHandler) find(c *gin.Context) (*models.RecurringTransaction, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var rec models.RecurringTransaction
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (h *RecurringHandler) fromRequest(c *gin.Context, req *recurringRequest) (*models.RecurringTransaction, error) {
	var acct models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&acct, req.AccountID).Error; err != nil {
		return nil, err
	}

	freq := recurrence.Frequency(req.Frequency)
	if !recurrence.Valid(freq) {
		return nil, apperr.Validationf("unknown frequency %q", req.Frequency)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperr.Validationf("invalid amount %q", req.Amount)
	}
	if req.Type == "expense" {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, apperr.Validationf("invalid startDate %q", req.StartDate)
	}
	var end *time.Time
	if req.EndDate != "" {
		e, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return nil, apperr.Validationf("invalid endDate %q", req.EndDate)
		}
		if e.Before(start) {
			return nil, apperr.Validationf("endDate before startDate")
		}
		end = &e
	}

	if req.IsTransfer {
		if req.ToAccountID == nil {
			return nil, apperr.Validationf("transfer requires toAccountId")
		}
		if *req.ToAccountID == req.AccountID {
			return nil, apperr.Validationf("transfer source and destination must differ")
		}
		var to models.Account
		if err := h.db.WithContext(c.Request.Context()).
			Scopes(middleware.ScopedQuery(c)).
			First(&to, *req.ToAccountID).Error; err != nil {
			return nil, err
		}
	}

	scope, ownerID := middleware.WriteTarget(c)
	return &models.RecurringTransaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		Currency:    acct.Currency,
		Frequency:   freq,
		StartDate:   start,
		EndDate:     end,
		IsTransfer:  req.IsTransfer,
		ToAccountID: req.ToAccountID,
		Scope:       scope,
		OwnerID:     ownerID,
	}, nil
}
