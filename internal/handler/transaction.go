package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// TransactionHandler serves transaction CRUD, filtered listing and summaries.
type TransactionHandler struct {
	db *gorm.DB
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

type transactionRequest struct {
	AccountID   uint   `json:"accountId" binding:"required"`
	CategoryID  *uint  `json:"categoryId"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=income expense"`
	Date        string `json:"date" binding:"required"`
}

type transactionListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"pageSize"`
}

// List returns transactions with pagination and optional filters: account_id,
// category_ids (comma separated), type, start_date, end_date, sort.
func (h *TransactionHandler) List(c *gin.Context) {
	q, err := h.filtered(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var total int64
	if err := q.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	order := "date DESC, id DESC"
	switch c.Query("sort") {
	case "date_asc":
		order = "date ASC, id ASC"
	case "amount_desc":
		order = "amount DESC"
	case "amount_asc":
		order = "amount ASC"
	}

	p := parsePagination(c)
	var txs []models.Transaction
	if err := q.Order(order).Offset(p.Offset()).Limit(p.PageSize).Find(&txs).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	c.JSON(http.StatusOK, transactionListResponse{
		Transactions: txs, Total: total, Page: p.Page, PageSize: p.PageSize,
	})
}

// Get returns one transaction.
func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Create records a manual transaction. The sign of the stored amount follows
// the declared type, not the sign the client sent.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tx, err := h.fromRequest(c, &req)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	tx.Source = models.SourceManual

	if err := h.db.Create(tx).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// Update rewrites an existing transaction's editable fields.
func (h *TransactionHandler) Update(c *gin.Context) {
	existing, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tx, err := h.fromRequest(c, &req)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	existing.AccountID = tx.AccountID
	existing.CategoryID = tx.CategoryID
	existing.Description = tx.Description
	existing.Amount = tx.Amount
	existing.Currency = tx.Currency
	existing.Date = tx.Date
	if err := h.db.Save(existing).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

// Delete soft-deletes a transaction.
func (h *TransactionHandler) Delete(c *gin.Context) {
	tx, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Delete(tx).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type summaryResponse struct {
	Income     decimal.Decimal     `json:"income"`
	Expenses   decimal.Decimal     `json:"expenses"` // positive magnitude
	Net        decimal.Decimal     `json:"net"`
	Count      int64               `json:"count"`
	ByCategory []categoryBreakdown `json:"byCategory"`
}

// Summary totals income and expenses over the same filters List accepts, with
// an expense breakdown by category.
func (h *TransactionHandler) Summary(c *gin.Context) {
	q, err := h.filtered(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var txs []models.Transaction
	if err := q.Find(&txs).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	res := summaryResponse{Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
	byCat := make(map[string]*categoryBreakdown)
	for i := range txs {
		tx := &txs[i]
		res.Count++
		res.Net = res.Net.Add(tx.Amount)
		if !tx.Amount.IsNegative() {
			res.Income = res.Income.Add(tx.Amount)
			continue
		}
		res.Expenses = res.Expenses.Add(tx.Amount.Abs())

		name, err := categoryName(h.db, c, tx.CategoryID)
		if err != nil {
			util.ProblemFromErr(c, err)
			return
		}
		entry, ok := byCat[name]
		if !ok {
			entry = &categoryBreakdown{CategoryID: tx.CategoryID, CategoryName: name, Total: decimal.Zero}
			byCat[name] = entry
		}
		entry.Total = entry.Total.Add(tx.Amount.Abs())
	}
	for _, entry := range byCat {
		res.ByCategory = append(res.ByCategory, *entry)
	}
	sort.Slice(res.ByCategory, func(i, j int) bool {
		return res.ByCategory[i].Total.GreaterThan(res.ByCategory[j].Total)
	})

	c.JSON(http.StatusOK, res)
}

// filtered builds the scoped, filtered base query shared by List and Summary.
func (h *TransactionHandler) filtered(c *gin.Context) (*gorm.DB, error) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Transaction{}).
		Scopes(middleware.ScopedQuery(c))

	if raw := c.Query("account_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, errInvalidQuery("account_id", raw)
		}
		q = q.Where("account_id = ?", id)
	}
	if raw := c.Query("category_ids"); raw != "" {
		var ids []uint
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				return nil, errInvalidQuery("category_ids", raw)
			}
			ids = append(ids, uint(id))
		}
		q = q.Where("category_id IN ?", ids)
	}
	switch c.Query("type") {
	case "":
	case "income":
		q = q.Where("amount >= 0")
	case "expense":
		q = q.Where("amount < 0")
	default:
		return nil, errInvalidQuery("type", c.Query("type"))
	}
	if src := c.Query("source"); src != "" {
		q = q.Where("source = ?", src)
	}

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		return nil, err
	}
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		return nil, err
	}
	if end != nil {
		// end_date is inclusive
		q = q.Where("date < ?", end.AddDate(0, 0, 1))
	}
	return q, nil
}

func (h *TransactionHandler) find(c *gin.Context) (*models.Transaction, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&tx, id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// fromRequest validates the payload against visible accounts and categories
// and builds the transaction in the request's write scope.
func (h *TransactionHandler) fromRequest(c *gin.Context, req *transactionRequest) (*models.Transaction, error) {
	var acct models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&acct, req.AccountID).Error; err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		var cat models.Category
		if err := h.db.WithContext(c.Request.Context()).
			Scopes(middleware.ScopedQuery(c)).
			First(&cat, *req.CategoryID).Error; err != nil {
			return nil, err
		}
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, errInvalidQuery("amount", req.Amount)
	}
	if req.Type == "expense" {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, errInvalidQuery("date", req.Date)
	}

	scope, ownerID := middleware.WriteTarget(c)
	return &models.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		Currency:    acct.Currency,
		Date:        date,
		Scope:       scope,
		OwnerID:     ownerID,
	}, nil
}
