package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// AccountHandler serves account CRUD and balances.
type AccountHandler struct {
	db *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{db: db}
}

type accountRequest struct {
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type" binding:"required,oneof=checking savings credit cash"`
	Currency       string `json:"currency"`
	OpeningBalance string `json:"openingBalance"`
}

type accountResponse struct {
	models.Account
	// Balance is opening balance plus all transactions, computed per request.
	Balance decimal.Decimal `json:"balance"`
}

// List returns all accounts visible in the request scope, with balances.
func (h *AccountHandler) List(c *gin.Context) {
	var accounts []models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		Order("name").Find(&accounts).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		balance, err := h.balance(c, &accounts[i])
		if err != nil {
			util.ProblemFromErr(c, err)
			return
		}
		out = append(out, accountResponse{Account: accounts[i], Balance: balance})
	}
	c.JSON(http.StatusOK, out)
}

// Get returns one account with its balance.
func (h *AccountHandler) Get(c *gin.Context) {
	acct, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	balance, err := h.balance(c, acct)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, accountResponse{Account: *acct, Balance: balance})
}

// Create adds an account in the request's write scope.
func (h *AccountHandler) Create(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		if opening, err = decimal.NewFromString(req.OpeningBalance); err != nil {
			util.Problem(c, http.StatusBadRequest, "Validation Failed", "invalid openingBalance")
			return
		}
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency()
	}

	scope, ownerID := middleware.WriteTarget(c)
	acct := models.Account{
		Name:           req.Name,
		Type:           req.Type,
		Currency:       currency,
		OpeningBalance: opening,
		Scope:          scope,
		OwnerID:        ownerID,
	}
	if err := h.db.Create(&acct).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, accountResponse{Account: acct, Balance: opening})
}

// Update changes name, type or currency.
func (h *AccountHandler) Update(c *gin.Context) {
	acct, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	acct.Name = req.Name
	acct.Type = req.Type
	if req.Currency != "" {
		acct.Currency = req.Currency
	}
	if req.OpeningBalance != "" {
		opening, err := decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			util.Problem(c, http.StatusBadRequest, "Validation Failed", "invalid openingBalance")
			return
		}
		acct.OpeningBalance = opening
	}
	if err := h.db.Save(acct).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// Delete soft-deletes the account. Its transactions stay behind the soft
// delete as well via the cascade constraint.
func (h *AccountHandler) Delete(c *gin.Context) {
	acct, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Delete(acct).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) find(c *gin.Context) (*models.Account, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var acct models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&acct, id).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

func (h *AccountHandler) balance(c *gin.Context, acct *models.Account) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := h.db.WithContext(c.Request.Context()).Model(&models.Transaction{}).
		Where("account_id = ?", acct.ID).
		Select("SUM(amount)").Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return acct.OpeningBalance, nil
	}
	return acct.OpeningBalance.Add(sum.Decimal), nil
}
