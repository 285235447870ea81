package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"homebudget/internal/models"
)

func registerRecurringRoutes(env *testEnv) {
	recurring := NewRecurringHandler(env.db)
	env.router.POST("/recurring", recurring.Create)
	env.router.GET("/recurring", recurring.List)
	env.router.POST("/recurring/:id/materialize", recurring.Materialize)
}

func TestCreateAndMaterializeRecurring(t *testing.T) {
	env := newTestEnv(t)
	registerRecurringRoutes(env)
	acct := env.account(t)

	// due yesterday, so exactly one monthly instance has come up
	start := time.Now().AddDate(0, 0, -1).Format(time.DateOnly)
	w := env.request(t, http.MethodPost, "/recurring", gin.H{
		"accountId":   acct.ID,
		"description": "Rent",
		"amount":      "1300",
		"type":        "expense",
		"frequency":   "monthly",
		"startDate":   start,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var rec models.RecurringTransaction
	require.NoError(t, env.db.First(&rec).Error)
	require.True(t, rec.Amount.Equal(decimal.NewFromInt(-1300)))
	require.True(t, rec.Active)
	require.Equal(t, rec.StartDate, rec.NextDueDate)

	w = env.request(t, http.MethodPost, "/recurring/1/materialize", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res materializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Created, 1)
	require.True(t, res.NextDueDate.Equal(rec.StartDate.AddDate(0, 1, 0)))

	var tx models.Transaction
	require.NoError(t, env.db.First(&tx).Error)
	require.Equal(t, models.SourceRecurring, tx.Source)
	require.True(t, tx.Amount.Equal(decimal.NewFromInt(-1300)))
	require.NotNil(t, tx.RecurringTransactionID)
	require.Equal(t, rec.ID, *tx.RecurringTransactionID)
	require.Equal(t, start, tx.Date.Format(time.DateOnly))

	// next instance is a month out; materializing again is a domain error
	w = env.request(t, http.MethodPost, "/recurring/1/materialize", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaterializeCatchesUpMissedInstances(t *testing.T) {
	env := newTestEnv(t)
	registerRecurringRoutes(env)
	acct := env.account(t)

	// three weekly instances are overdue
	start := time.Now().AddDate(0, 0, -15).Format(time.DateOnly)
	w := env.request(t, http.MethodPost, "/recurring", gin.H{
		"accountId":   acct.ID,
		"description": "Cleaner",
		"amount":      "60",
		"type":        "expense",
		"frequency":   "weekly",
		"startDate":   start,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/recurring/1/materialize", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res materializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Created, 3)
	require.True(t, res.NextDueDate.After(time.Now()))
}

func TestMaterializeTransferBooksTwoLegs(t *testing.T) {
	env := newTestEnv(t)
	registerRecurringRoutes(env)
	from := env.account(t)
	to := models.Account{Name: "Savings", Type: "savings", Currency: "USD", Scope: models.ScopeShared}
	require.NoError(t, env.db.Create(&to).Error)

	w := env.request(t, http.MethodPost, "/recurring", gin.H{
		"accountId":   from.ID,
		"description": "Monthly savings",
		"amount":      "500",
		"type":        "expense",
		"frequency":   "monthly",
		"startDate":   time.Now().AddDate(0, 0, -1).Format(time.DateOnly),
		"isTransfer":  true,
		"toAccountId": to.ID,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/recurring/1/materialize", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var txs []models.Transaction
	require.NoError(t, env.db.Order("amount").Find(&txs).Error)
	require.Len(t, txs, 2)
	require.True(t, txs[0].Amount.Add(txs[1].Amount).IsZero())
	require.Equal(t, from.ID, txs[0].AccountID)
	require.Equal(t, to.ID, txs[1].AccountID)
}

func TestTransferRequiresDestination(t *testing.T) {
	env := newTestEnv(t)
	registerRecurringRoutes(env)
	acct := env.account(t)

	w := env.request(t, http.MethodPost, "/recurring", gin.H{
		"accountId":   acct.ID,
		"description": "broken transfer",
		"amount":      "500",
		"type":        "expense",
		"frequency":   "monthly",
		"startDate":   "2026-09-01",
		"isTransfer":  true,
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownFrequencyRejected(t *testing.T) {
	env := newTestEnv(t)
	registerRecurringRoutes(env)
	acct := env.account(t)

	w := env.request(t, http.MethodPost, "/recurring", gin.H{
		"accountId":   acct.ID,
		"description": "Rent",
		"amount":      "1300",
		"type":        "expense",
		"frequency":   "fortnightly",
		"startDate":   "2026-09-01",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
