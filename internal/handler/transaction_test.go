package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homebudget/internal/database"
	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	user   models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	user := models.User{Username: "alice", PasswordHash: "x", DisplayName: "Alice"}
	require.NoError(t, db.Create(&user).Error)

	r := gin.New()
	r.Use(middleware.Trace(), middleware.WithUser(&user), middleware.Scope())

	accounts := NewAccountHandler(db)
	transactions := NewTransactionHandler(db)
	r.POST("/accounts", accounts.Create)
	r.GET("/accounts/:id", accounts.Get)
	r.POST("/transactions", transactions.Create)
	r.GET("/transactions", transactions.List)
	r.GET("/transactions/summary", transactions.Summary)
	r.GET("/transactions/:id", transactions.Get)

	return &testEnv{db: db, router: r, user: user}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, scope string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if scope != "" {
		req.Header.Set("X-Budget-Scope", scope)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) account(t *testing.T) models.Account {
	t.Helper()
	acct := models.Account{Name: "Checking", Type: "checking", Currency: "USD", Scope: models.ScopeShared}
	require.NoError(t, e.db.Create(&acct).Error)
	return acct
}

func TestCreateTransactionNormalizesSign(t *testing.T) {
	env := newTestEnv(t)
	acct := env.account(t)

	w := env.request(t, http.MethodPost, "/transactions", gin.H{
		"accountId":   acct.ID,
		"description": "groceries",
		"amount":      "52.30", // client sends positive, type says expense
		"type":        "expense",
		"date":        "2026-08-10",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var tx models.Transaction
	require.NoError(t, env.db.First(&tx).Error)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("-52.3")))
	require.Equal(t, models.SourceManual, tx.Source)
	require.Equal(t, models.ScopeShared, tx.Scope)
}

func TestListFiltersByType(t *testing.T) {
	env := newTestEnv(t)
	acct := env.account(t)

	for _, tc := range []struct{ desc, amount, typ string }{
		{"salary", "3000", "income"},
		{"rent", "1300", "expense"},
		{"coffee", "4.50", "expense"},
	} {
		w := env.request(t, http.MethodPost, "/transactions", gin.H{
			"accountId": acct.ID, "description": tc.desc,
			"amount": tc.amount, "type": tc.typ, "date": "2026-08-10",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.request(t, http.MethodGet, "/transactions?type=expense", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res transactionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.EqualValues(t, 2, res.Total)
	for _, tx := range res.Transactions {
		require.True(t, tx.Amount.IsNegative())
	}
}

func TestSummaryTotals(t *testing.T) {
	env := newTestEnv(t)
	acct := env.account(t)

	for _, tc := range []struct{ amount, typ string }{
		{"3000", "income"}, {"1300", "expense"}, {"200", "expense"},
	} {
		env.request(t, http.MethodPost, "/transactions", gin.H{
			"accountId": acct.ID, "description": "x",
			"amount": tc.amount, "type": tc.typ, "date": "2026-08-10",
		}, "")
	}

	w := env.request(t, http.MethodGet, "/transactions/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var res summaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Income.Equal(decimal.NewFromInt(3000)))
	require.True(t, res.Expenses.Equal(decimal.NewFromInt(1500)))
	require.True(t, res.Net.Equal(decimal.NewFromInt(1500)))
	require.EqualValues(t, 3, res.Count)
}

func TestScopeHidesOtherUsersPersonalRecords(t *testing.T) {
	env := newTestEnv(t)
	acct := env.account(t)

	bob := models.User{Username: "bob", PasswordHash: "x"}
	require.NoError(t, env.db.Create(&bob).Error)

	mine := models.Transaction{
		AccountID: acct.ID, Description: "my secret", Amount: decimal.NewFromInt(-10),
		Currency: "USD", Scope: models.ScopePersonal, OwnerID: &env.user.ID,
	}
	theirs := models.Transaction{
		AccountID: acct.ID, Description: "bobs secret", Amount: decimal.NewFromInt(-20),
		Currency: "USD", Scope: models.ScopePersonal, OwnerID: &bob.ID,
	}
	require.NoError(t, env.db.Create(&mine).Error)
	require.NoError(t, env.db.Create(&theirs).Error)

	// ALL sees shared plus own personal, never bob's
	w := env.request(t, http.MethodGet, "/transactions", nil, "ALL")
	var res transactionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, "my secret", res.Transactions[0].Description)

	// PERSONAL narrows to own personal only
	w = env.request(t, http.MethodGet, "/transactions", nil, "PERSONAL")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.EqualValues(t, 1, res.Total)

	// bob's personal record is not addressable directly either
	w = env.request(t, http.MethodGet, "/transactions/2", nil, "ALL")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownScopeHeaderFallsBackToAll(t *testing.T) {
	env := newTestEnv(t)
	acct := env.account(t)
	shared := models.Transaction{
		AccountID: acct.ID, Description: "shared", Amount: decimal.NewFromInt(-5),
		Currency: "USD", Scope: models.ScopeShared,
	}
	require.NoError(t, env.db.Create(&shared).Error)

	w := env.request(t, http.MethodGet, "/transactions", nil, "EVERYTHING")
	require.Equal(t, http.StatusOK, w.Code)

	var res transactionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.EqualValues(t, 1, res.Total)
}

func TestNotFoundIsProblemDetails(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/transactions/9999", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	var problem util.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	require.Equal(t, http.StatusNotFound, problem.Status)
	require.Equal(t, "Not Found", problem.Title)
	require.NotEmpty(t, problem.TraceID)
}
