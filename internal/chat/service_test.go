package chat

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homebudget/internal/models"
)

type stubProvider struct {
	plan Plan
	err  error
}

func (s *stubProvider) ProposeActions(_ context.Context, _ Prompt) (Plan, error) {
	return s.plan, s.err
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Account{}, &models.Category{}, &models.Transaction{},
		&models.RecurringTransaction{}, &models.BudgetGoal{},
	))
	require.NoError(t, db.Create(&models.Account{Name: "Checking", Type: "checking", Currency: "USD", Scope: models.ScopeShared}).Error)
	require.NoError(t, db.Create(&models.Account{Name: "Savings", Type: "savings", Currency: "USD", Scope: models.ScopeShared}).Error)
	require.NoError(t, db.Create(&models.Category{Name: "Groceries", Type: "expense", Scope: models.ScopeShared}).Error)
	return db
}

func sharedTarget() Target { return Target{Scope: models.ScopeShared} }

func TestActionUnionDecoding(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "create_transaction",
		"createTransaction": {"account":"Checking","description":"coffee","amount":"4.50","type":"expense"}
	}`), &a))
	require.Equal(t, ActionCreateTransaction, a.Type)
	require.NotNil(t, a.CreateTransaction)

	// discriminant without payload
	require.Error(t, json.Unmarshal([]byte(`{"type":"create_transfer"}`), &a))
	// unknown discriminant
	require.Error(t, json.Unmarshal([]byte(`{"type":"delete_everything"}`), &a))
	// none needs no payload
	require.NoError(t, json.Unmarshal([]byte(`{"type":"none"}`), &a))
}

func TestHandleAppliesTransaction(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{plan: Plan{
		Reply: "Logged it.",
		Actions: []Action{{
			Type: ActionCreateTransaction,
			CreateTransaction: &CreateTransactionAction{
				Account: "Checking", Description: "coffee", Amount: "4.50",
				Type: "expense", Category: "Groceries", Date: "2026-08-20",
			},
		}},
	}})

	res, err := svc.Handle(context.Background(), "I spent $4.50 on coffee", sharedTarget())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Logged it.", res.Reply)
	require.Len(t, res.Applied, 1)
	require.Empty(t, res.Applied[0].Error)

	var tx models.Transaction
	require.NoError(t, db.First(&tx).Error)
	require.Equal(t, models.SourceChat, tx.Source)
	require.True(t, tx.Amount.Equal(decimal.RequireFromString("-4.5")))
	require.NotNil(t, tx.CategoryID)
}

func TestHandleAppliesTransferAsTwoLegs(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{plan: Plan{
		Actions: []Action{{
			Type: ActionCreateTransfer,
			CreateTransfer: &CreateTransferAction{
				FromAccount: "Checking", ToAccount: "Savings", Amount: "200",
			},
		}},
	}})

	res, err := svc.Handle(context.Background(), "move 200 to savings", sharedTarget())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.Applied[0].Error)

	var txs []models.Transaction
	require.NoError(t, db.Order("amount").Find(&txs).Error)
	require.Len(t, txs, 2)
	require.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-200)))
	require.True(t, txs[1].Amount.Equal(decimal.NewFromInt(200)))
	require.True(t, txs[0].Amount.Add(txs[1].Amount).IsZero())
}

func TestHandleReportsUnknownAccount(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{plan: Plan{
		Actions: []Action{{
			Type: ActionCreateTransaction,
			CreateTransaction: &CreateTransactionAction{
				Account: "Slush Fund", Description: "x", Amount: "1", Type: "expense",
			},
		}},
	}})

	res, err := svc.Handle(context.Background(), "log it", sharedTarget())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, res.Applied[0].Error, "Slush Fund")

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestHandleProviderTimeoutIsStructuredFailure(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{err: context.DeadlineExceeded})

	res, err := svc.Handle(context.Background(), "hello", sharedTarget())
	require.NoError(t, err, "backend failure must not surface as an error")
	require.False(t, res.Success)
	require.Contains(t, res.Reason, "timed out")
}

func TestHandleClientCancellationPropagates(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{err: context.Canceled})

	_, err := svc.Handle(context.Background(), "hello", sharedTarget())
	require.ErrorIs(t, err, context.Canceled)
}

func TestHandleCreatesRecurringAndBudget(t *testing.T) {
	db := testDB(t)
	svc := NewService(db, &stubProvider{plan: Plan{
		Actions: []Action{
			{
				Type: ActionCreateRecurring,
				CreateRecurring: &CreateRecurringAction{
					Account: "Checking", Description: "rent", Amount: "1300",
					Type: "expense", Frequency: "monthly", StartDate: "2026-09-01",
				},
			},
			{
				Type: ActionCreateBudget,
				CreateBudget: &CreateBudgetAction{
					Name: "Food", Category: "Groceries", Amount: "400",
				},
			},
		},
	}})

	res, err := svc.Handle(context.Background(), "rent is 1300 monthly, budget 400 for food", sharedTarget())
	require.NoError(t, err)
	require.Len(t, res.Applied, 2)
	require.Empty(t, res.Applied[0].Error)
	require.Empty(t, res.Applied[1].Error)

	var rec models.RecurringTransaction
	require.NoError(t, db.First(&rec).Error)
	require.True(t, rec.Amount.IsNegative())
	require.True(t, rec.Active)

	var goal models.BudgetGoal
	require.NoError(t, db.First(&goal).Error)
	require.Equal(t, "Food", goal.Name)
}
