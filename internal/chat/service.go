package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"homebudget/internal/models"
	"homebudget/internal/recurrence"
)

// Result is the chat outcome returned to the client. Provider failures land
// here as Success=false with a reason; they never escape as raw errors.
type Result struct {
	Success bool            `json:"success"`
	Reply   string          `json:"reply,omitempty"`
	Applied []AppliedAction `json:"applied,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// AppliedAction reports what happened to one proposed action.
type AppliedAction struct {
	Type    ActionType `json:"type"`
	Summary string     `json:"summary,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Target is the scope chat-created records are written into.
type Target struct {
	Scope   models.Scope
	OwnerID *uint
}

// Service asks the provider for a plan and applies its actions.
type Service struct {
	db       *gorm.DB
	provider Provider
}

func NewService(db *gorm.DB, provider Provider) *Service {
	return &Service{db: db, provider: provider}
}

// Handle processes one user message. Only client cancellation propagates as
// an error; every backend failure becomes a structured unsuccessful Result.
func (s *Service) Handle(ctx context.Context, message string, target Target) (Result, error) {
	prompt := Prompt{
		Message: message,
		Today:   time.Now().Format(time.DateOnly),
	}
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Pluck("name", &prompt.Accounts).Error; err != nil {
		return Result{}, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Pluck("name", &prompt.Categories).Error; err != nil {
		return Result{}, err
	}

	plan, err := s.provider.ProposeActions(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		slog.Warn("chat provider failed", "error", err)
		return Result{Success: false, Reason: reasonFor(err)}, nil
	}

	res := Result{Success: true, Reply: plan.Reply}
	for _, action := range plan.Actions {
		applied := AppliedAction{Type: action.Type}
		if err := s.apply(ctx, action, target, &applied); err != nil {
			applied.Error = err.Error()
		}
		res.Applied = append(res.Applied, applied)
	}
	return res, nil
}

func reasonFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "the assistant timed out; try again"
	}
	return "the assistant is unavailable: " + err.Error()
}

func (s *Service) apply(ctx context.Context, action Action, target Target, applied *AppliedAction) error {
	switch action.Type {
	case ActionNone:
		applied.Summary = "no action taken"
		return nil
	case ActionCreateTransaction:
		return s.applyTransaction(ctx, action.CreateTransaction, target, applied)
	case ActionCreateTransfer:
		return s.applyTransfer(ctx, action.CreateTransfer, target, applied)
	case ActionCreateRecurring:
		return s.applyRecurring(ctx, action.CreateRecurring, target, applied)
	case ActionCreateBudget:
		return s.applyBudget(ctx, action.CreateBudget, target, applied)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (s *Service) applyTransaction(ctx context.Context, a *CreateTransactionAction, target Target, applied *AppliedAction) error {
	acct, err := s.accountByName(ctx, a.Account)
	if err != nil {
		return err
	}
	amount, err := signedAmount(a.Amount, a.Type)
	if err != nil {
		return err
	}
	date, err := dateOrToday(a.Date)
	if err != nil {
		return err
	}

	t := models.Transaction{
		AccountID:   acct.ID,
		Description: a.Description,
		Amount:      amount,
		Currency:    acct.Currency,
		Date:        date,
		Scope:       target.Scope,
		OwnerID:     target.OwnerID,
		Source:      models.SourceChat,
	}
	if a.Category != "" {
		if cat, err := s.categoryByName(ctx, a.Category); err == nil {
			t.CategoryID = &cat.ID
		}
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return err
	}
	applied.Summary = fmt.Sprintf("recorded %s %s on %s", a.Type, amount.Abs().StringFixed(2), acct.Name)
	return nil
}

// applyTransfer books the two legs atomically.
func (s *Service) applyTransfer(ctx context.Context, a *CreateTransferAction, target Target, applied *AppliedAction) error {
	from, err := s.accountByName(ctx, a.FromAccount)
	if err != nil {
		return err
	}
	to, err := s.accountByName(ctx, a.ToAccount)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(a.Amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("invalid transfer amount %q", a.Amount)
	}
	date, err := dateOrToday(a.Date)
	if err != nil {
		return err
	}

	desc := a.Description
	if desc == "" {
		desc = fmt.Sprintf("Transfer %s -> %s", from.Name, to.Name)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out := models.Transaction{
			AccountID: from.ID, Description: desc, Amount: amount.Neg(),
			Currency: from.Currency, Date: date,
			Scope: target.Scope, OwnerID: target.OwnerID, Source: models.SourceChat,
		}
		in := models.Transaction{
			AccountID: to.ID, Description: desc, Amount: amount,
			Currency: to.Currency, Date: date,
			Scope: target.Scope, OwnerID: target.OwnerID, Source: models.SourceChat,
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}
		return tx.Create(&in).Error
	})
	if err != nil {
		return err
	}
	applied.Summary = fmt.Sprintf("transferred %s from %s to %s", amount.StringFixed(2), from.Name, to.Name)
	return nil
}

func (s *Service) applyRecurring(ctx context.Context, a *CreateRecurringAction, target Target, applied *AppliedAction) error {
	acct, err := s.accountByName(ctx, a.Account)
	if err != nil {
		return err
	}
	amount, err := signedAmount(a.Amount, a.Type)
	if err != nil {
		return err
	}
	freq := recurrence.Frequency(a.Frequency)
	if !recurrence.Valid(freq) {
		return fmt.Errorf("unknown frequency %q", a.Frequency)
	}
	start, err := dateOrToday(a.StartDate)
	if err != nil {
		return err
	}

	rec := models.RecurringTransaction{
		AccountID:   acct.ID,
		Description: a.Description,
		Amount:      amount,
		Currency:    acct.Currency,
		Frequency:   freq,
		StartDate:   start,
		NextDueDate: start,
		Active:      true,
		Scope:       target.Scope,
		OwnerID:     target.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	applied.Summary = fmt.Sprintf("scheduled %s %q every %s", a.Type, a.Description, a.Frequency)
	return nil
}

func (s *Service) applyBudget(ctx context.Context, a *CreateBudgetAction, target Target, applied *AppliedAction) error {
	cat, err := s.categoryByName(ctx, a.Category)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(a.Amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("invalid budget amount %q", a.Amount)
	}
	period := recurrence.Frequency(a.Period)
	if a.Period == "" {
		period = recurrence.Monthly
	}
	if !recurrence.Valid(period) {
		return fmt.Errorf("unknown period %q", a.Period)
	}

	goal := models.BudgetGoal{
		Name:         a.Name,
		CategoryID:   cat.ID,
		TargetAmount: amount,
		Period:       period,
		Scope:        target.Scope,
		OwnerID:      target.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return err
	}
	applied.Summary = fmt.Sprintf("budget %q: %s per %s for %s", a.Name, amount.StringFixed(2), period, cat.Name)
	return nil
}

func (s *Service) accountByName(ctx context.Context, name string) (*models.Account, error) {
	var acct models.Account
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %q not found", name)
		}
		return nil, err
	}
	return &acct, nil
}

func (s *Service) categoryByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %q not found", name)
		}
		return nil, err
	}
	return &cat, nil
}

func signedAmount(amountStr, txType string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", amountStr)
	}
	switch txType {
	case "expense":
		return amount.Abs().Neg(), nil
	case "income":
		return amount.Abs(), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown type %q (want income or expense)", txType)
	}
}

func dateOrToday(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
