// Package chat turns natural-language requests into financial actions via a
// local LLM backend.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ActionType discriminates the action union.
type ActionType string

const (
	ActionCreateTransaction ActionType = "create_transaction"
	ActionCreateTransfer    ActionType = "create_transfer"
	ActionCreateRecurring   ActionType = "create_recurring"
	ActionCreateBudget      ActionType = "create_budget"
	ActionNone              ActionType = "none"
)

// Action is a tagged union: Type selects which payload pointer is set.
type Action struct {
	Type              ActionType               `json:"type"`
	CreateTransaction *CreateTransactionAction `json:"createTransaction,omitempty"`
	CreateTransfer    *CreateTransferAction    `json:"createTransfer,omitempty"`
	CreateRecurring   *CreateRecurringAction   `json:"createRecurring,omitempty"`
	CreateBudget      *CreateBudgetAction      `json:"createBudget,omitempty"`
}

type CreateTransactionAction struct {
	Account     string `json:"account"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"` // income / expense
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD, default today
}

type CreateTransferAction struct {
	FromAccount string `json:"fromAccount"`
	ToAccount   string `json:"toAccount"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

type CreateRecurringAction struct {
	Account     string `json:"account"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"startDate,omitempty"`
}

type CreateBudgetAction struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period,omitempty"` // default monthly
}

// UnmarshalJSON decodes the union and rejects payload/discriminant mismatches.
func (a *Action) UnmarshalJSON(data []byte) error {
	type alias Action
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Action(raw)
	switch a.Type {
	case ActionCreateTransaction:
		if a.CreateTransaction == nil {
			return fmt.Errorf("chat: %s action missing payload", a.Type)
		}
	case ActionCreateTransfer:
		if a.CreateTransfer == nil {
			return fmt.Errorf("chat: %s action missing payload", a.Type)
		}
	case ActionCreateRecurring:
		if a.CreateRecurring == nil {
			return fmt.Errorf("chat: %s action missing payload", a.Type)
		}
	case ActionCreateBudget:
		if a.CreateBudget == nil {
			return fmt.Errorf("chat: %s action missing payload", a.Type)
		}
	case ActionNone:
	default:
		return fmt.Errorf("chat: unknown action type %q", a.Type)
	}
	return nil
}

// Plan is what the model proposes for one message.
type Plan struct {
	Reply   string   `json:"reply"`
	Actions []Action `json:"actions"`
}

// Prompt carries the user message plus the context the model may reference.
type Prompt struct {
	Message    string   `json:"message"`
	Accounts   []string `json:"accounts"`
	Categories []string `json:"categories"`
	Today      string   `json:"today"`
}

// Provider proposes a plan of actions for a message.
type Provider interface {
	ProposeActions(ctx context.Context, p Prompt) (Plan, error)
}

// decodeJSON tolerates models that wrap their JSON in a code fence.
func decodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}
	return json.Unmarshal([]byte(text), v)
}
