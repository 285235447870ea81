package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homebudget/internal/config"
)

const systemPrompt = "You are a household budgeting assistant. Respond with ONLY valid JSON " +
	"with keys: reply (string), actions (array). Each action has key type, one of: " +
	"create_transaction, create_transfer, create_recurring, create_budget, none; plus a " +
	"matching camelCase payload object (createTransaction, createTransfer, createRecurring, " +
	"createBudget). Amounts are decimal strings, dates are YYYY-MM-DD, frequencies are one of " +
	"daily, weekly, biweekly, monthly, quarterly, yearly. Use only the provided account and " +
	"category names. When no action is appropriate, return a single action of type none."

// OllamaProvider talks to a local Ollama server's /api/chat endpoint.
type OllamaProvider struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

func NewOllamaProvider(cfg config.AIConfig) *OllamaProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: timeout,
		client:  &http.Client{},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// ProposeActions sends the prompt to Ollama and decodes the JSON plan.
// The configured timeout is applied through a derived context, so a stuck
// model surfaces as context.DeadlineExceeded to the caller.
func (p *OllamaProvider) ProposeActions(ctx context.Context, prompt Prompt) (Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload, err := json.Marshal(prompt)
	if err != nil {
		return Plan{}, fmt.Errorf("ollama: marshal prompt: %w", err)
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model: p.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Input JSON:\n" + string(payload)},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return Plan{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Plan{}, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Plan{}, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Plan{}, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Plan{}, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return Plan{}, fmt.Errorf("ollama: malformed response: %w", err)
	}

	var plan Plan
	if err := decodeJSON(chatResp.Message.Content, &plan); err != nil {
		return Plan{}, fmt.Errorf("ollama: parse plan: %w", err)
	}
	return plan, nil
}
