// Package llm implements the OpenAI-compatible chat-completion and
// moderation provider client, plus the LLM-backed transforms (translation,
// summarization) built on it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/types"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// Client talks to an OpenAI-compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

var _ types.LLMClient = (*Client)(nil)

// NewClient creates an LLM client from config.
func NewClient(cfg config.LLMConfig, timeoutCfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeoutCfg.LLMTimeout()},
		log:        log.Named("llm"),
	}
}

// chat-completions wire types

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends the transcript plus the tool catalog and returns the
// model's reply. When the model chose a tool, the first tool call is
// decoded; its JSON argument string becomes a generic argument map.
func (c *Client) Complete(ctx context.Context, msgs []types.Message, tools []types.ToolDefinition) (*types.Completion, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    toWireMessages(msgs),
		Temperature: defaultTemperature,
	}
	if len(tools) > 0 {
		req.Tools = toWireTools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion returned", types.ErrSchema)
	}

	msg := resp.Choices[0].Message
	completion := &types.Completion{Content: strings.TrimSpace(msg.Content)}

	for _, call := range msg.ToolCalls {
		if call.Type != "function" {
			continue
		}
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: decode arguments for tool %s: %v", types.ErrSchema, call.Function.Name, err)
			}
		}
		completion.ToolCall = &types.ToolCall{Name: call.Function.Name, Arguments: args}
		break
	}
	return completion, nil
}

// CompleteText is a one-shot completion with a system instruction.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: string(types.RoleSystem), Content: systemPrompt},
			{Role: string(types.RoleUser), Content: userPrompt},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}

	resp, err := c.post(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", types.ErrSchema)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*chatResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", types.ErrValidation)
	}
	// One timeout policy for every call: apply the client timeout when the
	// caller did not set a deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: llm request failed: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read llm response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("llm api error", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: llm api returned status %d: %s", types.ErrTransport, resp.StatusCode, truncate(string(respBody), 300))
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("%w: parse llm response: %v", types.ErrSchema, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%w: llm api error: %s", types.ErrTransport, decoded.Error.Message)
	}
	return &decoded, nil
}

func toWireMessages(msgs []types.Message) []chatMessage {
	out := make([]chatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func toWireTools(tools []types.ToolDefinition) []wireTool {
	out := make([]wireTool, len(tools))
	for i, t := range tools {
		out[i] = wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
