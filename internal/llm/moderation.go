package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"newsdesk/internal/types"
)

// moderation wire types

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
	Error *apiError `json:"error"`
}

// Moderate runs the provider's moderation check on text. Errors are
// returned as-is; fail-open policy lives in Gate, not here.
func (c *Client) Moderate(ctx context.Context, text string) (types.Verdict, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return types.Verdict{}, fmt.Errorf("marshal moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/moderations", bytes.NewReader(body))
	if err != nil {
		return types.Verdict{}, fmt.Errorf("create moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("%w: moderation request failed: %v", types.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("%w: read moderation response: %v", types.ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Verdict{}, fmt.Errorf("%w: moderation api returned status %d", types.ErrTransport, resp.StatusCode)
	}

	var decoded moderationResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return types.Verdict{}, fmt.Errorf("%w: parse moderation response: %v", types.ErrSchema, err)
	}
	if decoded.Error != nil {
		return types.Verdict{}, fmt.Errorf("%w: moderation api error: %s", types.ErrTransport, decoded.Error.Message)
	}
	if len(decoded.Results) == 0 {
		return types.Verdict{}, fmt.Errorf("%w: empty moderation results", types.ErrSchema)
	}

	result := decoded.Results[0]
	verdict := types.Verdict{Flagged: result.Flagged}
	for category, flagged := range result.Categories {
		if flagged {
			verdict.Categories = append(verdict.Categories, category)
		}
	}
	sort.Strings(verdict.Categories)
	return verdict, nil
}

// Moderator is the wire-level moderation surface Gate wraps.
type Moderator interface {
	Moderate(ctx context.Context, text string) (types.Verdict, error)
}

// Gate applies the moderation policy: a failed provider call yields a clean
// verdict instead of blocking the conversation. Availability wins over
// strict enforcement.
type Gate struct {
	moderator Moderator
	log       *zap.Logger
}

// NewGate creates a moderation gate around a moderator.
func NewGate(moderator Moderator, log *zap.Logger) *Gate {
	return &Gate{moderator: moderator, log: log.Named("moderation")}
}

// Check moderates text, failing open on any provider error.
func (g *Gate) Check(ctx context.Context, text string) types.Verdict {
	verdict, err := g.moderator.Moderate(ctx, text)
	if err != nil {
		g.log.Warn("moderation check failed, failing open", zap.Error(err))
		return types.Verdict{}
	}
	return verdict
}
