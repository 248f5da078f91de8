package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/types"
)

const summarySystemPrompt = "You are a helpful assistant that provides concise summaries."

// Translate renders text into the target language via the completion
// provider. The outcome is tagged: on provider failure or an empty
// translation, the original text comes back with Fallback set instead of an
// error. Validation failures are still errors.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (types.Translation, error) {
	if strings.TrimSpace(text) == "" {
		return types.Translation{}, fmt.Errorf("%w: input text must be a non-empty string", types.ErrValidation)
	}
	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return types.Translation{}, fmt.Errorf("%w: target language must be a valid language code", types.ErrValidation)
	}

	system := fmt.Sprintf("You are a translator. Translate the following text to %s. Provide only the translation, no explanations.", targetLang)
	translated, err := c.CompleteText(ctx, system, text)
	if err != nil || translated == "" {
		c.log.Warn("translation failed, falling back to original text",
			zap.String("target_lang", targetLang), zap.Error(err))
		return types.Translation{Text: text, Fallback: true}, nil
	}
	return types.Translation{Text: translated}, nil
}

// SummarizeArticle produces a 2-3 sentence summary. A missing title is a
// validation failure, distinct from a provider-call failure.
func (c *Client) SummarizeArticle(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: article missing required 'title' field", types.ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		content = "No content available."
	}

	prompt := fmt.Sprintf("Summarize the following news article in 2-3 sentences:\n\nTitle: %s\nContent: %s", title, content)
	summary, err := c.CompleteText(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return summary, nil
}
