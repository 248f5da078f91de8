// Package types holds the shared contracts between the dispatcher, the
// provider adapters, and the LLM client. Keeping them here avoids import
// cycles between the adapter packages and the tool catalog.
package types

import "context"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition describes a tool exposed to the LLM's function-calling
// feature. Parameters is a JSON-Schema-shaped object and is sent to the
// provider verbatim, so its field names are part of the wire contract.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a structured tool invocation chosen by the LLM.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Completion is the result of one chat-completion round trip. The model may
// reply with free-form text, request a tool invocation, or both.
type Completion struct {
	Content  string
	ToolCall *ToolCall
}

// LLMClient is the minimal surface the dispatcher and renderer need from the
// chat-completion provider.
type LLMClient interface {
	// Complete sends the full transcript plus the tool catalog and returns
	// the model's reply, which may include a tool call.
	Complete(ctx context.Context, msgs []Message, tools []ToolDefinition) (*Completion, error)

	// CompleteText is a one-shot completion with a system instruction,
	// used for summaries, translations and delegated rendering.
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Verdict is the outcome of a moderation check. It is ephemeral and never
// stored in the session.
type Verdict struct {
	Flagged    bool
	Categories []string
}

// Translation is a tagged translation outcome. Fallback is set when the
// provider call failed and Text is the original, untranslated input, so
// callers can tell "translated" from "gave up" without comparing strings.
type Translation struct {
	Text     string
	Fallback bool
}
