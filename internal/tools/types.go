// Package tools provides the tool catalog the dispatcher routes through.
// Each tool carries a JSON-Schema-shaped argument description that doubles
// as the function-calling wire contract with the LLM provider, so schema
// field names must be reproduced exactly.
package tools

import "context"

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Default     any            `json:"default,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	Items       *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
	Enum []any  `json:"enum,omitempty"`
}

// Schema defines the JSON schema for tool arguments.
type Schema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// Parameters renders the schema as the JSON-Schema object the provider's
// function-calling feature expects.
func (s Schema) Parameters() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Items != nil {
			items := map[string]any{"type": p.Items.Type}
			if len(p.Items.Enum) > 0 {
				items["enum"] = p.Items.Enum
			}
			prop["items"] = items
		}
		props[name] = prop
	}

	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ExecuteFunc is the signature for tool execution. It returns a typed
// result for the renderer.
type ExecuteFunc func(ctx context.Context, args map[string]any) (Result, error)

// Tool is one named capability the LLM can select.
type Tool struct {
	// Name is the unique identifier, matched against LLM tool calls.
	Name string

	// Description is surfaced to the LLM for intent classification.
	Description string

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema Schema
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// argument extraction helpers: LLM-provided argument maps come from JSON,
// so numbers arrive as float64 and everything needs a tolerant cast.

// StringArg extracts a string argument, returning fallback when absent.
func StringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// IntArg extracts an integer argument, returning fallback when absent or
// not a number.
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// StringSliceArg extracts a list-of-strings argument. Non-string elements
// are skipped.
func StringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		if direct, ok := args[key].([]string); ok {
			return direct
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
