package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/render"
	"newsdesk/internal/session"
	"newsdesk/internal/tools"
	"newsdesk/internal/types"
)

// State is the turn-loop position, tracked for observability.
type State string

const (
	StateAwaitingInput  State = "awaiting_input"
	StateClassifying    State = "classifying"
	StateDirectReply    State = "direct_reply"
	StateToolInvocation State = "tool_invocation"
	StateRejected       State = "rejected"
)

// Kind tags how a turn resolved.
type Kind int

const (
	// KindBuiltin is a locally handled command (help, trending, blank input).
	KindBuiltin Kind = iota
	// KindExit ends the conversation.
	KindExit
	// KindRejected means moderation blocked the turn.
	KindRejected
	// KindDirectReply is a free-form LLM answer with no tool call.
	KindDirectReply
	// KindToolReply carries a rendered tool result.
	KindToolReply
	// KindError is a degraded turn; the reply is an apology, never a panic.
	KindError
)

const (
	exitReply = "Goodbye!"

	inputFlaggedReply  = "Your input contains inappropriate content. Please try again."
	outputFlaggedReply = "I generated a response that violates content guidelines. Please rephrase your request."

	unknownToolReply  = "Sorry, I don't know how to do that yet. Type 'help' to see what I can do."
	providerDownReply = "Sorry, something went wrong while talking to a data provider. Please try again."
	llmDownReply      = "Sorry, I'm having trouble thinking right now. Please try again."

	helpText = `I can help you with:
  - News: "latest news about climate change", "top 5 AI articles in Spanish"
  - Summaries: "summarize news about elections", "summarize article 2"
  - Translation: "translate that to French"
  - Commodities: "gold and silver prices", "crude oil price in EUR"
  - Weather: "weather in Tokyo", "weather in Miami in Fahrenheit"
  - Trending: type "trending" for current top headlines
Type "exit" or "quit" to leave.`

	systemPrompt = `You are a helpful news assistant. You can fetch news articles, ` +
		`summarize them, translate text, report commodity prices, and report current weather. ` +
		`When the user asks for any of these, call the matching function instead of answering ` +
		`from memory. For anything else, answer conversationally and concisely.`
)

// Turn is the outcome of one HandleTurn call.
type Turn struct {
	Kind  Kind
	Reply string
}

// Done reports whether the conversation should end.
func (t Turn) Done() bool { return t.Kind == KindExit }

// Gate screens text for policy violations. A zero verdict means allowed.
type Gate interface {
	Check(ctx context.Context, text string) types.Verdict
}

// Dispatcher runs the per-turn pipeline: built-ins, moderation, intent
// classification, tool dispatch, rendering.
type Dispatcher struct {
	registry  *tools.Registry
	assistant Assistant
	gate      Gate
	news      NewsProvider
	renderer  *render.Renderer
	sess      *session.Session
	log       *zap.Logger

	state State
}

// New wires a dispatcher over an assembled registry and its collaborators.
func New(reg *tools.Registry, p Providers, gate Gate, renderer *render.Renderer, sess *session.Session, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  reg,
		assistant: p.Assistant,
		gate:      gate,
		news:      p.News,
		renderer:  renderer,
		sess:      sess,
		log:       log,
		state:     StateAwaitingInput,
	}
}

// SystemPrompt is the conversation seed for sessions driven by this
// dispatcher.
func SystemPrompt() string { return systemPrompt }

// State returns the position the last turn ended in.
func (d *Dispatcher) State() State { return d.state }

// HandleTurn processes one line of user input and returns the reply. It
// never returns an error: provider and LLM failures degrade to apologetic
// replies and the loop continues.
func (d *Dispatcher) HandleTurn(ctx context.Context, input string) Turn {
	input = strings.TrimSpace(input)
	if input == "" {
		d.transition(StateAwaitingInput)
		return Turn{Kind: KindBuiltin}
	}

	// Built-ins run before moderation and never touch the transcript.
	switch strings.ToLower(input) {
	case "exit", "quit":
		d.transition(StateAwaitingInput)
		return Turn{Kind: KindExit, Reply: exitReply}
	case "help":
		d.transition(StateAwaitingInput)
		return Turn{Kind: KindBuiltin, Reply: helpText}
	}

	if verdict := d.gate.Check(ctx, input); verdict.Flagged {
		d.transition(StateRejected)
		d.log.Info("input rejected by moderation", zap.Strings("categories", verdict.Categories))
		d.transition(StateAwaitingInput)
		return Turn{Kind: KindRejected, Reply: refusal(inputFlaggedReply, verdict.Categories)}
	}

	if strings.ToLower(input) == "trending" {
		return d.handleTrending(ctx)
	}

	return d.classify(ctx, input)
}

// handleTrending short-circuits the LLM entirely: headlines are fetched,
// rendered, and recorded as the last reply without growing the transcript.
func (d *Dispatcher) handleTrending(ctx context.Context) Turn {
	topics, err := d.news.TopHeadlines(ctx)
	if err != nil {
		d.log.Warn("trending headlines unavailable", zap.Error(err))
		topics = nil
	}
	reply := render.FormatTopics(topics)
	d.sess.SetLastReply(reply)
	d.transition(StateAwaitingInput)
	return Turn{Kind: KindBuiltin, Reply: reply}
}

func (d *Dispatcher) classify(ctx context.Context, input string) Turn {
	d.transition(StateClassifying)
	d.sess.AppendUser(input)

	completion, err := d.assistant.Complete(ctx, d.sess.Messages(), d.registry.Definitions())
	if err != nil {
		d.log.Error("completion failed", zap.Error(err))
		d.transition(StateAwaitingInput)
		return Turn{Kind: KindError, Reply: llmDownReply}
	}

	var parts []string
	kind := KindDirectReply

	if completion.Content != "" {
		if verdict := d.gate.Check(ctx, completion.Content); verdict.Flagged {
			d.transition(StateRejected)
			d.log.Info("generated reply rejected by moderation", zap.Strings("categories", verdict.Categories))
			parts = append(parts, outputFlaggedReply)
		} else {
			d.transition(StateDirectReply)
			d.sess.AppendAssistant(completion.Content)
			d.sess.SetLastReply(completion.Content)
			parts = append(parts, completion.Content)
		}
	}

	if completion.ToolCall != nil {
		kind = KindToolReply
		parts = append(parts, d.invoke(ctx, completion.ToolCall))
	}

	if len(parts) == 0 {
		// The model returned neither content nor a tool call.
		d.log.Warn("empty completion")
		kind = KindError
		parts = append(parts, llmDownReply)
	}

	d.transition(StateAwaitingInput)
	return Turn{Kind: kind, Reply: strings.Join(parts, "\n\n")}
}

// invoke validates the LLM-chosen tool name against the registry before
// dispatching; a hallucinated name becomes a user-facing message, never an
// execution attempt.
func (d *Dispatcher) invoke(ctx context.Context, call *types.ToolCall) string {
	d.transition(StateToolInvocation)

	if !d.registry.Has(call.Name) {
		d.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return unknownToolReply
	}

	result, err := d.registry.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		d.log.Warn("tool execution failed", zap.String("tool", call.Name), zap.Error(err))
		return userMessage(err)
	}

	reply := d.renderer.Render(ctx, result)
	d.sess.SetLastReply(reply)
	return reply
}

func (d *Dispatcher) transition(next State) {
	if d.state != next {
		d.log.Debug("state transition", zap.String("from", string(d.state)), zap.String("to", string(next)))
		d.state = next
	}
}

func refusal(base string, categories []string) string {
	if len(categories) == 0 {
		return base
	}
	return base + "\nFlagged categories: " + strings.Join(categories, ", ")
}

// userMessage maps a tool failure to a reply the user can act on.
// Validation problems carry their own explanation; everything else is a
// generic provider apology.
func userMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, tools.ErrMissingRequiredArg):
		return fmt.Sprintf("I couldn't do that: %v", trimTaxonomy(err))
	default:
		return providerDownReply
	}
}

// trimTaxonomy strips the sentinel prefix so users see only the detail.
func trimTaxonomy(err error) string {
	return strings.TrimPrefix(err.Error(), types.ErrValidation.Error()+": ")
}
