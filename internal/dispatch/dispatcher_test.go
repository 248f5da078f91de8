package dispatch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/render"
	"newsdesk/internal/session"
	"newsdesk/internal/types"
	"newsdesk/internal/weather"
)

type fakeAssistant struct {
	completion   *types.Completion
	completeErr  error
	lastMessages []types.Message
	lastTools    []types.ToolDefinition
	completes    int

	textReply string
	textErr   error

	translatePrefix string
	translateErr    error

	summary    string
	summaryErr error
}

func (f *fakeAssistant) Complete(_ context.Context, messages []types.Message, defs []types.ToolDefinition) (*types.Completion, error) {
	f.completes++
	f.lastMessages = messages
	f.lastTools = defs
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return f.completion, nil
}

func (f *fakeAssistant) CompleteText(context.Context, string, string) (string, error) {
	return f.textReply, f.textErr
}

func (f *fakeAssistant) Translate(_ context.Context, text, lang string) (types.Translation, error) {
	if f.translateErr != nil {
		return types.Translation{}, f.translateErr
	}
	return types.Translation{Text: f.translatePrefix + "[" + lang + "] " + text}, nil
}

func (f *fakeAssistant) SummarizeArticle(context.Context, string, string) (string, error) {
	return f.summary, f.summaryErr
}

type fakeGate struct {
	flagged    map[string][]string
	lastChecks []string
}

func (g *fakeGate) Check(_ context.Context, text string) types.Verdict {
	g.lastChecks = append(g.lastChecks, text)
	if categories, ok := g.flagged[text]; ok {
		return types.Verdict{Flagged: true, Categories: categories}
	}
	return types.Verdict{}
}

type fakeNews struct {
	articles  []news.Article
	searchErr error
	lastQuery news.Query

	headlines    []string
	headlinesErr error
}

func (f *fakeNews) Search(_ context.Context, q news.Query) ([]news.Article, error) {
	f.lastQuery = q
	return f.articles, f.searchErr
}

func (f *fakeNews) TopHeadlines(context.Context) ([]string, error) {
	return f.headlines, f.headlinesErr
}

type fakeWeather struct {
	report   *weather.Report
	err      error
	lastCity string
}

func (f *fakeWeather) Current(_ context.Context, city string, _ weather.Units) (*weather.Report, error) {
	f.lastCity = city
	return f.report, f.err
}

type fakeMarket struct {
	set       market.QuoteSet
	err       error
	lastNames []string
}

func (f *fakeMarket) Quotes(_ context.Context, names []string) (market.QuoteSet, error) {
	f.lastNames = names
	return f.set, f.err
}

type fixture struct {
	dispatcher *Dispatcher
	sess       *session.Session
	assistant  *fakeAssistant
	gate       *fakeGate
	news       *fakeNews
	weather    *fakeWeather
	market     *fakeMarket
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		assistant: &fakeAssistant{},
		gate:      &fakeGate{},
		news:      &fakeNews{},
		weather:   &fakeWeather{},
		market:    &fakeMarket{},
	}
	f.sess = session.New(SystemPrompt())
	log := zap.NewNop()
	providers := Providers{News: f.news, Weather: f.weather, Market: f.market, Assistant: f.assistant}
	registry := BuildRegistry(providers, f.sess, log)
	renderer := render.New(f.assistant, log)
	f.dispatcher = New(registry, providers, f.gate, renderer, f.sess, log)
	return f
}

func toolCall(name string, args map[string]any) *types.Completion {
	return &types.Completion{ToolCall: &types.ToolCall{Name: name, Arguments: args}}
}

func TestHandleTurnExit(t *testing.T) {
	f := newFixture(t)
	for _, input := range []string{"exit", "QUIT", "  Exit  "} {
		turn := f.dispatcher.HandleTurn(context.Background(), input)
		assert.Equal(t, KindExit, turn.Kind, input)
		assert.True(t, turn.Done())
		assert.Equal(t, "Goodbye!", turn.Reply)
	}
	assert.Equal(t, 1, f.sess.Len(), "built-ins must not grow the transcript")
	assert.Empty(t, f.gate.lastChecks, "built-ins bypass moderation")
}

func TestHandleTurnHelp(t *testing.T) {
	f := newFixture(t)
	turn := f.dispatcher.HandleTurn(context.Background(), "help")
	assert.Equal(t, KindBuiltin, turn.Kind)
	assert.Contains(t, turn.Reply, "trending")
	assert.Contains(t, turn.Reply, "exit")
	assert.Equal(t, 1, f.sess.Len())
}

func TestHandleTurnBlankInput(t *testing.T) {
	f := newFixture(t)
	turn := f.dispatcher.HandleTurn(context.Background(), "   ")
	assert.Equal(t, KindBuiltin, turn.Kind)
	assert.Empty(t, turn.Reply)
	assert.Zero(t, f.assistant.completes)
}

func TestHandleTurnFlaggedInput(t *testing.T) {
	f := newFixture(t)
	f.gate.flagged = map[string][]string{"something vile": {"harassment", "violence"}}

	turn := f.dispatcher.HandleTurn(context.Background(), "something vile")
	assert.Equal(t, KindRejected, turn.Kind)
	assert.Contains(t, turn.Reply, "inappropriate content")
	assert.Contains(t, turn.Reply, "harassment, violence")
	assert.Equal(t, 1, f.sess.Len(), "rejected input must not enter the transcript")
	assert.Zero(t, f.assistant.completes)
}

func TestHandleTurnTrending(t *testing.T) {
	f := newFixture(t)
	f.news.headlines = []string{"Markets rally", "Heatwave continues", "Election results"}

	turn := f.dispatcher.HandleTurn(context.Background(), "Trending")
	assert.Equal(t, KindBuiltin, turn.Kind)
	assert.Contains(t, turn.Reply, "1. Markets rally")
	assert.Contains(t, turn.Reply, "3. Election results")
	assert.Equal(t, turn.Reply, f.sess.LastReply())
	assert.Equal(t, 1, f.sess.Len(), "trending must not grow the transcript")
	assert.Zero(t, f.assistant.completes, "trending short-circuits classification")
}

func TestHandleTurnTrendingProviderDown(t *testing.T) {
	f := newFixture(t)
	f.news.headlinesErr = fmt.Errorf("%w: 503", types.ErrTransport)

	turn := f.dispatcher.HandleTurn(context.Background(), "trending")
	assert.Equal(t, KindBuiltin, turn.Kind)
	assert.Contains(t, turn.Reply, "couldn't fetch trending topics")
}

func TestHandleTurnDirectReply(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = &types.Completion{Content: "Hello! How can I help?"}

	turn := f.dispatcher.HandleTurn(context.Background(), "hi there")
	assert.Equal(t, KindDirectReply, turn.Kind)
	assert.Equal(t, "Hello! How can I help?", turn.Reply)

	messages := f.sess.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, types.RoleUser, messages[1].Role)
	assert.Equal(t, "hi there", messages[1].Content)
	assert.Equal(t, types.RoleAssistant, messages[2].Role)
	assert.Equal(t, "Hello! How can I help?", f.sess.LastReply())
	assert.NotEmpty(t, f.assistant.lastTools, "classification must advertise the catalog")
}

func TestHandleTurnFlaggedGeneratedReply(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = &types.Completion{Content: "offensive output"}
	f.gate.flagged = map[string][]string{"offensive output": {"hate"}}

	turn := f.dispatcher.HandleTurn(context.Background(), "say something")
	assert.Contains(t, turn.Reply, "violates content guidelines")
	assert.Equal(t, 2, f.sess.Len(), "flagged output must not enter the transcript")
}

func TestHandleTurnCompletionFailure(t *testing.T) {
	f := newFixture(t)
	f.assistant.completeErr = fmt.Errorf("%w: 500", types.ErrTransport)

	turn := f.dispatcher.HandleTurn(context.Background(), "news about go")
	assert.Equal(t, KindError, turn.Kind)
	assert.Contains(t, turn.Reply, "try again")
	assert.Equal(t, StateAwaitingInput, f.dispatcher.State())
}

func TestHandleTurnUnknownTool(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall("launch_rockets", map[string]any{})

	turn := f.dispatcher.HandleTurn(context.Background(), "launch the rockets")
	assert.Equal(t, KindToolReply, turn.Kind)
	assert.Contains(t, turn.Reply, "don't know how to do that")
}

func TestHandleTurnWeatherTool(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolWeather, map[string]any{"city": "Tokyo", "units": "metric"})
	f.weather.report = &weather.Report{
		City: "Tokyo", Temperature: 21.5, FeelsLike: 22, Humidity: 60,
		Description: "Scattered clouds", WindSpeed: 3.4,
		Observed: time.Unix(1700000000, 0),
	}

	turn := f.dispatcher.HandleTurn(context.Background(), "weather in tokyo")
	assert.Equal(t, KindToolReply, turn.Kind)
	assert.Contains(t, turn.Reply, "Current weather in Tokyo")
	assert.Contains(t, turn.Reply, "21.5°C")
	assert.Equal(t, "Tokyo", f.weather.lastCity)
	assert.Equal(t, turn.Reply, f.sess.LastReply())
}

func TestHandleTurnWeatherProviderDown(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolWeather, map[string]any{"city": "Tokyo"})
	f.weather.err = fmt.Errorf("%w: connection refused", types.ErrTransport)

	turn := f.dispatcher.HandleTurn(context.Background(), "weather in tokyo")
	assert.Contains(t, turn.Reply, "data provider")
}

func TestHandleTurnMissingRequiredArg(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolWeather, map[string]any{"units": "metric"})

	turn := f.dispatcher.HandleTurn(context.Background(), "weather")
	assert.Contains(t, turn.Reply, "I couldn't do that")
	assert.Contains(t, turn.Reply, "city")
	assert.Empty(t, f.weather.lastCity, "tool must not run without required args")
}

func TestHandleTurnFetchNewsRecordsArticles(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolFetchNews, map[string]any{"topic": "climate"})
	f.news.articles = []news.Article{
		{Title: "Glaciers shrink", Description: "Annual survey results.", URL: "https://example.com/a"},
		{Title: "Carbon levels up", Description: "New measurements.", URL: "https://example.com/b"},
	}

	turn := f.dispatcher.HandleTurn(context.Background(), "news about climate")
	assert.Contains(t, turn.Reply, "top 2 articles for 'climate'")
	assert.Contains(t, turn.Reply, "1. Glaciers shrink")
	assert.Equal(t, "en", f.news.lastQuery.Language)
	assert.Equal(t, 5, f.news.lastQuery.PageSize, "default page size applies")
	assert.Len(t, f.sess.Articles(), 2, "fetched articles must be cached for index lookups")
}

func TestHandleTurnFetchNewsTranslatesListing(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolFetchNews, map[string]any{"topic": "climate", "target_lang": "es"})
	f.news.articles = []news.Article{{Title: "Glaciers shrink", Description: "Survey.", URL: "https://example.com/a"}}

	turn := f.dispatcher.HandleTurn(context.Background(), "noticias del clima")
	assert.Contains(t, turn.Reply, "[es] Glaciers shrink")
	assert.Contains(t, turn.Reply, "[es] Survey.")
}

func TestHandleTurnFetchNewsDegradesOnTransportError(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolFetchNews, map[string]any{"topic": "climate"})
	f.news.searchErr = fmt.Errorf("%w: timeout", types.ErrTransport)

	turn := f.dispatcher.HandleTurn(context.Background(), "news about climate")
	assert.Equal(t, KindToolReply, turn.Kind)
	assert.Contains(t, turn.Reply, "couldn't find any articles about 'climate'")
	assert.Empty(t, f.sess.Articles(), "a failed fetch still replaces the cached list")
}

func TestHandleTurnSummarizeByIndex(t *testing.T) {
	f := newFixture(t)
	f.sess.SetArticles([]news.Article{
		{Title: "First", Content: "Body one."},
		{Title: "Second", Content: "Body two."},
	})
	f.assistant.completion = toolCall(ToolSummarizeByIndex, map[string]any{"index": float64(2)})
	f.assistant.summary = "Body two, condensed."

	turn := f.dispatcher.HandleTurn(context.Background(), "summarize article 2")
	assert.Contains(t, turn.Reply, "Here's the summary:")
	assert.Contains(t, turn.Reply, "Body two, condensed.")
}

func TestHandleTurnSummarizeByIndexOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolSummarizeByIndex, map[string]any{"index": float64(7)})

	turn := f.dispatcher.HandleTurn(context.Background(), "summarize article 7")
	assert.Contains(t, turn.Reply, "I couldn't do that")
}

func TestHandleTurnFetchAndSummarize(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolFetchAndSummarize, map[string]any{"topic": "ai"})
	f.news.articles = []news.Article{{Title: "Model released", Content: "Long body."}}
	f.assistant.summary = "A model was released."

	turn := f.dispatcher.HandleTurn(context.Background(), "summarize ai news")
	assert.Contains(t, turn.Reply, "Model released")
	assert.Contains(t, turn.Reply, "A model was released.")
	assert.Equal(t, 3, f.news.lastQuery.PageSize, "default summarize count applies")
}

func TestHandleTurnTranslateLastReply(t *testing.T) {
	f := newFixture(t)
	f.sess.SetLastReply("Here are the headlines.")
	f.assistant.completion = toolCall(ToolTranslateText, map[string]any{"target_lang": "fr"})

	turn := f.dispatcher.HandleTurn(context.Background(), "translate that to french")
	assert.Equal(t, "[fr] Here are the headlines.", turn.Reply)
}

func TestHandleTurnTranslateWithoutPriorReply(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolTranslateText, map[string]any{"target_lang": "fr"})

	turn := f.dispatcher.HandleTurn(context.Background(), "translate that")
	assert.Contains(t, turn.Reply, "no previous reply to translate")
}

func TestHandleTurnCommodityPricesPartial(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = toolCall(ToolCommodityPrices, map[string]any{
		"commodities": []any{"Gold", "unicorns"},
		"currency":    "USD",
	})
	f.market.set = market.QuoteSet{
		{Name: "Gold", Symbol: "GC=F", Status: market.StatusOK,
			Quote: market.Quote{Price: 2040.5, Change: 12.3, ChangePercent: 0.61}},
		{Name: "unicorns", Status: market.StatusNotSupported, Reason: "not a supported commodity"},
	}
	f.assistant.textReply = "| Gold | 2040.50 | +12.30 |"

	turn := f.dispatcher.HandleTurn(context.Background(), "gold and unicorns prices")
	assert.Equal(t, KindToolReply, turn.Kind)
	assert.Contains(t, turn.Reply, "Gold")
	assert.Contains(t, turn.Reply, "2040.5")
	assert.Contains(t, turn.Reply, "'unicorns' is not a supported commodity")
	assert.Equal(t, []string{"Gold", "unicorns"}, f.market.lastNames)
}

func TestHandleTurnContentAndToolCallCombined(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = &types.Completion{
		Content:  "Sure, checking the weather.",
		ToolCall: &types.ToolCall{Name: ToolWeather, Arguments: map[string]any{"city": "Oslo"}},
	}
	f.weather.report = &weather.Report{City: "Oslo", Temperature: 4, Humidity: 80,
		Description: "Overcast", Observed: time.Unix(1700000000, 0)}

	turn := f.dispatcher.HandleTurn(context.Background(), "weather in oslo")
	assert.Equal(t, KindToolReply, turn.Kind)
	assert.Contains(t, turn.Reply, "Sure, checking the weather.")
	assert.Contains(t, turn.Reply, "Current weather in Oslo")
}

func TestRegistryAdvertisesSixTools(t *testing.T) {
	f := newFixture(t)
	f.assistant.completion = &types.Completion{Content: "ok"}
	f.dispatcher.HandleTurn(context.Background(), "hello")

	require.Len(t, f.assistant.lastTools, 6)
	names := make([]string, len(f.assistant.lastTools))
	for i, def := range f.assistant.lastTools {
		names[i] = def.Name
	}
	assert.Equal(t, []string{
		ToolFetchAndSummarize, ToolTranslateText, ToolFetchNews,
		ToolSummarizeByIndex, ToolCommodityPrices, ToolWeather,
	}, names)
}
