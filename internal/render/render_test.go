package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/tools"
	"newsdesk/internal/types"
	"newsdesk/internal/weather"
)

type stubLLM struct {
	reply string
	err   error
	// lastSystem and lastUser capture the final CompleteText call.
	lastSystem string
	lastUser   string
}

func (s *stubLLM) Complete(ctx context.Context, msgs []types.Message, defs []types.ToolDefinition) (*types.Completion, error) {
	return &types.Completion{Content: s.reply}, s.err
}

func (s *stubLLM) CompleteText(ctx context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.reply, s.err
}

func TestFormatTopicsNumbersFromOne(t *testing.T) {
	got := FormatTopics([]string{"First story", "Second story"})
	assert.Contains(t, got, "1. First story")
	assert.Contains(t, got, "2. Second story")
	assert.True(t, strings.HasPrefix(got, "Here are the current trending topics:"))
}

func TestFormatTopicsEmpty(t *testing.T) {
	got := FormatTopics(nil)
	assert.Contains(t, got, "couldn't fetch trending topics")
}

func TestFormatArticles(t *testing.T) {
	articles := []news.Article{
		{Title: "Alpha", Description: "About alpha", URL: "https://example.com/a"},
		{Title: "Beta", Description: "About beta", URL: "https://example.com/b"},
	}

	got := FormatArticles("tech", articles)
	assert.Contains(t, got, "top 2 articles for 'tech'")
	assert.Contains(t, got, "1. Alpha")
	assert.Contains(t, got, "About alpha")
	assert.Contains(t, got, "(URL: https://example.com/a)")
	assert.Contains(t, got, "2. Beta")
}

func TestFormatWeatherUnitSuffixes(t *testing.T) {
	report := &weather.Report{
		City:        "Tokyo",
		Temperature: 21.5,
		FeelsLike:   22.1,
		Humidity:    60,
		Description: "Scattered clouds",
		WindSpeed:   3.4,
		Observed:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	metric := FormatWeather(weather.UnitsMetric, report)
	assert.Contains(t, metric, "Temperature: 21.5°C")
	assert.Contains(t, metric, "Wind speed: 3.4 m/s")
	assert.Contains(t, metric, "Humidity: 60%")
	assert.Contains(t, metric, "Conditions: Scattered clouds")
	assert.Contains(t, metric, "Last updated: 2024-05-01 09:30:00")

	imperial := FormatWeather(weather.UnitsImperial, report)
	assert.Contains(t, imperial, "°F")
	assert.Contains(t, imperial, "mph")
}

func quoteSet() tools.QuoteSet {
	return tools.QuoteSet{
		Currency:  "USD",
		Requested: []string{"Gold", "unicorns"},
		Entries: market.QuoteSet{
			{Name: "Gold", Symbol: "GC=F", Status: market.StatusOK,
				Quote: market.Quote{Price: 2050, Change: 50, ChangePercent: 2.5}},
			{Name: "unicorns", Status: market.StatusNotSupported, Reason: "not supported"},
		},
	}
}

func TestRenderQuotesDelegatesToLLM(t *testing.T) {
	llm := &stubLLM{reply: "| Commodity | Price |"}
	r := New(llm, zap.NewNop())

	got := r.Render(context.Background(), quoteSet())
	assert.Contains(t, got, "| Commodity | Price |")
	assert.Contains(t, got, "'unicorns' is not a supported commodity")
	assert.Contains(t, llm.lastUser, "Gold: price 2050.00 USD")
	assert.NotContains(t, llm.lastUser, "unicorns: price")
	assert.Contains(t, llm.lastSystem, "financial data assistant")
}

func TestRenderQuotesFallsBackLocally(t *testing.T) {
	llm := &stubLLM{err: errors.New("llm down")}
	r := New(llm, zap.NewNop())

	got := r.Render(context.Background(), quoteSet())
	assert.Contains(t, got, "Gold: 2050.00")
	assert.Contains(t, got, "+2.50%")
	assert.Contains(t, got, "unicorns: not supported")
}

func TestRenderQuotesAllDegraded(t *testing.T) {
	llm := &stubLLM{reply: "should not be used"}
	r := New(llm, zap.NewNop())

	got := r.Render(context.Background(), tools.QuoteSet{
		Currency:  "USD",
		Requested: []string{"Silver"},
		Entries: market.QuoteSet{
			{Name: "Silver", Symbol: "SI=F", Status: market.StatusUnavailable, Reason: "outage"},
		},
	})
	assert.Contains(t, got, "couldn't find price information")
	assert.Contains(t, got, "no price data is currently available for Silver")
	assert.Empty(t, llm.lastUser, "no LLM round trip when nothing is quotable")
}

func TestRenderTranslationFallbackNotice(t *testing.T) {
	r := New(&stubLLM{}, zap.NewNop())

	plain := r.Render(context.Background(), tools.Translated{
		Translation: types.Translation{Text: "Hola"},
	})
	assert.Equal(t, "Hola", plain)

	fellBack := r.Render(context.Background(), tools.Translated{
		Translation: types.Translation{Text: "Hello", Fallback: true},
	})
	assert.Contains(t, fellBack, "Hello")
	assert.Contains(t, fellBack, "translation unavailable")
}

func TestRenderText(t *testing.T) {
	r := New(&stubLLM{}, zap.NewNop())
	got := r.Render(context.Background(), tools.Text{Body: "Here's the summary:\nstuff"})
	assert.Equal(t, "Here's the summary:\nstuff", got)
}

func TestFormatSummaries(t *testing.T) {
	got := FormatSummaries("ai", []tools.ArticleSummary{
		{Title: "One", Summary: "First summary."},
		{Title: "Two", Summary: "Second summary."},
	})
	assert.Contains(t, got, "latest articles about 'ai'")
	assert.Contains(t, got, "1. One\nFirst summary.")
	assert.Contains(t, got, "2. Two\nSecond summary.")
}
