package tools

import (
	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/types"
	"newsdesk/internal/weather"
)

// Result is the tagged union of tool outcomes handed to the renderer.
// Each variant carries only what rendering needs.
type Result interface {
	resultKind() string
}

// Topics is the trending-topics outcome.
type Topics struct {
	Items []string
}

// ArticleList is the fetch_news outcome.
type ArticleList struct {
	Topic string
	Items []news.Article
}

// ArticleSummary pairs a title with its generated summary.
type ArticleSummary struct {
	Title   string
	Summary string
}

// SummaryList is the fetch_and_summarize outcome.
type SummaryList struct {
	Topic string
	Items []ArticleSummary
}

// WeatherReport is the get_weather outcome.
type WeatherReport struct {
	Units  weather.Units
	Report *weather.Report
}

// QuoteSet is the get_commodity_prices outcome.
type QuoteSet struct {
	Currency  string
	Requested []string
	Entries   market.QuoteSet
}

// Translated is the translate_text outcome.
type Translated struct {
	Translation types.Translation
}

// Text is a plain pre-rendered outcome (single-article summaries).
type Text struct {
	Body string
}

func (Topics) resultKind() string        { return "topics" }
func (ArticleList) resultKind() string   { return "articles" }
func (SummaryList) resultKind() string   { return "summaries" }
func (WeatherReport) resultKind() string { return "weather" }
func (QuoteSet) resultKind() string      { return "quotes" }
func (Translated) resultKind() string    { return "translated" }
func (Text) resultKind() string          { return "text" }
