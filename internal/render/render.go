// Package render converts tool results into user-facing reply text.
// Everything here is direct string templating except commodity quotes,
// whose tabular, currency-converted rendering is deliberately delegated to
// the completion provider in a second round trip.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/tools"
	"newsdesk/internal/types"
	"newsdesk/internal/weather"
)

// fallbackNotice is appended to translation outputs that fell back to the
// original text, so the tagged outcome stays visible to the user.
const fallbackNotice = "(translation unavailable, showing original)"

const quoteSystemPrompt = `You are a financial data assistant that:
1. Always shows exact numbers with appropriate decimal places
2. Uses table format for multiple commodities
3. Keeps responses structured and concise
4. Highlights significant changes
5. Only includes information about specifically requested commodities`

// Renderer turns tool results into reply text.
type Renderer struct {
	llm types.LLMClient
	log *zap.Logger
}

// New creates a renderer. The LLM client is used only for the commodity
// table round trip.
func New(llm types.LLMClient, log *zap.Logger) *Renderer {
	return &Renderer{llm: llm, log: log.Named("render")}
}

// Render produces the reply text for a tool result. It never fails: the
// one fallible path (the commodity LLM round trip) degrades to a locally
// formatted listing.
func (r *Renderer) Render(ctx context.Context, result tools.Result) string {
	switch v := result.(type) {
	case tools.Topics:
		return FormatTopics(v.Items)
	case tools.ArticleList:
		return FormatArticles(v.Topic, v.Items)
	case tools.SummaryList:
		return FormatSummaries(v.Topic, v.Items)
	case tools.WeatherReport:
		return FormatWeather(v.Units, v.Report)
	case tools.QuoteSet:
		return r.renderQuotes(ctx, v)
	case tools.Translated:
		if v.Translation.Fallback {
			return v.Translation.Text + "\n\n" + fallbackNotice
		}
		return v.Translation.Text
	case tools.Text:
		return v.Body
	default:
		return ""
	}
}

// FormatTopics numbers trending topics starting at 1.
func FormatTopics(topics []string) string {
	if len(topics) == 0 {
		return "Sorry, I couldn't fetch trending topics at the moment."
	}
	var sb strings.Builder
	sb.WriteString("Here are the current trending topics:\n")
	for i, topic := range topics {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, topic)
	}
	return sb.String()
}

// FormatArticles numbers articles starting at 1 with description and URL.
func FormatArticles(topic string, articles []news.Article) string {
	if len(articles) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find any articles about '%s'.", topic)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the top %d articles for '%s':\n", len(articles), topic)
	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   (URL: %s)\n", i+1, a.Title, a.Description, a.URL)
	}
	return sb.String()
}

// FormatSummaries lists per-article summaries.
func FormatSummaries(topic string, items []tools.ArticleSummary) string {
	if len(items) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find any articles about '%s'.", topic)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the latest articles about '%s':\n\n", topic)
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, item.Title, item.Summary)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// FormatWeather renders a fixed-shape report with unit suffixes chosen by
// the units argument.
func FormatWeather(units weather.Units, report *weather.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current weather in %s:\n", report.City)
	fmt.Fprintf(&sb, "Temperature: %s%s\n", formatNumber(report.Temperature), units.TempSuffix())
	fmt.Fprintf(&sb, "Feels like: %s%s\n", formatNumber(report.FeelsLike), units.TempSuffix())
	fmt.Fprintf(&sb, "Humidity: %d%%\n", report.Humidity)
	fmt.Fprintf(&sb, "Conditions: %s\n", report.Description)
	fmt.Fprintf(&sb, "Wind speed: %s %s\n", formatNumber(report.WindSpeed), units.WindSuffix())
	fmt.Fprintf(&sb, "Last updated: %s", report.Observed.Format("2006-01-02 15:04:05"))
	return sb.String()
}

// renderQuotes delegates the currency-converted table to the completion
// provider. Degraded per-symbol markers are appended locally so they
// survive the round trip, and any provider failure falls back to
// FormatQuoteTable.
func (r *Renderer) renderQuotes(ctx context.Context, q tools.QuoteSet) string {
	markers := formatMarkers(q.Entries)

	if !q.Entries.OK() {
		reply := "Sorry, I couldn't find price information for the requested commodities."
		if markers != "" {
			reply += "\n" + markers
		}
		return reply
	}

	prompt := buildQuotePrompt(q)
	table, err := r.llm.CompleteText(ctx, quoteSystemPrompt, prompt)
	if err != nil || table == "" {
		r.log.Warn("commodity table round trip failed, using local formatting", zap.Error(err))
		return FormatQuoteTable(q)
	}
	if markers != "" {
		table += "\n\n" + markers
	}
	return table
}

// buildQuotePrompt produces the conversion instruction payload sent to the
// completion provider.
func buildQuotePrompt(q tools.QuoteSet) string {
	var data strings.Builder
	for _, e := range q.Entries {
		if e.Status != market.StatusOK {
			continue
		}
		fmt.Fprintf(&data, "%s: price %.2f USD, 24h change %.2f (%.2f%%)\n",
			e.Name, e.Quote.Price, e.Quote.Change, e.Quote.ChangePercent)
	}

	return fmt.Sprintf(`User requested prices for %s in %s.
Raw price data in USD:
%s
Please respond in this format:
1. Current Exchange Rate: [USD to %s]
2. Price Comparison Table:
   | Commodity | Price (%s) | 24h Change |
   |-----------|-----------|------------|
   [Fill table with converted prices]

3. Quick Analysis:
   - Highlight significant price movements
   - Compare prices if multiple commodities requested
   - Mention any relevant market context

Keep the response concise and focused on the requested commodities only.`,
		strings.Join(q.Requested, ", "), q.Currency, data.String(), q.Currency, q.Currency)
}

// FormatQuoteTable is the local, provider-free quote rendering used when
// the delegated table round trip is unavailable. Prices stay in USD.
func FormatQuoteTable(q tools.QuoteSet) string {
	var sb strings.Builder
	sb.WriteString("Latest commodity prices (USD):\n")
	for _, e := range q.Entries {
		switch e.Status {
		case market.StatusOK:
			fmt.Fprintf(&sb, "%s: %.2f (24h change %+.2f, %+.2f%%)\n",
				e.Name, e.Quote.Price, e.Quote.Change, e.Quote.ChangePercent)
		case market.StatusNotSupported:
			fmt.Fprintf(&sb, "%s: not supported\n", e.Name)
		case market.StatusUnavailable:
			fmt.Fprintf(&sb, "%s: unavailable\n", e.Name)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatMarkers lists the degraded entries of a batch, one line each.
func formatMarkers(entries market.QuoteSet) string {
	var lines []string
	for _, e := range entries {
		switch e.Status {
		case market.StatusNotSupported:
			lines = append(lines, fmt.Sprintf("Note: '%s' is not a supported commodity.", e.Name))
		case market.StatusUnavailable:
			lines = append(lines, fmt.Sprintf("Note: no price data is currently available for %s.", e.Name))
		}
	}
	return strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
