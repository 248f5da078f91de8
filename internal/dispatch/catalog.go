// Package dispatch owns the intent-dispatch loop: built-in commands,
// moderation gating, LLM intent classification, and routing of tool calls
// to the provider adapters.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/session"
	"newsdesk/internal/tools"
	"newsdesk/internal/types"
	"newsdesk/internal/weather"
)

// Tool names form a closed set; LLM-chosen names are validated against the
// registry before dispatch.
const (
	ToolFetchAndSummarize = "fetch_and_summarize"
	ToolTranslateText     = "translate_text"
	ToolFetchNews         = "fetch_news"
	ToolSummarizeByIndex  = "summarize_article_by_index"
	ToolCommodityPrices   = "get_commodity_prices"
	ToolWeather           = "get_weather"
)

const (
	defaultTargetLang      = "en"
	defaultSummarizeCount  = 3
	defaultFetchCount      = 5
	defaultCurrency        = "USD"
	summaryUnavailableText = "Summary unavailable."
)

// NewsProvider is the news surface the catalog and the trending built-in
// depend on.
type NewsProvider interface {
	Search(ctx context.Context, q news.Query) ([]news.Article, error)
	TopHeadlines(ctx context.Context) ([]string, error)
}

// WeatherProvider fetches current conditions.
type WeatherProvider interface {
	Current(ctx context.Context, city string, units weather.Units) (*weather.Report, error)
}

// MarketProvider fetches commodity quote batches.
type MarketProvider interface {
	Quotes(ctx context.Context, names []string) (market.QuoteSet, error)
}

// Assistant is the completion provider surface: classification plus the
// LLM-backed transforms.
type Assistant interface {
	types.LLMClient
	Translate(ctx context.Context, text, targetLang string) (types.Translation, error)
	SummarizeArticle(ctx context.Context, title, content string) (string, error)
}

// Providers bundles the external collaborators the catalog routes to.
type Providers struct {
	News      NewsProvider
	Weather   WeatherProvider
	Market    MarketProvider
	Assistant Assistant
}

// BuildRegistry assembles the six-tool catalog over the providers and the
// session. The schemas are the function-calling wire contract and mirror
// the provider-facing JSON field for field.
func BuildRegistry(p Providers, sess *session.Session, log *zap.Logger) *tools.Registry {
	reg := tools.NewRegistry(log)

	reg.MustRegister(&tools.Tool{
		Name:        ToolFetchAndSummarize,
		Description: "Fetches and summarizes news articles for a topic in the specified language.",
		Schema: tools.Schema{
			Required: []string{"topic"},
			Properties: map[string]tools.Property{
				"topic": {Type: "string", Description: "The topic to fetch and summarize news for."},
				"target_lang": {Type: "string", Default: defaultTargetLang,
					Description: "Target language for summaries (e.g., en, es, fr, de, zh)."},
				"page_size": {Type: "integer", Default: defaultSummarizeCount,
					Description: "Number of articles to fetch and summarize."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			return fetchAndSummarize(ctx, p, args, log)
		},
	})

	reg.MustRegister(&tools.Tool{
		Name:        ToolTranslateText,
		Description: "Translates the latest chatbot response to the specified target language.",
		Schema: tools.Schema{
			Required: []string{"target_lang"},
			Properties: map[string]tools.Property{
				"target_lang": {Type: "string",
					Description: "The target language code (e.g., es, fr, de, zh, ja, ko, ru)."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			lastReply := sess.LastReply()
			if lastReply == "" {
				return nil, fmt.Errorf("%w: there is no previous reply to translate", types.ErrValidation)
			}
			translation, err := p.Assistant.Translate(ctx, lastReply, tools.StringArg(args, "target_lang", ""))
			if err != nil {
				return nil, err
			}
			return tools.Translated{Translation: translation}, nil
		},
	})

	reg.MustRegister(&tools.Tool{
		Name:        ToolFetchNews,
		Description: "Fetches news articles based on a topic.",
		Schema: tools.Schema{
			Required: []string{"topic"},
			Properties: map[string]tools.Property{
				"topic": {Type: "string", Description: "The topic to fetch news for."},
				"target_lang": {Type: "string", Default: defaultTargetLang,
					Description: "Language of the news articles."},
				"page_size": {Type: "integer", Default: defaultFetchCount,
					Description: "Number of articles to fetch."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			return fetchNews(ctx, p, sess, args, log)
		},
	})

	reg.MustRegister(&tools.Tool{
		Name:        ToolSummarizeByIndex,
		Description: "Summarizes a news article by its index in the fetched list.",
		Schema: tools.Schema{
			Required: []string{"index"},
			Properties: map[string]tools.Property{
				"index": {Type: "integer", Description: "The index of the article to summarize."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			article, err := sess.ArticleAt(tools.IntArg(args, "index", 0))
			if err != nil {
				return nil, err
			}
			summary, err := p.Assistant.SummarizeArticle(ctx, article.Title, article.Content)
			if err != nil {
				return nil, err
			}
			return tools.Text{Body: "Here's the summary:\n" + summary}, nil
		},
	})

	reg.MustRegister(&tools.Tool{
		Name:        ToolCommodityPrices,
		Description: "Fetches latest prices for specified commodities with currency conversion.",
		Schema: tools.Schema{
			Required: []string{"commodities", "currency"},
			Properties: map[string]tools.Property{
				"commodities": {
					Type:        "array",
					Description: "List of commodities to fetch prices for",
					Items:       &tools.PropertyItems{Type: "string", Enum: commodityEnum()},
				},
				"currency": {Type: "string", Default: defaultCurrency,
					Description: "Target currency code (e.g., USD, INR, EUR)"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			requested := tools.StringSliceArg(args, "commodities")
			set, err := p.Market.Quotes(ctx, requested)
			if err != nil {
				return nil, err
			}
			return tools.QuoteSet{
				Currency:  tools.StringArg(args, "currency", defaultCurrency),
				Requested: requested,
				Entries:   set,
			}, nil
		},
	})

	reg.MustRegister(&tools.Tool{
		Name:        ToolWeather,
		Description: "Fetches current weather information for a specified city",
		Schema: tools.Schema{
			Required: []string{"city"},
			Properties: map[string]tools.Property{
				"city": {Type: "string", Description: "Name of the city to get weather for"},
				"units": {Type: "string", Default: "metric",
					Enum:        []any{"metric", "imperial"},
					Description: "Units for temperature (metric: Celsius, imperial: Fahrenheit)"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (tools.Result, error) {
			units, err := weather.ParseUnits(tools.StringArg(args, "units", "metric"))
			if err != nil {
				return nil, err
			}
			report, err := p.Weather.Current(ctx, tools.StringArg(args, "city", ""), units)
			if err != nil {
				return nil, err
			}
			return tools.WeatherReport{Units: units, Report: report}, nil
		},
	})

	return reg
}

func commodityEnum() []any {
	names := market.Names()
	out := make([]any, len(names))
	for i, name := range names {
		out[i] = name
	}
	return out
}

// fetchNews fetches articles (always in English at the provider) and
// optionally translates the user-visible fields. The session's cached
// article list is replaced wholesale, even by an empty fetch, so stale
// index references cannot resolve against the old list.
func fetchNews(ctx context.Context, p Providers, sess *session.Session, args map[string]any, log *zap.Logger) (tools.Result, error) {
	topic := tools.StringArg(args, "topic", "")
	targetLang := tools.StringArg(args, "target_lang", defaultTargetLang)

	articles, err := p.News.Search(ctx, news.Query{
		Topic:    topic,
		Language: defaultTargetLang,
		PageSize: tools.IntArg(args, "page_size", defaultFetchCount),
	})
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		// Transport and schema failures degrade to an empty list rather
		// than aborting the turn.
		log.Warn("news fetch degraded to empty result", zap.String("topic", topic), zap.Error(err))
		articles = nil
	}

	if targetLang != defaultTargetLang {
		for i := range articles {
			articles[i].Title = translateOrKeep(ctx, p.Assistant, articles[i].Title, targetLang)
			articles[i].Description = translateOrKeep(ctx, p.Assistant, articles[i].Description, targetLang)
		}
	}

	sess.SetArticles(articles)
	return tools.ArticleList{Topic: topic, Items: articles}, nil
}

func fetchAndSummarize(ctx context.Context, p Providers, args map[string]any, log *zap.Logger) (tools.Result, error) {
	topic := tools.StringArg(args, "topic", "")
	targetLang := tools.StringArg(args, "target_lang", defaultTargetLang)

	articles, err := p.News.Search(ctx, news.Query{
		Topic:    topic,
		Language: defaultTargetLang,
		PageSize: tools.IntArg(args, "page_size", defaultSummarizeCount),
	})
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			return nil, err
		}
		log.Warn("news fetch degraded to empty result", zap.String("topic", topic), zap.Error(err))
		articles = nil
	}

	items := make([]tools.ArticleSummary, 0, len(articles))
	for _, article := range articles {
		summary, err := p.Assistant.SummarizeArticle(ctx, article.Title, article.Content)
		if err != nil {
			log.Warn("article summary failed", zap.String("title", article.Title), zap.Error(err))
			summary = summaryUnavailableText
		}
		item := tools.ArticleSummary{Title: article.Title, Summary: summary}
		if targetLang != defaultTargetLang {
			item.Title = translateOrKeep(ctx, p.Assistant, item.Title, targetLang)
			item.Summary = translateOrKeep(ctx, p.Assistant, item.Summary, targetLang)
		}
		items = append(items, item)
	}
	return tools.SummaryList{Topic: topic, Items: items}, nil
}

// translateOrKeep translates best-effort: any failure keeps the original.
func translateOrKeep(ctx context.Context, assistant Assistant, text, targetLang string) string {
	if text == "" {
		return text
	}
	translation, err := assistant.Translate(ctx, text, targetLang)
	if err != nil {
		return text
	}
	return translation.Text
}
