// This file implements the one-shot subcommands that bypass the chat loop
// and hit a single provider directly.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"newsdesk/internal/news"
	"newsdesk/internal/render"
	"newsdesk/internal/tools"
	"newsdesk/internal/weather"
)

var (
	newsCount int
	newsLang  string

	weatherUnits string

	pricesCurrency string
)

var newsCmd = &cobra.Command{
	Use:   "news [topic]",
	Short: "Fetch the latest articles for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		topic := strings.Join(args, " ")
		articles, err := a.providers.News.Search(cmd.Context(), news.Query{
			Topic:    topic,
			Language: newsLang,
			PageSize: newsCount,
		})
		if err != nil {
			return err
		}
		fmt.Println(render.FormatArticles(topic, articles))
		return nil
	},
}

var weatherCmd = &cobra.Command{
	Use:   "weather [city]",
	Short: "Show current weather for a city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		units, err := weather.ParseUnits(weatherUnits)
		if err != nil {
			return err
		}
		report, err := a.providers.Weather.Current(cmd.Context(), strings.Join(args, " "), units)
		if err != nil {
			return err
		}
		fmt.Println(render.FormatWeather(units, report))
		return nil
	},
}

var pricesCmd = &cobra.Command{
	Use:   "prices [commodity ...]",
	Short: "Show latest commodity prices",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		set, err := a.providers.Market.Quotes(cmd.Context(), args)
		if err != nil {
			return err
		}
		fmt.Println(a.renderer.Render(cmd.Context(), tools.QuoteSet{
			Currency:  pricesCurrency,
			Requested: args,
			Entries:   set,
		}))
		return nil
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show current trending topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		topics, err := a.providers.News.TopHeadlines(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(render.FormatTopics(topics))
		return nil
	},
}

func init() {
	newsCmd.Flags().IntVarP(&newsCount, "page-size", "n", 5, "Number of articles to fetch")
	newsCmd.Flags().StringVarP(&newsLang, "lang", "l", "en", "Article language code")
	weatherCmd.Flags().StringVarP(&weatherUnits, "units", "u", "metric", "Units: metric or imperial")
	pricesCmd.Flags().StringVar(&pricesCurrency, "currency", "USD", "Target currency code")
}
