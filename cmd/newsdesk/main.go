// Package main provides the newsdesk CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"newsdesk/internal/config"
	"newsdesk/internal/dispatch"
	"newsdesk/internal/llm"
	"newsdesk/internal/market"
	"newsdesk/internal/news"
	"newsdesk/internal/render"
	"newsdesk/internal/session"
	"newsdesk/internal/weather"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "newsdesk - conversational news, weather, and commodity assistant",
	Long: `newsdesk is a conversational assistant that routes free-text requests
to news, weather, commodity-price, and translation providers.

An LLM classifies each message: tool-worthy requests are dispatched to the
matching provider and rendered deterministically, everything else is answered
conversationally. All input passes a moderation gate first.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		// Keep structured logs off the conversation transcript.
		cfg.OutputPaths = []string{"stderr"}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// app is the assembled runtime: providers, catalog, dispatcher.
type app struct {
	cfg        *config.Config
	sess       *session.Session
	dispatcher *dispatch.Dispatcher
	renderer   *render.Renderer
	providers  dispatch.Providers
}

// buildApp loads configuration and wires every component. Configuration
// problems (missing credentials included) fail here, before any prompt is
// shown.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	assistant := llm.NewClient(cfg.LLM, cfg, logger)
	providers := dispatch.Providers{
		News:      news.NewClient(cfg.News, cfg, logger),
		Weather:   weather.NewClient(cfg.Weather, cfg, logger),
		Market:    market.NewClient(cfg.Market, cfg, logger),
		Assistant: assistant,
	}

	sess := session.New(dispatch.SystemPrompt())
	registry := dispatch.BuildRegistry(providers, sess, logger)
	renderer := render.New(assistant, logger)
	gate := llm.NewGate(assistant, logger)

	return &app{
		cfg:        cfg,
		sess:       sess,
		dispatcher: dispatch.New(registry, providers, gate, renderer, sess, logger),
		renderer:   renderer,
		providers:  providers,
	}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(weatherCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(trendingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
