// This file implements the interactive chat interface.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"newsdesk/internal/dispatch"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// runChat drives the line-based conversation loop. Each line is one full
// turn; Ctrl-C and EOF end the session the same way "exit" does.
func runChat() error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	markdown := newMarkdownRenderer(interactive)

	fmt.Println(bannerStyle.Render("newsdesk - news, weather, prices, translation.\nType 'help' for examples, 'exit' to leave."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		turn := a.dispatcher.HandleTurn(ctx, scanner.Text())
		if turn.Reply != "" {
			printReply(turn, markdown)
		}
		if turn.Done() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println("Goodbye!")
	return nil
}

// newMarkdownRenderer returns nil when output is not a terminal; replies
// then print as plain text.
func newMarkdownRenderer(interactive bool) *glamour.TermRenderer {
	if !interactive {
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func printReply(turn dispatch.Turn, markdown *glamour.TermRenderer) {
	reply := turn.Reply
	if turn.Kind == dispatch.KindRejected || turn.Kind == dispatch.KindError {
		fmt.Println(errorStyle.Render(reply))
		return
	}
	// Commodity tables come back as markdown; everything else passes
	// through glamour unchanged enough to stay readable.
	if markdown != nil && strings.Contains(reply, "|") {
		if rendered, err := markdown.Render(reply); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(reply)
}
