package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive coding session and blocks until it exits.
func Run(ctx context.Context, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Client == nil {
		return fmt.Errorf("client is required")
	}
	if cfg.StatementID == "" {
		return fmt.Errorf("statement id is required")
	}

	p := tea.NewProgram(newModel(cfg), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		// A canceled context kills the program; report the cancellation
		// rather than the kill.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
