package tui

import (
	"time"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Client       api.Client
	StatementID  string
	User         string
	Width        int
	Height       int
	AdvanceDelay time.Duration
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Width:        80,
		Height:       24,
		AdvanceDelay: 750 * time.Millisecond,
	}
}

// WithClient sets the API client.
func WithClient(client api.Client) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// WithStatementID sets the statement to code.
func WithStatementID(id string) Option {
	return func(c *Config) {
		c.StatementID = id
	}
}

// WithUser sets the identity recorded on submissions.
func WithUser(user string) Option {
	return func(c *Config) {
		c.User = user
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAdvanceDelay sets how long the success state is shown before the
// selection moves to the next transaction.
func WithAdvanceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.AdvanceDelay = d
	}
}
