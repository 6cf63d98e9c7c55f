package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridgelinehq/costcode/internal/tui"
	"github.com/ridgelinehq/costcode/internal/tui/themes"
)

func codeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Code statement transactions interactively",
		Long: `Open the interactive coding screen for a statement.

Pick a cardholder, then walk their transactions assigning GL accounts and
job or equipment cost codes. Coded transactions can be approved or rejected
from the same screen.

Examples:
  costcode code                              # Code the configured statement
  costcode code --statement stmt-2026-01     # Code a specific statement
  costcode code --theme catppuccin-mocha     # Use a different color theme`,
		RunE: runCode,
	}

	// Flags
	cmd.Flags().StringP("statement", "s", "", "Statement to code")
	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin-mocha)")
	cmd.Flags().String("user", "", "Identity shown in the session status bar")

	// Bind to viper (errors are rare and can be ignored in practice)
	_ = viper.BindPFlag("code.statement", cmd.Flags().Lookup("statement"))
	_ = viper.BindPFlag("code.theme", cmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("code.user", cmd.Flags().Lookup("user"))

	return cmd
}

func runCode(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := newAPIClient()
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	statement := statementID("code.statement")
	slog.Info("Starting coding session", "statement_id", statement)

	err = tui.Run(ctx,
		tui.WithClient(client),
		tui.WithStatementID(statement),
		tui.WithTheme(themes.GetTheme(viper.GetString("code.theme"))),
		tui.WithUser(viper.GetString("code.user")),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("Coding session interrupted")
			return nil
		}
		return fmt.Errorf("coding session failed: %w", err)
	}

	slog.Info("Coding session complete! Export with: costcode export")
	return nil
}
