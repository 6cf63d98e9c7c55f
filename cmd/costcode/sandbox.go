package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ridgelinehq/costcode/internal/cli"
	"github.com/ridgelinehq/costcode/internal/config"
	"github.com/ridgelinehq/costcode/internal/sandbox"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local statement API for demos and development",
		Long: `The sandbox serves the same HTTP API the real statement service exposes,
backed by a local SQLite database. It seeds a demo statement on startup so
the coding workflow can be exercised without credentials.

Examples:
  costcode sandbox serve
  costcode sandbox serve --addr :9000 --no-seed
  costcode sandbox import-ofx ~/Downloads/visa_jan_2026.qfx`,
	}

	cmd.AddCommand(sandboxServeCmd())
	cmd.AddCommand(sandboxImportOFXCmd())

	return cmd
}

// sandboxDBPath resolves the database location, defaulting under the user
// data directory.
func sandboxDBPath(flagValue string) (string, error) {
	if flagValue != "" {
		return config.ExpandPath(flagValue), nil
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return filepath.Join(dataDir, "sandbox.db"), nil
}

func sandboxServeCmd() *cobra.Command {
	var (
		addr   string
		dbPath string
		noSeed bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sandbox API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			path, err := sandboxDBPath(dbPath)
			if err != nil {
				return err
			}

			store, err := sandbox.NewStore(path)
			if err != nil {
				return fmt.Errorf("failed to open sandbox database: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close sandbox database", "error", closeErr)
				}
			}()

			if !noSeed {
				if err := sandbox.Seed(ctx, store); err != nil {
					return fmt.Errorf("failed to seed demo statement: %w", err)
				}
				slog.Info("Seeded demo statement", "statement_id", sandbox.SeedStatementID)
			}

			slog.Info("Sandbox API listening", "addr", addr, "db", path)
			fmt.Println(cli.RenderBox("Sandbox API",
				fmt.Sprintf("Listening on %s\nDatabase: %s\n\nPoint costcode at it with --api-url http://localhost%s", addr, path, addr)))

			if err := sandbox.NewServer(store).Run(ctx, addr); err != nil {
				return fmt.Errorf("sandbox server failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Sandbox stopped"))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8787", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults under the user data directory)")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Skip seeding the demo statement")

	return cmd
}

func sandboxImportOFXCmd() *cobra.Command {
	var (
		statement string
		dbPath    string
	)

	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import card transactions from OFX/QFX files",
		Long: `Import bank-exported OFX or QFX files into the sandbox. Each card account
in a file becomes one cardholder statement and every imported transaction
starts uncoded.

Examples:
  costcode sandbox import-ofx ~/Downloads/visa_jan_2026.qfx
  costcode sandbox import-ofx --statement stmt-2026-02 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Expand globs and collect all files
			var allFiles []string
			for _, pattern := range args {
				matches, err := filepath.Glob(config.ExpandPath(pattern))
				if err != nil {
					return fmt.Errorf("invalid pattern %s: %w", pattern, err)
				}
				if len(matches) == 0 {
					// If no glob matches, check if it's a direct file
					if _, err := os.Stat(pattern); err == nil {
						allFiles = append(allFiles, pattern)
					} else {
						slog.Warn("No files found matching pattern", "pattern", pattern)
					}
				} else {
					allFiles = append(allFiles, matches...)
				}
			}

			if len(allFiles) == 0 {
				return fmt.Errorf("no files found to import")
			}

			path, err := sandboxDBPath(dbPath)
			if err != nil {
				return err
			}

			store, err := sandbox.NewStore(path)
			if err != nil {
				return fmt.Errorf("failed to open sandbox database: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close sandbox database", "error", closeErr)
				}
			}()

			slog.Info("Importing OFX files",
				"file_count", len(allFiles),
				"statement_id", statement)

			total := 0
			imported := map[string]int{}
			var failed []string
			for _, filePath := range allFiles {
				f, openErr := os.Open(filePath) // #nosec G304 -- user-chosen import path
				if openErr != nil {
					slog.Error("Failed to open file", "file", filePath, "error", openErr)
					failed = append(failed, filepath.Base(filePath))
					continue
				}

				count, importErr := sandbox.ImportOFX(ctx, store, statement, f)
				if closeErr := f.Close(); closeErr != nil {
					slog.Warn("Failed to close file", "file", filePath, "error", closeErr)
				}
				if importErr != nil {
					slog.Error("Failed to import OFX file", "file", filePath, "error", importErr)
					failed = append(failed, filepath.Base(filePath))
					continue
				}

				imported[filepath.Base(filePath)] = count
				total += count
			}

			if total == 0 {
				return fmt.Errorf("no transactions imported")
			}

			fmt.Println("\n📁 Import summary:")
			for file, count := range imported {
				fmt.Printf("  - %s: %d transactions\n", file, count)
			}
			for _, file := range failed {
				fmt.Println("  " + cli.FormatError(file+": import failed"))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions into %s", total, statement)))
			fmt.Println(cli.SubtleStyle.Render("Code them with: costcode code --statement " + statement))

			return nil
		},
	}

	cmd.Flags().StringVar(&statement, "statement", sandbox.SeedStatementID, "Statement to import into")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults under the user data directory)")

	return cmd
}
