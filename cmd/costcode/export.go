package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridgelinehq/costcode/internal/cli"
	"github.com/ridgelinehq/costcode/internal/config"
	"github.com/ridgelinehq/costcode/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export statement transactions for the accounting system",
		Long: `Export every transaction on a statement as a flat report,
one row per transaction with its coding fields and workflow status.

Formats:
  csv     Comma-separated values (default; --output - writes to stdout)
  xlsx    Excel workbook with a summary sheet
  sheets  Upload to Google Sheets (needs sheets credentials in config)

Examples:
  costcode export
  costcode export --format xlsx --output january.xlsx
  costcode export --format sheets`,
		RunE: runExport,
	}

	// Flags
	cmd.Flags().StringP("statement", "s", "", "Statement to export")
	cmd.Flags().StringP("format", "f", "csv", "Output format (csv, xlsx, sheets)")
	cmd.Flags().StringP("output", "o", "", "Output path (defaults to <statement>.<format>)")

	// Bind to viper
	_ = viper.BindPFlag("export.statement", cmd.Flags().Lookup("statement"))
	_ = viper.BindPFlag("export.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("export.output", cmd.Flags().Lookup("output"))

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format := strings.ToLower(viper.GetString("export.format"))
	switch format {
	case "csv", "xlsx", "sheets":
	default:
		return fmt.Errorf("unknown format %q (expected csv, xlsx, or sheets)", format)
	}

	client, err := newAPIClient()
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	statement := statementID("export.statement")
	prog, err := client.GetStatementProgress(ctx, statement)
	if err != nil {
		return fmt.Errorf("failed to fetch progress: %w", err)
	}

	slog.Info("Building export report",
		"statement_id", statement,
		"cardholders", len(prog.Cardholders))

	txns, err := fetchStatementTransactions(ctx, client, prog, nil)
	if err != nil {
		return err
	}

	report := export.BuildReport(prog, txns)
	if len(report.Rows) == 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Nothing to export on statement %s.", statement)))
		return nil
	}

	switch format {
	case "csv":
		return exportCSV(report, outputPath(statement, "csv"))
	case "xlsx":
		return exportXLSX(report, outputPath(statement, "xlsx"))
	default:
		return exportSheets(ctx, report)
	}
}

// outputPath resolves --output, falling back to a name derived from the
// statement id so a bare "costcode export" always lands somewhere sensible.
func outputPath(statement, ext string) string {
	switch out := viper.GetString("export.output"); out {
	case "":
		return statement + "." + ext
	case "-":
		return "-"
	default:
		return config.ExpandPath(out)
	}
}

func exportCSV(report export.Report, path string) error {
	if path == "-" {
		return export.WriteCSV(os.Stdout, report)
	}

	f, err := os.Create(path) // #nosec G304 -- user-chosen output path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close export file", "path", path, "error", closeErr)
		}
	}()

	if err := export.WriteCSV(f, report); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(report.Rows), path)))
	return nil
}

func exportXLSX(report export.Report, path string) error {
	if err := export.WriteXLSX(path, report); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(report.Rows), path)))
	return nil
}

func exportSheets(ctx context.Context, report export.Report) error {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets export is not configured: %w", err)
	}

	writer, err := export.NewSheetsWriter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}

	url, err := writer.Write(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to Google Sheets", len(report.Rows))))
	fmt.Println(cli.SubtleStyle.Render("  " + url))
	return nil
}
