package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/ridgelinehq/costcode/internal/cli"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
)

func progressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show statement coding progress",
		Long: `Summarize coding completion for every cardholder on a statement.

Examples:
  costcode progress                          # Progress for the configured statement
  costcode progress --statement stmt-2026-01
  costcode progress --chart                  # Also write a bar chart PNG`,
		RunE: runProgress,
	}

	// Flags
	cmd.Flags().StringP("statement", "s", "", "Statement to summarize")
	cmd.Flags().Bool("chart", false, "Write a progress bar chart PNG")
	cmd.Flags().String("chart-file", "coding-progress.png", "Chart output path")

	// Bind to viper
	_ = viper.BindPFlag("progress.statement", cmd.Flags().Lookup("statement"))
	_ = viper.BindPFlag("progress.chart", cmd.Flags().Lookup("chart"))
	_ = viper.BindPFlag("progress.chart_file", cmd.Flags().Lookup("chart-file"))

	return cmd
}

func runProgress(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := newAPIClient()
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	statement := statementID("progress.statement")
	prog, err := client.GetStatementProgress(ctx, statement)
	if err != nil {
		return fmt.Errorf("failed to fetch progress: %w", err)
	}

	if len(prog.Cardholders) == 0 {
		fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("No cardholders on statement %s.", statement)))
		return nil
	}

	slog.Info(cli.FormatTitle(fmt.Sprintf("Statement %s", prog.StatementID)))
	renderProgressTable(prog)

	if viper.GetBool("progress.chart") {
		chartFile := viper.GetString("progress.chart_file")
		if chartErr := writeProgressChart(prog, chartFile); chartErr != nil {
			return fmt.Errorf("failed to write chart: %w", chartErr)
		}
		fmt.Println(cli.FormatSuccess("Chart written to " + chartFile))
	}

	return nil
}

func renderProgressTable(prog model.StatementProgress) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Cardholder", "Total", "Coded", "Reviewed", "Rejected", "Uncoded", "Progress"})

	sawNegative := false
	for _, ch := range prog.Cardholders {
		uncoded := progress.Uncoded(ch.TotalTransactions, ch.CodedTransactions, ch.ReviewedTransactions, ch.RejectedTransactions)
		if uncoded < 0 {
			sawNegative = true
		}
		table.Append([]string{
			ch.CardholderName,
			fmt.Sprintf("%d", ch.TotalTransactions),
			fmt.Sprintf("%d", ch.CodedTransactions),
			fmt.Sprintf("%d", ch.ReviewedTransactions),
			fmt.Sprintf("%d", ch.RejectedTransactions),
			uncodedCell(uncoded),
			fmt.Sprintf("%.0f%%", ch.ProgressPercentage),
		})
	}

	totals := progress.Rollup(prog.Cardholders)
	table.Append([]string{
		"All cardholders",
		fmt.Sprintf("%d", totals.Total),
		fmt.Sprintf("%d", totals.Coded),
		fmt.Sprintf("%d", totals.Reviewed),
		fmt.Sprintf("%d", totals.Rejected),
		uncodedCell(totals.Uncoded),
		fmt.Sprintf("%.0f%%", totals.Percentage),
	})

	table.Render()

	if sawNegative || totals.Uncoded < 0 {
		fmt.Println(cli.FormatWarning("Negative uncoded counts: status totals exceed the transaction total, check the statement data"))
	}
}

// uncodedCell flags negative remainders, which indicate the server's counts
// disagree with its transaction total.
func uncodedCell(n int) string {
	if n < 0 {
		return fmt.Sprintf("%d (!)", n)
	}
	return fmt.Sprintf("%d", n)
}

// writeProgressChart renders per-cardholder completion as a PNG bar chart.
func writeProgressChart(prog model.StatementProgress, path string) error {
	bars := make([]chart.Value, 0, len(prog.Cardholders))
	for _, ch := range prog.Cardholders {
		bars = append(bars, chart.Value{
			Label: ch.CardholderName,
			Value: ch.ProgressPercentage,
		})
	}

	barChart := chart.BarChart{
		Title: fmt.Sprintf("Coding progress - %s", prog.StatementID),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Bars:   bars,
	}

	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return fmt.Sprintf("%.0f%%", vf)
		}
		return ""
	}

	f, err := os.Create(path) // #nosec G304 -- user-chosen chart path
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close chart file", "error", closeErr)
		}
	}()

	return barChart.Render(chart.PNG, f)
}
