package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridgelinehq/costcode/internal/cli"
	"github.com/ridgelinehq/costcode/internal/coding"
	"github.com/ridgelinehq/costcode/internal/config"
	"github.com/ridgelinehq/costcode/internal/model"
)

func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply bulk coding rules to uncoded transactions",
		Long: `Code recurring transactions in bulk using a YAML rules file.

Each rule pairs match conditions (merchant, description, amount range) with
the coding fields to apply. The first matching rule wins per transaction and
only uncoded transactions are touched.

Examples:
  costcode bulk --rules fuel-and-rentals.yaml --dry-run
  costcode bulk --rules fuel-and-rentals.yaml
  costcode bulk --rules rules.yaml --cardholder chs-boone`,
		RunE: runBulk,
	}

	// Flags
	cmd.Flags().StringP("statement", "s", "", "Statement to code")
	cmd.Flags().StringP("rules", "r", "", "YAML rules file (required)")
	cmd.Flags().String("cardholder", "", "Limit to one cardholder statement id")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview matches without submitting")

	// Bind to viper
	_ = viper.BindPFlag("bulk.statement", cmd.Flags().Lookup("statement"))
	_ = viper.BindPFlag("bulk.rules", cmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("bulk.cardholder", cmd.Flags().Lookup("cardholder"))
	_ = viper.BindPFlag("bulk.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runBulk(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rulesPath := viper.GetString("bulk.rules")
	if rulesPath == "" {
		return fmt.Errorf("a rules file is required (--rules)")
	}

	ruleset, err := coding.LoadRules(config.ExpandPath(rulesPath))
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	client, err := newAPIClient()
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	statement := statementID("bulk.statement")
	prog, err := client.GetStatementProgress(ctx, statement)
	if err != nil {
		return fmt.Errorf("failed to fetch progress: %w", err)
	}

	cardholders := prog.Cardholders
	if scope := viper.GetString("bulk.cardholder"); scope != "" {
		ch, ok := prog.Cardholder(scope)
		if !ok {
			return fmt.Errorf("cardholder statement %s not found on statement %s", scope, statement)
		}
		cardholders = []model.CardholderProgress{ch}
	}

	// Only uncoded transactions are candidates for bulk coding.
	status := model.StatusUncoded
	var uncoded []model.Transaction
	for _, ch := range cardholders {
		list, fetchErr := fetchAllTransactions(ctx, client, ch.CardholderStatementID, &status)
		if fetchErr != nil {
			return fmt.Errorf("fetching transactions for %s: %w", ch.CardholderName, fetchErr)
		}
		uncoded = append(uncoded, list...)
	}

	if len(uncoded) == 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("No uncoded transactions on statement %s.", statement)))
		return nil
	}

	plan := ruleset.Plan(uncoded)
	if len(plan) == 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("No rules matched; %d uncoded transactions left untouched.", len(uncoded))))
		return nil
	}

	slog.Info(cli.FormatTitle("Bulk coding plan"))

	total := 0
	for _, assignment := range plan {
		total += len(assignment.Transactions)
		fmt.Printf("  %s %s: %d transactions → %s\n",
			cli.BoldStyle.Render("•"),
			assignment.Rule.Name,
			len(assignment.Transactions),
			describeFields(assignment.Rule.Apply))
	}
	fmt.Printf("  %d of %d uncoded transactions matched\n\n", total, len(uncoded))

	if viper.GetBool("bulk.dry_run") {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Dry run - %d transactions would be coded", total)))
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Submitting bulk coding...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	for _, assignment := range plan {
		ids := make([]string, len(assignment.Transactions))
		for i, txn := range assignment.Transactions {
			ids[i] = txn.ID
		}

		if submitErr := client.SubmitBulkCoding(ctx, ids, assignment.Rule.Apply); submitErr != nil {
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("rule %s failed: %w", assignment.Rule.Name, submitErr)
		}

		if addErr := bar.Add(len(ids)); addErr != nil {
			slog.Warn("Failed to update progress bar", "error", addErr)
		}
	}

	if finishErr := bar.Finish(); finishErr != nil {
		slog.Warn("Failed to finish progress bar", "error", finishErr)
	}
	fmt.Fprintln(os.Stderr)

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Coded %d transactions across %d rules", total, len(plan))))
	fmt.Println(cli.SubtleStyle.Render("Review them with: costcode code"))
	return nil
}

// describeFields renders the coding a rule applies in one line.
func describeFields(f model.CodingFields) string {
	desc := "GL " + f.GLAccount
	if f.HasJobCoding() {
		desc += fmt.Sprintf(" job %s/%s/%s", f.JobCode, f.Phase, f.CostType)
	}
	if f.HasEquipmentCoding() {
		desc += " equipment " + f.EquipmentCode
		if f.EquipmentCostCode != "" {
			desc += "/" + f.EquipmentCostCode
		}
	}
	return desc
}
