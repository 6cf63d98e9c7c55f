package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/cli"
	"github.com/ridgelinehq/costcode/internal/model"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage reminder email templates",
		Long:  `List, create, update, and delete the email templates used to nudge cardholders with uncoded transactions.`,
	}

	cmd.AddCommand(listTemplatesCmd())
	cmd.AddCommand(createTemplateCmd())
	cmd.AddCommand(updateTemplateCmd())
	cmd.AddCommand(deleteTemplateCmd())

	return cmd
}

func listTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all templates",
		Long:  `Display every reminder template with its subject line.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := newAPIClient()
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			templates, err := client.ListEmailTemplates(ctx)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}

			if len(templates) == 0 {
				fmt.Println(cli.InfoStyle.Render("No templates found. Use 'costcode templates create' to add one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() {
				if flushErr := w.Flush(); flushErr != nil {
					slog.Error("failed to flush table writer", "error", flushErr)
				}
			}()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Subject"),
				headerStyle.Render("Updated"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 8),
				strings.Repeat("-", 20),
				strings.Repeat("-", 40),
				strings.Repeat("-", 10))

			for _, tpl := range templates {
				subject := tpl.Subject
				if subject == "" {
					subject = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("(no subject)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tpl.ID, tpl.Name, subject, tpl.UpdatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

func createTemplateCmd() *cobra.Command {
	var (
		templateSubject string
		templateBody    string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new template",
		Long: `Create a reminder template. The body may reference {{.CardholderName}},
{{.StatementID}}, and {{.UncodedCount}} placeholders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newAPIClient()
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			created, err := client.CreateEmailTemplate(ctx, api.EmailTemplateInput{
				Name:    args[0],
				Subject: templateSubject,
				Body:    templateBody,
			})
			if err != nil {
				return fmt.Errorf("failed to create template: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Created template %q (ID: %s)", created.Name, created.ID)))
			if created.Subject != "" {
				fmt.Printf("  Subject: %s\n", created.Subject)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&templateSubject, "subject", "", "Email subject line")
	cmd.Flags().StringVar(&templateBody, "body", "", "Email body text")

	return cmd
}

func updateTemplateCmd() *cobra.Command {
	var (
		templateName    string
		templateSubject string
		templateBody    string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a template",
		Long:  `Update the name, subject, or body of an existing template.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			if templateName == "" && templateSubject == "" && templateBody == "" {
				return fmt.Errorf("must specify --name, --subject, or --body to update")
			}

			client, err := newAPIClient()
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			templates, err := client.ListEmailTemplates(ctx)
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}

			var current model.EmailTemplate
			found := false
			for _, tpl := range templates {
				if tpl.ID == id {
					current = tpl
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("template %s not found", id)
			}

			// Use current values where no flag was given
			input := api.EmailTemplateInput{
				Name:    current.Name,
				Subject: current.Subject,
				Body:    current.Body,
			}
			if templateName != "" {
				input.Name = templateName
			}
			if templateSubject != "" {
				input.Subject = templateSubject
			}
			if templateBody != "" {
				input.Body = templateBody
			}

			if _, err := client.UpdateEmailTemplate(ctx, id, input); err != nil {
				return fmt.Errorf("failed to update template: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Updated template %s", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&templateName, "name", "", "New template name")
	cmd.Flags().StringVar(&templateSubject, "subject", "", "New subject line")
	cmd.Flags().StringVar(&templateBody, "body", "", "New body text")

	return cmd
}

func deleteTemplateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			client, err := newAPIClient()
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			if !force {
				fmt.Printf("Are you sure you want to delete template %s? (y/N): ", id)
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println(cli.SubtitleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := client.DeleteEmailTemplate(ctx, id); err != nil {
				return fmt.Errorf("failed to delete template: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deleted template %s", id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
