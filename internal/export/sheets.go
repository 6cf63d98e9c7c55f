package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ridgelinehq/costcode/internal/common"
)

// SheetsConfig holds credentials and target settings for the Google Sheets
// writer. Exactly one of the OAuth2 credential trio or the service account
// path must be set.
type SheetsConfig struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
}

// DefaultSheetsConfig returns a SheetsConfig with sensible defaults.
func DefaultSheetsConfig() SheetsConfig {
	return SheetsConfig{
		TimeZone:      "America/Denver",
		BatchSize:     500,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Validate checks that the configuration carries a usable credential set.
func (c SheetsConfig) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	return nil
}

// SheetsWriter pushes reports into a Google Sheets spreadsheet.
type SheetsWriter struct {
	service *sheets.Service
	config  SheetsConfig
}

// NewSheetsWriter creates a writer and authenticates against the Sheets API.
func NewSheetsWriter(ctx context.Context, config SheetsConfig) (*SheetsWriter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsWriter{config: config, service: service}, nil
}

// Write uploads the report and returns the spreadsheet URL. When no
// spreadsheet id is configured a new spreadsheet is created; otherwise the
// configured sheet is cleared and rewritten, so retries land on identical
// content.
func (w *SheetsWriter) Write(ctx context.Context, report Report) (string, error) {
	slog.Info("Starting sheets export",
		"statement_id", report.StatementID,
		"rows", len(report.Rows))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx, report)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := w.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := sheetValues(report)

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return classifyRetry(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	err = common.WithRetry(ctx, func() error {
		return classifyRetry(w.applyFormatting(ctx, spreadsheetID, len(values)))
	}, retryOpts)
	if err != nil {
		// The data landed; formatting is cosmetic.
		slog.Warn("Failed to apply formatting", "error", err)
	}

	slog.Info("Sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID), nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config SheetsConfig) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304 -- operator-configured key path
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet verifies the configured spreadsheet or creates one
// named for the statement.
func (w *SheetsWriter) getOrCreateSpreadsheet(ctx context.Context, report Report) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	title := w.config.SpreadsheetName
	if title == "" {
		title = fmt.Sprintf("Cost Coding %s", report.StatementID)
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    title,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: xlsxSheetName,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	slog.Info("Created new spreadsheet", "spreadsheet_id", created.SpreadsheetId, "title", title)
	return created.SpreadsheetId, nil
}

// clearSheet removes existing data so stale rows never survive a rewrite.
func (w *SheetsWriter) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet: %w", err)
	}
	return nil
}

// sheetValues renders the report as Sheets cell values, header row first.
func sheetValues(report Report) [][]any {
	header := Header()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}

	values := [][]any{headerRow}
	for _, row := range report.Rows {
		values = append(values, []any{
			row.CardholderName,
			row.TransactionDate.Format("2006-01-02"),
			row.PostingDate.Format("2006-01-02"),
			row.Merchant,
			row.Description,
			row.Amount,
			row.GLAccount,
			row.JobCode,
			row.Phase,
			row.CostType,
			row.EquipmentCode,
			row.EquipmentCostCode,
			row.Notes,
			string(row.Status),
			row.CodedBy,
			row.ReviewedBy,
			row.TransactionID,
		})
	}

	return values
}

// writeData writes values to the spreadsheet in batches to stay under API
// request limits.
func (w *SheetsWriter) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := i + w.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		slog.Debug("Wrote batch", "start_row", i+1, "rows", end-i)
	}

	return nil
}

// applyFormatting bolds and freezes the header row, formats the amount column
// as currency, and auto-sizes columns.
func (w *SheetsWriter) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(Header())),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    1,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 5,
					EndColumnIndex:   6,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(Header())),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// classifyRetry marks quota and server-side Sheets API failures as retryable.
// Sheet writes replace a fixed range, so replaying them is safe.
func classifyRetry(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return &common.RetryableError{Err: err, Retryable: true}
		}
	}
	return err
}
