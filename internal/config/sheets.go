package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/ridgelinehq/costcode/internal/export"
)

// LoadSheetsConfig assembles the Google Sheets export configuration.
// Precedence: viper settings (config file or COSTCODE_ env vars), then direct
// GOOGLE_SHEETS_* environment variables, then defaults.
func LoadSheetsConfig() (export.SheetsConfig, error) {
	cfg := export.DefaultSheetsConfig()

	if v := viper.GetString("sheets.service_account_path"); v != "" {
		cfg.ServiceAccountPath = ExpandPath(v)
	}
	if v := viper.GetString("sheets.client_id"); v != "" {
		cfg.ClientID = v
	}
	if v := viper.GetString("sheets.client_secret"); v != "" {
		cfg.ClientSecret = v
	}
	if v := viper.GetString("sheets.refresh_token"); v != "" {
		cfg.RefreshToken = v
	}
	if v := viper.GetString("sheets.spreadsheet_id"); v != "" {
		cfg.SpreadsheetID = v
	}
	if v := viper.GetString("sheets.spreadsheet_name"); v != "" {
		cfg.SpreadsheetName = v
	}

	if cfg.ServiceAccountPath == "" {
		if v := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); v != "" {
			cfg.ServiceAccountPath = ExpandPath(v)
		}
	}
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if cfg.RefreshToken == "" {
		cfg.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	}
	if cfg.SpreadsheetName == "" {
		cfg.SpreadsheetName = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME")
	}

	if err := cfg.Validate(); err != nil {
		return export.SheetsConfig{}, err
	}

	return cfg, nil
}
