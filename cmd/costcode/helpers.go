package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/sandbox"
)

// transactionPageSize is the page size used when walking a cardholder's full
// transaction list.
const transactionPageSize = 200

// newAPIClient builds the coding API client from configuration.
func newAPIClient() (api.Client, error) {
	baseURL := viper.GetString("api.url")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: api.url is not set", common.ErrMissingConfig)
	}
	return api.NewClient(baseURL, viper.GetString("api.token")), nil
}

// statementID returns the statement configured under the given viper key,
// defaulting to the sandbox's seeded statement so the demo flow works out of
// the box.
func statementID(key string) string {
	if id := viper.GetString(key); id != "" {
		return id
	}
	return sandbox.SeedStatementID
}

// fetchAllTransactions pages through every transaction for one cardholder
// statement, optionally filtered by status.
func fetchAllTransactions(ctx context.Context, client api.Client, cardholderStatementID string, status *model.TransactionStatus) ([]model.Transaction, error) {
	var all []model.Transaction
	for skip := 0; ; skip += transactionPageSize {
		page, err := client.GetTransactions(ctx, model.TransactionFilter{
			CardholderStatementID: cardholderStatementID,
			Status:                status,
			Skip:                  skip,
			Limit:                 transactionPageSize,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < transactionPageSize {
			return all, nil
		}
	}
}

// fetchStatementTransactions collects transactions for every cardholder on
// the statement, keyed by cardholder statement id.
func fetchStatementTransactions(ctx context.Context, client api.Client, prog model.StatementProgress, status *model.TransactionStatus) (map[string][]model.Transaction, error) {
	txns := make(map[string][]model.Transaction, len(prog.Cardholders))
	for _, ch := range prog.Cardholders {
		list, err := fetchAllTransactions(ctx, client, ch.CardholderStatementID, status)
		if err != nil {
			return nil, fmt.Errorf("fetching transactions for %s: %w", ch.CardholderName, err)
		}
		txns[ch.CardholderStatementID] = list
	}
	return txns, nil
}
