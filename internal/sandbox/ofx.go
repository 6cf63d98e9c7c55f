package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/ridgelinehq/costcode/internal/model"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes formatting quirks common in bank-exported SGML OFX
// files: leading whitespace, mixed-case SEVERITY values, and opening tags
// missing their closing bracket.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	content = openTagPattern.ReplaceAllString(content, "$1>")
	return content
}

// ImportOFX loads card transactions from an OFX/QFX export into the sandbox
// under the given statement id. Each account in the file becomes one
// cardholder statement; every transaction starts uncoded. Returns the number
// of transactions imported.
func ImportOFX(ctx context.Context, store *Store, statementID string, r io.Reader) (int, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return 0, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	type account struct {
		id   string
		txns []ofxgo.Transaction
	}
	var accounts []account

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			accounts = append(accounts, account{
				id:   string(stmt.CCAcctFrom.AcctID),
				txns: stmt.BankTranList.Transactions,
			})
		}
	}
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			accounts = append(accounts, account{
				id:   string(stmt.BankAcctFrom.AcctID),
				txns: stmt.BankTranList.Transactions,
			})
		}
	}

	if len(accounts) == 0 {
		return 0, fmt.Errorf("OFX file contains no card or bank statements")
	}

	var transactions []model.Transaction
	var periodStart, periodEnd time.Time

	for _, acct := range accounts {
		suffix := accountSuffix(acct.id)
		cs := CardholderStatement{
			ID:             statementID + "-card-" + suffix,
			StatementID:    statementID,
			CardholderID:   "card-" + suffix,
			CardholderName: "Card ending " + suffix,
		}
		if err := store.SaveCardholderStatement(ctx, cs); err != nil {
			return 0, err
		}

		for _, ofxTxn := range acct.txns {
			txn := convertOFXTransaction(ofxTxn, cs.ID)
			transactions = append(transactions, txn)

			if periodStart.IsZero() || txn.TransactionDate.Before(periodStart) {
				periodStart = txn.TransactionDate
			}
			if txn.TransactionDate.After(periodEnd) {
				periodEnd = txn.TransactionDate
			}
		}
	}

	if periodStart.IsZero() {
		periodStart = time.Now().UTC()
		periodEnd = periodStart
	}
	if err := store.SaveStatement(ctx, statementID, periodStart, periodEnd); err != nil {
		return 0, err
	}
	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return 0, err
	}

	slog.Info("Imported OFX statement",
		"statement_id", statementID,
		"accounts", len(accounts),
		"transactions", len(transactions))

	return len(transactions), nil
}

// convertOFXTransaction maps one OFX transaction onto an uncoded sandbox row.
// Card feeds post debits as negative amounts; coding works in positive
// purchase costs.
func convertOFXTransaction(ofxTxn ofxgo.Transaction, cardholderStatementID string) model.Transaction {
	amount, _ := ofxTxn.TrnAmt.Float64()
	if amount < 0 {
		amount = -amount
	}

	posted := ofxTxn.DtPosted.Time

	return model.Transaction{
		ID:                    string(ofxTxn.FiTID),
		CardholderStatementID: cardholderStatementID,
		TransactionDate:       posted,
		PostingDate:           posted,
		Description:           string(ofxTxn.Name),
		MerchantName:          extractMerchantName(ofxTxn),
		Amount:                amount,
		Status:                model.StatusUncoded,
	}
}

// extractMerchantName pulls the cleanest merchant name available from the OFX
// record: PAYEE when present, otherwise NAME with feed prefixes stripped.
func extractMerchantName(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return string(txn.Payee.Name)
	}

	name := strings.TrimSpace(string(txn.Name))

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	return name
}

func accountSuffix(accountID string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		default:
			return -1
		}
	}, accountID)

	if len(cleaned) > 4 {
		return cleaned[len(cleaned)-4:]
	}
	if cleaned == "" {
		return "0000"
	}
	return cleaned
}
