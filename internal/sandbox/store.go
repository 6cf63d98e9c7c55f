// Package sandbox runs a self-contained coding API on SQLite for development
// and demos. It mirrors the hosted API's validation rules so client behavior
// against the sandbox matches production.
package sandbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
)

// CardholderStatement is one cardholder's slice of a statement period.
type CardholderStatement struct {
	ID             string
	StatementID    string
	CardholderID   string
	CardholderName string
}

// Store persists sandbox fixture data in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the sandbox database at dbPath and bootstraps
// the schema.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; SQLite gains nothing from more connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		period_start TIMESTAMP NOT NULL,
		period_end TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cardholder_statements (
		id TEXT PRIMARY KEY,
		statement_id TEXT NOT NULL REFERENCES statements(id),
		cardholder_id TEXT NOT NULL,
		cardholder_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		cardholder_statement_id TEXT NOT NULL REFERENCES cardholder_statements(id),
		transaction_date TIMESTAMP NOT NULL,
		posting_date TIMESTAMP NOT NULL,
		description TEXT NOT NULL,
		merchant_name TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'uncoded',
		gl_account TEXT NOT NULL DEFAULT '',
		job_code TEXT NOT NULL DEFAULT '',
		phase TEXT NOT NULL DEFAULT '',
		cost_type TEXT NOT NULL DEFAULT '',
		equipment_code TEXT NOT NULL DEFAULT '',
		equipment_cost_code TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		coded_by TEXT NOT NULL DEFAULT '',
		coded_at TIMESTAMP,
		reviewed_by TEXT NOT NULL DEFAULT '',
		reviewed_at TIMESTAMP,
		rejection_reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_cardholder
		ON transactions(cardholder_statement_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_status
		ON transactions(status);

	CREATE TABLE IF NOT EXISTS email_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		subject TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// SaveStatement records a statement period. Existing rows are left alone.
func (s *Store) SaveStatement(ctx context.Context, id string, periodStart, periodEnd time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO statements (id, period_start, period_end)
		VALUES (?, ?, ?)
	`, id, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("failed to save statement %s: %w", id, err)
	}
	return nil
}

// SaveCardholderStatement records one cardholder's slice of a statement.
func (s *Store) SaveCardholderStatement(ctx context.Context, cs CardholderStatement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO cardholder_statements (id, statement_id, cardholder_id, cardholder_name)
		VALUES (?, ?, ?, ?)
	`, cs.ID, cs.StatementID, cs.CardholderID, cs.CardholderName)
	if err != nil {
		return fmt.Errorf("failed to save cardholder statement %s: %w", cs.ID, err)
	}
	return nil
}

// SaveTransactions inserts transactions, skipping ids already present.
func (s *Store) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, cardholder_statement_id, transaction_date, posting_date,
			description, merchant_name, amount, status,
			gl_account, job_code, phase, cost_type,
			equipment_code, equipment_cost_code, notes,
			coded_by, coded_at, reviewed_by, reviewed_at, rejection_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		status := txn.Status
		if status == "" {
			status = model.StatusUncoded
		}

		_, err = stmt.ExecContext(ctx,
			txn.ID,
			txn.CardholderStatementID,
			txn.TransactionDate,
			txn.PostingDate,
			txn.Description,
			txn.MerchantName,
			txn.Amount,
			string(status),
			txn.GLAccount,
			txn.JobCode,
			txn.Phase,
			txn.CostType,
			txn.EquipmentCode,
			txn.EquipmentCostCode,
			txn.Notes,
			txn.CodedBy,
			nullableTime(txn.CodedAt),
			txn.ReviewedBy,
			nullableTime(txn.ReviewedAt),
			txn.RejectionReason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

const transactionColumns = `
	id, cardholder_statement_id, transaction_date, posting_date,
	description, merchant_name, amount, status,
	gl_account, job_code, phase, cost_type,
	equipment_code, equipment_cost_code, notes,
	coded_by, coded_at, reviewed_by, reviewed_at, rejection_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var txn model.Transaction
	var status string
	var codedAt, reviewedAt sql.NullTime

	err := row.Scan(
		&txn.ID,
		&txn.CardholderStatementID,
		&txn.TransactionDate,
		&txn.PostingDate,
		&txn.Description,
		&txn.MerchantName,
		&txn.Amount,
		&status,
		&txn.GLAccount,
		&txn.JobCode,
		&txn.Phase,
		&txn.CostType,
		&txn.EquipmentCode,
		&txn.EquipmentCostCode,
		&txn.Notes,
		&txn.CodedBy,
		&codedAt,
		&txn.ReviewedBy,
		&reviewedAt,
		&txn.RejectionReason,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	txn.Status = model.TransactionStatus(status)
	if codedAt.Valid {
		t := codedAt.Time
		txn.CodedAt = &t
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		txn.ReviewedAt = &t
	}

	return txn, nil
}

// Transactions returns transactions matching the filter, ordered by
// transaction date then id.
func (s *Store) Transactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions"
	var clauses []string
	var args []any

	if filter.CardholderStatementID != "" {
		clauses = append(clauses, "cardholder_statement_id = ?")
		args = append(args, filter.CardholderStatementID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY transaction_date ASC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Skip > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Skip)
		}
	} else if filter.Skip > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unbounded.
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Skip)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// Transaction returns a single transaction by id.
func (s *Store) Transaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// ApplyCoding codes an uncoded transaction and returns the updated record.
func (s *Store) ApplyCoding(ctx context.Context, id string, fields model.CodingFields, codedBy string) (*model.Transaction, error) {
	current, err := s.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Codable() {
		return nil, fmt.Errorf("%w: transaction %s is %s", common.ErrNotCodable, id, current.Status)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE transactions SET
			gl_account = ?, job_code = ?, phase = ?, cost_type = ?,
			equipment_code = ?, equipment_cost_code = ?, notes = ?,
			status = ?, coded_by = ?, coded_at = ?
		WHERE id = ?
	`,
		fields.GLAccount, fields.JobCode, fields.Phase, fields.CostType,
		fields.EquipmentCode, fields.EquipmentCostCode, fields.Notes,
		string(model.StatusCoded), codedBy, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to apply coding to %s: %w", id, err)
	}

	return s.Transaction(ctx, id)
}

// ApplyReview approves or rejects a coded transaction and returns the updated
// record. Only coded transactions accept a review.
func (s *Store) ApplyReview(ctx context.Context, id string, approved bool, reason, reviewedBy string) (*model.Transaction, error) {
	current, err := s.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusCoded {
		return nil, fmt.Errorf("%w: transaction %s is %s, only coded transactions can be reviewed",
			common.ErrValidation, id, current.Status)
	}

	status := model.StatusReviewed
	if !approved {
		status = model.StatusRejected
	} else {
		reason = ""
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE transactions SET
			status = ?, reviewed_by = ?, reviewed_at = ?, rejection_reason = ?
		WHERE id = ?
	`, string(status), reviewedBy, now, reason, id)
	if err != nil {
		return nil, fmt.Errorf("failed to apply review to %s: %w", id, err)
	}

	return s.Transaction(ctx, id)
}

// ApplyBulkCoding codes every listed transaction that is still uncoded and
// reports how many rows changed. Ids in other statuses are skipped, not
// errors, so a batch can be retried safely.
func (s *Store) ApplyBulkCoding(ctx context.Context, ids []string, fields model.CodingFields, codedBy string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE transactions SET
			gl_account = ?, job_code = ?, phase = ?, cost_type = ?,
			equipment_code = ?, equipment_cost_code = ?, notes = ?,
			status = ?, coded_by = ?, coded_at = ?
		WHERE id = ? AND status = ?
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	updated := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx,
			fields.GLAccount, fields.JobCode, fields.Phase, fields.CostType,
			fields.EquipmentCode, fields.EquipmentCostCode, fields.Notes,
			string(model.StatusCoded), codedBy, now,
			id, string(model.StatusUncoded))
		if err != nil {
			return 0, fmt.Errorf("failed to bulk code %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count affected rows: %w", err)
		}
		updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}

// Progress aggregates per-cardholder coding counts for a statement.
// Cardholders with no transactions still appear with zero counts.
func (s *Store) Progress(ctx context.Context, statementID string) (model.StatementProgress, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM statements WHERE id = ?", statementID).Scan(&exists)
	if err != nil {
		return model.StatementProgress{}, fmt.Errorf("failed to check statement: %w", err)
	}
	if exists == 0 {
		return model.StatementProgress{}, common.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cs.id, cs.cardholder_id, cs.cardholder_name,
		       COUNT(t.id),
		       COALESCE(SUM(CASE WHEN t.status = 'coded' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.status = 'reviewed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.status = 'rejected' THEN 1 ELSE 0 END), 0)
		FROM cardholder_statements cs
		LEFT JOIN transactions t ON t.cardholder_statement_id = cs.id
		WHERE cs.statement_id = ?
		GROUP BY cs.id, cs.cardholder_id, cs.cardholder_name
		ORDER BY cs.cardholder_name ASC
	`, statementID)
	if err != nil {
		return model.StatementProgress{}, fmt.Errorf("failed to query progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prog := model.StatementProgress{StatementID: statementID}
	for rows.Next() {
		var cp model.CardholderProgress
		err := rows.Scan(
			&cp.CardholderStatementID,
			&cp.CardholderID,
			&cp.CardholderName,
			&cp.TotalTransactions,
			&cp.CodedTransactions,
			&cp.ReviewedTransactions,
			&cp.RejectedTransactions,
		)
		if err != nil {
			return model.StatementProgress{}, fmt.Errorf("failed to scan progress row: %w", err)
		}
		cp.ProgressPercentage = progress.Percentage(
			cp.TotalTransactions, cp.CodedTransactions, cp.ReviewedTransactions)
		prog.Cardholders = append(prog.Cardholders, cp)
	}

	return prog, rows.Err()
}

// CardholderStatementFor resolves a statement + cardholder pair to the
// cardholder statement record backing the PDF route.
func (s *Store) CardholderStatementFor(ctx context.Context, statementID, cardholderID string) (*CardholderStatement, error) {
	var cs CardholderStatement
	err := s.db.QueryRowContext(ctx, `
		SELECT id, statement_id, cardholder_id, cardholder_name
		FROM cardholder_statements
		WHERE statement_id = ? AND cardholder_id = ?
	`, statementID, cardholderID).Scan(&cs.ID, &cs.StatementID, &cs.CardholderID, &cs.CardholderName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cardholder statement: %w", err)
	}
	return &cs, nil
}

// TransactionCount counts transactions on one cardholder statement.
func (s *Store) TransactionCount(ctx context.Context, cardholderStatementID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE cardholder_statement_id = ?",
		cardholderStatementID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ListTemplates returns all email templates ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.EmailTemplate
	for rows.Next() {
		var t model.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// Template returns one email template by id.
func (s *Store) Template(ctx context.Context, id string) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// CreateTemplate inserts a template. The caller supplies the id; timestamps
// are set here.
func (s *Store) CreateTemplate(ctx context.Context, t *model.EmailTemplate) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_templates (id, name, subject, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Subject, t.Body, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: template named %q", common.ErrAlreadyExists, t.Name)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// UpdateTemplate rewrites a template's content and bumps updated_at.
func (s *Store) UpdateTemplate(ctx context.Context, t *model.EmailTemplate) error {
	t.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE email_templates SET name = ?, subject = ?, body = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Subject, t.Body, t.UpdatedAt, t.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: template named %q", common.ErrAlreadyExists, t.Name)
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template by id.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM email_templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
