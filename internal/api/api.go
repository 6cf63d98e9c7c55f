// Package api implements the client for the statement-coding REST API.
package api

import (
	"context"

	"github.com/ridgelinehq/costcode/internal/model"
)

// Client is the surface of the coding API this tool consumes. Reads are
// retried on transient failures; mutations are submitted exactly once.
type Client interface {
	GetStatementProgress(ctx context.Context, statementID string) (model.StatementProgress, error)
	GetTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	SubmitCoding(ctx context.Context, id string, fields model.CodingFields) (model.Transaction, error)
	SubmitReview(ctx context.Context, id string, approved bool, rejectionReason string) error
	SubmitBulkCoding(ctx context.Context, ids []string, fields model.CodingFields) error
	GetStatementDocument(ctx context.Context, statementID, cardholderID string) ([]byte, error)
	ListEmailTemplates(ctx context.Context) ([]model.EmailTemplate, error)
	CreateEmailTemplate(ctx context.Context, input EmailTemplateInput) (model.EmailTemplate, error)
	UpdateEmailTemplate(ctx context.Context, id string, input EmailTemplateInput) (model.EmailTemplate, error)
	DeleteEmailTemplate(ctx context.Context, id string) error
}

// EmailTemplateInput carries the writable fields for template create and
// update calls.
type EmailTemplateInput struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
