package api

import (
	"context"
	"sync"

	"github.com/ridgelinehq/costcode/internal/model"
)

// MockClient is a configurable Client double for tests. Unset function fields
// fall back to zero-value responses; every call is counted by method name.
type MockClient struct {
	GetStatementProgressFunc func(ctx context.Context, statementID string) (model.StatementProgress, error)
	GetTransactionsFunc      func(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error)
	GetTransactionFunc       func(ctx context.Context, id string) (model.Transaction, error)
	SubmitCodingFunc         func(ctx context.Context, id string, fields model.CodingFields) (model.Transaction, error)
	SubmitReviewFunc         func(ctx context.Context, id string, approved bool, rejectionReason string) error
	SubmitBulkCodingFunc     func(ctx context.Context, ids []string, fields model.CodingFields) error
	GetStatementDocumentFunc func(ctx context.Context, statementID, cardholderID string) ([]byte, error)
	ListEmailTemplatesFunc   func(ctx context.Context) ([]model.EmailTemplate, error)
	CreateEmailTemplateFunc  func(ctx context.Context, input EmailTemplateInput) (model.EmailTemplate, error)
	UpdateEmailTemplateFunc  func(ctx context.Context, id string, input EmailTemplateInput) (model.EmailTemplate, error)
	DeleteEmailTemplateFunc  func(ctx context.Context, id string) error

	calls map[string]int
	mu    sync.Mutex
}

var _ Client = (*MockClient)(nil)

// Calls returns how many times the named method ran.
func (m *MockClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// GetStatementProgress implements Client.
func (m *MockClient) GetStatementProgress(ctx context.Context, statementID string) (model.StatementProgress, error) {
	m.record("GetStatementProgress")
	if m.GetStatementProgressFunc != nil {
		return m.GetStatementProgressFunc(ctx, statementID)
	}
	return model.StatementProgress{StatementID: statementID}, nil
}

// GetTransactions implements Client.
func (m *MockClient) GetTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	m.record("GetTransactions")
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, filter)
	}
	return nil, nil
}

// GetTransaction implements Client.
func (m *MockClient) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	m.record("GetTransaction")
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return model.Transaction{ID: id}, nil
}

// SubmitCoding implements Client.
func (m *MockClient) SubmitCoding(ctx context.Context, id string, fields model.CodingFields) (model.Transaction, error) {
	m.record("SubmitCoding")
	if m.SubmitCodingFunc != nil {
		return m.SubmitCodingFunc(ctx, id, fields)
	}
	txn := model.Transaction{ID: id, Status: model.StatusCoded}
	txn.CodingFields = fields
	return txn, nil
}

// SubmitReview implements Client.
func (m *MockClient) SubmitReview(ctx context.Context, id string, approved bool, rejectionReason string) error {
	m.record("SubmitReview")
	if m.SubmitReviewFunc != nil {
		return m.SubmitReviewFunc(ctx, id, approved, rejectionReason)
	}
	return nil
}

// SubmitBulkCoding implements Client.
func (m *MockClient) SubmitBulkCoding(ctx context.Context, ids []string, fields model.CodingFields) error {
	m.record("SubmitBulkCoding")
	if m.SubmitBulkCodingFunc != nil {
		return m.SubmitBulkCodingFunc(ctx, ids, fields)
	}
	return nil
}

// GetStatementDocument implements Client.
func (m *MockClient) GetStatementDocument(ctx context.Context, statementID, cardholderID string) ([]byte, error) {
	m.record("GetStatementDocument")
	if m.GetStatementDocumentFunc != nil {
		return m.GetStatementDocumentFunc(ctx, statementID, cardholderID)
	}
	return nil, nil
}

// ListEmailTemplates implements Client.
func (m *MockClient) ListEmailTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	m.record("ListEmailTemplates")
	if m.ListEmailTemplatesFunc != nil {
		return m.ListEmailTemplatesFunc(ctx)
	}
	return nil, nil
}

// CreateEmailTemplate implements Client.
func (m *MockClient) CreateEmailTemplate(ctx context.Context, input EmailTemplateInput) (model.EmailTemplate, error) {
	m.record("CreateEmailTemplate")
	if m.CreateEmailTemplateFunc != nil {
		return m.CreateEmailTemplateFunc(ctx, input)
	}
	return model.EmailTemplate{Name: input.Name, Subject: input.Subject, Body: input.Body}, nil
}

// UpdateEmailTemplate implements Client.
func (m *MockClient) UpdateEmailTemplate(ctx context.Context, id string, input EmailTemplateInput) (model.EmailTemplate, error) {
	m.record("UpdateEmailTemplate")
	if m.UpdateEmailTemplateFunc != nil {
		return m.UpdateEmailTemplateFunc(ctx, id, input)
	}
	return model.EmailTemplate{ID: id, Name: input.Name, Subject: input.Subject, Body: input.Body}, nil
}

// DeleteEmailTemplate implements Client.
func (m *MockClient) DeleteEmailTemplate(ctx context.Context, id string) error {
	m.record("DeleteEmailTemplate")
	if m.DeleteEmailTemplateFunc != nil {
		return m.DeleteEmailTemplateFunc(ctx, id)
	}
	return nil
}
