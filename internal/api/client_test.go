package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "test-token")
	client.retryOpts = common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}
	return client, server
}

func TestGetStatementProgress(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/statements/stmt-77/progress", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(model.StatementProgress{
			StatementID: "stmt-77",
			Cardholders: []model.CardholderProgress{
				{CardholderStatementID: "chs-1", CardholderName: "Dana Reeves", TotalTransactions: 12},
			},
		})
	}))

	got, err := client.GetStatementProgress(context.Background(), "stmt-77")
	require.NoError(t, err)
	assert.Equal(t, "stmt-77", got.StatementID)
	require.Len(t, got.Cardholders, 1)
	assert.Equal(t, "Dana Reeves", got.Cardholders[0].CardholderName)
}

func TestGetTransactions_FilterParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "chs-1", q.Get("cardholder_statement_id"))
		assert.Equal(t, "uncoded", q.Get("status"))
		assert.Equal(t, "40", q.Get("skip"))
		assert.Equal(t, "200", q.Get("limit"))

		_ = json.NewEncoder(w).Encode([]model.Transaction{{ID: "txn-1"}, {ID: "txn-2"}})
	}))

	status := model.StatusUncoded
	got, err := client.GetTransactions(context.Background(), model.TransactionFilter{
		CardholderStatementID: "chs-1",
		Status:                &status,
		Skip:                  40,
		Limit:                 200,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetTransactions_OmitsUnsetParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("status"))
		assert.False(t, q.Has("skip"))
		assert.False(t, q.Has("limit"))
		_ = json.NewEncoder(w).Encode([]model.Transaction{})
	}))

	_, err := client.GetTransactions(context.Background(), model.TransactionFilter{CardholderStatementID: "chs-1"})
	assert.NoError(t, err)
}

func TestGetTransaction_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "transaction not found"})
	}))

	_, err := client.GetTransaction(context.Background(), "txn-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "transaction not found")
}

func TestSubmitCoding(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/transactions/txn-1/coding", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var fields model.CodingFields
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, "4100", fields.GLAccount)

		updated := model.Transaction{ID: "txn-1", Status: model.StatusCoded}
		updated.CodingFields = fields
		_ = json.NewEncoder(w).Encode(updated)
	}))

	got, err := client.SubmitCoding(context.Background(), "txn-1", model.CodingFields{GLAccount: "4100", JobCode: "JOB-7"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCoded, got.Status)
	assert.Equal(t, "JOB-7", got.JobCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestSubmitCoding_ValidationErrorNotRetried(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "gl_account must be exactly 4 digits"})
	}))

	_, err := client.SubmitCoding(context.Background(), "txn-1", model.CodingFields{GLAccount: "12"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestSubmitReview(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/txn-9/review", r.URL.Path)

		var body struct {
			RejectionReason string `json:"rejection_reason"`
			Approved        bool   `json:"approved"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Approved)
		assert.Equal(t, "duplicate charge", body.RejectionReason)

		_ = json.NewEncoder(w).Encode(map[string]bool{"acknowledged": true})
	}))

	err := client.SubmitReview(context.Background(), "txn-9", false, "duplicate charge")
	assert.NoError(t, err)
}

func TestSubmitBulkCoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/bulk-coding", r.URL.Path)

		var body bulkCodingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"txn-1", "txn-3"}, body.TransactionIDs)
		assert.Equal(t, "4100", body.CodingFields.GLAccount)

		_ = json.NewEncoder(w).Encode(map[string]bool{"acknowledged": true})
	}))

	err := client.SubmitBulkCoding(context.Background(), []string{"txn-1", "txn-3"}, model.CodingFields{GLAccount: "4100"})
	assert.NoError(t, err)
}

func TestGetStatementDocument(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake content")
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statements/stmt-77/cardholder/ch-2/pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))

	got, err := client.GetStatementDocument(context.Background(), "stmt-77", "ch-2")
	require.NoError(t, err)
	assert.Equal(t, pdf, got)
}

func TestReads_RetryTransientFailures(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.Transaction{{ID: "txn-1"}})
	}))

	got, err := client.GetTransactions(context.Background(), model.TransactionFilter{CardholderStatementID: "chs-1"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestEmailTemplateCRUD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/email-templates", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.EmailTemplate{{ID: "tpl-1", Name: "reminder"}})
	})
	mux.HandleFunc("POST /api/v1/email-templates", func(w http.ResponseWriter, r *http.Request) {
		var input EmailTemplateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.EmailTemplate{ID: "tpl-2", Name: input.Name, Subject: input.Subject})
	})
	mux.HandleFunc("PUT /api/v1/email-templates/tpl-1", func(w http.ResponseWriter, r *http.Request) {
		var input EmailTemplateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		_ = json.NewEncoder(w).Encode(model.EmailTemplate{ID: "tpl-1", Name: input.Name})
	})
	mux.HandleFunc("DELETE /api/v1/email-templates/tpl-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	list, err := client.ListEmailTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "reminder", list[0].Name)

	created, err := client.CreateEmailTemplate(ctx, EmailTemplateInput{Name: "overdue", Subject: "Statement overdue"})
	require.NoError(t, err)
	assert.Equal(t, "tpl-2", created.ID)

	updated, err := client.UpdateEmailTemplate(ctx, "tpl-1", EmailTemplateInput{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	assert.NoError(t, client.DeleteEmailTemplate(ctx, "tpl-1"))
}
