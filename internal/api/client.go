package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
)

const apiPrefix = "/api/v1"

// HTTPClient talks to the coding API over HTTP with JSON bodies.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retryOpts  common.RetryOptions
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates a client for the API at baseURL. An empty token disables
// the Authorization header.
func NewClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Wire types for mutation requests and acknowledgements.
type reviewRequest struct {
	RejectionReason string `json:"rejection_reason,omitempty"`
	Approved        bool   `json:"approved"`
}

type bulkCodingRequest struct {
	TransactionIDs []string           `json:"transaction_ids"`
	CodingFields   model.CodingFields `json:"coding_fields"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetStatementProgress fetches the per-cardholder completion summary for a
// statement.
func (c *HTTPClient) GetStatementProgress(ctx context.Context, statementID string) (model.StatementProgress, error) {
	var out model.StatementProgress
	path := apiPrefix + "/statements/" + url.PathEscape(statementID) + "/progress"
	err := common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, nil, &out)
	}, c.retryOpts)
	if err != nil {
		return model.StatementProgress{}, fmt.Errorf("fetching statement progress: %w", err)
	}
	return out, nil
}

// GetTransactions fetches the transactions matching the filter. The filter's
// cardholder statement id scopes the result; status, skip, and limit are
// passed through when set.
func (c *HTTPClient) GetTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	q := url.Values{}
	if filter.CardholderStatementID != "" {
		q.Set("cardholder_statement_id", filter.CardholderStatementID)
	}
	if filter.Status != nil {
		q.Set("status", string(*filter.Status))
	}
	if filter.Skip > 0 {
		q.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var out []model.Transaction
	err := common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, apiPrefix+"/transactions", q, nil, &out)
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	return out, nil
}

// GetTransaction fetches a single transaction by id.
func (c *HTTPClient) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	var out model.Transaction
	err := common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, apiPrefix+"/transactions/"+url.PathEscape(id), nil, nil, &out)
	}, c.retryOpts)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("fetching transaction %s: %w", id, err)
	}
	return out, nil
}

// SubmitCoding submits coding fields for one transaction and returns the
// server's updated record. Never retried.
func (c *HTTPClient) SubmitCoding(ctx context.Context, id string, fields model.CodingFields) (model.Transaction, error) {
	slog.Debug("Submitting coding", "transaction_id", id, "gl_account", fields.GLAccount)

	var out model.Transaction
	path := apiPrefix + "/transactions/" + url.PathEscape(id) + "/coding"
	if err := c.do(ctx, http.MethodPost, path, nil, fields, &out); err != nil {
		return model.Transaction{}, fmt.Errorf("submitting coding for %s: %w", id, err)
	}
	return out, nil
}

// SubmitReview submits an approve or reject decision. The API returns only an
// acknowledgement; callers wanting the updated record refetch it.
func (c *HTTPClient) SubmitReview(ctx context.Context, id string, approved bool, rejectionReason string) error {
	slog.Debug("Submitting review", "transaction_id", id, "approved", approved)

	path := apiPrefix + "/transactions/" + url.PathEscape(id) + "/review"
	payload := reviewRequest{Approved: approved, RejectionReason: rejectionReason}
	if err := c.do(ctx, http.MethodPost, path, nil, payload, nil); err != nil {
		return fmt.Errorf("submitting review for %s: %w", id, err)
	}
	return nil
}

// SubmitBulkCoding applies the same coding fields to every listed transaction
// in one batched call. The API acknowledges the batch without per-id results.
func (c *HTTPClient) SubmitBulkCoding(ctx context.Context, ids []string, fields model.CodingFields) error {
	slog.Debug("Submitting bulk coding", "count", len(ids), "gl_account", fields.GLAccount)

	payload := bulkCodingRequest{TransactionIDs: ids, CodingFields: fields}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/transactions/bulk-coding", nil, payload, nil); err != nil {
		return fmt.Errorf("submitting bulk coding: %w", err)
	}
	return nil
}

// GetStatementDocument fetches the scanned statement PDF for one cardholder.
func (c *HTTPClient) GetStatementDocument(ctx context.Context, statementID, cardholderID string) ([]byte, error) {
	u := fmt.Sprintf("%s%s/statements/%s/cardholder/%s/pdf",
		c.baseURL, apiPrefix, url.PathEscape(statementID), url.PathEscape(cardholderID))

	var data []byte
	err := common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		c.setHeaders(req, false)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if err := checkStatus(resp); err != nil {
			return err
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("fetching statement document: %w", err)
	}
	return data, nil
}

// ListEmailTemplates fetches all email templates.
func (c *HTTPClient) ListEmailTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	var out []model.EmailTemplate
	err := common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, apiPrefix+"/email-templates", nil, nil, &out)
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("listing email templates: %w", err)
	}
	return out, nil
}

// CreateEmailTemplate creates a template and returns the stored record.
func (c *HTTPClient) CreateEmailTemplate(ctx context.Context, input EmailTemplateInput) (model.EmailTemplate, error) {
	var out model.EmailTemplate
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/email-templates", nil, input, &out); err != nil {
		return model.EmailTemplate{}, fmt.Errorf("creating email template: %w", err)
	}
	return out, nil
}

// UpdateEmailTemplate replaces a template's writable fields.
func (c *HTTPClient) UpdateEmailTemplate(ctx context.Context, id string, input EmailTemplateInput) (model.EmailTemplate, error) {
	var out model.EmailTemplate
	path := apiPrefix + "/email-templates/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, nil, input, &out); err != nil {
		return model.EmailTemplate{}, fmt.Errorf("updating email template %s: %w", id, err)
	}
	return out, nil
}

// DeleteEmailTemplate removes a template.
func (c *HTTPClient) DeleteEmailTemplate(ctx context.Context, id string) error {
	path := apiPrefix + "/email-templates/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("deleting email template %s: %w", id, err)
	}
	return nil
}

// do executes one JSON request. A nil out discards the response body.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, payload != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus maps non-2xx responses onto the shared error taxonomy, folding
// the response body into the message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail := errorDetail(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, detail)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", common.ErrValidation, detail)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", common.ErrRateLimit, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: coding API error: %d - %s", common.ErrNetworkFailure, resp.StatusCode, detail)
	default:
		return fmt.Errorf("coding API error: %d - %s", resp.StatusCode, detail)
	}
}

// errorDetail pulls the message out of a {"error": "..."} body, falling back
// to the raw text.
func errorDetail(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(body))
}
