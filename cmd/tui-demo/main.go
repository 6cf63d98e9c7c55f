// Package main runs the coding TUI offline against canned statement data.
// Coding and review actions mutate in-memory state, so the whole workflow can
// be exercised without the sandbox or a real API.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/document"
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/progress"
	"github.com/ridgelinehq/costcode/internal/tui"
)

const (
	demoStatementID = "stmt-demo"
	demoUser        = "demo@ridgeline.example"
)

func main() {
	err := tui.Run(context.Background(),
		tui.WithClient(newDemoClient()),
		tui.WithStatementID(demoStatementID),
		tui.WithUser(demoUser),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI demo: %v\n", err)
		os.Exit(1)
	}
}

func newDemoClient() *api.MockClient {
	store := newDemoStore()
	return &api.MockClient{
		GetStatementProgressFunc: store.statementProgress,
		GetTransactionsFunc:      store.listTransactions,
		GetTransactionFunc:       store.getTransaction,
		SubmitCodingFunc:         store.applyCoding,
		SubmitReviewFunc:         store.applyReview,
		GetStatementDocumentFunc: store.statementDocument,
	}
}

type demoCardholder struct {
	statementID  string
	cardholderID string
	name         string
	pages        int
}

// demoStore holds the demo transactions behind a lock so coding and review
// actions persist for the life of the process.
type demoStore struct {
	mu          sync.Mutex
	txns        map[string]model.Transaction
	cardholders []demoCardholder
}

func newDemoStore() *demoStore {
	day := func(d int) time.Time {
		return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
	}
	codedAt := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		{
			ID: "demo-01", CardholderStatementID: "chs-reyes",
			TransactionDate: day(4), PostingDate: day(5),
			Description: "POS PURCHASE ROCKY MTN SUPPLY BOZEMAN MT",
			MerchantName: "Rocky Mtn Supply", Amount: 318.42,
			Status: model.StatusCoded,
			CodingFields: model.CodingFields{
				GLAccount: "5010", JobCode: "26-102", Phase: "03100", CostType: "M",
				Notes: "rebar ties and form stakes",
			},
			CodedBy: demoUser, CodedAt: &codedAt,
		},
		{
			ID: "demo-02", CardholderStatementID: "chs-reyes",
			TransactionDate: day(9), PostingDate: day(10),
			Description: "HIGH DESERT FUEL STOP LIVINGSTON MT",
			MerchantName: "High Desert Fuel", Amount: 92.77,
			Status: model.StatusUncoded,
		},
		{
			ID: "demo-03", CardholderStatementID: "chs-reyes",
			TransactionDate: day(15), PostingDate: day(16),
			Description: "HOME DEPOT #4412 BOZEMAN MT",
			MerchantName: "Home Depot", Amount: 204.60,
			Status: model.StatusUncoded,
		},
		{
			ID: "demo-04", CardholderStatementID: "chs-reyes",
			TransactionDate: day(22), PostingDate: day(23),
			Description: "POS PURCHASE AIRGAS USA LLC",
			MerchantName: "Airgas", Amount: 141.18,
			Status: model.StatusUncoded,
		},
		{
			ID: "demo-05", CardholderStatementID: "chs-okafor",
			TransactionDate: day(6), PostingDate: day(7),
			Description: "UNITED RENTALS #887 BILLINGS MT",
			MerchantName: "United Rentals", Amount: 980.00,
			Status: model.StatusCoded,
			CodingFields: model.CodingFields{
				GLAccount: "5410", JobCode: "26-104", Phase: "01540", CostType: "E",
			},
			CodedBy: demoUser, CodedAt: &codedAt,
		},
		{
			ID: "demo-06", CardholderStatementID: "chs-okafor",
			TransactionDate: day(13), PostingDate: day(14),
			Description: "NAPA AUTO PARTS #330 BOZEMAN",
			MerchantName: "NAPA Auto Parts", Amount: 267.91,
			Status: model.StatusUncoded,
		},
		{
			ID: "demo-07", CardholderStatementID: "chs-okafor",
			TransactionDate: day(20), PostingDate: day(21),
			Description: "PIZZA RANCH BILLINGS MT",
			MerchantName: "Pizza Ranch", Amount: 87.35,
			Status: model.StatusUncoded,
		},
	}

	byID := make(map[string]model.Transaction, len(txns))
	for _, txn := range txns {
		byID[txn.ID] = txn
	}

	return &demoStore{
		txns: byID,
		cardholders: []demoCardholder{
			{statementID: "chs-reyes", cardholderID: "ch-reyes", name: "Reyes, Sam", pages: 3},
			{statementID: "chs-okafor", cardholderID: "ch-okafor", name: "Okafor, Jude", pages: 2},
		},
	}
}

func (s *demoStore) statementProgress(_ context.Context, statementID string) (model.StatementProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prog := model.StatementProgress{StatementID: statementID}
	for _, ch := range s.cardholders {
		entry := model.CardholderProgress{
			CardholderStatementID: ch.statementID,
			CardholderID:          ch.cardholderID,
			CardholderName:        ch.name,
		}
		for _, txn := range s.txns {
			if txn.CardholderStatementID != ch.statementID {
				continue
			}
			entry.TotalTransactions++
			switch txn.Status {
			case model.StatusCoded:
				entry.CodedTransactions++
			case model.StatusReviewed, model.StatusExported:
				entry.ReviewedTransactions++
			case model.StatusRejected:
				entry.RejectedTransactions++
			case model.StatusUncoded:
			}
		}
		entry.ProgressPercentage = progress.Percentage(
			entry.TotalTransactions, entry.CodedTransactions, entry.ReviewedTransactions)
		prog.Cardholders = append(prog.Cardholders, entry)
	}

	return prog, nil
}

func (s *demoStore) listTransactions(_ context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, txn := range s.txns {
		if filter.CardholderStatementID != "" && txn.CardholderStatementID != filter.CardholderStatementID {
			continue
		}
		if filter.Status != nil && txn.Status != *filter.Status {
			continue
		}
		out = append(out, txn)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(out) {
			return nil, nil
		}
		out = out[filter.Skip:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (s *demoStore) getTransaction(_ context.Context, id string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return txn, nil
}

func (s *demoStore) applyCoding(_ context.Context, id string, fields model.CodingFields) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[id]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if !txn.Codable() {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s is %s", common.ErrNotCodable, id, txn.Status)
	}

	now := time.Now().UTC()
	txn.CodingFields = fields
	txn.Status = model.StatusCoded
	txn.CodedBy = demoUser
	txn.CodedAt = &now
	s.txns[id] = txn

	return txn, nil
}

func (s *demoStore) applyReview(_ context.Context, id string, approved bool, rejectionReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if txn.Status != model.StatusCoded {
		return fmt.Errorf("%w: transaction %s is %s, only coded transactions can be reviewed",
			common.ErrValidation, id, txn.Status)
	}

	now := time.Now().UTC()
	if approved {
		txn.Status = model.StatusReviewed
		txn.RejectionReason = ""
	} else {
		txn.Status = model.StatusRejected
		txn.RejectionReason = rejectionReason
	}
	txn.ReviewedBy = demoUser
	txn.ReviewedAt = &now
	s.txns[id] = txn

	return nil
}

func (s *demoStore) statementDocument(_ context.Context, _, cardholderID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.cardholders {
		if ch.cardholderID == cardholderID {
			title := fmt.Sprintf("Demo statement - %s", ch.name)
			return document.GeneratePDF(title, ch.pages), nil
		}
	}
	return nil, fmt.Errorf("%w: cardholder %s", common.ErrNotFound, cardholderID)
}
