package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ridgelinehq/costcode/internal/document"
	"github.com/ridgelinehq/costcode/internal/model"
)

const (
	requestTimeout = 30 * time.Second

	// defaultFetchLimit bounds one transaction fetch. A cardholder statement
	// holding more rows than this is paged by the server.
	defaultFetchLimit = 200
)

// loadProgress fetches the statement progress summary.
func (m Model) loadProgress() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		prog, err := m.client.GetStatementProgress(ctx, m.statementID)
		return progressLoadedMsg{progress: prog, err: err}
	}
}

// fetchTransactions loads transactions through the session store so stale
// responses are fenced out.
func (m Model) fetchTransactions(filter model.TransactionFilter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		state, err := m.store.FetchTransactions(ctx, filter)
		return transactionsLoadedMsg{state: state, err: err}
	}
}

// submitCoding submits the coding entry for one transaction.
func (m Model) submitCoding(id string, fields model.CodingFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		state, err := m.store.CodeTransaction(ctx, id, fields)
		return codingSubmittedMsg{state: state, id: id, err: err}
	}
}

// submitReview submits an approval or rejection for one transaction.
func (m Model) submitReview(id string, approved bool, rejectionReason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		state, err := m.store.ReviewTransaction(ctx, id, approved, rejectionReason)
		return reviewSubmittedMsg{state: state, id: id, err: err}
	}
}

// loadDocument fetches the cardholder's statement PDF and counts its pages.
func (m Model) loadDocument(cardholderID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		data, err := m.client.GetStatementDocument(ctx, m.statementID, cardholderID)
		if err != nil {
			return documentLoadedMsg{cardholderID: cardholderID, err: err}
		}

		pages, err := document.PageCount(data)
		if err != nil {
			return documentLoadedMsg{cardholderID: cardholderID, err: err}
		}

		return documentLoadedMsg{cardholderID: cardholderID, numPages: pages}
	}
}

// advanceAfter schedules the post-submission advance, leaving the success
// state on screen long enough to read.
func (m Model) advanceAfter(id string) tea.Cmd {
	return tea.Tick(m.config.AdvanceDelay, func(time.Time) tea.Msg {
		return advanceMsg{afterID: id}
	})
}
