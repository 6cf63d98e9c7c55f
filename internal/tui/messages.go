package tui

import (
	"github.com/ridgelinehq/costcode/internal/model"
	"github.com/ridgelinehq/costcode/internal/store"
)

// Data loading messages.
type progressLoadedMsg struct {
	err      error
	progress model.StatementProgress
}

type transactionsLoadedMsg struct {
	err   error
	state store.State
}

type documentLoadedMsg struct {
	err          error
	cardholderID string
	numPages     int
}

// Mutation result messages.
type codingSubmittedMsg struct {
	err   error
	id    string
	state store.State
}

type reviewSubmittedMsg struct {
	err   error
	id    string
	state store.State
}

// advanceMsg moves the selection to the next transaction after a successful
// submission. afterID pins it to the transaction that was submitted so a
// manual move in the meantime wins.
type advanceMsg struct {
	afterID string
}
