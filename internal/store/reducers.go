package store

import (
	"github.com/ridgelinehq/costcode/internal/model"
)

// Actions are internal events produced by the store's commands. Each action
// type has exactly one reducer; reducers are pure functions from the prior
// state and the action to the next state, and never perform I/O.
type action interface {
	actionName() string
}

type fetchStarted struct {
	filter model.TransactionFilter
	gen    uint64
}

type fetchSucceeded struct {
	transactions []model.Transaction
	gen          uint64
}

type fetchFailed struct {
	err string
	gen uint64
}

type mutationStarted struct{}

type mutationFailed struct {
	err string
}

type transactionReplaced struct {
	txn model.Transaction
}

type bulkApplied struct {
	fields model.CodingFields
	ids    []string
}

func (fetchStarted) actionName() string        { return "fetch_started" }
func (fetchSucceeded) actionName() string      { return "fetch_succeeded" }
func (fetchFailed) actionName() string         { return "fetch_failed" }
func (mutationStarted) actionName() string     { return "mutation_started" }
func (mutationFailed) actionName() string      { return "mutation_failed" }
func (transactionReplaced) actionName() string { return "transaction_replaced" }
func (bulkApplied) actionName() string         { return "bulk_applied" }

func reduce(s State, a action) State {
	switch a := a.(type) {
	case fetchStarted:
		return reduceFetchStarted(s, a)
	case fetchSucceeded:
		return reduceFetchSucceeded(s, a)
	case fetchFailed:
		return reduceFetchFailed(s, a)
	case mutationStarted:
		return reduceMutationStarted(s)
	case mutationFailed:
		return reduceMutationFailed(s, a)
	case transactionReplaced:
		return reduceTransactionReplaced(s, a)
	case bulkApplied:
		return reduceBulkApplied(s, a)
	default:
		return s
	}
}

// reduceFetchStarted replaces the filter wholesale and records the new fetch
// generation. Raising the generation is what fences out any older in-flight
// fetch: its resolution will no longer match and gets discarded.
func reduceFetchStarted(s State, a fetchStarted) State {
	s.Filter = a.filter
	s.FetchGeneration = a.gen
	s.Loading = true
	s.LastError = ""
	return s
}

// reduceFetchSucceeded replaces the entire list with the response. There are
// no merge or append semantics; repeated fetches fully overwrite. Stale
// generations leave the state untouched.
func reduceFetchSucceeded(s State, a fetchSucceeded) State {
	if a.gen != s.FetchGeneration {
		return s
	}
	s.Transactions = append([]model.Transaction(nil), a.transactions...)
	s.Loading = false
	return s
}

// reduceFetchFailed records the error and keeps the prior list. A stale
// generation's failure is discarded like its success would be.
func reduceFetchFailed(s State, a fetchFailed) State {
	if a.gen != s.FetchGeneration {
		return s
	}
	s.Loading = false
	s.LastError = a.err
	return s
}

func reduceMutationStarted(s State) State {
	s.Mutating = true
	s.LastError = ""
	return s
}

func reduceMutationFailed(s State, a mutationFailed) State {
	s.Mutating = false
	s.LastError = a.err
	return s
}

// reduceTransactionReplaced swaps in the server-authoritative record by
// identity. An id with no local match is a silent no-op: the list may be
// legitimately out of sync with the server between fetches.
func reduceTransactionReplaced(s State, a transactionReplaced) State {
	s.Mutating = false
	for i, txn := range s.Transactions {
		if txn.ID == a.txn.ID {
			next := append([]model.Transaction(nil), s.Transactions...)
			next[i] = a.txn
			s.Transactions = next
			break
		}
	}
	return s
}

// reduceBulkApplied marks every locally present id as coded with the shared
// fields. Ids absent from the local list are ignored; the batch endpoint
// returns no per-id results, so the local list is the only thing to update.
// Audit fields stay server-owned and arrive on the next fetch.
func reduceBulkApplied(s State, a bulkApplied) State {
	s.Mutating = false

	ids := make(map[string]struct{}, len(a.ids))
	for _, id := range a.ids {
		ids[id] = struct{}{}
	}

	next := append([]model.Transaction(nil), s.Transactions...)
	for i := range next {
		if _, ok := ids[next[i].ID]; ok {
			next[i].CodingFields = a.fields
			next[i].Status = model.StatusCoded
		}
	}
	s.Transactions = next
	return s
}
