// Package store is the client-side state container for a coding session's
// transaction list. Commands call the coding API and dispatch actions; every
// action runs through a pure reducer under the store's lock, and consumers
// read snapshots or subscribe. Nothing outside the store mutates its state.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ridgelinehq/costcode/internal/api"
	"github.com/ridgelinehq/costcode/internal/coding"
	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
)

// State is an immutable snapshot of the store. FetchGeneration identifies the
// latest issued fetch; responses carrying an older generation are discarded,
// so a slow fetch can never overwrite a newer one.
type State struct {
	LastError       string
	Transactions    []model.Transaction
	Filter          model.TransactionFilter
	FetchGeneration uint64
	Loading         bool
	Mutating        bool
}

func (s State) clone() State {
	out := s
	out.Transactions = append([]model.Transaction(nil), s.Transactions...)
	return out
}

// Store owns the fetched transaction list and the active filter.
type Store struct {
	client    api.Client
	subs      map[int]chan State
	state     State
	gen       uint64
	nextSubID int
	mu        sync.Mutex
}

// New creates a store backed by the given API client.
func New(client api.Client) *Store {
	return &Store{
		client: client,
		subs:   make(map[int]chan State),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Len returns the number of transactions currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Transactions)
}

// TransactionAt returns the transaction at index i, if any.
func (s *Store) TransactionAt(i int) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.state.Transactions) {
		return model.Transaction{}, false
	}
	return s.state.Transactions[i], true
}

// IndexOf returns the position of the transaction with the given id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Transactions, id)
}

// Subscribe registers a consumer. Every committed action sends the resulting
// snapshot; a slow consumer only drops intermediate snapshots and always
// receives the latest one eventually. The returned func unsubscribes and
// closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan State, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// FetchTransactions issues a scoped read and replaces the list with the
// response. The filter is replaced wholesale. The returned snapshot always
// reflects the latest committed state, so a fetch whose response was fenced
// out as stale still hands back current data.
func (s *Store) FetchTransactions(ctx context.Context, filter model.TransactionFilter) (State, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.dispatchLocked(fetchStarted{filter: filter, gen: gen})
	s.mu.Unlock()

	txns, err := s.client.GetTransactions(ctx, filter)
	if err != nil {
		st := s.dispatch(fetchFailed{err: common.UserMessage(err), gen: gen})
		return st, err
	}
	return s.dispatch(fetchSucceeded{transactions: txns, gen: gen}), nil
}

// CodeTransaction validates and submits coding for one transaction, then
// replaces the local record with the server's authoritative response. A
// locally known transaction that is not uncoded is refused before any network
// call happens.
func (s *Store) CodeTransaction(ctx context.Context, id string, fields model.CodingFields) (State, error) {
	s.mu.Lock()
	idx := indexOf(s.state.Transactions, id)
	var status model.TransactionStatus
	if idx >= 0 {
		status = s.state.Transactions[idx].Status
	}
	s.mu.Unlock()

	if idx >= 0 && status != model.StatusUncoded {
		return s.State(), fmt.Errorf("%w: transaction %s is %s", common.ErrNotCodable, id, status)
	}
	if errs := coding.Validate(fields); len(errs) > 0 {
		return s.State(), fmt.Errorf("%w: %w", common.ErrValidation, errs)
	}

	s.dispatch(mutationStarted{})
	updated, err := s.client.SubmitCoding(ctx, id, fields)
	if err != nil {
		st := s.dispatch(mutationFailed{err: common.UserMessage(err)})
		return st, err
	}
	if idx < 0 {
		slog.Debug("Coded transaction not in local list", "transaction_id", id)
	}
	return s.dispatch(transactionReplaced{txn: updated}), nil
}

// ReviewTransaction submits an approve or reject decision, then refetches the
// single record so the local list reflects the server's version rather than
// an optimistic patch. Nothing is changed locally until the authoritative
// record arrives: if the submit fails the prior record simply stays, and if
// only the refetch fails the prior record stays too, with the divergence
// lasting until the next fetch.
func (s *Store) ReviewTransaction(ctx context.Context, id string, approved bool, rejectionReason string) (State, error) {
	s.dispatch(mutationStarted{})

	if err := s.client.SubmitReview(ctx, id, approved, rejectionReason); err != nil {
		st := s.dispatch(mutationFailed{err: common.UserMessage(err)})
		return st, err
	}

	updated, err := s.client.GetTransaction(ctx, id)
	if err != nil {
		st := s.dispatch(mutationFailed{err: "review saved, but refreshing the transaction failed"})
		return st, fmt.Errorf("refreshing reviewed transaction %s: %w", id, err)
	}
	return s.dispatch(transactionReplaced{txn: updated}), nil
}

// BulkCode submits one batched coding call and, on acknowledgement, applies
// the fields to every locally present id. Ids the list does not hold are
// ignored without error.
func (s *Store) BulkCode(ctx context.Context, ids []string, fields model.CodingFields) (State, error) {
	if len(ids) == 0 {
		return s.State(), nil
	}
	if errs := coding.Validate(fields); len(errs) > 0 {
		return s.State(), fmt.Errorf("%w: %w", common.ErrValidation, errs)
	}

	s.dispatch(mutationStarted{})
	if err := s.client.SubmitBulkCoding(ctx, ids, fields); err != nil {
		st := s.dispatch(mutationFailed{err: common.UserMessage(err)})
		return st, err
	}
	return s.dispatch(bulkApplied{ids: ids, fields: fields}), nil
}

// dispatch commits one action and notifies subscribers.
func (s *Store) dispatch(a action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

// dispatchLocked runs the reducer and notifies subscribers with a
// latest-wins, non-blocking send. Callers must hold s.mu.
func (s *Store) dispatchLocked(a action) State {
	s.state = reduce(s.state, a)
	snapshot := s.state.clone()

	slog.Debug("Store action", "action", a.actionName(), "transactions", len(snapshot.Transactions))

	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale buffered snapshot and try once more.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
	return snapshot
}

func indexOf(txns []model.Transaction, id string) int {
	for i, txn := range txns {
		if txn.ID == id {
			return i
		}
	}
	return -1
}
