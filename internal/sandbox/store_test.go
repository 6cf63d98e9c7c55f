package sandbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "sandbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newSeededStore(t *testing.T) *Store {
	t.Helper()

	store := newTestStore(t)
	require.NoError(t, Seed(context.Background(), store))
	return store
}

func TestStoreTransactionRoundTrip(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	txn, err := store.Transaction(ctx, "txn-walsh-01")
	require.NoError(t, err)

	assert.Equal(t, "chs-walsh", txn.CardholderStatementID)
	assert.Equal(t, "Rocky Mtn Supply", txn.MerchantName)
	assert.Equal(t, model.StatusReviewed, txn.Status)
	assert.Equal(t, "5010", txn.GLAccount)
	assert.Equal(t, "26-102", txn.JobCode)
	assert.Equal(t, "dana@ridgeline.example", txn.CodedBy)
	require.NotNil(t, txn.CodedAt)
	require.NotNil(t, txn.ReviewedAt)
	assert.InDelta(t, 412.88, txn.Amount, 0.001)
	assert.True(t, txn.TransactionDate.Equal(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
}

func TestStoreTransactionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Transaction(context.Background(), "txn-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStoreTransactionsFilter(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	t.Run("by cardholder", func(t *testing.T) {
		txns, err := store.Transactions(ctx, model.TransactionFilter{CardholderStatementID: "chs-chen"})
		require.NoError(t, err)
		require.Len(t, txns, 4)

		// Date order within the cardholder.
		for i := 1; i < len(txns); i++ {
			assert.False(t, txns[i].TransactionDate.Before(txns[i-1].TransactionDate))
		}
	})

	t.Run("by status", func(t *testing.T) {
		status := model.StatusUncoded
		txns, err := store.Transactions(ctx, model.TransactionFilter{
			CardholderStatementID: "chs-chen",
			Status:                &status,
		})
		require.NoError(t, err)
		assert.Len(t, txns, 3)
	})

	t.Run("skip and limit", func(t *testing.T) {
		all, err := store.Transactions(ctx, model.TransactionFilter{CardholderStatementID: "chs-walsh"})
		require.NoError(t, err)
		require.Len(t, all, 6)

		page, err := store.Transactions(ctx, model.TransactionFilter{
			CardholderStatementID: "chs-walsh",
			Skip:                  2,
			Limit:                 3,
		})
		require.NoError(t, err)
		require.Len(t, page, 3)
		assert.Equal(t, all[2].ID, page[0].ID)
	})

	t.Run("no matches", func(t *testing.T) {
		txns, err := store.Transactions(ctx, model.TransactionFilter{CardholderStatementID: "chs-ghost"})
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}

func TestStoreApplyCoding(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	fields := model.CodingFields{
		GLAccount: "5010",
		JobCode:   "26-102",
		Phase:     "06100",
		CostType:  "M",
		Notes:     "deck screws",
	}

	txn, err := store.ApplyCoding(ctx, "txn-walsh-03", fields, "dana@ridgeline.example")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCoded, txn.Status)
	assert.Equal(t, fields, txn.CodingFields)
	assert.Equal(t, "dana@ridgeline.example", txn.CodedBy)
	require.NotNil(t, txn.CodedAt)

	// Already coded rows refuse a second coding pass.
	_, err = store.ApplyCoding(ctx, "txn-walsh-03", fields, "dana@ridgeline.example")
	assert.ErrorIs(t, err, common.ErrNotCodable)

	_, err = store.ApplyCoding(ctx, "txn-nope", fields, "dana@ridgeline.example")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStoreApplyReview(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	t.Run("approve", func(t *testing.T) {
		txn, err := store.ApplyReview(ctx, "txn-walsh-02", true, "", "pm@ridgeline.example")
		require.NoError(t, err)
		assert.Equal(t, model.StatusReviewed, txn.Status)
		assert.Equal(t, "pm@ridgeline.example", txn.ReviewedBy)
		assert.Empty(t, txn.RejectionReason)
		require.NotNil(t, txn.ReviewedAt)
	})

	t.Run("reject keeps reason", func(t *testing.T) {
		txn, err := store.ApplyReview(ctx, "txn-chen-01", false, "wrong equipment unit", "pm@ridgeline.example")
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, txn.Status)
		assert.Equal(t, "wrong equipment unit", txn.RejectionReason)
	})

	t.Run("uncoded refuses review", func(t *testing.T) {
		_, err := store.ApplyReview(ctx, "txn-boone-02", true, "", "pm@ridgeline.example")
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.ApplyReview(ctx, "txn-nope", true, "", "pm@ridgeline.example")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestStoreApplyBulkCoding(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	fields := model.CodingFields{GLAccount: "6210", Notes: "January travel"}

	// Two uncoded, one already coded, one unknown.
	updated, err := store.ApplyBulkCoding(ctx,
		[]string{"txn-boone-03", "txn-boone-04", "txn-walsh-02", "txn-nope"},
		fields, "ray@ridgeline.example")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	coded, err := store.Transaction(ctx, "txn-boone-03")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCoded, coded.Status)
	assert.Equal(t, "6210", coded.GLAccount)

	// The already coded row keeps its original coding.
	untouched, err := store.Transaction(ctx, "txn-walsh-02")
	require.NoError(t, err)
	assert.Equal(t, "5010", untouched.GLAccount)

	n, err := store.ApplyBulkCoding(ctx, nil, fields, "ray@ridgeline.example")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreProgress(t *testing.T) {
	store := newSeededStore(t)

	prog, err := store.Progress(context.Background(), SeedStatementID)
	require.NoError(t, err)

	assert.Equal(t, SeedStatementID, prog.StatementID)
	require.Len(t, prog.Cardholders, 3)

	// Ordered by cardholder name.
	assert.Equal(t, "Boone, Ray", prog.Cardholders[0].CardholderName)
	assert.Equal(t, "Chen, Mei", prog.Cardholders[1].CardholderName)
	assert.Equal(t, "Walsh, Ada", prog.Cardholders[2].CardholderName)

	boone := prog.Cardholders[0]
	assert.Equal(t, 5, boone.TotalTransactions)
	assert.Equal(t, 0, boone.CodedTransactions)
	assert.Equal(t, 1, boone.RejectedTransactions)
	assert.InDelta(t, 0.0, boone.ProgressPercentage, 0.001)

	chen := prog.Cardholders[1]
	assert.Equal(t, 4, chen.TotalTransactions)
	assert.Equal(t, 1, chen.CodedTransactions)
	assert.InDelta(t, 25.0, chen.ProgressPercentage, 0.001)

	walsh := prog.Cardholders[2]
	assert.Equal(t, 6, walsh.TotalTransactions)
	assert.Equal(t, 1, walsh.CodedTransactions)
	assert.Equal(t, 1, walsh.ReviewedTransactions)
	assert.InDelta(t, 100.0*2.0/6.0, walsh.ProgressPercentage, 0.001)
}

func TestStoreProgressUnknownStatement(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Progress(context.Background(), "stmt-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStoreTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := model.EmailTemplate{ID: "tmpl-1", Name: "Weekly reminder", Subject: "s", Body: "b"}
	require.NoError(t, store.CreateTemplate(ctx, &first))
	assert.False(t, first.CreatedAt.IsZero())

	second := model.EmailTemplate{ID: "tmpl-2", Name: "Closing notice"}
	require.NoError(t, store.CreateTemplate(ctx, &second))

	dup := model.EmailTemplate{ID: "tmpl-3", Name: "Weekly reminder"}
	assert.ErrorIs(t, store.CreateTemplate(ctx, &dup), common.ErrAlreadyExists)

	list, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Closing notice", list[0].Name)
	assert.Equal(t, "Weekly reminder", list[1].Name)

	first.Subject = "updated subject"
	require.NoError(t, store.UpdateTemplate(ctx, &first))
	got, err := store.Template(ctx, "tmpl-1")
	require.NoError(t, err)
	assert.Equal(t, "updated subject", got.Subject)

	missing := model.EmailTemplate{ID: "tmpl-nope", Name: "x"}
	assert.ErrorIs(t, store.UpdateTemplate(ctx, &missing), common.ErrNotFound)

	require.NoError(t, store.DeleteTemplate(ctx, "tmpl-2"))
	assert.ErrorIs(t, store.DeleteTemplate(ctx, "tmpl-2"), common.ErrNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store))
	require.NoError(t, Seed(ctx, store))

	txns, err := store.Transactions(ctx, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 15)

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}
