package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridgelinehq/costcode/internal/model"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		coded    int
		reviewed int
		want     float64
	}{
		{name: "empty statement", total: 0, coded: 0, reviewed: 0, want: 0},
		{name: "nothing done", total: 40, coded: 0, reviewed: 0, want: 0},
		{name: "half coded", total: 40, coded: 20, reviewed: 0, want: 50},
		{name: "coded plus reviewed", total: 40, coded: 10, reviewed: 10, want: 50},
		{name: "all reviewed", total: 12, coded: 0, reviewed: 12, want: 100},
		{name: "fractional result", total: 3, coded: 1, reviewed: 0, want: 100.0 / 3.0},
		{name: "negative total treated as empty", total: -5, coded: 0, reviewed: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentage(tt.total, tt.coded, tt.reviewed)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestPercentage_Bounds(t *testing.T) {
	// Consistent counts never leave [0, 100].
	for total := 0; total <= 10; total++ {
		for coded := 0; coded <= total; coded++ {
			for reviewed := 0; coded+reviewed <= total; reviewed++ {
				got := Percentage(total, coded, reviewed)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 100.0)
			}
		}
	}
}

func TestUncoded(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		coded    int
		reviewed int
		rejected int
		want     int
	}{
		{name: "empty statement", want: 0},
		{name: "untouched statement", total: 25, want: 25},
		{name: "mixed progress", total: 25, coded: 10, reviewed: 5, rejected: 2, want: 8},
		{name: "fully worked", total: 10, coded: 0, reviewed: 8, rejected: 2, want: 0},
		// Counts exceeding the total indicate bad server data; the negative
		// remainder must be preserved so callers can flag it.
		{name: "inconsistent counts go negative", total: 5, coded: 4, reviewed: 3, rejected: 1, want: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Uncoded(tt.total, tt.coded, tt.reviewed, tt.rejected))
		})
	}
}

func TestRollup(t *testing.T) {
	cardholders := []model.CardholderProgress{
		{TotalTransactions: 20, CodedTransactions: 10, ReviewedTransactions: 5, RejectedTransactions: 1},
		{TotalTransactions: 10, CodedTransactions: 0, ReviewedTransactions: 0, RejectedTransactions: 0},
		{TotalTransactions: 10, CodedTransactions: 5, ReviewedTransactions: 0, RejectedTransactions: 2},
	}

	got := Rollup(cardholders)

	assert.Equal(t, 40, got.Total)
	assert.Equal(t, 15, got.Coded)
	assert.Equal(t, 5, got.Reviewed)
	assert.Equal(t, 3, got.Rejected)
	assert.Equal(t, 17, got.Uncoded)
	assert.InDelta(t, 50.0, got.Percentage, 0.0001)
}

func TestRollup_Empty(t *testing.T) {
	got := Rollup(nil)
	assert.Equal(t, Totals{}, got)
}
