// Package progress derives completion summaries from transaction status
// counts. Everything here is pure computation; the authoritative counts come
// from the coding API's progress endpoint.
package progress

import "github.com/ridgelinehq/costcode/internal/model"

// Percentage returns the percent of transactions that are coded or reviewed
// out of total. A zero or negative total yields 0, never NaN.
func Percentage(total, coded, reviewed int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(coded+reviewed) / float64(total)
}

// Uncoded returns how many transactions are not yet coded, reviewed, or
// rejected. The result can go negative when the counted categories exceed the
// total; callers must surface that as a data-integrity signal rather than
// clamp it.
func Uncoded(total, coded, reviewed, rejected int) int {
	return total - coded - reviewed - rejected
}

// Totals is a statement-wide rollup across cardholders.
type Totals struct {
	Total      int
	Coded      int
	Reviewed   int
	Rejected   int
	Uncoded    int
	Percentage float64
}

// Rollup sums per-cardholder counts and recomputes the overall percentage and
// uncoded remainder from the summed counts.
func Rollup(cardholders []model.CardholderProgress) Totals {
	var t Totals
	for _, c := range cardholders {
		t.Total += c.TotalTransactions
		t.Coded += c.CodedTransactions
		t.Reviewed += c.ReviewedTransactions
		t.Rejected += c.RejectedTransactions
	}
	t.Uncoded = Uncoded(t.Total, t.Coded, t.Reviewed, t.Rejected)
	t.Percentage = Percentage(t.Total, t.Coded, t.Reviewed)
	return t
}
