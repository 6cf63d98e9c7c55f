package model

// CardholderProgress summarizes coding completion for one cardholder within a
// statement. It is recomputed server-side on every progress fetch; the client
// never mutates it, so coding and review actions show up here only after the
// next explicit refetch.
type CardholderProgress struct {
	CardholderStatementID string  `json:"cardholder_statement_id"`
	CardholderID          string  `json:"cardholder_id"`
	CardholderName        string  `json:"cardholder_name"`
	TotalTransactions     int     `json:"total_transactions"`
	CodedTransactions     int     `json:"coded_transactions"`
	ReviewedTransactions  int     `json:"reviewed_transactions"`
	RejectedTransactions  int     `json:"rejected_transactions"`
	ProgressPercentage    float64 `json:"progress_percentage"`
}

// StatementProgress groups the per-cardholder summaries for one statement.
type StatementProgress struct {
	StatementID string               `json:"statement_id"`
	Cardholders []CardholderProgress `json:"cardholder_progress"`
}

// Cardholder returns the progress entry for the given cardholder statement id.
func (p *StatementProgress) Cardholder(cardholderStatementID string) (CardholderProgress, bool) {
	for _, c := range p.Cardholders {
		if c.CardholderStatementID == cardholderStatementID {
			return c, true
		}
	}
	return CardholderProgress{}, false
}
