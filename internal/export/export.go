// Package export renders coded statement data as CSV files, XLSX workbooks,
// or Google Sheets spreadsheets for handoff to the accounting system.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/ridgelinehq/costcode/internal/model"
)

// Row is one exported transaction line. Rows are flattened and ordered so the
// same statement always produces the same report.
type Row struct {
	TransactionDate   time.Time
	PostingDate       time.Time
	TransactionID     string
	CardholderName    string
	Merchant          string
	Description       string
	GLAccount         string
	JobCode           string
	Phase             string
	CostType          string
	EquipmentCode     string
	EquipmentCostCode string
	Notes             string
	CodedBy           string
	ReviewedBy        string
	Status            model.TransactionStatus
	Amount            float64
}

// Report is a fully assembled export for one statement.
type Report struct {
	GeneratedAt time.Time
	StatementID string
	Rows        []Row
}

// Header lists the report columns in output order. Every writer in this
// package emits columns in exactly this order.
func Header() []string {
	return []string{
		"Cardholder",
		"Transaction Date",
		"Posting Date",
		"Merchant",
		"Description",
		"Amount",
		"GL Account",
		"Job",
		"Phase",
		"Cost Type",
		"Equipment",
		"Equipment Cost Code",
		"Notes",
		"Status",
		"Coded By",
		"Reviewed By",
		"Transaction ID",
	}
}

// BuildReport flattens per-cardholder transactions into export rows. The
// progress summary supplies the cardholder roster and display names;
// transactions are keyed by cardholder statement id. Rows are ordered by
// cardholder name, then transaction date, then transaction id. Map entries
// for cardholders missing from the roster are ignored.
func BuildReport(prog model.StatementProgress, txns map[string][]model.Transaction) Report {
	report := Report{
		GeneratedAt: time.Now(),
		StatementID: prog.StatementID,
	}

	cardholders := make([]model.CardholderProgress, len(prog.Cardholders))
	copy(cardholders, prog.Cardholders)
	sort.Slice(cardholders, func(i, j int) bool {
		return cardholders[i].CardholderName < cardholders[j].CardholderName
	})

	for _, ch := range cardholders {
		list := make([]model.Transaction, len(txns[ch.CardholderStatementID]))
		copy(list, txns[ch.CardholderStatementID])
		sort.Slice(list, func(i, j int) bool {
			if !list[i].TransactionDate.Equal(list[j].TransactionDate) {
				return list[i].TransactionDate.Before(list[j].TransactionDate)
			}
			return list[i].ID < list[j].ID
		})

		for _, txn := range list {
			report.Rows = append(report.Rows, Row{
				TransactionDate:   txn.TransactionDate,
				PostingDate:       txn.PostingDate,
				TransactionID:     txn.ID,
				CardholderName:    ch.CardholderName,
				Merchant:          txn.MerchantName,
				Description:       txn.Description,
				GLAccount:         txn.GLAccount,
				JobCode:           txn.JobCode,
				Phase:             txn.Phase,
				CostType:          txn.CostType,
				EquipmentCode:     txn.EquipmentCode,
				EquipmentCostCode: txn.EquipmentCostCode,
				Notes:             txn.Notes,
				CodedBy:           txn.CodedBy,
				ReviewedBy:        txn.ReviewedBy,
				Status:            txn.Status,
				Amount:            txn.Amount,
			})
		}
	}

	return report
}

// record renders the row as CSV field values.
func (r Row) record() []string {
	return []string{
		r.CardholderName,
		r.TransactionDate.Format("2006-01-02"),
		r.PostingDate.Format("2006-01-02"),
		r.Merchant,
		r.Description,
		strconv.FormatFloat(r.Amount, 'f', 2, 64),
		r.GLAccount,
		r.JobCode,
		r.Phase,
		r.CostType,
		r.EquipmentCode,
		r.EquipmentCostCode,
		r.Notes,
		string(r.Status),
		r.CodedBy,
		r.ReviewedBy,
		r.TransactionID,
	}
}

// WriteCSV writes the report to w, header row first.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range report.Rows {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
