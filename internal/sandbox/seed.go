package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/ridgelinehq/costcode/internal/common"
	"github.com/ridgelinehq/costcode/internal/model"
)

// SeedStatementID is the statement the deterministic fixture creates.
const SeedStatementID = "stmt-2026-01"

// Seed loads a fixed demo statement: three cardholders in a range of coding
// states, plus two email templates. Seeding an already seeded database is a
// no-op for statement data.
func Seed(ctx context.Context, store *Store) error {
	periodStart := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	if err := store.SaveStatement(ctx, SeedStatementID, periodStart, periodEnd); err != nil {
		return err
	}

	cardholders := []CardholderStatement{
		{ID: "chs-walsh", StatementID: SeedStatementID, CardholderID: "ch-walsh", CardholderName: "Walsh, Ada"},
		{ID: "chs-boone", StatementID: SeedStatementID, CardholderID: "ch-boone", CardholderName: "Boone, Ray"},
		{ID: "chs-chen", StatementID: SeedStatementID, CardholderID: "ch-chen", CardholderName: "Chen, Mei"},
	}
	for _, cs := range cardholders {
		if err := store.SaveCardholderStatement(ctx, cs); err != nil {
			return err
		}
	}

	if err := store.SaveTransactions(ctx, fixtureTransactions()); err != nil {
		return err
	}

	templates := []model.EmailTemplate{
		{
			ID:      "tmpl-missing-receipts",
			Name:    "Missing receipts reminder",
			Subject: "Receipts needed for your January card statement",
			Body:    "Hi {{cardholder}},\n\nWe still need receipts for {{count}} purchases on your corporate card statement. Please upload them before Friday so coding can close out.\n\nThanks,\nAccounting",
		},
		{
			ID:      "tmpl-coding-complete",
			Name:    "Statement ready for review",
			Subject: "Card statement {{statement}} is fully coded",
			Body:    "All transactions on statement {{statement}} are coded and ready for project manager review.",
		},
	}
	for _, tmpl := range templates {
		err := store.CreateTemplate(ctx, &tmpl)
		if err != nil && !errors.Is(err, common.ErrAlreadyExists) {
			return err
		}
	}

	return nil
}

func fixtureTransactions() []model.Transaction {
	day := func(d int) time.Time {
		return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
	}
	codedAt := time.Date(2026, time.February, 2, 9, 30, 0, 0, time.UTC)
	reviewedAt := time.Date(2026, time.February, 3, 14, 15, 0, 0, time.UTC)

	return []model.Transaction{
		// Walsh: field superintendent, partly coded.
		{
			ID: "txn-walsh-01", CardholderStatementID: "chs-walsh",
			TransactionDate: day(5), PostingDate: day(6),
			Description: "POS PURCHASE ROCKY MTN SUPPLY BOZEMAN MT",
			MerchantName: "Rocky Mtn Supply", Amount: 412.88,
			Status: model.StatusReviewed,
			CodingFields: model.CodingFields{
				GLAccount: "5010", JobCode: "26-102", Phase: "03100", CostType: "M",
				Notes: "forming lumber for footers",
			},
			CodedBy: "dana@ridgeline.example", CodedAt: &codedAt,
			ReviewedBy: "pm@ridgeline.example", ReviewedAt: &reviewedAt,
		},
		{
			ID: "txn-walsh-02", CardholderStatementID: "chs-walsh",
			TransactionDate: day(8), PostingDate: day(9),
			Description: "FASTENAL #MT044 BELGRADE MT",
			MerchantName: "Fastenal", Amount: 96.37,
			Status: model.StatusCoded,
			CodingFields: model.CodingFields{
				GLAccount: "5010", JobCode: "26-102", Phase: "05120", CostType: "M",
			},
			CodedBy: "dana@ridgeline.example", CodedAt: &codedAt,
		},
		{
			ID: "txn-walsh-03", CardholderStatementID: "chs-walsh",
			TransactionDate: day(12), PostingDate: day(13),
			Description: "HOME DEPOT #4412 BOZEMAN MT",
			MerchantName: "Home Depot", Amount: 228.04,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-walsh-04", CardholderStatementID: "chs-walsh",
			TransactionDate: day(17), PostingDate: day(17),
			Description: "HIGH DESERT FUEL STOP LIVINGSTON MT",
			MerchantName: "High Desert Fuel", Amount: 84.51,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-walsh-05", CardholderStatementID: "chs-walsh",
			TransactionDate: day(23), PostingDate: day(24),
			Description: "POS PURCHASE AIRGAS USA LLC",
			MerchantName: "Airgas", Amount: 157.62,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-walsh-06", CardholderStatementID: "chs-walsh",
			TransactionDate: day(28), PostingDate: day(29),
			Description: "MOTEL 6 MILES CITY MT",
			MerchantName: "Motel 6", Amount: 89.99,
			Status: model.StatusUncoded,
		},

		// Boone: project manager, one rejected charge to sort out.
		{
			ID: "txn-boone-01", CardholderStatementID: "chs-boone",
			TransactionDate: day(6), PostingDate: day(7),
			Description: "UNITED RENTALS #887 BILLINGS MT",
			MerchantName: "United Rentals", Amount: 1240.00,
			Status: model.StatusRejected,
			CodingFields: model.CodingFields{
				GLAccount: "5410", JobCode: "26-099", Phase: "01540", CostType: "E",
			},
			CodedBy: "ray@ridgeline.example", CodedAt: &codedAt,
			ReviewedBy: "pm@ridgeline.example", ReviewedAt: &reviewedAt,
			RejectionReason: "job 26-099 closed in December, recode to 26-102",
		},
		{
			ID: "txn-boone-02", CardholderStatementID: "chs-boone",
			TransactionDate: day(9), PostingDate: day(10),
			Description: "SUNBELT RENTALS #221",
			MerchantName: "Sunbelt Rentals", Amount: 689.50,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-boone-03", CardholderStatementID: "chs-boone",
			TransactionDate: day(14), PostingDate: day(15),
			Description: "PIZZA RANCH BILLINGS MT",
			MerchantName: "Pizza Ranch", Amount: 112.73,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-boone-04", CardholderStatementID: "chs-boone",
			TransactionDate: day(21), PostingDate: day(22),
			Description: "DELTA AIR 0062341998821",
			MerchantName: "Delta Air Lines", Amount: 418.40,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-boone-05", CardholderStatementID: "chs-boone",
			TransactionDate: day(26), PostingDate: day(27),
			Description: "POS PURCHASE STAPLES #1077",
			MerchantName: "Staples", Amount: 64.18,
			Status: model.StatusUncoded,
		},

		// Chen: equipment manager, codes against the equipment ledger.
		{
			ID: "txn-chen-01", CardholderStatementID: "chs-chen",
			TransactionDate: day(7), PostingDate: day(8),
			Description: "NAPA AUTO PARTS #330 BOZEMAN",
			MerchantName: "NAPA Auto Parts", Amount: 301.15,
			Status: model.StatusCoded,
			CodingFields: model.CodingFields{
				GLAccount: "5400", EquipmentCode: "EX-210", EquipmentCostCode: "REPAIR",
				Notes: "hydraulic filters, excavator 210",
			},
			CodedBy: "mei@ridgeline.example", CodedAt: &codedAt,
		},
		{
			ID: "txn-chen-02", CardholderStatementID: "chs-chen",
			TransactionDate: day(13), PostingDate: day(14),
			Description: "CAT FINANCIAL PARTS DEPT",
			MerchantName: "Caterpillar Parts", Amount: 1874.26,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-chen-03", CardholderStatementID: "chs-chen",
			TransactionDate: day(19), PostingDate: day(20),
			Description: "HIGH DESERT FUEL STOP LIVINGSTON MT",
			MerchantName: "High Desert Fuel", Amount: 402.90,
			Status: model.StatusUncoded,
		},
		{
			ID: "txn-chen-04", CardholderStatementID: "chs-chen",
			TransactionDate: day(25), PostingDate: day(26),
			Description: "POS PURCHASE LES SCHWAB TIRES",
			MerchantName: "Les Schwab", Amount: 1126.44,
			Status: model.StatusUncoded,
		},
	}
}
