package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{name: "uncoded", status: StatusUncoded, want: true},
		{name: "coded", status: StatusCoded, want: true},
		{name: "reviewed", status: StatusReviewed, want: true},
		{name: "rejected", status: StatusRejected, want: true},
		{name: "exported", status: StatusExported, want: true},
		{name: "empty", status: TransactionStatus(""), want: false},
		{name: "unknown", status: TransactionStatus("pending"), want: false},
		{name: "wrong case", status: TransactionStatus("Coded"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Valid())
		})
	}
}

func TestTransaction_Codable(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{name: "uncoded is codable", status: StatusUncoded, want: true},
		{name: "coded is not", status: StatusCoded, want: false},
		{name: "reviewed is not", status: StatusReviewed, want: false},
		{name: "rejected is not", status: StatusRejected, want: false},
		{name: "exported is not", status: StatusExported, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := Transaction{ID: "txn-1", Status: tt.status}
			assert.Equal(t, tt.want, txn.Codable())
		})
	}
}

func TestCodingFields_Modes(t *testing.T) {
	job := CodingFields{GLAccount: "4100", JobCode: "JOB-22", Phase: "100", CostType: "L"}
	assert.True(t, job.HasJobCoding())
	assert.False(t, job.HasEquipmentCoding())

	equip := CodingFields{GLAccount: "4100", EquipmentCode: "EX-301", EquipmentCostCode: "FUEL"}
	assert.False(t, equip.HasJobCoding())
	assert.True(t, equip.HasEquipmentCoding())

	glOnly := CodingFields{GLAccount: "6010"}
	assert.False(t, glOnly.HasJobCoding())
	assert.False(t, glOnly.HasEquipmentCoding())
}

func TestTransaction_DisplayName(t *testing.T) {
	withMerchant := Transaction{Description: "SQ *COFFEE 0042", MerchantName: "Square Coffee"}
	assert.Equal(t, "Square Coffee", withMerchant.DisplayName())

	withoutMerchant := Transaction{Description: "SQ *COFFEE 0042"}
	assert.Equal(t, "SQ *COFFEE 0042", withoutMerchant.DisplayName())
}

func TestStatementProgress_Cardholder(t *testing.T) {
	progress := StatementProgress{
		StatementID: "stmt-1",
		Cardholders: []CardholderProgress{
			{CardholderStatementID: "chs-1", CardholderName: "Dana Reeves"},
			{CardholderStatementID: "chs-2", CardholderName: "Mike Okafor"},
		},
	}

	found, ok := progress.Cardholder("chs-2")
	assert.True(t, ok)
	assert.Equal(t, "Mike Okafor", found.CardholderName)

	_, ok = progress.Cardholder("chs-9")
	assert.False(t, ok)
}
