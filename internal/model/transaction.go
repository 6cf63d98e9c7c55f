// Package model defines the core domain models used throughout the application.
package model

import "time"

// TransactionStatus tracks where a transaction sits in the coding workflow.
type TransactionStatus string

// Transaction status constants.
const (
	StatusUncoded  TransactionStatus = "uncoded"
	StatusCoded    TransactionStatus = "coded"
	StatusReviewed TransactionStatus = "reviewed"
	StatusRejected TransactionStatus = "rejected"
	StatusExported TransactionStatus = "exported"
)

// Valid reports whether s is one of the known workflow statuses.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusUncoded, StatusCoded, StatusReviewed, StatusRejected, StatusExported:
		return true
	}
	return false
}

// CodingFields carries the mutable accounting attributes assigned to a
// transaction. Job-cost references (JobCode, Phase, CostType) and equipment
// references (EquipmentCode, EquipmentCostCode) are mutually exclusive coding
// modes; the GL account applies to both.
type CodingFields struct {
	GLAccount         string `json:"gl_account"              yaml:"gl_account"`
	JobCode           string `json:"job_code,omitempty"      yaml:"job_code,omitempty"`
	Phase             string `json:"phase,omitempty"         yaml:"phase,omitempty"`
	CostType          string `json:"cost_type,omitempty"     yaml:"cost_type,omitempty"`
	EquipmentCode     string `json:"equipment_code,omitempty" yaml:"equipment_code,omitempty"`
	EquipmentCostCode string `json:"equipment_cost_code,omitempty" yaml:"equipment_cost_code,omitempty"`
	Notes             string `json:"notes,omitempty"         yaml:"notes,omitempty"`
}

// HasJobCoding reports whether any job-cost reference is set.
func (f CodingFields) HasJobCoding() bool {
	return f.JobCode != "" || f.Phase != "" || f.CostType != ""
}

// HasEquipmentCoding reports whether any equipment reference is set.
func (f CodingFields) HasEquipmentCoding() bool {
	return f.EquipmentCode != "" || f.EquipmentCostCode != ""
}

// Transaction is one card purchase on a cardholder's statement. The dates,
// description, amount, and merchant are immutable facts from the statement
// import; coding attributes and status change only through explicit coding and
// review actions. RejectionReason is set only while Status is rejected.
type Transaction struct {
	CodingFields
	TransactionDate       time.Time         `json:"transaction_date"`
	PostingDate           time.Time         `json:"posting_date"`
	CodedAt               *time.Time        `json:"coded_at,omitempty"`
	ReviewedAt            *time.Time        `json:"reviewed_at,omitempty"`
	ID                    string            `json:"id"`
	CardholderStatementID string            `json:"cardholder_statement_id"`
	Description           string            `json:"description"`
	MerchantName          string            `json:"merchant_name,omitempty"`
	CodedBy               string            `json:"coded_by,omitempty"`
	ReviewedBy            string            `json:"reviewed_by,omitempty"`
	RejectionReason       string            `json:"rejection_reason,omitempty"`
	Status                TransactionStatus `json:"status"`
	Amount                float64           `json:"amount"`
}

// Codable reports whether the coding form may submit this transaction.
// Only uncoded transactions accept a coding submission.
func (t *Transaction) Codable() bool {
	return t.Status == StatusUncoded
}

// DisplayName returns the merchant name when present, falling back to the raw
// statement description.
func (t *Transaction) DisplayName() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Description
}

// TransactionFilter scopes a transaction fetch. It is transient client state,
// fully replaced (never merged) whenever the cardholder selection changes.
type TransactionFilter struct {
	Status                *TransactionStatus
	CardholderStatementID string
	Skip                  int
	Limit                 int
}
