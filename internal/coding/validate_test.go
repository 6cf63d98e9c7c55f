package coding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridgelinehq/costcode/internal/model"
)

func TestValidate_GLAccount(t *testing.T) {
	tests := []struct {
		name      string
		glAccount string
		wantErr   string
	}{
		{name: "four digits accepted", glAccount: "1234", wantErr: ""},
		{name: "leading zeros accepted", glAccount: "0042", wantErr: ""},
		{name: "letter rejected", glAccount: "12a4", wantErr: "GL account must be exactly 4 digits"},
		{name: "five digits rejected", glAccount: "12345", wantErr: "GL account must be exactly 4 digits"},
		{name: "three digits rejected", glAccount: "123", wantErr: "GL account must be exactly 4 digits"},
		{name: "empty rejected", glAccount: "", wantErr: "GL account is required"},
		{name: "whitespace rejected", glAccount: " 1234", wantErr: "GL account must be exactly 4 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(model.CodingFields{GLAccount: tt.glAccount})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.wantErr, errs["gl_account"])
		})
	}
}

func TestValidate_LengthLimits(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.CodingFields)
		wantField string
	}{
		{
			name:      "job code over 50",
			mutate:    func(f *model.CodingFields) { f.JobCode = strings.Repeat("J", 51) },
			wantField: "job_code",
		},
		{
			name:      "phase over 20",
			mutate:    func(f *model.CodingFields) { f.Phase = strings.Repeat("P", 21) },
			wantField: "phase",
		},
		{
			name:      "cost type over 20",
			mutate:    func(f *model.CodingFields) { f.CostType = strings.Repeat("C", 21) },
			wantField: "cost_type",
		},
		{
			name:      "equipment code over 50",
			mutate:    func(f *model.CodingFields) { f.EquipmentCode = strings.Repeat("E", 51) },
			wantField: "equipment_code",
		},
		{
			name:      "equipment cost code over 20",
			mutate:    func(f *model.CodingFields) { f.EquipmentCostCode = strings.Repeat("F", 21) },
			wantField: "equipment_cost_code",
		},
		{
			name:      "notes over 500",
			mutate:    func(f *model.CodingFields) { f.Notes = strings.Repeat("n", 501) },
			wantField: "notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := model.CodingFields{GLAccount: "1234"}
			tt.mutate(&fields)
			errs := Validate(fields)
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestValidate_LengthLimitsAtBoundary(t *testing.T) {
	fields := model.CodingFields{
		GLAccount: "1234",
		JobCode:   strings.Repeat("J", 50),
		Phase:     strings.Repeat("P", 20),
		CostType:  strings.Repeat("C", 20),
		Notes:     strings.Repeat("n", 500),
	}
	assert.Empty(t, Validate(fields))
}

func TestValidate_CountsRunesNotBytes(t *testing.T) {
	// 20 multi-byte runes are within the phase limit even though the byte
	// length is far over it.
	fields := model.CodingFields{GLAccount: "1234", Phase: strings.Repeat("ü", 20)}
	assert.Empty(t, Validate(fields))
}

func TestValidate_ModeExclusivity(t *testing.T) {
	fields := model.CodingFields{
		GLAccount:     "1234",
		JobCode:       "JOB-7",
		EquipmentCode: "EX-301",
	}
	errs := Validate(fields)
	assert.Equal(t, "job and equipment coding cannot be combined", errs["coding_mode"])

	jobOnly := model.CodingFields{GLAccount: "1234", JobCode: "JOB-7", Phase: "100"}
	assert.Empty(t, Validate(jobOnly))

	equipOnly := model.CodingFields{GLAccount: "1234", EquipmentCode: "EX-301", EquipmentCostCode: "FUEL"}
	assert.Empty(t, Validate(equipOnly))
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{
		"notes":      "must be 500 characters or fewer",
		"gl_account": "GL account is required",
	}
	// Fields sort alphabetically so the message is stable.
	assert.Equal(t, "gl_account: GL account is required; notes: must be 500 characters or fewer", errs.Error())
	assert.Empty(t, FieldErrors{}.Error())
}
