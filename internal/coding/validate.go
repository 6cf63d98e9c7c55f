// Package coding validates coding submissions and bulk-coding rules.
package coding

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ridgelinehq/costcode/internal/model"
)

// Field length limits, in runes. The TUI uses these for input caps so the
// form can never hold a value the validator would reject for length.
const (
	MaxJobCodeLen           = 50
	MaxPhaseLen             = 20
	MaxCostTypeLen          = 20
	MaxEquipmentCodeLen     = 50
	MaxEquipmentCostCodeLen = 20
	MaxNotesLen             = 500
)

var glAccountPattern = regexp.MustCompile(`^[0-9]{4}$`)

// FieldErrors maps a field name to a human-readable validation message.
// An empty map means the fields are valid.
type FieldErrors map[string]string

// Error joins the messages in field order so FieldErrors can travel as an
// ordinary error.
func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks a coding submission against the field rules: GL account is
// required and exactly 4 digits; job, phase, cost type, equipment, and notes
// are optional but length-capped; job-cost and equipment references are
// mutually exclusive coding modes.
func Validate(f model.CodingFields) FieldErrors {
	errs := FieldErrors{}

	switch {
	case f.GLAccount == "":
		errs["gl_account"] = "GL account is required"
	case !glAccountPattern.MatchString(f.GLAccount):
		errs["gl_account"] = "GL account must be exactly 4 digits"
	}

	checkLen(errs, "job_code", f.JobCode, MaxJobCodeLen)
	checkLen(errs, "phase", f.Phase, MaxPhaseLen)
	checkLen(errs, "cost_type", f.CostType, MaxCostTypeLen)
	checkLen(errs, "equipment_code", f.EquipmentCode, MaxEquipmentCodeLen)
	checkLen(errs, "equipment_cost_code", f.EquipmentCostCode, MaxEquipmentCostCodeLen)
	checkLen(errs, "notes", f.Notes, MaxNotesLen)

	if f.HasJobCoding() && f.HasEquipmentCoding() {
		errs["coding_mode"] = "job and equipment coding cannot be combined"
	}

	return errs
}

func checkLen(errs FieldErrors, field, value string, maxLen int) {
	if utf8.RuneCountInString(value) > maxLen {
		errs[field] = fmt.Sprintf("must be %d characters or fewer", maxLen)
	}
}
