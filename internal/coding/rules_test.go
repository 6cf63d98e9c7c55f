package coding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinehq/costcode/internal/model"
)

const sampleRules = `
rules:
  - name: fuel
    match:
      merchant_contains: shell
    apply:
      gl_account: "5210"
      equipment_code: EX-301
      equipment_cost_code: FUEL
  - name: small purchases
    match:
      amount_max: 25.00
    apply:
      gl_account: "6010"
      notes: bulk-coded small purchase
`

func TestParseRules(t *testing.T) {
	rs, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)
	require.Len(t, rs.Rules, 2)

	assert.Equal(t, "fuel", rs.Rules[0].Name)
	assert.Equal(t, "shell", rs.Rules[0].Match.MerchantContains)
	assert.Equal(t, "5210", rs.Rules[0].Apply.GLAccount)
	assert.Equal(t, "FUEL", rs.Rules[0].Apply.EquipmentCostCode)

	require.NotNil(t, rs.Rules[1].Match.AmountMax)
	assert.InDelta(t, 25.0, *rs.Rules[1].Match.AmountMax, 0.0001)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "rules: [",
			wantErr: "parsing rules file",
		},
		{
			name:    "no rules",
			yaml:    "rules: []",
			wantErr: "no rules",
		},
		{
			name: "empty match block",
			yaml: "rules:\n  - name: broken\n    apply:\n      gl_account: \"6010\"\n",
			wantErr: "rule 1 (broken): match block is empty",
		},
		{
			name: "invalid apply block",
			yaml: "rules:\n  - name: ok\n    match: {merchant_contains: a}\n    apply: {gl_account: \"1234\"}\n" +
				"  - name: bad gl\n    match: {merchant_contains: b}\n    apply: {gl_account: \"12\"}\n",
			wantErr: "rule 2 (bad gl): invalid coding fields",
		},
		{
			name: "mixed coding modes",
			yaml: "rules:\n  - match: {merchant_contains: a}\n    apply: {gl_account: \"1234\", job_code: J1, equipment_code: E1}\n",
			wantErr: "rule 1 (unnamed): invalid coding fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRuleMatch_Matches(t *testing.T) {
	txn := model.Transaction{
		Description:  "SHELL OIL 5744 PORTLAND",
		MerchantName: "Shell Oil",
		Amount:       45.50,
	}

	minAmt := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		match RuleMatch
		want  bool
	}{
		{name: "merchant substring case-insensitive", match: RuleMatch{MerchantContains: "SHELL"}, want: true},
		{name: "merchant miss", match: RuleMatch{MerchantContains: "chevron"}, want: false},
		{name: "description substring", match: RuleMatch{DescriptionContains: "portland"}, want: true},
		{name: "amount within bounds", match: RuleMatch{AmountMin: minAmt(40), AmountMax: minAmt(50)}, want: true},
		{name: "amount below min", match: RuleMatch{AmountMin: minAmt(50)}, want: false},
		{name: "amount above max", match: RuleMatch{AmountMax: minAmt(40)}, want: false},
		{name: "amount bound inclusive", match: RuleMatch{AmountMin: minAmt(45.50), AmountMax: minAmt(45.50)}, want: true},
		{name: "all conditions must hold", match: RuleMatch{MerchantContains: "shell", AmountMax: minAmt(40)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.match.Matches(txn))
		})
	}
}

func TestRuleMatch_FallsBackToDescription(t *testing.T) {
	txn := model.Transaction{Description: "SHELL OIL 5744"}
	assert.True(t, RuleMatch{MerchantContains: "shell"}.Matches(txn))
}

func TestRuleset_Plan_FirstMatchWins(t *testing.T) {
	rs, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)

	shellSmall := model.Transaction{ID: "t1", MerchantName: "Shell Oil", Amount: 12.00}
	shellLarge := model.Transaction{ID: "t2", MerchantName: "Shell Oil", Amount: 80.00}
	coffee := model.Transaction{ID: "t3", MerchantName: "Square Coffee", Amount: 6.50}
	lumber := model.Transaction{ID: "t4", MerchantName: "Builders Supply", Amount: 412.87}

	plan := rs.Plan([]model.Transaction{shellSmall, shellLarge, coffee, lumber})

	require.Len(t, plan, 2)
	// shellSmall matches both rules; the fuel rule comes first so it wins.
	assert.Equal(t, "fuel", plan[0].Rule.Name)
	assert.Equal(t, []string{"t1", "t2"}, transactionIDs(plan[0].Transactions))
	assert.Equal(t, "small purchases", plan[1].Rule.Name)
	assert.Equal(t, []string{"t3"}, transactionIDs(plan[1].Transactions))
	// lumber matches nothing and is absent from the plan.
}

func TestRuleset_Plan_NoMatches(t *testing.T) {
	rs, err := ParseRules([]byte(sampleRules))
	require.NoError(t, err)

	plan := rs.Plan([]model.Transaction{{ID: "t1", MerchantName: "Builders Supply", Amount: 500}})
	assert.Empty(t, plan)
}

func transactionIDs(txns []model.Transaction) []string {
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	return ids
}
