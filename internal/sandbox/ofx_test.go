package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgelinehq/costcode/internal/model"
)

const sampleCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260201120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101120000[0:GMT]
<DTEND>20260131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260115120000[0:GMT]
<TRNAMT>-54.20
<FITID>2026011501
<NAME>POS PURCHASE ROCKY MTN SUPPLY
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260118120000[0:GMT]
<TRNAMT>-312.45
<FITID>2026011802
<NAME>UNITED RENTALS #114
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260122120000[0:GMT]
<TRNAMT>-88.10
<FITID>2026012203
<NAME>HIGH DESERT FUEL
</STMTTRN>
</BANKTRANLIST>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

const signonOnlyOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260201120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
</OFX>`

func TestImportOFX(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := ImportOFX(ctx, store, "stmt-import", strings.NewReader(sampleCardOFX))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	prog, err := store.Progress(ctx, "stmt-import")
	require.NoError(t, err)
	require.Len(t, prog.Cardholders, 1)
	assert.Equal(t, "Card ending 1111", prog.Cardholders[0].CardholderName)
	assert.Equal(t, "card-1111", prog.Cardholders[0].CardholderID)
	assert.Equal(t, 3, prog.Cardholders[0].TotalTransactions)
	assert.Zero(t, prog.Cardholders[0].ProgressPercentage)

	txns, err := store.Transactions(ctx, model.TransactionFilter{
		CardholderStatementID: "stmt-import-card-1111",
	})
	require.NoError(t, err)
	require.Len(t, txns, 3)

	first := txns[0]
	assert.Equal(t, "2026011501", first.ID)
	assert.Equal(t, "ROCKY MTN SUPPLY", first.MerchantName)
	assert.Equal(t, "POS PURCHASE ROCKY MTN SUPPLY", first.Description)
	assert.InDelta(t, 54.20, first.Amount, 0.001)
	assert.Equal(t, model.StatusUncoded, first.Status)
	assert.True(t, first.TransactionDate.Equal(time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, "UNITED RENTALS #114", txns[1].MerchantName)
	assert.InDelta(t, 88.10, txns[2].Amount, 0.001)
}

func TestImportOFXReimport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := ImportOFX(ctx, store, "stmt-import", strings.NewReader(sampleCardOFX))
	require.NoError(t, err)
	_, err = ImportOFX(ctx, store, "stmt-import", strings.NewReader(sampleCardOFX))
	require.NoError(t, err)

	count, err := store.TransactionCount(ctx, "stmt-import-card-1111")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestImportOFXNoStatements(t *testing.T) {
	store := newTestStore(t)

	_, err := ImportOFX(context.Background(), store, "stmt-import", strings.NewReader(signonOnlyOFX))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no card or bank statements")
}

func TestImportOFXInvalidFile(t *testing.T) {
	store := newTestStore(t)

	_, err := ImportOFX(context.Background(), store, "stmt-import", strings.NewReader("not an ofx file"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse OFX file")
}

func TestPreprocessOFX(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "leading whitespace trimmed",
			input: "\n\n  OFXHEADER:100",
			want:  "OFXHEADER:100",
		},
		{
			name:  "mixed case severity upcased",
			input: "<SEVERITY>Info</SEVERITY>",
			want:  "<SEVERITY>INFO</SEVERITY>",
		},
		{
			name:  "unclosed opening tag closed",
			input: "<OFX>\n  <BANKTRANLIST\n</OFX>",
			want:  "<OFX>\n  <BANKTRANLIST>\n</OFX>",
		},
		{
			name:  "tag with value untouched",
			input: "<NAME>ACME LUMBER",
			want:  "<NAME>ACME LUMBER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, preprocessOFX(tt.input))
		})
	}
}

func TestExtractMerchantName(t *testing.T) {
	tests := []struct {
		name string
		txn  ofxgo.Transaction
		want string
	}{
		{
			name: "payee preferred over name",
			txn: ofxgo.Transaction{
				Name:  "POS PURCHASE ROCKY MTN SUPPLY",
				Payee: &ofxgo.Payee{Name: "Rocky Mtn Supply"},
			},
			want: "Rocky Mtn Supply",
		},
		{
			name: "empty payee falls back to name",
			txn:  ofxgo.Transaction{Name: "AIRGAS USA LLC", Payee: &ofxgo.Payee{}},
			want: "AIRGAS USA LLC",
		},
		{
			name: "prefix stripped case insensitively",
			txn:  ofxgo.Transaction{Name: "pos purchase ACME LUMBER"},
			want: "ACME LUMBER",
		},
		{
			name: "visa prefix stripped",
			txn:  ofxgo.Transaction{Name: "VISA PURCHASE SUNBELT RENTALS"},
			want: "SUNBELT RENTALS",
		},
		{
			name: "plain name untouched",
			txn:  ofxgo.Transaction{Name: "HIGH DESERT FUEL"},
			want: "HIGH DESERT FUEL",
		},
		{
			name: "surrounding whitespace trimmed",
			txn:  ofxgo.Transaction{Name: "  LES SCHWAB TIRE  "},
			want: "LES SCHWAB TIRE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMerchantName(tt.txn))
		})
	}
}

func TestAccountSuffix(t *testing.T) {
	tests := []struct {
		accountID string
		want      string
	}{
		{"4111111111111111", "1111"},
		{"****1234", "1234"},
		{"41-11", "4111"},
		{"AB1", "AB1"},
		{"", "0000"},
		{"--", "0000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, accountSuffix(tt.accountID), "accountID %q", tt.accountID)
	}
}
