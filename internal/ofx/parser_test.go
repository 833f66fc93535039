package ofx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
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
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240122120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024012201
<NAME>ACH CREDIT ACME TRADING
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>1.25
<FITID>2024013101
<NAME>INTEREST PAID
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
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
<DTSERVER>20240315120000[0:GMT]
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
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFileBankStatement(t *testing.T) {
	records, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, records, 3)

	balance := records[0]
	assert.Equal(t, model.RecordTypeAccountBalance, balance.RecordType)
	assert.Equal(t, "2024-01-31T12:00:00Z", balance.Payload["reported_at"])
	assert.Equal(t, "1000.00", balance.Payload["cash_balance"])
	assert.Equal(t, "USD", balance.Payload["currency"])

	credit := records[1]
	assert.Equal(t, model.RecordTypeRevenue, credit.RecordType)
	assert.Equal(t, "2024-01-22", credit.Payload["occurred_on"])
	assert.Equal(t, "2500.00", credit.Payload["amount"])
	assert.Equal(t, "ACME TRADING", credit.Payload["description"])
	assert.Equal(t, "1234567890", credit.Payload["account_name"])
	assert.Equal(t, []string{"category not assigned"}, credit.Warnings)

	interest := records[2]
	assert.Equal(t, []any{"Income", "Interest"}, interest.Payload["category_path"])
	assert.Empty(t, interest.Warnings)
}

func TestParseFileCreditCardStatement(t *testing.T) {
	records, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, records, 1, "card purchases are not income")
	assert.Equal(t, "-500.00", records[0].Payload["total_balance"])
}

func TestParseFileMalformed(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	p := NewParser()
	in := extract.Input{Files: []extract.File{
		{Name: "notes.txt", Data: []byte("ignored")},
		{Name: "jan.QFX", Data: []byte(sampleCreditCardOFX)},
		{Name: "jan.ofx", Data: []byte(sampleBankOFX)},
	}}

	records, err := p.Extract(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "500.00", records[0].Payload["total_balance"], "balances with the same as-of time are summed")
	assert.Equal(t, "OFX ledger balance: 4111111111111111, 1234567890", records[0].Payload["notes"])

	_, err = p.Extract(context.Background(), extract.Input{Files: []extract.File{{Name: "bad.ofx", Data: []byte("garbage")}}})
	var parseErr *extract.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "garbage", parseErr.Raw)

	_, err = p.Extract(context.Background(), extract.Input{Text: "hello"})
	assert.True(t, errors.As(err, &parseErr))
}

func TestPreprocessOFX(t *testing.T) {
	in := "\n\n<SEVERITY>Info</SEVERITY>\n<CODE\n"
	out := NewParser().preprocessOFX(in)
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<CODE>\n", out)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{name: "remove ACH prefix", input: "ACH CREDIT ACME TRADING", expected: "ACME TRADING"},
		{name: "remove deposit prefix", input: "DEPOSIT FROM Globex", expected: "Globex"},
		{name: "generic name uses memo", input: "DEPOSIT", memo: "Invoice 42 Initech", expected: "Invoice 42 Initech"},
		{name: "strip date prefix", input: "01/22 WIRE IN", expected: "WIRE IN"},
		{name: "trim whitespace", input: "  AMAZON.COM  ", expected: "AMAZON.COM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestIsStatement(t *testing.T) {
	assert.True(t, IsStatement("a.ofx"))
	assert.True(t, IsStatement("A.QFX"))
	assert.False(t, IsStatement("a.csv"))
}
