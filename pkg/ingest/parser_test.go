package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarkuku/preqin-task/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

const sampleHeader = "Investor Name,Investory Type,Investor Country,Investor Date Added,Commitment Asset Class,Commitment Amount,Commitment Currency\n"

func TestParse_ValidRows(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000,EUR\n" +
		"Ibx Skywalker ltd,asset manager,United States,1997-07-21,Private Equity,2500000.50,USD\n"

	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, parsed.TotalRows)
	assert.Equal(t, 0, parsed.SkippedRows)
	require.Len(t, parsed.Rows, 2)

	row := parsed.Rows[0]
	assert.Equal(t, "Ioo Gryffindor fund", row.InvestorName)
	assert.Equal(t, "fund manager", row.InvestorType)
	assert.Equal(t, "Singapore", row.InvestorCountry)
	assert.Equal(t, "Infrastructure", row.AssetClassName)
	assert.True(t, row.Amount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, models.Currency("EUR"), row.Currency)
	require.NotNil(t, row.InvestorDateAdded)
	assert.Equal(t, "2000-07-06", row.InvestorDateAdded.Format("2006-01-02"))
}

func TestParse_SkipsInvalidRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"missing investor name", ",fund manager,UK,2001-01-01,Hedge Funds,100,GBP"},
		{"missing asset class", "Cza Weasley fund,fund manager,UK,2001-01-01,,100,GBP"},
		{"unparseable amount", "Cza Weasley fund,fund manager,UK,2001-01-01,Hedge Funds,abc,GBP"},
		{"zero amount", "Cza Weasley fund,fund manager,UK,2001-01-01,Hedge Funds,0,GBP"},
		{"negative amount", "Cza Weasley fund,fund manager,UK,2001-01-01,Hedge Funds,-50,GBP"},
		{"unsupported currency", "Cza Weasley fund,fund manager,UK,2001-01-01,Hedge Funds,100,JPY"},
	}

	p := NewParser(testLogger())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := p.Parse(context.Background(), strings.NewReader(sampleHeader+tc.row+"\n"))
			require.NoError(t, err)
			assert.Equal(t, 1, parsed.TotalRows)
			assert.Equal(t, 1, parsed.SkippedRows)
			assert.Empty(t, parsed.Rows)
		})
	}
}

func TestParse_CurrencyDefaultsToGBP(t *testing.T) {
	csv := sampleHeader + "Cza Weasley fund,fund manager,United Kingdom,2002-05-29,Hedge Funds,100,\n"

	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, models.DefaultCurrency, parsed.Rows[0].Currency)
}

func TestParse_LowercaseCurrencyAccepted(t *testing.T) {
	csv := sampleHeader + "Cza Weasley fund,fund manager,United Kingdom,2002-05-29,Hedge Funds,100,usd\n"

	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, models.Currency("USD"), parsed.Rows[0].Currency)
}

func TestParse_UnparseableDateAddedIgnored(t *testing.T) {
	csv := sampleHeader + "Cza Weasley fund,fund manager,United Kingdom,29/05/2002,Hedge Funds,100,GBP\n"

	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Nil(t, parsed.Rows[0].InvestorDateAdded)
}

func TestParse_UniqueEntitiesFirstOccurrenceWins(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,100,EUR\n" +
		"Ioo Gryffindor fund,wealth manager,France,2010-01-01,Infrastructure,200,EUR\n" +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Private Equity,300,EUR\n"

	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Len(t, parsed.Rows, 3)
	assert.Equal(t, []string{"Infrastructure", "Private Equity"}, parsed.AssetClassNames)
	require.Len(t, parsed.Investors, 1)
	assert.Equal(t, "fund manager", parsed.Investors[0].Type)
	assert.Equal(t, "Singapore", parsed.Investors[0].Country)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	csv := "Investor Name,Commitment Asset Class\nCza Weasley fund,Hedge Funds\n"

	p := NewParser(testLogger())
	_, err := p.Parse(context.Background(), strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Commitment Amount")
}

func TestParse_EmptyFile(t *testing.T) {
	p := NewParser(testLogger())
	parsed, err := p.Parse(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, parsed.Rows)
	assert.Equal(t, 0, parsed.TotalRows)
}
