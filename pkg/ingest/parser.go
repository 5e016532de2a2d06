// Package ingest implements the CSV ingestion pipeline: parsing uploads,
// resolving entities against the platform services and creating commitments.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/jafarkuku/preqin-task/pkg/metrics"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// CSV column headers. "Investory Type" is the header shipped by the upstream
// data provider, typo included.
const (
	columnInvestorName      = "Investor Name"
	columnInvestorType      = "Investory Type"
	columnInvestorCountry   = "Investor Country"
	columnInvestorDateAdded = "Investor Date Added"
	columnAssetClass        = "Commitment Asset Class"
	columnAmount            = "Commitment Amount"
	columnCurrency          = "Commitment Currency"
)

// Parser reads commitment CSV uploads
type Parser struct {
	logger ectologger.Logger
}

// NewParser creates a new CSV parser
func NewParser(logger ectologger.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads the CSV and returns the valid rows plus the unique asset class
// names and investors referenced by them. Rows with a missing investor name,
// missing asset class, unparseable or non-positive amount, or unsupported
// currency are skipped. Investor uniqueness is keyed by trimmed name; the
// first occurrence wins for investor attributes.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*models.ParsedUpload, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Parser.Parse")
	defer span.End()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return &models.ParsedUpload{Rows: []models.CommitmentRow{}}, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{columnInvestorName, columnAssetClass, columnAmount} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required CSV column %q", required)
		}
	}

	parsed := &models.ParsedUpload{Rows: []models.CommitmentRow{}}
	seenAssetClasses := map[string]bool{}
	seenInvestors := map[string]bool{}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.WithContext(ctx).WithError(err).Warn("skipping malformed CSV record")
			parsed.TotalRows++
			parsed.SkippedRows++
			metrics.IngestionRowsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		parsed.TotalRows++
		row, ok := p.parseRecord(ctx, record, index)
		if !ok {
			parsed.SkippedRows++
			metrics.IngestionRowsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		parsed.Rows = append(parsed.Rows, *row)
		metrics.IngestionRowsTotal.WithLabelValues("valid").Inc()

		if !seenAssetClasses[row.AssetClassName] {
			seenAssetClasses[row.AssetClassName] = true
			parsed.AssetClassNames = append(parsed.AssetClassNames, row.AssetClassName)
		}
		if !seenInvestors[row.InvestorName] {
			seenInvestors[row.InvestorName] = true
			parsed.Investors = append(parsed.Investors, models.InvestorCandidate{
				Name:      row.InvestorName,
				Type:      row.InvestorType,
				Country:   row.InvestorCountry,
				DateAdded: row.InvestorDateAdded,
			})
		}
	}

	return parsed, nil
}

func (p *Parser) parseRecord(ctx context.Context, record []string, index map[string]int) (*models.CommitmentRow, bool) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	investorName := field(columnInvestorName)
	assetClassName := field(columnAssetClass)
	if investorName == "" || assetClassName == "" {
		p.logger.WithContext(ctx).Warn("skipping row with missing investor name or asset class")
		return nil, false
	}

	amount, err := decimal.NewFromString(field(columnAmount))
	if err != nil || !amount.IsPositive() {
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"investor": investorName,
			"amount":   field(columnAmount),
		}).Warn("skipping row with invalid amount")
		return nil, false
	}

	currency := models.Currency(strings.ToUpper(field(columnCurrency)))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if !currency.IsValid() {
		p.logger.WithContext(ctx).WithFields(map[string]any{
			"investor": investorName,
			"currency": field(columnCurrency),
		}).Warn("skipping row with unsupported currency")
		return nil, false
	}

	row := &models.CommitmentRow{
		InvestorName:    investorName,
		InvestorType:    field(columnInvestorType),
		InvestorCountry: field(columnInvestorCountry),
		AssetClassName:  assetClassName,
		Amount:          amount,
		Currency:        currency,
	}

	if raw := field(columnInvestorDateAdded); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			row.InvestorDateAdded = &t
		} else {
			p.logger.WithContext(ctx).WithFields(map[string]any{
				"investor":   investorName,
				"date_added": raw,
			}).Warn("ignoring unparseable date added")
		}
	}

	return row, true
}
