package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code accepted for commitments
type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"

	// DefaultCurrency is applied when a commitment omits the currency
	DefaultCurrency = CurrencyGBP
)

// IsValid reports whether the currency is one of the supported codes
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyGBP, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// Commitment represents a capital commitment from an investor to an asset class
type Commitment struct {
	ID           string          `json:"id" db:"id"`
	InvestorID   string          `json:"investor_id" db:"investor_id"`
	AssetClassID string          `json:"asset_class_id" db:"asset_class_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Currency     Currency        `json:"currency" db:"currency"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateCommitmentRequest is the request body for creating a commitment.
// Amount must be a positive decimal with at most two decimal places.
type CreateCommitmentRequest struct {
	InvestorID   string          `json:"investor_id" validate:"required,uuid4"`
	AssetClassID string          `json:"asset_class_id" validate:"required,uuid4"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     Currency        `json:"currency,omitempty"`
}

// BulkCreateCommitmentsRequest is the request body for creating commitments in bulk
type BulkCreateCommitmentsRequest struct {
	Items []CreateCommitmentRequest `json:"items" validate:"required,min=1,dive"`
}

// CommitmentResponse is the API response for commitment operations
type CommitmentResponse struct {
	Commitment
}

// CommitmentListResponse is the API response for listing commitments.
// TotalAmount sums the amounts over the whole filtered set, not just the page.
type CommitmentListResponse struct {
	Items       []Commitment    `json:"items"`
	TotalCount  int             `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	HasNext     bool            `json:"has_next"`
}

// BulkCreateCommitmentsResponse is the API response for bulk creation.
// Items preserves the order of the request items. Skipped counts duplicates
// dropped by the uniqueness constraint.
type BulkCreateCommitmentsResponse struct {
	Items   []Commitment `json:"items"`
	Skipped int          `json:"skipped"`
}
