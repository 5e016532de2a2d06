package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investor represents an investing institution. CommitmentCount and
// TotalCommitmentAmount are eventually consistent aggregates maintained by the
// commitment event subscriber.
type Investor struct {
	ID                    string          `json:"id" db:"id"`
	Name                  string          `json:"name" db:"name" validate:"required"`
	Type                  string          `json:"type" db:"type"`
	Country               string          `json:"country" db:"country"`
	DateAdded             time.Time       `json:"date_added" db:"date_added"`
	CommitmentCount       int             `json:"commitment_count" db:"commitment_count"`
	TotalCommitmentAmount decimal.Decimal `json:"total_commitment_amount" db:"total_commitment_amount"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt             *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateInvestorRequest is the request body for creating an investor
type CreateInvestorRequest struct {
	Name      string     `json:"name" validate:"required"`
	Type      string     `json:"type,omitempty"`
	Country   string     `json:"country,omitempty"`
	DateAdded *time.Time `json:"date_added,omitempty"`
}

// BulkCreateInvestorsRequest is the request body for creating investors in bulk
type BulkCreateInvestorsRequest struct {
	Items []CreateInvestorRequest `json:"items" validate:"required,min=1,dive"`
}

// InvestorResponse is the API response for investor operations
type InvestorResponse struct {
	Investor
}

// InvestorListResponse is the API response for listing investors
type InvestorListResponse struct {
	Items      []Investor `json:"items"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	HasNext    bool       `json:"has_next"`
}

// BulkCreateInvestorsResponse is the API response for bulk creation.
// Items preserves the order of the request items.
type BulkCreateInvestorsResponse struct {
	Items []Investor `json:"items"`
}
