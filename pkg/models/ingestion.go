package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ingestion run statuses
const (
	IngestionStatusCompleted = "completed"
	IngestionStatusFailed    = "failed"
)

// CommitmentRow is a single valid row parsed from an ingestion CSV
type CommitmentRow struct {
	InvestorName      string          `json:"investor_name"`
	InvestorType      string          `json:"investor_type"`
	InvestorCountry   string          `json:"investor_country"`
	InvestorDateAdded *time.Time      `json:"investor_date_added,omitempty"`
	AssetClassName    string          `json:"asset_class_name"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          Currency        `json:"currency"`
}

// InvestorCandidate is a unique investor extracted from the CSV, keyed by
// trimmed name
type InvestorCandidate struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Country   string     `json:"country"`
	DateAdded *time.Time `json:"date_added,omitempty"`
}

// ParsedUpload is the output of parsing an ingestion CSV
type ParsedUpload struct {
	Rows            []CommitmentRow     `json:"rows"`
	AssetClassNames []string            `json:"asset_class_names"`
	Investors       []InvestorCandidate `json:"investors"`
	TotalRows       int                 `json:"total_rows"`
	SkippedRows     int                 `json:"skipped_rows"`
}

// IngestionReport summarizes an ingestion run
type IngestionReport struct {
	JobID                  string    `json:"job_id"`
	Status                 string    `json:"status"`
	TotalRows              int       `json:"total_rows"`
	ValidRows              int       `json:"valid_rows"`
	SkippedRows            int       `json:"skipped_rows"`
	AssetClassesCreated    int       `json:"asset_classes_created"`
	InvestorsCreated       int       `json:"investors_created"`
	CommitmentsCreated     int       `json:"commitments_created"`
	CommitmentsDeduped     int       `json:"commitments_deduped"`
	AssetClassSuccessRate  string    `json:"asset_class_success_rate"`
	InvestorSuccessRate    string    `json:"investor_success_rate"`
	CommitmentSuccessRate  string    `json:"commitment_success_rate"`
	Errors                 []string  `json:"errors,omitempty"`
	StartedAt              time.Time `json:"started_at"`
	CompletedAt            time.Time `json:"completed_at"`
}

// SuccessRate formats a created/attempted ratio as "3/5 (60.0%)"
func SuccessRate(created, attempted int) string {
	if attempted == 0 {
		return "0/0 (0.0%)"
	}
	pct := float64(created) / float64(attempted) * 100
	return fmt.Sprintf("%d/%d (%.1f%%)", created, attempted, pct)
}
