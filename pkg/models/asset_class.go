package models

import (
	"time"
)

// Asset class status values
const (
	AssetClassStatusActive   = "active"
	AssetClassStatusInactive = "inactive"
)

// AssetClass represents an investable asset class (e.g. Private Equity, Infrastructure)
type AssetClass struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name" validate:"required"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateAssetClassRequest is the request body for creating an asset class.
// Status defaults to active when omitted.
type CreateAssetClassRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// BulkCreateAssetClassesRequest is the request body for creating asset classes in bulk
type BulkCreateAssetClassesRequest struct {
	Items []CreateAssetClassRequest `json:"items" validate:"required,min=1,dive"`
}

// AssetClassResponse is the API response for asset class operations
type AssetClassResponse struct {
	AssetClass
}

// AssetClassListResponse is the API response for listing asset classes
type AssetClassListResponse struct {
	Items      []AssetClass `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	HasNext    bool         `json:"has_next"`
}

// BulkCreateAssetClassesResponse is the API response for bulk creation.
// Items is a positional prefix of the request items.
type BulkCreateAssetClassesResponse struct {
	Items []AssetClass `json:"items"`
}
