package ingest

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// CommitmentAPI is the slice of the commitment client used by the orchestrator
type CommitmentAPI interface {
	ListAll(ctx context.Context) ([]models.Commitment, error)
	BulkCreate(ctx context.Context, reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error)
}

// DedupIndex tracks commitment natural keys so duplicate rows are skipped
// before any create call is made. It is a pre-filter only; the commitment
// service enforces the same key with a uniqueness constraint, so a stale index
// never produces duplicates.
type DedupIndex struct {
	keys map[string]bool
}

// NewDedupIndex creates an empty dedup index
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{keys: map[string]bool{}}
}

// BuildDedupIndex seeds the index from the commitment listing. A listing error
// yields a partially seeded index, which is safe because the uniqueness
// constraint backs it up.
func BuildDedupIndex(ctx context.Context, api CommitmentAPI, logger ectologger.Logger) *DedupIndex {
	ctx, span := tracing.StartSpan(ctx, "ingest.BuildDedupIndex")
	defer span.End()

	index := NewDedupIndex()
	existing, err := api.ListAll(ctx)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("commitment listing incomplete, dedup index partially seeded")
	}
	for _, c := range existing {
		index.Add(c.InvestorID, c.AssetClassID, c.Amount, c.Currency)
	}

	return index
}

// CommitmentKey builds the natural key for a commitment
func CommitmentKey(investorID, assetClassID string, amount decimal.Decimal, currency models.Currency) string {
	return fmt.Sprintf("%s:%s:%s:%s", investorID, assetClassID, amount.StringFixed(2), currency)
}

// Seen reports whether the key is already in the index
func (d *DedupIndex) Seen(investorID, assetClassID string, amount decimal.Decimal, currency models.Currency) bool {
	return d.keys[CommitmentKey(investorID, assetClassID, amount, currency)]
}

// Add records a key in the index
func (d *DedupIndex) Add(investorID, assetClassID string, amount decimal.Decimal, currency models.Currency) {
	d.keys[CommitmentKey(investorID, assetClassID, amount, currency)] = true
}

// Len returns the number of keys in the index
func (d *DedupIndex) Len() int {
	return len(d.keys)
}
