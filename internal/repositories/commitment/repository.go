package commitment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarkuku/preqin-task/pkg/database"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// CommitmentRepository defines the interface for commitment operations
type CommitmentRepository interface {
	Create(ctx context.Context, req models.CreateCommitmentRequest) (*models.Commitment, bool, error)
	BulkCreate(ctx context.Context, reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error)
	GetByID(ctx context.Context, id string) (*models.Commitment, error)
	List(ctx context.Context, investorID string, page, pageSize int) ([]models.Commitment, int, decimal.Decimal, error)
}

// Repository implements CommitmentRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new commitment repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "commitments"

var columns = []string{"id", "investor_id", "asset_class_id", "amount", "currency", "created_at", "updated_at"}

// conflictColumns is the natural key enforced by the uniqueness constraint
var conflictColumns = []string{"investor_id", "asset_class_id", "amount", "currency"}

// Create inserts a commitment. A duplicate of an existing commitment is not
// inserted; the existing row is returned with created=false.
func (r *Repository) Create(ctx context.Context, req models.CreateCommitmentRequest) (*models.Commitment, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "investor_id", "asset_class_id", "amount", "currency", "created_at", "updated_at")
	sb.Values(uuid.New().String(), req.InvestorID, req.AssetClassID, req.Amount, currency, now, now)
	sb.OnConflictDoNothing(conflictColumns...)
	sb.Returning(columns...)

	query, args := sb.Build()

	var c models.Commitment
	err := r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			existing, getErr := r.getByNaturalKey(ctx, req.InvestorID, req.AssetClassID, req, currency)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to create commitment")
		return nil, false, fmt.Errorf("failed to create commitment: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":             c.ID,
		"investor_id":    c.InvestorID,
		"asset_class_id": c.AssetClassID,
	}).Info("created commitment")

	return &c, true, nil
}

// BulkCreate inserts commitments one by one, skipping duplicates. The returned
// slice holds only the newly created rows, in request order.
func (r *Repository) BulkCreate(ctx context.Context, reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentRepository.BulkCreate")
	defer span.End()

	created := make([]models.Commitment, 0, len(reqs))
	skipped := 0
	for _, req := range reqs {
		c, isNew, err := r.Create(ctx, req)
		if err != nil {
			return nil, 0, err
		}
		if !isNew {
			skipped++
			continue
		}
		created = append(created, *c)
	}

	return created, skipped, nil
}

func (r *Repository) getByNaturalKey(ctx context.Context, investorID, assetClassID string, req models.CreateCommitmentRequest, currency models.Currency) (*models.Commitment, error) {
	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("investor_id", investorID),
		sb.Equal("asset_class_id", assetClassID),
		sb.Equal("amount", req.Amount),
		sb.Equal("currency", currency),
	)

	query, args := sb.Build()

	var c models.Commitment
	err := r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get commitment by natural key")
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}

	return &c, nil
}

// GetByID gets a commitment by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Commitment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
	)

	query, args := sb.Build()

	var c models.Commitment
	err := r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get commitment by ID")
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}

	return &c, nil
}

// List lists commitments with pagination, optionally filtered by investor.
// The returned total amount sums the whole filtered set, not just the page.
func (r *Repository) List(ctx context.Context, investorID string, page, pageSize int) ([]models.Commitment, int, decimal.Decimal, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	if investorID != "" {
		countSb.Where(countSb.Equal("investor_id", investorID))
	}
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count commitments")
		return nil, 0, decimal.Zero, fmt.Errorf("failed to count commitments: %w", err)
	}

	totalSb := database.NewSelectBuilder()
	totalSb.Select("COALESCE(SUM(amount), 0)")
	totalSb.From(tableName)
	if investorID != "" {
		totalSb.Where(totalSb.Equal("investor_id", investorID))
	}
	totalQuery, totalArgs := totalSb.Build()

	var totalAmount decimal.Decimal
	err = r.db.GetContext(ctx, &totalAmount, totalQuery, totalArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to sum commitments")
		return nil, 0, decimal.Zero, fmt.Errorf("failed to sum commitments: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	if investorID != "" {
		sb.Where(sb.Equal("investor_id", investorID))
	}
	sb.OrderBy("created_at ASC", "id ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	items := []models.Commitment{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list commitments")
		return nil, 0, decimal.Zero, fmt.Errorf("failed to list commitments: %w", err)
	}

	return items, totalCount, totalAmount, nil
}
