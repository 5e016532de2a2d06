package investor

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

// InvestorRepository defines the interface for investor operations
type InvestorRepository interface {
	Create(ctx context.Context, req models.CreateInvestorRequest) (*models.Investor, error)
	BulkCreate(ctx context.Context, reqs []models.CreateInvestorRequest) ([]models.Investor, error)
	GetByID(ctx context.Context, id string) (*models.Investor, error)
	GetByName(ctx context.Context, name string) (*models.Investor, error)
	List(ctx context.Context, page, pageSize int) ([]models.Investor, int, error)
	UpdateCommitmentMetrics(ctx context.Context, id string, count int, total decimal.Decimal) error
	Delete(ctx context.Context, id string) error
}

// Repository implements InvestorRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new investor repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "investors"

var columns = []string{
	"id", "name", "type", "country", "date_added",
	"commitment_count", "total_commitment_amount",
	"created_at", "updated_at", "deleted_at",
}

// Create creates a new investor. If one with the same name already exists it
// is returned unchanged.
func (r *Repository) Create(ctx context.Context, req models.CreateInvestorRequest) (*models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	dateAdded := now
	if req.DateAdded != nil {
		dateAdded = *req.DateAdded
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "type", "country", "date_added", "commitment_count", "total_commitment_amount", "created_at", "updated_at")
	sb.Values(uuid.New().String(), req.Name, req.Type, req.Country, dateAdded, 0, decimal.Zero, now, now)
	sb.OnConflictDoNothingWhere("deleted_at IS NULL", "name")
	sb.Returning(columns...)

	query, args := sb.Build()

	var inv models.Investor
	err := r.db.GetContext(ctx, &inv, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict on name, return the existing live row
			existing, getErr := r.GetByName(ctx, req.Name)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, fmt.Errorf("investor %q not visible after conflicting insert", req.Name)
			}
			return existing, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to create investor")
		return nil, fmt.Errorf("failed to create investor: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   inv.ID,
		"name": inv.Name,
	}).Info("created investor")

	return &inv, nil
}

// BulkCreate creates investors in a single transaction. The returned slice is
// a positional prefix of the request items. Names that already exist resolve
// to the existing rows.
func (r *Repository) BulkCreate(ctx context.Context, reqs []models.CreateInvestorRequest) ([]models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.BulkCreate")
	defer span.End()

	if len(reqs) == 0 {
		return []models.Investor{}, nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "type", "country", "date_added", "commitment_count", "total_commitment_amount", "created_at", "updated_at")
	names := make([]interface{}, 0, len(reqs))
	for _, req := range reqs {
		dateAdded := now
		if req.DateAdded != nil {
			dateAdded = *req.DateAdded
		}
		sb.Values(uuid.New().String(), req.Name, req.Type, req.Country, dateAdded, 0, decimal.Zero, now, now)
		names = append(names, req.Name)
	}
	sb.OnConflictDoNothingWhere("deleted_at IS NULL", "name")

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to bulk create investors")
		return nil, fmt.Errorf("failed to bulk create investors: %w", err)
	}

	selectSb := database.NewSelectBuilder()
	selectSb.Select(columns...)
	selectSb.From(tableName)
	selectSb.Where(
		selectSb.In("name", names...),
		selectSb.IsNull("deleted_at"),
	)

	query, args = selectSb.Build()
	var rows []models.Investor
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load bulk created investors")
		return nil, fmt.Errorf("failed to load bulk created investors: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	byName := make(map[string]models.Investor, len(rows))
	for _, row := range rows {
		byName[row.Name] = row
	}

	// Truncate at the first unloadable name. Callers zip the response
	// positionally with the request, so a gap mid-list must end the response
	// rather than shift later rows onto the wrong names.
	items := make([]models.Investor, 0, len(reqs))
	for _, req := range reqs {
		row, ok := byName[req.Name]
		if !ok {
			r.logger.WithContext(ctx).WithField("name", req.Name).Warn("bulk created investor not visible, truncating response")
			break
		}
		items = append(items, row)
	}

	return items, nil
}

// GetByID gets an investor by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var inv models.Investor
	err := r.db.GetContext(ctx, &inv, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get investor by ID")
		return nil, fmt.Errorf("failed to get investor: %w", err)
	}

	return &inv, nil
}

// GetByName gets an investor by its unique name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.GetByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var inv models.Investor
	err := r.db.GetContext(ctx, &inv, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get investor by name")
		return nil, fmt.Errorf("failed to get investor: %w", err)
	}

	return &inv, nil
}

// List lists investors with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Investor, int, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.List")
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
	countSb.Where(
		countSb.IsNull("deleted_at"),
	)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count investors")
		return nil, 0, fmt.Errorf("failed to count investors: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at ASC", "id ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	items := []models.Investor{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list investors")
		return nil, 0, fmt.Errorf("failed to list investors: %w", err)
	}

	return items, totalCount, nil
}

// UpdateCommitmentMetrics sets the commitment aggregates for an investor in a
// single update
func (r *Repository) UpdateCommitmentMetrics(ctx context.Context, id string, count int, total decimal.Decimal) error {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.UpdateCommitmentMetrics")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		ub.Assign("commitment_count", count),
		ub.Assign("total_commitment_amount", total),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.IsNull("deleted_at"),
	)

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update commitment metrics")
		return fmt.Errorf("failed to update commitment metrics: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete soft deletes an investor
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "InvestorRepository.Delete")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(tableName)
	ub.Set(
		ub.Assign("deleted_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.IsNull("deleted_at"),
	)

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete investor")
		return fmt.Errorf("failed to delete investor: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
