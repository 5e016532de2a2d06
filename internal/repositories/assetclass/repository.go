package assetclass

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/jafarkuku/preqin-task/pkg/database"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// AssetClassRepository defines the interface for asset class operations
type AssetClassRepository interface {
	Create(ctx context.Context, req models.CreateAssetClassRequest) (*models.AssetClass, error)
	BulkCreate(ctx context.Context, reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error)
	GetByID(ctx context.Context, id string) (*models.AssetClass, error)
	GetByName(ctx context.Context, name string) (*models.AssetClass, error)
	List(ctx context.Context, page, pageSize int) ([]models.AssetClass, int, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements AssetClassRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new asset class repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "asset_classes"

var columns = []string{"id", "name", "description", "status", "created_at", "updated_at", "deleted_at"}

func statusOrDefault(status string) string {
	if status == "" {
		return models.AssetClassStatusActive
	}
	return status
}

// Create creates a new asset class. If one with the same name already exists
// it is returned unchanged.
func (r *Repository) Create(ctx context.Context, req models.CreateAssetClassRequest) (*models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	id := uuid.New().String()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "description", "status", "created_at", "updated_at")
	sb.Values(id, req.Name, req.Description, statusOrDefault(req.Status), now, now)
	sb.OnConflictDoNothingWhere("deleted_at IS NULL", "name")
	sb.Returning(columns...)

	query, args := sb.Build()

	var ac models.AssetClass
	err := r.db.GetContext(ctx, &ac, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict on name, return the existing live row
			existing, getErr := r.GetByName(ctx, req.Name)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, fmt.Errorf("asset class %q not visible after conflicting insert", req.Name)
			}
			return existing, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to create asset class")
		return nil, fmt.Errorf("failed to create asset class: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   ac.ID,
		"name": ac.Name,
	}).Info("created asset class")

	return &ac, nil
}

// BulkCreate creates asset classes in a single transaction. The returned slice
// is a positional prefix of the request items. Names that already exist resolve
// to the existing rows.
func (r *Repository) BulkCreate(ctx context.Context, reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.BulkCreate")
	defer span.End()

	if len(reqs) == 0 {
		return []models.AssetClass{}, nil
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "description", "status", "created_at", "updated_at")
	names := make([]interface{}, 0, len(reqs))
	for _, req := range reqs {
		sb.Values(uuid.New().String(), req.Name, req.Description, statusOrDefault(req.Status), now, now)
		names = append(names, req.Name)
	}
	sb.OnConflictDoNothingWhere("deleted_at IS NULL", "name")

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to bulk create asset classes")
		return nil, fmt.Errorf("failed to bulk create asset classes: %w", err)
	}

	selectSb := database.NewSelectBuilder()
	selectSb.Select(columns...)
	selectSb.From(tableName)
	selectSb.Where(
		selectSb.In("name", names...),
		selectSb.IsNull("deleted_at"),
	)

	query, args = selectSb.Build()
	var rows []models.AssetClass
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load bulk created asset classes")
		return nil, fmt.Errorf("failed to load bulk created asset classes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	byName := make(map[string]models.AssetClass, len(rows))
	for _, row := range rows {
		byName[row.Name] = row
	}

	// Truncate at the first unloadable name. Callers zip the response
	// positionally with the request, so a gap mid-list must end the response
	// rather than shift later rows onto the wrong names.
	items := make([]models.AssetClass, 0, len(reqs))
	for _, req := range reqs {
		row, ok := byName[req.Name]
		if !ok {
			r.logger.WithContext(ctx).WithField("name", req.Name).Warn("bulk created asset class not visible, truncating response")
			break
		}
		items = append(items, row)
	}

	return items, nil
}

// GetByID gets an asset class by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var ac models.AssetClass
	err := r.db.GetContext(ctx, &ac, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get asset class by ID")
		return nil, fmt.Errorf("failed to get asset class: %w", err)
	}

	return &ac, nil
}

// GetByName gets an asset class by its unique name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.GetByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var ac models.AssetClass
	err := r.db.GetContext(ctx, &ac, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get asset class by name")
		return nil, fmt.Errorf("failed to get asset class: %w", err)
	}

	return &ac, nil
}

// List lists asset classes with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.AssetClass, int, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.List")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count asset classes")
		return nil, 0, fmt.Errorf("failed to count asset classes: %w", err)
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

	items := []models.AssetClass{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list asset classes")
		return nil, 0, fmt.Errorf("failed to list asset classes: %w", err)
	}

	return items, totalCount, nil
}

// Delete soft deletes an asset class
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "AssetClassRepository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete asset class")
		return fmt.Errorf("failed to delete asset class: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
