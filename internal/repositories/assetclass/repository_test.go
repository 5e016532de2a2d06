package assetclass

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarkuku/preqin-task/pkg/database"
	"github.com/jafarkuku/preqin-task/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeDB satisfies database.DB with stubbed query functions so repository
// logic can run without a live connection
type fakeDB struct {
	getFn func(dest any, query string, args []any) error

	queries []string
	args    [][]any
}

func (f *fakeDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported")
}
func (f *fakeDB) Close() error { return nil }
func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errors.New("not supported")
}
func (f *fakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.getFn != nil {
		return f.getFn(dest, query, args)
	}
	return sql.ErrNoRows
}
func (f *fakeDB) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return nil, errors.New("not supported")
}
func (f *fakeDB) PingContext(ctx context.Context) error { return nil }
func (f *fakeDB) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}
func (f *fakeDB) Rebind(query string) string { return query }
func (f *fakeDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (f *fakeDB) Unsafe() *sqlx.DB { return nil }
func (f *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, nil, errors.New("not supported")
}

func TestCreate_InsertsDescriptionAndDefaultStatus(t *testing.T) {
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			*dest.(*models.AssetClass) = models.AssetClass{
				ID:          "ac-1",
				Name:        "Private Equity",
				Description: "Buyouts and growth capital",
				Status:      models.AssetClassStatusActive,
			}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	result, err := repo.Create(context.Background(), models.CreateAssetClassRequest{
		Name:        "Private Equity",
		Description: "Buyouts and growth capital",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Buyouts and growth capital", result.Description)
	assert.Equal(t, models.AssetClassStatusActive, result.Status)

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "description")
	assert.Contains(t, db.queries[0], "status")
	assert.Contains(t, db.queries[0], "ON CONFLICT (name) WHERE deleted_at IS NULL DO NOTHING")
	assert.Contains(t, db.args[0], models.AssetClassStatusActive)
}

func TestCreate_KeepsExplicitStatus(t *testing.T) {
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			*dest.(*models.AssetClass) = models.AssetClass{ID: "ac-1", Name: "Hedge Funds", Status: models.AssetClassStatusInactive}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	_, err := repo.Create(context.Background(), models.CreateAssetClassRequest{
		Name:   "Hedge Funds",
		Status: models.AssetClassStatusInactive,
	})

	require.NoError(t, err)
	assert.Contains(t, db.args[0], models.AssetClassStatusInactive)
	assert.NotContains(t, db.args[0], models.AssetClassStatusActive)
}

func TestCreate_ErrorsWhenRowNotVisibleAfterConflict(t *testing.T) {
	// Insert conflicts and the follow-up lookup finds no live row. The caller
	// must get an error, never a nil asset class with a nil error.
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			return sql.ErrNoRows
		},
	}
	repo := NewRepository(db, testLogger())

	result, err := repo.Create(context.Background(), models.CreateAssetClassRequest{Name: "Infrastructure"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "not visible")
}
