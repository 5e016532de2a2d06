package investor

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

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

// fakeDB satisfies database.DB with stubbed query functions so repository
// logic can run without a live connection
type fakeDB struct {
	getFn    func(dest any, query string, args []any) error
	selectFn func(dest any, query string, args []any) error
	execFn   func(query string, args []any) (sql.Result, error)

	queries []string
}

func (f *fakeDB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("not supported")
}
func (f *fakeDB) Close() error { return nil }
func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	if f.execFn != nil {
		return f.execFn(query, args)
	}
	return fakeResult{rows: 1}, nil
}
func (f *fakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	f.queries = append(f.queries, query)
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
	f.queries = append(f.queries, query)
	if f.selectFn != nil {
		return f.selectFn(dest, query, args)
	}
	return nil
}
func (f *fakeDB) Unsafe() *sqlx.DB { return nil }
func (f *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, &fakeTx{db: f}, nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) IsOpen() bool { return true }

func (t *fakeTx) Commit(ctx context.Context) error { return nil }

func (t *fakeTx) Rollback(ctx context.Context) error { return nil }
func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.db.ExecContext(ctx, query, args...)
}
func (t *fakeTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return t.db.GetContext(ctx, dest, query, args...)
}
func (t *fakeTx) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return nil, errors.New("not supported")
}
func (t *fakeTx) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}
func (t *fakeTx) Rebind(query string) string { return query }
func (t *fakeTx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return t.db.SelectContext(ctx, dest, query, args...)
}

func TestCreate_InsertTargetsLiveRows(t *testing.T) {
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			*dest.(*models.Investor) = models.Investor{ID: "inv-1", Name: "Ioo Gryffindor fund"}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	result, err := repo.Create(context.Background(), models.CreateInvestorRequest{Name: "Ioo Gryffindor fund"})

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "ON CONFLICT (name) WHERE deleted_at IS NULL DO NOTHING")
}

func TestCreate_ErrorsWhenRowNotVisibleAfterConflict(t *testing.T) {
	// Insert conflicts and the follow-up lookup finds no live row. The caller
	// must get an error, never a nil investor with a nil error.
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			return sql.ErrNoRows
		},
	}
	repo := NewRepository(db, testLogger())

	result, err := repo.Create(context.Background(), models.CreateInvestorRequest{Name: "Cza Weasley fund"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "not visible")
}

func TestBulkCreate_ResponseIsPrefixOfRequest(t *testing.T) {
	// Only the first and third names load back. The response must stop at the
	// gap so callers zipping positionally never pair a name with another
	// investor's id.
	db := &fakeDB{
		selectFn: func(dest any, query string, args []any) error {
			*dest.(*[]models.Investor) = []models.Investor{
				{ID: "inv-A", Name: "A"},
				{ID: "inv-C", Name: "C"},
			}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	items, err := repo.BulkCreate(context.Background(), []models.CreateInvestorRequest{
		{Name: "A"}, {Name: "B"}, {Name: "C"},
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "inv-A", items[0].ID)
	assert.Equal(t, "A", items[0].Name)
}

func TestBulkCreate_PreservesRequestOrder(t *testing.T) {
	db := &fakeDB{
		selectFn: func(dest any, query string, args []any) error {
			// The select comes back in table order, not request order
			*dest.(*[]models.Investor) = []models.Investor{
				{ID: "inv-B", Name: "B"},
				{ID: "inv-A", Name: "A"},
			}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	items, err := repo.BulkCreate(context.Background(), []models.CreateInvestorRequest{
		{Name: "A"}, {Name: "B"},
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "inv-A", items[0].ID)
	assert.Equal(t, "inv-B", items[1].ID)
}
