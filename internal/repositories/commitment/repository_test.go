package commitment

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
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
	getFn    func(dest any, query string, args []any) error
	selectFn func(dest any, query string, args []any) error

	queries []string
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
	return ctx, nil, errors.New("not supported")
}

func TestList_ReturnsTotalAmountOverFilteredSet(t *testing.T) {
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			switch d := dest.(type) {
			case *int:
				*d = 3
			case *decimal.Decimal:
				*d = decimal.RequireFromString("600.50")
			}
			return nil
		},
		selectFn: func(dest any, query string, args []any) error {
			*dest.(*[]models.Commitment) = []models.Commitment{
				{ID: "c-1", InvestorID: "inv-1", Amount: decimal.NewFromInt(100)},
			}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	items, totalCount, totalAmount, err := repo.List(context.Background(), "inv-1", 1, 1)

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, totalCount)
	assert.True(t, totalAmount.Equal(decimal.RequireFromString("600.50")))

	// The sum covers the whole filtered set, not the returned page
	var sumQuery string
	for _, q := range db.queries {
		if strings.Contains(q, "SUM(amount)") {
			sumQuery = q
		}
	}
	require.NotEmpty(t, sumQuery)
	assert.Contains(t, sumQuery, "COALESCE(SUM(amount), 0)")
	assert.Contains(t, sumQuery, "investor_id")
	assert.NotContains(t, sumQuery, "LIMIT")
}

func TestList_SumErrorFailsListing(t *testing.T) {
	db := &fakeDB{
		getFn: func(dest any, query string, args []any) error {
			if strings.Contains(query, "SUM(amount)") {
				return errors.New("sum failed")
			}
			if d, ok := dest.(*int); ok {
				*d = 1
			}
			return nil
		},
	}
	repo := NewRepository(db, testLogger())

	_, _, _, err := repo.List(context.Background(), "", 1, 20)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sum commitments")
}
