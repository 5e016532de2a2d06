package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertBuilder_OnConflictDoNothing(t *testing.T) {
	ib := NewInsertBuilder().
		InsertInto("commitments").
		Cols("investor_id", "amount").
		Values("inv-1", "100").
		OnConflictDoNothing("investor_id", "amount")

	sql, args := ib.Build()

	assert.Contains(t, sql, "INSERT INTO commitments")
	assert.Contains(t, sql, "ON CONFLICT (investor_id, amount) DO NOTHING")
	assert.Contains(t, sql, "$1")
	assert.Len(t, args, 2)
}

func TestInsertBuilder_OnConflictDoNothingWithoutColumns(t *testing.T) {
	ib := NewInsertBuilder().
		InsertInto("asset_classes").
		Cols("name").
		Values("Infrastructure").
		OnConflictDoNothing()

	sql, _ := ib.Build()

	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
}

func TestInsertBuilder_OnConflictDoNothingWhere(t *testing.T) {
	ib := NewInsertBuilder().
		InsertInto("investors").
		Cols("name").
		Values("Ioo Gryffindor fund").
		OnConflictDoNothingWhere("deleted_at IS NULL", "name")

	sql, _ := ib.Build()

	assert.Contains(t, sql, "ON CONFLICT (name) WHERE deleted_at IS NULL DO NOTHING")
}

func TestInsertBuilder_ReturningAfterConflictClause(t *testing.T) {
	ib := NewInsertBuilder().
		InsertInto("asset_classes").
		Cols("name").
		Values("Infrastructure")
	ib.OnConflictDoNothing("name")

	sql, _ := ib.Returning("id", "name").Build()

	conflictIdx := strings.Index(sql, "ON CONFLICT")
	returningIdx := strings.Index(sql, "RETURNING")
	assert.GreaterOrEqual(t, conflictIdx, 0)
	assert.Greater(t, returningIdx, conflictIdx)
}
