package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/entity"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
)

type testRow struct {
	entity.Base
	Name   string          `db:"name"`
	Amount decimal.Decimal `db:"amount"`
	Note   string          `db:"-"`
	Skip   string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testRow]()
	assert.Equal(t, []string{"id", "tenant_id", "version", "created_at", "updated_at", "name", "amount"}, cols)
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	row := testRow{Name: "Phone case", Amount: decimal.RequireFromString("12.50"), Note: "x"}
	row.Stamp(tenant.ID("b7f1c2a4-1b2c-4d5e-8f90-123456789abc"), now)

	m := StructToMap(&row)

	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, row.TenantID, m["tenant_id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "Phone case", m["name"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 7)
}

func TestCopyValue(t *testing.T) {
	v, err := copyValue(decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	n, ok := v.(pgtype.Numeric)
	require.True(t, ok)
	assert.True(t, n.Valid)

	tn := tenant.ID("b7f1c2a4-1b2c-4d5e-8f90-123456789abc")
	v, err = copyValue(tn)
	require.NoError(t, err)
	assert.Equal(t, string(tn), v.(id.ID).String())

	_, err = copyValue(tenant.ID("not-a-uuid"))
	assert.Error(t, err)

	assert.Equal(t, "plain", mustCopy(t, "plain"))
}

func mustCopy(t *testing.T, v any) any {
	t.Helper()
	out, err := copyValue(v)
	require.NoError(t, err)
	return out
}
