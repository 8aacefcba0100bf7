package catalog_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/id"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/core/types"
	"trendzportal/internal/domain"
	"trendzportal/internal/domain/catalog"
)

const testTenant = tenant.ID("0b0e7c3a-4a0f-4f53-9d0c-5c2e4c9a1f01")

func TestParseOrderBy(t *testing.T) {
	repo := NewProductRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-created_at")
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC", got)

	_, err = repo.parseOrderBy("name; DROP TABLE products")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = repo.parseOrderBy("tenant_id")
	assert.Error(t, err)

	customers := NewCustomerRepo(nil)
	got, err = customers.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "full_name ASC", got)
}

func TestApplyFilter(t *testing.T) {
	repo := NewSupplierRepo(nil)
	ids := []id.ID{id.New()}

	q := repo.applyFilter(repo.Builder().Select("id").From("suppliers"), domain.ListFilter{Search: " acme ", IDs: ids})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id FROM suppliers WHERE (name ILIKE $1 OR contact_person ILIKE $2 OR email ILIKE $3) AND id IN ($4)",
		sql)
	assert.Equal(t, []any{"%acme%", "%acme%", "%acme%", ids[0]}, args)
}

func TestUpdateSkipsImmutableColumns(t *testing.T) {
	repo := NewProductRepo(nil)
	p := catalog.NewProduct("Charger", "CHG-1", types.MustMoney("10"), types.MustMoney("15"))
	p.Version = 3

	q, err := repo.updateQuery(testTenant, p)
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "UPDATE products SET "))
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	set := sql[:strings.Index(sql, " WHERE ")]
	for _, col := range []string{"stock =", "barcode =", "tenant_id =", "created_at =", " id ="} {
		assert.NotContains(t, set, col)
	}
	assert.Contains(t, sql, "RETURNING id, tenant_id, version")
	assert.Contains(t, args, 3)
	assert.Contains(t, args, testTenant)
}

func TestLockQueryOrdersIDs(t *testing.T) {
	repo := NewProductRepo(nil)
	a, b := id.New(), id.New()
	if id.Less(b, a) {
		a, b = b, a
	}

	sql, args, err := repo.lockQuery(testTenant, []id.ID{b, a, b}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, "FROM products WHERE tenant_id = $1 AND id IN ($2,$3) ORDER BY id FOR UPDATE"), sql)
	assert.Equal(t, testTenant, args[0])
	assert.Equal(t, a, args[1])
	assert.Equal(t, b, args[2])
}
