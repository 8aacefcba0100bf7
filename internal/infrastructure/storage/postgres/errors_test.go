package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"trendzportal/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_products_sku", Detail: "Key (tenant_id, sku)=(t, A) already exists."}
	err := MapError(dup, "product", "insert")
	ae, ok := apperror.AsAppError(err)
	if assert.True(t, ok) {
		assert.Equal(t, apperror.CodeDuplicate, ae.Code)
		assert.Equal(t, "sku", ae.Details["field"])
	}
	assert.True(t, IsUniqueViolation(err))

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "fk_invoice_items_product"}
	assert.True(t, apperror.HasCode(MapError(fk, "product", "delete"), apperror.CodeConflict))

	assert.True(t, apperror.IsNotFound(MapError(pgx.ErrNoRows, "invoice", "get")))

	plain := errors.New("boom")
	wrapped := MapError(plain, "invoice", "update")
	assert.ErrorIs(t, wrapped, plain)
	assert.False(t, apperror.IsAppError(wrapped))

	assert.NoError(t, MapError(nil, "x", "y"))
}
