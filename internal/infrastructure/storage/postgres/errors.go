package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trendzportal/internal/core/apperror"
)

// PostgreSQL error codes the repositories react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError turns driver errors into AppErrors. entity names the table or
// aggregate for messages. Errors it does not recognise are wrapped with op.
func MapError(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, "")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperror.NewDuplicate(entity, constraintField(pgErr.ConstraintName), pgErr.Detail).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case codeForeignKeyViolation:
			return apperror.NewConflict(entity+" is referenced by other records").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case codeCheckViolation:
			return apperror.NewValidation(entity + " violates " + pgErr.ConstraintName).WithCause(err)
		}
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// constraintField maps the schema's unique constraints to API field names.
func constraintField(constraint string) string {
	switch constraint {
	case "uq_products_sku":
		return "sku"
	case "uq_products_barcode":
		return "barcode"
	case "uq_customers_code":
		return "code"
	case "uq_customers_walk_in":
		return "walk_in"
	case "uq_product_categories_name":
		return "name"
	case "uq_invoices_number":
		return "invoice_number"
	case "uq_purchase_orders_reference":
		return "reference"
	case "uq_users_username":
		return "username"
	case "uq_daily_revenue_date":
		return "date"
	case "uq_fin_transactions_source":
		return "source"
	case "uq_fin_categories_name":
		return "name"
	case "uq_inventory_source_line":
		return "source_line_id"
	case "uq_sold_items_line":
		return "invoice_item_id"
	}
	return constraint
}
