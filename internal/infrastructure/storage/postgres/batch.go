package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"trendzportal/internal/core/tenant"
)

// BatchInserter bulk-inserts rows with the COPY protocol.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table. Each row must match columns.
// Must run inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	for _, row := range rows {
		for i, v := range row {
			cv, err := copyValue(v)
			if err != nil {
				return 0, fmt.Errorf("copy %s.%s: %w", table, columns[i], err)
			}
			row[i] = cv
		}
	}
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// copyValue converts values COPY cannot encode in binary format.
func copyValue(v any) (any, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		var n pgtype.Numeric
		if err := n.Scan(x.String()); err != nil {
			return nil, err
		}
		return n, nil
	case tenant.ID:
		return uuid.Parse(string(x))
	}
	return v, nil
}

// CopyStructs inserts items into table using their db tags for columns.
// The tenant_id column is always written from tn.
func CopyStructs[T any](ctx context.Context, b *BatchInserter, table string, tn tenant.ID, items []T) (int64, error) {
	columns := ExtractDBColumns[T]()
	if !slices.Contains(columns, "tenant_id") {
		columns = append([]string{"tenant_id"}, columns...)
	}
	rows := make([][]any, 0, len(items))
	for i := range items {
		m := StructToMap(&items[i])
		m["tenant_id"] = tn
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = m[c]
		}
		rows = append(rows, row)
	}
	return b.CopyFromSlice(ctx, table, columns, rows)
}
