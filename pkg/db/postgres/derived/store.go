package derived

import (
	"context"
	"fmt"

	"github.com/desoc-network/govx/pkg/db/postgres"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/desoc-network/govx/pkg/projection"
	"github.com/jackc/pgx/v5"
)

var _ projection.Store = (*DB)(nil)

// Apply writes all mutations in one transaction. When ctx already carries a
// transaction (see postgres.Client.WithTx) the mutations join it instead.
func (db *DB) Apply(ctx context.Context, mutations []projection.Mutation) error {
	batch := &pgx.Batch{}
	for _, m := range mutations {
		stmt, ok, err := buildStatement(m)
		if err != nil {
			return err
		}
		if ok {
			batch.Queue(stmt.sql, stmt.args...)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	if _, ok := postgres.TxFromContext(ctx); ok {
		return db.executeBatch(ctx, db.GetExecutor(ctx), batch)
	}
	return db.BeginFunc(ctx, func(tx pgx.Tx) error {
		return db.executeBatch(ctx, tx, batch)
	})
}

func (db *DB) executeBatch(ctx context.Context, exec postgres.Executor, batch *pgx.Batch) error {
	br := exec.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}
	return nil
}

// Get reads one row by id.
func (db *DB) Get(ctx context.Context, table schema.Table, id string) (projection.Row, bool, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1",
		pgx.Identifier{table.Name()}.Sanitize(), pgx.Identifier{schema.KeyColumn}.Sanitize())

	rows, err := db.GetExecutor(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, false, fmt.Errorf("query %s %s: %w", table.Name(), id, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if postgres.IsNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan %s %s: %w", table.Name(), id, err)
	}
	return projection.Row(row), true, nil
}
