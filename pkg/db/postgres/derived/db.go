// Package derived stores the projected governance tables in PostgreSQL.
package derived

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desoc-network/govx/pkg/db/postgres"
	"github.com/desoc-network/govx/pkg/db/schema"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DB is the derived store backed by a PostgreSQL pool.
type DB struct {
	*postgres.Client
	Schema *schema.Schema
}

// NewWithPoolConfig connects to dbURL and creates any missing table.
func NewWithPoolConfig(ctx context.Context, logger *zap.Logger, dbURL string, sch *schema.Schema, poolConfig postgres.PoolConfig) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(
		zap.String("component", poolConfig.Component),
	), dbURL, poolConfig)
	if err != nil {
		return nil, err
	}

	db := &DB{
		Client: client,
		Schema: sch,
	}
	if err := db.InitializeDB(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return db, nil
}

// InitializeDB ensures every derived table and its indexes exist.
// Tables have no foreign keys between them, so they are created in parallel.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()
	tables := db.Schema.Tables()

	var wg sync.WaitGroup
	var existing atomic.Int32
	errChan := make(chan error, len(tables))

	for _, table := range tables {
		wg.Add(1)
		go func(t schema.Table) {
			defer wg.Done()
			exists, err := db.TableExists(ctx, t.Name())
			if err != nil {
				errChan <- fmt.Errorf("init %s: %w", t.Name(), err)
				return
			}
			if exists {
				existing.Add(1)
			}
			db.Logger.Debug("Initializing table",
				zap.String("table", t.Name()),
				zap.Bool("exists", exists))
			// Indexes may be missing on an existing table.
			if err := db.Exec(ctx, CreateTableSQL(t)); err != nil {
				errChan <- fmt.Errorf("init %s: %w", t.Name(), err)
			}
		}(table)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	db.Logger.Info("Derived database initialized successfully",
		zap.Int("tables", len(tables)),
		zap.Int32("existing", existing.Load()),
		zap.Duration("duration", time.Since(initStart)))

	return nil
}

// CreateTableSQL renders the idempotent DDL for one table and its indexes.
func CreateTableSQL(t schema.Table) string {
	name := pgx.Identifier{t.Name()}.Sanitize()

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", name)
	fmt.Fprintf(&b, "\t%s TEXT PRIMARY KEY", pgx.Identifier{schema.KeyColumn}.Sanitize())
	for _, c := range t.Columns {
		b.WriteString(",\n\t")
		b.WriteString(c.DDL())
	}
	b.WriteString("\n);\n")

	for _, col := range t.Indexes {
		index := pgx.Identifier{fmt.Sprintf("idx_%s_%s", t.Name(), col)}.Sanitize()
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS %s ON %s(%s);\n", index, name, pgx.Identifier{col}.Sanitize())
	}
	return b.String()
}
