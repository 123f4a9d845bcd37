package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/table_reservation/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transactor runs work in a transaction holding a transaction-scoped
// advisory lock on the scope key. Repositories called with the returned
// context use that transaction.
type Transactor struct {
	pool        *pgxpool.Pool
	lockTimeout string
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool, lockTimeout: "2s"}
}

func (t *Transactor) RunInScope(ctx context.Context, scope string, fn func(ctx context.Context) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", base.Classify(err))
	}
	defer tx.Rollback(ctx)

	// lock waits past the timeout fail with 55P03 and are retried
	if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", t.lockTimeout); err != nil {
		return fmt.Errorf("set lock timeout: %w", base.Classify(err))
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", scope); err != nil {
		return fmt.Errorf("lock scope %s: %w", scope, base.Classify(err))
	}

	if err := fn(base.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", base.Classify(err))
	}

	return nil
}
