package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dErrors "evonft/pkg/domain-errors"
	txcontext "evonft/pkg/platform/tx"
)

// LedgerLockKey is the advisory lock every ledger transaction takes, so
// mutations run one at a time across all service replicas.
const LedgerLockKey int64 = 0x65766f6e6674 // "evonft"

// PostgresTx runs units of work in a READ COMMITTED transaction holding the
// ledger advisory lock. Statements after the lock see every earlier commit,
// which SERIALIZABLE would not: its snapshot is taken by the lock statement.
// Stores pick the transaction up from ctx.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return fn(ctx)
	}

	sqlTx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, LedgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err = fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

// RunInReadTx runs fn in a read-only REPEATABLE READ transaction, so every
// read in fn sees the same committed snapshot. It takes no ledger lock.
func (t *PostgresTx) RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, inTx := txcontext.From(ctx); inTx {
		return fn(ctx)
	}

	sqlTx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("begin ledger read transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger read transaction: %w", err)
	}
	return nil
}
