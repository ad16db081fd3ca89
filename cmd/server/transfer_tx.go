package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "caseflow/pkg/domain-errors"
	txcontext "caseflow/pkg/platform/tx"
)

const defaultTransferTxTimeout = 5 * time.Second

// transferPostgresTx runs a transfer unit of work in one database/sql
// transaction. Stores pick the transaction up from the context.
type transferPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTransferPostgresTx(db *sql.DB, timeout time.Duration) *transferPostgresTx {
	return &transferPostgresTx{db: db, timeout: timeout}
}

func (t *transferPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTransferTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
