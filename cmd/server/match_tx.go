package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "lifelink/pkg/domain-errors"
	txcontext "lifelink/pkg/platform/tx"
)

const defaultMatchTxTimeout = 5 * time.Second

// matchPostgresTx runs lifecycle transitions inside one SQL transaction. The
// transaction travels through context, so the stores join it without knowing
// who opened it.
type matchPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newMatchPostgresTx(db *sql.DB) *matchPostgresTx {
	return &matchPostgresTx{db: db}
}

func (t *matchPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultMatchTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
