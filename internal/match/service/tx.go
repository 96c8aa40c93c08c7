package service

import (
	"context"
	"sync"
	"time"

	dErrors "lifelink/pkg/domain-errors"
)

// TxRunner provides the transactional boundary around multi-record lifecycle
// side effects. Implementations wrap a database transaction or, in-memory, a
// coarse lock; either way the function runs as a single logical unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout caps a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

// MemoryTxRunner serializes transitions with one mutex. Enough for the
// in-memory stores, where the only mid-transaction failures are validation
// errors raised before any mutation.
type MemoryTxRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (t *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
