package service

import (
	"context"
	"sync"
	"time"

	dErrors "caseflow/pkg/domain-errors"
	txcontext "caseflow/pkg/platform/tx"
)

// defaultTxTimeout bounds a unit of work that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx is the unit of work for in-memory stores: one coarse lock, and a
// snapshot of every participant restored when fn fails or panics.
type InMemoryTx struct {
	mu           sync.Mutex
	participants []txcontext.Snapshotter
	timeout      time.Duration
}

func NewInMemoryTx(participants ...txcontext.Snapshotter) *InMemoryTx {
	return &InMemoryTx{participants: participants, timeout: defaultTxTimeout}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	restores := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restores = append(restores, p.Snapshot())
	}
	rollback := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		rollback()
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
	}
	return nil
}
