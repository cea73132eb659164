// Package tx provides the transactional boundaries for the evolution stores.
package tx

import (
	"context"
	"sync"
	"time"

	dErrors "evonft/pkg/domain-errors"
)

// Checkpointer is implemented by in-memory stores that can undo their writes.
// restore reverts every write since Checkpoint; release discards the undo log.
type Checkpointer interface {
	Checkpoint() (restore, release func())
}

// defaultTxTimeout is the maximum duration for a transaction without its own deadline.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx serializes units of work with a single RWMutex and restores every
// participant's checkpoint when a unit fails, so failed units leave no trace.
// Read units share the lock and never observe a unit in progress.
type InMemoryTx struct {
	mu           sync.RWMutex
	participants []Checkpointer
	timeout      time.Duration
}

func NewInMemory(participants ...Checkpointer) *InMemoryTx {
	return &InMemoryTx{participants: participants, timeout: defaultTxTimeout}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	restores := make([]func(), 0, len(t.participants))
	releases := make([]func(), 0, len(t.participants))
	for _, p := range t.participants {
		restore, release := p.Checkpoint()
		restores = append(restores, restore)
		releases = append(releases, release)
	}
	defer func() {
		if r := recover(); r != nil {
			rollback(restores)
			panic(r)
		}
		if err != nil {
			rollback(restores)
			return
		}
		for _, release := range releases {
			release()
		}
	}()

	return fn(ctx)
}

// RunInReadTx runs fn under the shared lock. Writes from fn are not undone.
func (t *InMemoryTx) RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(ctx)
}

func rollback(restores []func()) {
	for i := len(restores) - 1; i >= 0; i-- {
		restores[i]()
	}
}
