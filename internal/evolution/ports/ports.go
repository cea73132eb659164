// Package ports defines the storage and side-channel interfaces of the
// evolution ledger. Stores are pure I/O: invariants live in the services.
package ports

import (
	"context"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	"evonft/pkg/platform/audit"
)

// AssetStore owns asset records and the owner index.
type AssetStore interface {
	// Create allocates the next sequential id and inserts a fresh asset.
	// Returns sentinel.ErrConflict if owner is already indexed.
	Create(ctx context.Context, owner id.OwnerID) (*models.Asset, error)

	// FindByID returns sentinel.ErrNotFound for unknown ids.
	FindByID(ctx context.Context, assetID id.AssetID) (*models.Asset, error)

	// FindByOwner returns sentinel.ErrNotFound if owner holds no asset.
	FindByOwner(ctx context.Context, owner id.OwnerID) (*models.Asset, error)

	// Update overwrites stage and activity. Returns sentinel.ErrNotFound for unknown ids.
	Update(ctx context.Context, asset *models.Asset) error

	// List returns every asset ordered by id.
	List(ctx context.Context) ([]models.Asset, error)
}

// RareStore owns rare-asset balances.
type RareStore interface {
	// Balance returns zero for owners that never held rare units.
	Balance(ctx context.Context, owner id.OwnerID) (uint64, error)

	SetBalance(ctx context.Context, owner id.OwnerID, balance uint64) error

	// List returns every non-zero balance ordered by owner.
	List(ctx context.Context) ([]models.RareBalance, error)
}

// Journal is the ordered log of committed commands.
type Journal interface {
	// Append assigns the next sequence number and stores the entry.
	Append(ctx context.Context, entry models.JournalEntry) (uint64, error)

	// List returns up to limit entries with sequence >= from, in order.
	List(ctx context.Context, from uint64, limit int) ([]models.JournalEntry, error)
}

// JournalMirror receives committed entries after commit, for off-ledger
// verifiers. Mirrors are best effort; the journal is the source of truth.
type JournalMirror interface {
	Mirror(ctx context.Context, entry models.JournalEntry) error
}

// Tx runs fn as one all-or-nothing unit, serialized with every other unit.
// Stores reached through ctx inside fn participate in the transaction.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// RunInReadTx runs fn against one consistent committed state. It never
	// observes a RunInTx unit in progress.
	RunInReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditPublisher emits audit events for committed and rejected commands.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
