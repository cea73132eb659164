package engine

import (
	"context"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

// MaxJournalPage bounds a single journal read.
const MaxJournalPage = 1000

func (e *Engine) IssueAsset(ctx context.Context, caller id.OwnerID) (id.AssetID, error) {
	res, err := e.Apply(ctx, models.Command{Kind: models.CommandIssue, Caller: caller})
	if err != nil {
		return 0, err
	}
	return res.AssetID, nil
}

// RecordActivity records one activity event on the caller's own asset.
func (e *Engine) RecordActivity(ctx context.Context, caller id.OwnerID) (models.Stage, error) {
	res, err := e.Apply(ctx, models.Command{Kind: models.CommandRecordActivity, Caller: caller})
	if err != nil {
		return 0, err
	}
	return res.Stage, nil
}

func (e *Engine) AcquireRare(ctx context.Context, caller id.OwnerID, amount uint64) (uint64, error) {
	res, err := e.Apply(ctx, models.Command{Kind: models.CommandAcquireRare, Caller: caller, Amount: amount})
	if err != nil {
		return 0, err
	}
	return res.Balance, nil
}

func (e *Engine) EvolveWithRare(ctx context.Context, caller id.OwnerID) (models.Stage, error) {
	res, err := e.Apply(ctx, models.Command{Kind: models.CommandEvolveWithRare, Caller: caller})
	if err != nil {
		return 0, err
	}
	return res.Stage, nil
}

// view runs read against one committed state, never a command in progress.
func view[T any](ctx context.Context, e *Engine, read func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.stores.Tx.RunInReadTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = read(ctx)
		return err
	})
	return out, err
}

func (e *Engine) GetOwnedAsset(ctx context.Context, identity id.OwnerID) (id.AssetID, error) {
	return view(ctx, e, func(ctx context.Context) (id.AssetID, error) {
		return e.registry.LookupOwner(ctx, identity)
	})
}

func (e *Engine) GetStage(ctx context.Context, assetID id.AssetID) (models.Stage, error) {
	return view(ctx, e, func(ctx context.Context) (models.Stage, error) {
		return e.registry.GetStage(ctx, assetID)
	})
}

func (e *Engine) GetTokenURI(ctx context.Context, assetID id.AssetID) (string, error) {
	return view(ctx, e, func(ctx context.Context) (string, error) {
		return e.metadata.TokenURI(ctx, assetID)
	})
}

func (e *Engine) GetAsset(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	return view(ctx, e, func(ctx context.Context) (*models.Asset, error) {
		return e.registry.Get(ctx, assetID)
	})
}

func (e *Engine) RareBalance(ctx context.Context, owner id.OwnerID) (uint64, error) {
	return view(ctx, e, func(ctx context.Context) (uint64, error) {
		return e.ledger.Balance(ctx, owner)
	})
}

// Journal returns up to limit committed entries starting at sequence from.
func (e *Engine) Journal(ctx context.Context, from uint64, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 || limit > MaxJournalPage {
		limit = MaxJournalPage
	}
	return view(ctx, e, func(ctx context.Context) ([]models.JournalEntry, error) {
		entries, err := e.stores.Journal.List(ctx, from, limit)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read journal")
		}
		return entries, nil
	})
}

// Snapshot reads assets and balances inside one read transaction so the two
// halves describe the same point in the command sequence.
func (e *Engine) Snapshot(ctx context.Context) (models.State, error) {
	var state models.State
	err := e.stores.Tx.RunInReadTx(ctx, func(ctx context.Context) error {
		assets, err := e.stores.Assets.List(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assets")
		}
		balances, err := e.stores.Balances.List(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rare balances")
		}
		state = models.State{Assets: assets, Balances: balances}
		return nil
	})
	if err != nil {
		return models.State{}, err
	}
	state.Canonicalize()
	return state, nil
}

func (e *Engine) Digest(ctx context.Context) (string, error) {
	state, err := e.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	digest, err := state.Digest()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to digest state")
	}
	return digest, nil
}
