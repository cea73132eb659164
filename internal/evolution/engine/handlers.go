package engine

import (
	"context"

	"evonft/internal/evolution/models"
	dErrors "evonft/pkg/domain-errors"
)

// Stage transition causes, used as metric labels and audit reasons.
const (
	causeActivity = "activity"
	causeRareBurn = "rare_burn"
)

// outcome is what a handler produced inside the transaction. Side effects
// (audit, metrics, mirror) are derived from it after commit.
type outcome struct {
	result     models.Result
	entry      models.JournalEntry
	transition *models.Transition
	cause      string
}

type handlerFunc func(ctx context.Context, cmd models.Command) (outcome, error)

// handlerTable maps the closed set of command kinds onto services.
func (e *Engine) handlerTable() map[models.CommandKind]handlerFunc {
	return map[models.CommandKind]handlerFunc{
		models.CommandIssue:          e.handleIssue,
		models.CommandRecordActivity: e.handleRecordActivity,
		models.CommandAcquireRare:    e.handleAcquireRare,
		models.CommandEvolveWithRare: e.handleEvolveWithRare,
	}
}

func (e *Engine) handleIssue(ctx context.Context, cmd models.Command) (outcome, error) {
	if cmd.Amount != 0 {
		return outcome{}, dErrors.New(dErrors.CodeBadRequest, "issue takes no amount")
	}
	asset, err := e.registry.Issue(ctx, cmd.Caller)
	if err != nil {
		return outcome{}, err
	}
	return outcome{result: models.Result{AssetID: asset.ID, Stage: asset.Stage}}, nil
}

func (e *Engine) handleRecordActivity(ctx context.Context, cmd models.Command) (outcome, error) {
	if cmd.Amount != 0 {
		return outcome{}, dErrors.New(dErrors.CodeBadRequest, "record_activity takes no amount")
	}
	assetID, err := e.registry.LookupOwner(ctx, cmd.Caller)
	if err != nil {
		return outcome{}, err
	}
	tr, err := e.activity.RecordActivity(ctx, assetID)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		result:     models.Result{AssetID: tr.AssetID, Stage: tr.To},
		transition: &tr,
		cause:      causeActivity,
	}, nil
}

func (e *Engine) handleAcquireRare(ctx context.Context, cmd models.Command) (outcome, error) {
	balance, err := e.ledger.Acquire(ctx, cmd.Caller, cmd.Amount)
	if err != nil {
		return outcome{}, err
	}
	return outcome{result: models.Result{Balance: balance}}, nil
}

func (e *Engine) handleEvolveWithRare(ctx context.Context, cmd models.Command) (outcome, error) {
	if cmd.Amount != 0 {
		return outcome{}, dErrors.New(dErrors.CodeBadRequest, "evolve_with_rare takes no amount")
	}
	res, err := e.evolver.EvolveWithRare(ctx, cmd.Caller)
	if err != nil {
		return outcome{}, err
	}
	return outcome{
		result:     models.Result{AssetID: res.AssetID, Stage: res.To, Balance: res.Balance},
		transition: &res.Transition,
		cause:      causeRareBurn,
	}, nil
}
