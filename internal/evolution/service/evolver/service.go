// Package evolver advances an asset one stage by burning a rare unit.
package evolver

import (
	"context"
	"errors"
	"log/slog"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

// Registry resolves and mutates assets.
type Registry interface {
	GetByOwner(ctx context.Context, owner id.OwnerID) (*models.Asset, error)
	Update(ctx context.Context, assetID id.AssetID, mutate func(*models.Asset) error) (models.Transition, error)
}

// Ledger debits rare balances.
type Ledger interface {
	Burn(ctx context.Context, owner id.OwnerID, amount uint64) (uint64, error)
}

// Result is the stage change plus the owner's balance after the burn.
type Result struct {
	models.Transition
	Balance uint64
}

type Service struct {
	registry Registry
	ledger   Ledger
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(registry Registry, ledger Ledger, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if ledger == nil {
		return nil, errors.New("rare ledger is required")
	}
	s := &Service{registry: registry, ledger: ledger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EvolveWithRare burns one rare unit and raises the owner's asset by exactly
// one stage. The stage cap is checked before the burn, and a rejected burn
// leaves the asset untouched.
func (s *Service) EvolveWithRare(ctx context.Context, owner id.OwnerID) (Result, error) {
	asset, err := s.registry.GetByOwner(ctx, owner)
	if err != nil {
		return Result{}, err
	}
	if asset.Stage.IsFinal() {
		return Result{}, dErrors.New(dErrors.CodeMaxStageReached, "asset is already at the final stage")
	}

	balance, err := s.ledger.Burn(ctx, owner, 1)
	if err != nil {
		return Result{}, err
	}

	transition, err := s.registry.Update(ctx, asset.ID, func(a *models.Asset) error {
		a.Stage = a.Stage.Next()
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "stage advanced by rare burn",
			"asset_id", asset.ID,
			"from", transition.From,
			"to", transition.To,
			"balance", balance,
		)
	}
	return Result{Transition: transition, Balance: balance}, nil
}
