// Package registry owns asset records and the owner index. Every other
// component reads and writes assets through it.
package registry

import (
	"context"
	"errors"
	"log/slog"

	"evonft/internal/evolution/models"
	"evonft/internal/evolution/ports"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
	"evonft/pkg/platform/sentinel"
)

type Service struct {
	assets ports.AssetStore
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(assets ports.AssetStore, opts ...Option) (*Service, error) {
	if assets == nil {
		return nil, errors.New("asset store is required")
	}
	s := &Service{assets: assets}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue creates the owner's asset at the initial stage. An owner may hold
// only one asset; a rejected issuance does not consume an identifier.
func (s *Service) Issue(ctx context.Context, owner id.OwnerID) (*models.Asset, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner identity is required")
	}
	asset, err := s.assets.Create(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyOwns, "owner already holds an asset")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue asset")
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "asset created", "asset_id", asset.ID, "owner", owner)
	}
	return asset, nil
}

func (s *Service) LookupOwner(ctx context.Context, owner id.OwnerID) (id.AssetID, error) {
	asset, err := s.GetByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	return asset.ID, nil
}

func (s *Service) GetByOwner(ctx context.Context, owner id.OwnerID) (*models.Asset, error) {
	asset, err := s.assets.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoAsset, "owner holds no asset")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up owner")
	}
	return asset, nil
}

func (s *Service) Get(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnknownAsset, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
	}
	return asset, nil
}

func (s *Service) GetStage(ctx context.Context, assetID id.AssetID) (models.Stage, error) {
	asset, err := s.Get(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return asset.Stage, nil
}

func (s *Service) List(ctx context.Context) ([]models.Asset, error) {
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assets")
	}
	return assets, nil
}

// Update loads the asset, applies mutate to a copy and persists it. The
// result must keep the stage within range and never lower it; mutate errors
// are returned unchanged and nothing is written.
func (s *Service) Update(ctx context.Context, assetID id.AssetID, mutate func(*models.Asset) error) (models.Transition, error) {
	current, err := s.Get(ctx, assetID)
	if err != nil {
		return models.Transition{}, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return models.Transition{}, err
	}
	if next.ID != current.ID || next.Owner != current.Owner {
		return models.Transition{}, dErrors.New(dErrors.CodeInvariantViolation, "asset identity is immutable")
	}
	if !next.Stage.IsValid() {
		return models.Transition{}, dErrors.New(dErrors.CodeInvariantViolation, "stage out of range")
	}
	if next.Stage < current.Stage {
		return models.Transition{}, dErrors.New(dErrors.CodeInvariantViolation, "stage cannot decrease")
	}

	if err := s.assets.Update(ctx, next); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Transition{}, dErrors.New(dErrors.CodeUnknownAsset, "asset not found")
		}
		return models.Transition{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
	}

	return models.Transition{
		AssetID:  next.ID,
		From:     current.Stage,
		To:       next.Stage,
		Activity: next.Activity,
	}, nil
}
