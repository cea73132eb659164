// Package activity counts usage events and raises stage at fixed thresholds.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

// Registry is the asset accessor the accountant mutates through.
type Registry interface {
	Update(ctx context.Context, assetID id.AssetID, mutate func(*models.Asset) error) (models.Transition, error)
}

type Service struct {
	registry Registry
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(registry Registry, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Service{registry: registry}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordActivity increments the activity count and recomputes the stage as
// the greater of the current stage and the count's threshold stage, so a
// stage reached by burning rare units is never lowered.
func (s *Service) RecordActivity(ctx context.Context, assetID id.AssetID) (models.Transition, error) {
	transition, err := s.registry.Update(ctx, assetID, func(asset *models.Asset) error {
		if asset.Activity == math.MaxUint64 {
			return dErrors.New(dErrors.CodeInvariantViolation, "activity counter exhausted")
		}
		asset.Activity++
		asset.Stage = max(asset.Stage, models.StageForActivity(asset.Activity))
		return nil
	})
	if err != nil {
		return models.Transition{}, err
	}
	if s.logger != nil && transition.Advanced() {
		s.logger.DebugContext(ctx, "stage advanced by activity",
			"asset_id", assetID,
			"from", transition.From,
			"to", transition.To,
			"activity", transition.Activity,
		)
	}
	return transition, nil
}
