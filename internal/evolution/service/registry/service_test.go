package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"evonft/internal/evolution/models"
	"evonft/internal/evolution/store/asset"
	dErrors "evonft/pkg/domain-errors"
)

// =============================================================================
// Registry Service Test Suite
// =============================================================================
// Justification for unit tests: the registry translates store facts into the
// ledger's error kinds and guards stage monotonicity for every writer.

type RegistryServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceSuite))
}

func (s *RegistryServiceSuite) SetupTest() {
	var err error
	s.service, err = New(asset.NewInMemory())
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *RegistryServiceSuite) TestNew() {
	_, err := New(nil)
	s.ErrorContains(err, "asset store is required")
}

func (s *RegistryServiceSuite) TestIssue() {
	s.Run("fresh asset starts at stage one with no activity", func() {
		issued, err := s.service.Issue(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(uint64(1), uint64(issued.ID))
		s.Equal(models.StageInitial, issued.Stage)
		s.Zero(issued.Activity)
	})

	s.Run("second issuance for an owner fails with already owns", func() {
		_, err := s.service.Issue(s.ctx, "alice")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyOwns))

		bob, err := s.service.Issue(s.ctx, "bob")
		s.Require().NoError(err)
		s.Equal(uint64(2), uint64(bob.ID), "rejected issuance must not consume an id")
	})

	s.Run("empty owner is invalid input", func() {
		_, err := s.service.Issue(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *RegistryServiceSuite) TestLookups() {
	issued, err := s.service.Issue(s.ctx, "alice")
	s.Require().NoError(err)

	assetID, err := s.service.LookupOwner(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(issued.ID, assetID)

	stage, err := s.service.GetStage(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal(models.StageInitial, stage)

	_, err = s.service.LookupOwner(s.ctx, "nobody")
	s.True(dErrors.HasCode(err, dErrors.CodeNoAsset))

	_, err = s.service.GetStage(s.ctx, 404)
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownAsset))
}

func (s *RegistryServiceSuite) TestUpdate() {
	issued, err := s.service.Issue(s.ctx, "alice")
	s.Require().NoError(err)

	s.Run("raises stage and reports the transition", func() {
		tr, err := s.service.Update(s.ctx, issued.ID, func(a *models.Asset) error {
			a.Stage = models.StageIntermediate
			return nil
		})
		s.Require().NoError(err)
		s.Equal(models.StageInitial, tr.From)
		s.Equal(models.StageIntermediate, tr.To)
		s.True(tr.Advanced())
	})

	s.Run("lowering stage is an invariant violation and writes nothing", func() {
		_, err := s.service.Update(s.ctx, issued.ID, func(a *models.Asset) error {
			a.Stage = models.StageInitial
			a.Activity = 99
			return nil
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		current, err := s.service.Get(s.ctx, issued.ID)
		s.Require().NoError(err)
		s.Equal(models.StageIntermediate, current.Stage)
		s.Zero(current.Activity)
	})

	s.Run("stage above the final stage is rejected", func() {
		_, err := s.service.Update(s.ctx, issued.ID, func(a *models.Asset) error {
			a.Stage = models.MaxStage + 1
			return nil
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("owner is immutable", func() {
		_, err := s.service.Update(s.ctx, issued.ID, func(a *models.Asset) error {
			a.Owner = "mallory"
			return nil
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("mutate errors are returned unchanged", func() {
		boom := errors.New("boom")
		_, err := s.service.Update(s.ctx, issued.ID, func(*models.Asset) error { return boom })
		s.ErrorIs(err, boom)
	})

	s.Run("unknown asset", func() {
		_, err := s.service.Update(s.ctx, 404, func(*models.Asset) error { return nil })
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownAsset))
	})
}
