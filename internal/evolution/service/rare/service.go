// Package rare owns the per-owner balances of the companion rare asset.
package rare

import (
	"context"
	"errors"
	"log/slog"

	"evonft/internal/evolution/ports"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

type Service struct {
	balances ports.RareStore
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(balances ports.RareStore, opts ...Option) (*Service, error) {
	if balances == nil {
		return nil, errors.New("rare balance store is required")
	}
	s := &Service{balances: balances}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Acquire credits amount units and returns the new balance. Zero amounts and
// credits that would overflow the balance are rejected.
func (s *Service) Acquire(ctx context.Context, owner id.OwnerID, amount uint64) (uint64, error) {
	if owner.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "owner identity is required")
	}
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	balance, err := s.Balance(ctx, owner)
	if err != nil {
		return 0, err
	}
	if amount > ^uint64(0)-balance {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount would overflow balance")
	}
	balance += amount
	if err := s.balances.SetBalance(ctx, owner, balance); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit rare balance")
	}
	return balance, nil
}

// Burn debits amount units and returns the new balance. The balance is left
// untouched when it holds fewer than amount units.
func (s *Service) Burn(ctx context.Context, owner id.OwnerID, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	balance, err := s.Balance(ctx, owner)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "burn rejected", "owner", owner, "balance", balance, "amount", amount)
		}
		return 0, dErrors.New(dErrors.CodeInsufficientBalance, "insufficient rare balance")
	}
	balance -= amount
	if err := s.balances.SetBalance(ctx, owner, balance); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit rare balance")
	}
	return balance, nil
}

func (s *Service) Balance(ctx context.Context, owner id.OwnerID) (uint64, error) {
	balance, err := s.balances.Balance(ctx, owner)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read rare balance")
	}
	return balance, nil
}
