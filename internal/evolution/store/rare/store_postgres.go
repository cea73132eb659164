package rare

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	txcontext "evonft/pkg/platform/tx"
)

// PostgresRareStore persists balances as NUMERIC(20,0) so the full uint64
// range survives the round trip; values cross the driver as decimal strings.
type PostgresRareStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRareStore {
	return &PostgresRareStore{db: db}
}

func (s *PostgresRareStore) Balance(ctx context.Context, owner id.OwnerID) (uint64, error) {
	var raw string
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT balance::text FROM rare_balances WHERE owner = $1`, owner.String(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get rare balance: %w", err)
	}
	balance, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rare balance: %w", err)
	}
	return balance, nil
}

func (s *PostgresRareStore) SetBalance(ctx context.Context, owner id.OwnerID, balance uint64) error {
	exec := txcontext.Exec(ctx, s.db)
	if balance == 0 {
		if _, err := exec.ExecContext(ctx, `DELETE FROM rare_balances WHERE owner = $1`, owner.String()); err != nil {
			return fmt.Errorf("clear rare balance: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO rare_balances (owner, balance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (owner) DO UPDATE SET balance = EXCLUDED.balance
	`
	if _, err := exec.ExecContext(ctx, query, owner.String(), strconv.FormatUint(balance, 10)); err != nil {
		return fmt.Errorf("set rare balance: %w", err)
	}
	return nil
}

func (s *PostgresRareStore) List(ctx context.Context) ([]models.RareBalance, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT owner, balance::text FROM rare_balances WHERE balance > 0 ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("list rare balances: %w", err)
	}
	defer rows.Close()

	out := []models.RareBalance{}
	for rows.Next() {
		var owner, raw string
		if err := rows.Scan(&owner, &raw); err != nil {
			return nil, fmt.Errorf("scan rare balance: %w", err)
		}
		balance, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse rare balance: %w", err)
		}
		out = append(out, models.RareBalance{Owner: id.OwnerID(owner), Balance: balance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rare balances: %w", err)
	}
	return out, nil
}
