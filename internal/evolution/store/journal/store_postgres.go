package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	txcontext "evonft/pkg/platform/tx"
)

// PostgresJournal stores committed commands. Appends run inside the same
// transaction as the state change they describe.
type PostgresJournal struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

func (j *PostgresJournal) Append(ctx context.Context, entry models.JournalEntry) (uint64, error) {
	query := `
		INSERT INTO journal (sequence, kind, caller, amount, asset_id, stage, balance)
		SELECT COALESCE(MAX(sequence), 0) + 1, $1, $2, $3::numeric, $4, $5, $6::numeric FROM journal
		RETURNING sequence
	`
	var seq int64
	err := txcontext.Exec(ctx, j.db).QueryRowContext(ctx, query,
		string(entry.Kind),
		entry.Caller.String(),
		strconv.FormatUint(entry.Amount, 10),
		int64(entry.AssetID),
		int16(entry.Stage),
		strconv.FormatUint(entry.Balance, 10),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append journal entry: %w", err)
	}
	return uint64(seq), nil
}

func (j *PostgresJournal) List(ctx context.Context, from uint64, limit int) ([]models.JournalEntry, error) {
	// Sequences are BIGINT; nothing lies past MaxInt64.
	if limit <= 0 || from > math.MaxInt64 {
		return []models.JournalEntry{}, nil
	}
	query := `
		SELECT sequence, kind, caller, amount::text, asset_id, stage, balance::text
		FROM journal
		WHERE sequence >= $1
		ORDER BY sequence
		LIMIT $2
	`
	rows, err := txcontext.Exec(ctx, j.db).QueryContext(ctx, query, int64(from), limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	out := []models.JournalEntry{}
	for rows.Next() {
		var (
			seq, assetID    int64
			kind, caller    string
			amount, balance string
			stage           int16
		)
		if err := rows.Scan(&seq, &kind, &caller, &amount, &assetID, &stage, &balance); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry := models.JournalEntry{
			Sequence: uint64(seq),
			Kind:     models.CommandKind(kind),
			Caller:   id.OwnerID(caller),
			AssetID:  id.AssetID(assetID),
			Stage:    models.Stage(stage),
		}
		if entry.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("parse journal amount: %w", err)
		}
		if entry.Balance, err = strconv.ParseUint(balance, 10, 64); err != nil {
			return nil, fmt.Errorf("parse journal balance: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return out, nil
}
