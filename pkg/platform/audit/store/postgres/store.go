package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "evonft/pkg/domain"
	audit "evonft/pkg/platform/audit"
	txcontext "evonft/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Append writes to audit_outbox (inside the caller's transaction when the
// context carries one); a relay later publishes pending rows and marks them.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `id, category, action, subject, asset_id, stage, amount, balance, sequence, reason, request_id, occurred_at`

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_outbox (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Action,
		event.Subject.String(),
		int64(event.AssetID),
		int16(event.Stage),
		strconv.FormatUint(event.Amount, 10),
		strconv.FormatUint(event.Balance, 10),
		int64(event.Sequence),
		event.Reason,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit outbox entry: %w", err)
	}
	return nil
}

// ListBySubject returns events for one owner, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject id.OwnerID) ([]audit.Event, error) {
	query := `SELECT ` + selectColumns + ` FROM audit_outbox WHERE subject = $1 ORDER BY occurred_at, sequence`
	return s.listEvents(ctx, query, subject.String())
}

// ListRecent returns up to limit of the newest events, oldest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT * FROM (
			SELECT ` + selectColumns + ` FROM audit_outbox
			ORDER BY occurred_at DESC, sequence DESC
			LIMIT $1
		) recent
		ORDER BY occurred_at, sequence
	`
	return s.listEvents(ctx, query, limit)
}

func (s *Store) listEvents(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	events := make([]audit.Event, 0, len(records))
	for _, r := range records {
		events = append(events, r.Event)
	}
	return events, nil
}

// FetchPending returns up to limit unpublished outbox rows, oldest first.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]audit.OutboxRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at, sequence
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// MarkPublished stamps the given outbox rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = NOW() WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]audit.OutboxRecord, error) {
	var records []audit.OutboxRecord
	for rows.Next() {
		var (
			r                 audit.OutboxRecord
			category, subject string
			assetID, sequence int64
			stage             int16
			amount, balance   string
		)
		if err := rows.Scan(
			&r.ID, &category, &r.Event.Action, &subject, &assetID, &stage,
			&amount, &balance, &sequence, &r.Event.Reason, &r.Event.RequestID, &r.Event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit outbox row: %w", err)
		}
		var err error
		if r.Event.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("parse outbox amount: %w", err)
		}
		if r.Event.Balance, err = strconv.ParseUint(balance, 10, 64); err != nil {
			return nil, fmt.Errorf("parse outbox balance: %w", err)
		}
		r.Event.Category = audit.EventCategory(category)
		r.Event.Subject = id.OwnerID(subject)
		r.Event.AssetID = id.AssetID(assetID)
		r.Event.Stage = uint8(stage)
		r.Event.Sequence = uint64(sequence)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit outbox rows: %w", err)
	}
	return records, nil
}
