package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"

	"evonft/internal/evolution/models"
	"evonft/internal/platform/postgres"
	id "evonft/pkg/domain"
	"evonft/pkg/platform/sentinel"
	txcontext "evonft/pkg/platform/tx"
)

// PostgresAssetStore persists assets in PostgreSQL.
// Identifier allocation relies on the ledger advisory lock held by PostgresTx.
// Activity is NUMERIC(20,0) so the full uint64 counter round-trips.
type PostgresAssetStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresAssetStore {
	return &PostgresAssetStore{db: db}
}

func (s *PostgresAssetStore) Create(ctx context.Context, owner id.OwnerID) (*models.Asset, error) {
	query := `
		INSERT INTO assets (id, owner, stage, activity)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, 0 FROM assets
		RETURNING id, owner, stage, activity::text
	`
	asset, err := scanAsset(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, owner.String(), int16(models.StageInitial)))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return asset, nil
}

func (s *PostgresAssetStore) FindByID(ctx context.Context, assetID id.AssetID) (*models.Asset, error) {
	if uint64(assetID) > math.MaxInt64 {
		return nil, sentinel.ErrNotFound
	}
	query := `SELECT id, owner, stage, activity::text FROM assets WHERE id = $1`
	asset, err := scanAsset(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, int64(assetID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	return asset, nil
}

func (s *PostgresAssetStore) FindByOwner(ctx context.Context, owner id.OwnerID) (*models.Asset, error) {
	query := `SELECT id, owner, stage, activity::text FROM assets WHERE owner = $1`
	asset, err := scanAsset(txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query, owner.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find asset by owner: %w", err)
	}
	return asset, nil
}

func (s *PostgresAssetStore) Update(ctx context.Context, asset *models.Asset) error {
	result, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE assets SET stage = $2, activity = $3::numeric WHERE id = $1`,
		int64(asset.ID), int16(asset.Stage), strconv.FormatUint(asset.Activity, 10),
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update asset rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresAssetStore) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `SELECT id, owner, stage, activity::text FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := []models.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*models.Asset, error) {
	var (
		assetID         int64
		owner, activity string
		stage           int16
	)
	if err := row.Scan(&assetID, &owner, &stage, &activity); err != nil {
		return nil, err
	}
	count, err := strconv.ParseUint(activity, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse activity %q: %w", activity, err)
	}
	return &models.Asset{
		ID:       id.AssetID(assetID),
		Owner:    id.OwnerID(owner),
		Stage:    models.Stage(stage),
		Activity: count,
	}, nil
}
