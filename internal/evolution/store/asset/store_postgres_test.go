package asset

import (
	"context"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonft/internal/evolution/models"
	"evonft/internal/platform/postgres"
	id "evonft/pkg/domain"
	"evonft/pkg/platform/sentinel"
)

var assetColumns = []string{"id", "owner", "stage", "activity"}

func TestPostgresAssetStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery("INSERT INTO assets").
		WithArgs("alice", int16(1)).
		WillReturnRows(sqlmock.NewRows(assetColumns).AddRow(int64(1), "alice", int64(1), "0"))
	mock.ExpectQuery("INSERT INTO assets").
		WithArgs("alice", int16(1)).
		WillReturnError(&pq.Error{Code: postgres.UniqueViolation})
	mock.ExpectQuery("INSERT INTO assets").
		WithArgs("alice", int16(1)).
		WillReturnError(&pgconn.PgError{Code: postgres.UniqueViolation})

	created, err := store.Create(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.Asset{ID: 1, Owner: "alice", Stage: models.StageInitial}, *created)

	_, err = store.Create(context.Background(), "alice")
	assert.ErrorIs(t, err, sentinel.ErrConflict, "lib/pq unique violation")
	_, err = store.Create(context.Background(), "alice")
	assert.ErrorIs(t, err, sentinel.ErrConflict, "pgx unique violation")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAssetStore_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectQuery(`SELECT id, owner, stage, activity::text FROM assets WHERE id`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(assetColumns).AddRow(int64(7), "bob", int64(2), "18446744073709551615"))
	mock.ExpectQuery(`SELECT id, owner, stage, activity::text FROM assets WHERE owner`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(assetColumns))

	found, err := store.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.StageIntermediate, found.Stage)
	assert.Equal(t, uint64(math.MaxUint64), found.Activity)

	_, err = store.FindByOwner(context.Background(), "nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.FindByID(context.Background(), id.AssetID(math.MaxInt64)+1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "ids past int64 never reach the database")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAssetStore_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)

	mock.ExpectExec("UPDATE assets SET stage").
		WithArgs(int64(1), int16(3), "18446744073709551615").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE assets SET stage").
		WithArgs(int64(9), int16(1), "0").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Update(context.Background(), &models.Asset{ID: 1, Stage: models.StageFinal, Activity: math.MaxUint64}))
	err = store.Update(context.Background(), &models.Asset{ID: 9, Stage: models.StageInitial})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
