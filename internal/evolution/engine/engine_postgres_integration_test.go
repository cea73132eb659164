//go:build integration

package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"evonft/internal/evolution/engine"
	"evonft/internal/evolution/models"
	"evonft/internal/evolution/store/asset"
	"evonft/internal/evolution/store/journal"
	"evonft/internal/evolution/store/rare"
	"evonft/internal/evolution/store/tx"
	"evonft/internal/platform/config"
	"evonft/internal/platform/postgres"
	dErrors "evonft/pkg/domain-errors"
	"evonft/pkg/platform/audit/publisher"
	auditpostgres "evonft/pkg/platform/audit/store/postgres"
	"evonft/pkg/testutil/containers"
)

type PostgresEngineSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	outbox   *auditpostgres.Store
	engine   *engine.Engine
}

func TestPostgresEngineSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresEngineSuite))
}

func (s *PostgresEngineSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	db := s.postgres.DB
	s.outbox = auditpostgres.New(db)

	var err error
	s.engine, err = engine.New(engine.Stores{
		Assets:   asset.NewPostgres(db),
		Balances: rare.NewPostgres(db),
		Journal:  journal.NewPostgres(db),
		Tx:       tx.NewPostgres(db),
	},
		engine.WithAuditPublisher(publisher.NewPublisher(s.outbox)),
		engine.WithJournalMirror(journal.NewRedisStream(s.redis.Client.Client)),
	)
	s.Require().NoError(err)
}

func (s *PostgresEngineSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "assets", "rare_balances", "journal", "audit_outbox"))
	s.Require().NoError(s.redis.ResetStreams(ctx))
}

func scenario() []models.Command {
	cmds := []models.Command{{Kind: models.CommandIssue, Caller: "alice"}}
	for range 10 {
		cmds = append(cmds, models.Command{Kind: models.CommandRecordActivity, Caller: "alice"})
	}
	return append(cmds,
		models.Command{Kind: models.CommandIssue, Caller: "bob"},
		models.Command{Kind: models.CommandAcquireRare, Caller: "bob", Amount: 2},
		models.Command{Kind: models.CommandEvolveWithRare, Caller: "bob"},
		models.Command{Kind: models.CommandEvolveWithRare, Caller: "bob"},
		models.Command{Kind: models.CommandEvolveWithRare, Caller: "bob"},
		models.Command{Kind: models.CommandIssue, Caller: "alice"},
	)
}

// TestBackendsAgree runs the same commands on Postgres and in memory and
// compares results step by step and the final digests.
func (s *PostgresEngineSuite) TestBackendsAgree() {
	ctx := context.Background()
	memory, steps, err := engine.Replay(ctx, scenario())
	s.Require().NoError(err)

	for i, cmd := range scenario() {
		res, err := s.engine.Apply(ctx, cmd)
		s.Equal(dErrors.CodeOf(steps[i].Err), dErrors.CodeOf(err), "step %d", i)
		if err == nil {
			s.Equal(steps[i].Result, res, "step %d", i)
		}
	}

	want, err := memory.Digest(ctx)
	s.Require().NoError(err)
	got, err := s.engine.Digest(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)

	verified, err := s.engine.Verify(ctx)
	s.Require().NoError(err)
	s.Equal(want, verified)

	entries, err := s.engine.Journal(ctx, 1, 100)
	s.Require().NoError(err)
	mirrored, err := s.redis.StreamLength(ctx, journal.DefaultStreamKey)
	s.Require().NoError(err)
	s.EqualValues(len(entries), mirrored, "every committed entry is mirrored")
}

func (s *PostgresEngineSuite) TestFailedEvolutionCommitsNothing() {
	ctx := context.Background()
	_, err := s.engine.IssueAsset(ctx, "carol")
	s.Require().NoError(err)

	_, err = s.engine.EvolveWithRare(ctx, "carol")
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

	entries, err := s.engine.Journal(ctx, 1, 10)
	s.Require().NoError(err)
	s.Len(entries, 1)

	pending, err := s.outbox.FetchPending(ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 2, "issue event plus the rejection")
}

// TestPGXDriverAgrees runs the scenario over the pgx driver, including the
// duplicate issuance that must surface as already_owns.
func (s *PostgresEngineSuite) TestPGXDriverAgrees() {
	ctx := context.Background()
	db, err := postgres.Open(ctx, config.Postgres{
		Driver:          postgres.DriverPGX,
		DSN:             s.postgres.DSN,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	s.Require().NoError(err)
	defer db.Close()

	pgx, err := engine.New(engine.Stores{
		Assets:   asset.NewPostgres(db),
		Balances: rare.NewPostgres(db),
		Journal:  journal.NewPostgres(db),
		Tx:       tx.NewPostgres(db),
	})
	s.Require().NoError(err)

	memory, steps, err := engine.Replay(ctx, scenario())
	s.Require().NoError(err)
	for i, cmd := range scenario() {
		_, err := pgx.Apply(ctx, cmd)
		s.Equal(dErrors.CodeOf(steps[i].Err), dErrors.CodeOf(err), "step %d", i)
	}

	want, err := memory.Digest(ctx)
	s.Require().NoError(err)
	got, err := pgx.Digest(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)
}
