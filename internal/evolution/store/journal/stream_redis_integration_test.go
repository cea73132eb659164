//go:build integration

package journal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"evonft/internal/evolution/models"
	"evonft/internal/evolution/store/journal"
	"evonft/pkg/testutil/containers"
)

type RedisStreamSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	stream *journal.RedisStream
}

func TestRedisStreamSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStreamSuite))
}

func (s *RedisStreamSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.stream = journal.NewRedisStream(s.redis.Client.Client, journal.WithStreamKey("evonft:journal:test"))
}

func (s *RedisStreamSuite) SetupTest() {
	s.Require().NoError(s.redis.ResetStreams(context.Background()))
}

func (s *RedisStreamSuite) TestMirrorAndRead() {
	ctx := context.Background()
	entries := []models.JournalEntry{
		{Sequence: 1, Kind: models.CommandIssue, Caller: "alice", AssetID: 1, Stage: models.StageInitial},
		{Sequence: 2, Kind: models.CommandAcquireRare, Caller: "alice", Amount: ^uint64(0), Balance: ^uint64(0)},
		{Sequence: 3, Kind: models.CommandEvolveWithRare, Caller: "alice", AssetID: 1, Stage: models.StageIntermediate, Balance: ^uint64(0) - 1},
	}
	for _, e := range entries {
		s.Require().NoError(s.stream.Mirror(ctx, e))
	}

	got, err := s.stream.Read(ctx, 0, 10)
	s.Require().NoError(err)
	s.Equal(entries, got)

	tail, err := s.stream.Read(ctx, 3, 10)
	s.Require().NoError(err)
	s.Require().Len(tail, 1)
	s.Equal(models.CommandEvolveWithRare, tail[0].Kind)
}

// TestMirrorIsIdempotent verifies re-mirroring a committed entry is a no-op.
func (s *RedisStreamSuite) TestMirrorIsIdempotent() {
	ctx := context.Background()
	entry := models.JournalEntry{Sequence: 1, Kind: models.CommandIssue, Caller: "bob", AssetID: 1, Stage: models.StageInitial}

	s.Require().NoError(s.stream.Mirror(ctx, entry))
	s.Require().NoError(s.stream.Mirror(ctx, entry))

	got, err := s.stream.Read(ctx, 1, 10)
	s.Require().NoError(err)
	s.Len(got, 1)
}
