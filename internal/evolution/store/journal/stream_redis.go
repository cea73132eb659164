package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
)

const (
	DefaultStreamKey    = "evonft:journal"
	DefaultStreamMaxLen = 100_000
)

// RedisStream mirrors committed journal entries into a Redis Stream. Entry
// IDs are "<sequence>-0" so the stream order equals the journal order and a
// re-mirrored entry is rejected by Redis instead of duplicated.
type RedisStream struct {
	client *redis.Client
	key    string
	maxLen int64
}

type StreamOption func(*RedisStream)

func WithStreamKey(key string) StreamOption {
	return func(s *RedisStream) {
		if key != "" {
			s.key = key
		}
	}
}

func WithMaxLen(n int64) StreamOption {
	return func(s *RedisStream) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

func NewRedisStream(client *redis.Client, opts ...StreamOption) *RedisStream {
	s := &RedisStream{client: client, key: DefaultStreamKey, maxLen: DefaultStreamMaxLen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStream) Mirror(ctx context.Context, entry models.JournalEntry) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.key,
		MaxLen: s.maxLen,
		Approx: true,
		ID:     streamID(entry.Sequence),
		Values: map[string]any{
			"sequence": strconv.FormatUint(entry.Sequence, 10),
			"kind":     string(entry.Kind),
			"caller":   entry.Caller.String(),
			"amount":   strconv.FormatUint(entry.Amount, 10),
			"asset_id": strconv.FormatUint(uint64(entry.AssetID), 10),
			"stage":    strconv.FormatUint(uint64(entry.Stage), 10),
			"balance":  strconv.FormatUint(entry.Balance, 10),
		},
	}).Err()
	if err != nil {
		// Redis refuses IDs not greater than the stream's last ID.
		if strings.Contains(err.Error(), "equal or smaller than the target stream top item") {
			return nil
		}
		return fmt.Errorf("mirror journal entry %d: %w", entry.Sequence, err)
	}
	return nil
}

// Read returns up to count mirrored entries starting at sequence from.
func (s *RedisStream) Read(ctx context.Context, from uint64, count int64) ([]models.JournalEntry, error) {
	if from == 0 {
		from = 1
	}
	msgs, err := s.client.XRangeN(ctx, s.key, streamID(from), "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal stream: %w", err)
	}
	out := make([]models.JournalEntry, 0, len(msgs))
	for _, msg := range msgs {
		entry, err := decodeStreamEntry(msg.Values)
		if err != nil {
			return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func streamID(seq uint64) string {
	return strconv.FormatUint(seq, 10) + "-0"
}

func decodeStreamEntry(values map[string]any) (models.JournalEntry, error) {
	field := func(name string) (uint64, error) {
		raw, _ := values[name].(string)
		return strconv.ParseUint(raw, 10, 64)
	}
	var entry models.JournalEntry
	var err error
	if entry.Sequence, err = field("sequence"); err != nil {
		return entry, err
	}
	if entry.Amount, err = field("amount"); err != nil {
		return entry, err
	}
	if entry.Balance, err = field("balance"); err != nil {
		return entry, err
	}
	assetID, err := field("asset_id")
	if err != nil {
		return entry, err
	}
	stage, err := field("stage")
	if err != nil {
		return entry, err
	}
	kind, _ := values["kind"].(string)
	caller, _ := values["caller"].(string)
	entry.Kind = models.CommandKind(kind)
	entry.Caller = id.OwnerID(caller)
	entry.AssetID = id.AssetID(assetID)
	entry.Stage = models.Stage(stage)
	return entry, nil
}
