package worker

import (
	"context"
	"log/slog"
	"time"

	audit "evonft/pkg/platform/audit"
)

// Outbox is the pending side of a transactional audit outbox.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]audit.OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// Sink delivers a batch of events downstream (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, events []audit.Event) error
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay drains the outbox into the sink. Rows are marked published only after
// the sink acknowledged the whole batch, so delivery is at-least-once.
type Relay struct {
	outbox    Outbox
	sink      Sink
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.interval = d
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		r.batchSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(outbox Outbox, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		sink:      sink,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled. Flush failures are logged
// and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && r.logger != nil {
				r.logger.WarnContext(ctx, "audit outbox flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch of pending rows and returns how many were sent.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	records, err := r.outbox.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	events := make([]audit.Event, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.Event)
		ids = append(ids, rec.ID)
	}
	if err := r.sink.Publish(ctx, events); err != nil {
		return 0, err
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, err
	}
	return len(records), nil
}
