// Package engine is the single entry point to the evolution ledger. Every
// mutating call becomes a Command, runs through a fixed handler table inside
// one transaction, and is journaled in that same transaction.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"evonft/internal/evolution/metadata"
	"evonft/internal/evolution/metrics"
	"evonft/internal/evolution/models"
	"evonft/internal/evolution/ports"
	"evonft/internal/evolution/service/activity"
	"evonft/internal/evolution/service/evolver"
	"evonft/internal/evolution/service/rare"
	"evonft/internal/evolution/service/registry"
	"evonft/internal/evolution/store/asset"
	"evonft/internal/evolution/store/journal"
	rarestore "evonft/internal/evolution/store/rare"
	"evonft/internal/evolution/store/tx"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

const tracerName = "evonft/engine"

// Stores are the backends one engine runs on. Tx must cover all three.
type Stores struct {
	Assets   ports.AssetStore
	Balances ports.RareStore
	Journal  ports.Journal
	Tx       ports.Tx
}

type Engine struct {
	stores   Stores
	registry *registry.Service
	activity *activity.Service
	ledger   *rare.Service
	evolver  *evolver.Service
	metadata *metadata.Service
	handlers map[models.CommandKind]handlerFunc

	mirror         ports.JournalMirror
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(e *Engine) {
		e.auditPublisher = publisher
	}
}

// WithJournalMirror copies every committed entry to mirror after commit.
func WithJournalMirror(mirror ports.JournalMirror) Option {
	return func(e *Engine) {
		e.mirror = mirror
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(tracerName)
	}
}

// New wires the services over stores.
func New(stores Stores, opts ...Option) (*Engine, error) {
	switch {
	case stores.Assets == nil:
		return nil, errors.New("asset store is required")
	case stores.Balances == nil:
		return nil, errors.New("rare balance store is required")
	case stores.Journal == nil:
		return nil, errors.New("journal is required")
	case stores.Tx == nil:
		return nil, errors.New("transaction runner is required")
	}

	e := &Engine{stores: stores, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.registry, err = registry.New(stores.Assets, registry.WithLogger(e.logger)); err != nil {
		return nil, err
	}
	if e.activity, err = activity.New(e.registry, activity.WithLogger(e.logger)); err != nil {
		return nil, err
	}
	if e.ledger, err = rare.New(stores.Balances, rare.WithLogger(e.logger)); err != nil {
		return nil, err
	}
	if e.evolver, err = evolver.New(e.registry, e.ledger, evolver.WithLogger(e.logger)); err != nil {
		return nil, err
	}
	if e.metadata, err = metadata.New(e.registry); err != nil {
		return nil, err
	}
	e.handlers = e.handlerTable()
	return e, nil
}

// NewInMemory builds an engine over fresh in-memory stores.
func NewInMemory(opts ...Option) (*Engine, error) {
	assets := asset.NewInMemory()
	balances := rarestore.NewInMemory()
	entries := journal.NewInMemory()
	return New(Stores{
		Assets:   assets,
		Balances: balances,
		Journal:  entries,
		Tx:       tx.NewInMemory(assets, balances, entries),
	}, opts...)
}

// Apply executes one command atomically. On success the command and its
// result are journaled in the same transaction; on failure nothing changes.
func (e *Engine) Apply(ctx context.Context, cmd models.Command) (models.Result, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Apply",
		trace.WithAttributes(
			attribute.String("evonft.command.kind", string(cmd.Kind)),
			attribute.String("evonft.caller", cmd.Caller.String()),
		),
	)
	defer span.End()
	start := time.Now()

	out, err := e.apply(ctx, cmd)
	if e.metrics != nil {
		e.metrics.ObserveCommand(string(cmd.Kind), start)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		e.rejected(ctx, cmd, err)
		return models.Result{}, err
	}

	span.SetAttributes(attribute.Int64("evonft.sequence", int64(out.result.Sequence)))
	span.SetStatus(codes.Ok, "")
	e.committed(ctx, cmd, out)
	return out.result, nil
}

func (e *Engine) apply(ctx context.Context, cmd models.Command) (outcome, error) {
	handler, ok := e.handlers[cmd.Kind]
	if !ok {
		return outcome{}, dErrors.New(dErrors.CodeBadRequest, "unknown command kind")
	}
	if _, err := id.ParseOwnerID(cmd.Caller.String()); err != nil {
		return outcome{}, err
	}

	var out outcome
	err := e.stores.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = handler(ctx, cmd)
		if err != nil {
			return err
		}
		out.result.Kind = cmd.Kind
		entry := models.JournalEntry{
			Kind:    cmd.Kind,
			Caller:  cmd.Caller,
			Amount:  cmd.Amount,
			AssetID: out.result.AssetID,
			Stage:   out.result.Stage,
			Balance: out.result.Balance,
		}
		seq, err := e.stores.Journal.Append(ctx, entry)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to journal command")
		}
		entry.Sequence = seq
		out.result.Sequence = seq
		out.entry = entry
		return nil
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}
