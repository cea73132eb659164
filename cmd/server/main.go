package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"evonft/internal/evolution/engine"
	"evonft/internal/evolution/handler"
	"evonft/internal/evolution/metrics"
	"evonft/internal/evolution/ports"
	"evonft/internal/evolution/store/asset"
	"evonft/internal/evolution/store/journal"
	rarestore "evonft/internal/evolution/store/rare"
	"evonft/internal/evolution/store/tx"
	jwttoken "evonft/internal/jwt_token"
	"evonft/internal/platform/config"
	"evonft/internal/platform/httpserver"
	"evonft/internal/platform/logger"
	httpmetrics "evonft/internal/platform/metrics"
	"evonft/internal/platform/postgres"
	"evonft/internal/platform/redis"
	httptransport "evonft/internal/transport/http"
	audit "evonft/pkg/platform/audit"
	"evonft/pkg/platform/audit/publisher"
	kafkapublisher "evonft/pkg/platform/audit/publishers/kafka"
	auditmemory "evonft/pkg/platform/audit/store/memory"
	auditpostgres "evonft/pkg/platform/audit/store/postgres"
	"evonft/pkg/platform/audit/worker"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Ledger logic lives in internal/evolution.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "evonft: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]httptransport.HealthCheck{}
	var background []func(ctx context.Context) error

	var kafkaClient *kgo.Client
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err = kafkapublisher.NewClient(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer kafkaClient.Close()
		if err := kafkapublisher.EnsureTopic(ctx, kafkaClient, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return err
		}
		health["kafka"] = kafkaClient.Ping
	}

	var (
		stores    engine.Stores
		auditSink ports.AuditPublisher
		auditLog  audit.Reader
	)
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}
		health["postgres"] = db.PingContext
		stores = postgresStores(db)

		outbox := auditpostgres.New(db)
		auditSink = publisher.NewPublisher(outbox, publisher.WithLogger(log))
		auditLog = outbox
		if kafkaClient != nil {
			relay := worker.NewRelay(outbox,
				kafkapublisher.New(kafkaClient, cfg.Kafka.Topic, kafkapublisher.WithLogger(log)),
				worker.WithInterval(cfg.Kafka.RelayInterval),
				worker.WithBatchSize(cfg.Kafka.RelayBatch),
				worker.WithLogger(log),
			)
			background = append(background, relay.Run)
		}
	default:
		assets := asset.NewInMemory()
		balances := rarestore.NewInMemory()
		entries := journal.NewInMemory()
		stores = engine.Stores{
			Assets:   assets,
			Balances: balances,
			Journal:  entries,
			Tx:       tx.NewInMemory(assets, balances, entries),
		}
		if kafkaClient != nil {
			auditSink = kafkapublisher.New(kafkaClient, cfg.Kafka.Topic, kafkapublisher.WithLogger(log))
		} else {
			trail := auditmemory.NewInMemoryStore(auditmemory.WithCapacity(cfg.Store.AuditCapacity))
			pub := publisher.NewPublisher(trail,
				publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
			defer pub.Close()
			auditSink = pub
			auditLog = trail
		}
	}

	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithAuditPublisher(auditSink),
		engine.WithMetrics(metrics.New()),
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
		opts = append(opts, engine.WithJournalMirror(
			journal.NewRedisStream(redisClient.Client, journal.WithStreamKey(cfg.Redis.StreamKey))))
	}

	ledger, err := engine.New(stores, opts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: httpmetrics.New(),
		Health:  health,

		MetricsTokenHash: cfg.Server.MetricsTokenHash,
	}, handler.New(ledger, jwtService, log, handler.WithAuditLog(auditLog)))
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting evonft", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	for _, job := range background {
		g.Go(func() error { return job(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func postgresStores(db *sql.DB) engine.Stores {
	return engine.Stores{
		Assets:   asset.NewPostgres(db),
		Balances: rarestore.NewPostgres(db),
		Journal:  journal.NewPostgres(db),
		Tx:       tx.NewPostgres(db),
	}
}
