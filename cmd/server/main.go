package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"crafted/internal/events"
	eventskafka "crafted/internal/events/kafka"
	evidencehandler "crafted/internal/evidence/handler"
	evidencemetrics "crafted/internal/evidence/metrics"
	evidenceservice "crafted/internal/evidence/service"
	evidencestore "crafted/internal/evidence/store"
	historyhandler "crafted/internal/history/handler"
	historyservice "crafted/internal/history/service"
	historystore "crafted/internal/history/store"
	jwttoken "crafted/internal/jwt_token"
	"crafted/internal/platform/config"
	"crafted/internal/platform/httpserver"
	"crafted/internal/platform/kafka"
	"crafted/internal/platform/logger"
	"crafted/internal/platform/metrics"
	"crafted/internal/platform/postgres"
	"crafted/internal/platform/redis"
	"crafted/internal/scheduler"
	httptransport "crafted/internal/transport/http"
	"crafted/internal/trust"
	"crafted/internal/trust/adapters"
	trusthandler "crafted/internal/trust/handler"
	trustmetrics "crafted/internal/trust/metrics"
	"crafted/internal/trust/store/cache"
	trustmemory "crafted/internal/trust/store/memory"
	trustpostgres "crafted/internal/trust/store/postgres"
	workerhandler "crafted/internal/worker/handler"
	workerservice "crafted/internal/worker/service"
	workerstore "crafted/internal/worker/store"
	"crafted/pkg/platform/audit"
	auditmemory "crafted/pkg/platform/audit/store/memory"
	auditpostgres "crafted/pkg/platform/audit/store/postgres"
	txcontext "crafted/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// stores groups the storage choice for every module. Empty connection URLs
// select the in-memory implementations.
type stores struct {
	workers  workerservice.Store
	evidence evidenceservice.Store
	history  historyservice.Store
	scores   trust.Store
	audit    audit.Store
	tx       txcontext.Runner
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	checks := map[string]httptransport.HealthCheck{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		checks["postgres"] = db.PingContext
	}
	st := buildStores(db)

	trustMetrics := trustmetrics.New()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		st.scores = cache.New(st.scores, rdb,
			cache.WithTTL(cfg.Redis.ScoreTTL),
			cache.WithMetrics(trustMetrics),
			cache.WithLogger(log),
		)
		checks["redis"] = rdb.Health
	}

	g, ctx := errgroup.WithContext(ctx)

	dispatcher := events.NewDispatcher(log)
	publisher, err := startEventTransport(ctx, g, cfg, dispatcher, log)
	if err != nil {
		return err
	}

	httpMetrics := metrics.New()
	auditPublisher := audit.NewPublisher(st.audit, audit.WithLogger(log))

	workers := workerservice.New(st.workers, trust.NewInitializer(st.scores), publisher,
		workerservice.WithLogger(log),
		workerservice.WithMetrics(httpMetrics),
		workerservice.WithAuditPublisher(auditPublisher),
		workerservice.WithTxRunner(st.tx),
	)
	evidence := evidenceservice.New(st.evidence, workers, publisher,
		evidenceservice.WithLogger(log),
		evidenceservice.WithMetrics(evidencemetrics.New()),
		evidenceservice.WithAuditPublisher(auditPublisher),
		evidenceservice.WithTxRunner(st.tx),
	)
	history := historyservice.New(st.history, workers, publisher,
		historyservice.WithLogger(log),
	)
	engine := trust.New(st.scores, adapters.NewWorkerAdapter(workers), evidence, adapters.NewHistoryAdapter(history),
		trust.WithLogger(log),
		trust.WithMetrics(trustMetrics),
		trust.WithAuditPublisher(auditPublisher),
		trust.WithEvidenceTimeout(cfg.Trust.EvidenceTimeout),
	)
	subscriber := trust.NewSubscriber(engine,
		trust.WithSubscriberLogger(log),
		trust.WithRetry(cfg.Trust.RetryInitialWait, cfg.Trust.RetryMaxElapsed),
	)
	dispatcher.Subscribe(subscriber.Handle)

	sweep, err := scheduler.NewExpirySweep(evidence, cfg.Scheduler.ExpirySweepSpec, log)
	if err != nil {
		return err
	}
	if err := sweep.Start(ctx); err != nil {
		return err
	}
	defer sweep.Stop()

	resolver := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := httptransport.NewRouter(log, httpMetrics, checks,
		workerhandler.New(workers, resolver, log),
		evidencehandler.New(evidence, resolver, log),
		historyhandler.New(history, resolver, log),
		trusthandler.New(engine, resolver, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.Info("starting crafted", "addr", cfg.Server.Addr, "env", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			workers:  workerstore.NewInMemoryWorkerStore(),
			evidence: evidencestore.NewInMemoryStore(),
			history:  historystore.NewInMemoryHistoryStore(),
			scores:   trustmemory.New(),
			audit:    auditmemory.NewInMemoryStore(),
			tx:       txcontext.NoopRunner{},
		}
	}
	return stores{
		workers:  workerstore.NewPostgresWorkerStore(db),
		evidence: evidencestore.NewPostgresStore(db),
		history:  historystore.NewPostgresHistoryStore(db),
		scores:   trustpostgres.New(db),
		audit:    auditpostgres.New(db),
		tx:       txcontext.NewSQLRunner(db),
	}
}

// startEventTransport delivers change events to the dispatcher, through Kafka
// when brokers are configured and an in-process bus otherwise.
func startEventTransport(ctx context.Context, g *errgroup.Group, cfg config.Config, dispatcher *events.Dispatcher, log *slog.Logger) (events.Publisher, error) {
	if !cfg.Kafka.Enabled() {
		bus := events.NewBus(dispatcher, cfg.Trust.EventBufferSize, log, events.WithWorkers(cfg.Trust.EventWorkers))
		g.Go(func() error {
			bus.Run(ctx)
			return nil
		})
		return bus, nil
	}

	producerClient, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if err := kafka.EnsureTopic(ctx, producerClient, cfg.Kafka); err != nil {
		producerClient.Close()
		return nil, err
	}
	consumerClient, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		producerClient.Close()
		return nil, err
	}
	consumer := eventskafka.NewConsumer(consumerClient, dispatcher.Publish, log)
	g.Go(func() error {
		defer producerClient.Close()
		defer consumerClient.Close()
		return consumer.Run(ctx)
	})
	log.Info("kafka event transport enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return eventskafka.NewProducer(producerClient), nil
}
