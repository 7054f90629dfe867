package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	jwttoken "linkage/internal/jwt_token"
	"linkage/internal/party"
	"linkage/internal/platform/config"
	"linkage/internal/platform/kafka/admin"
	kafkaconsumer "linkage/internal/platform/kafka/consumer"
	"linkage/internal/platform/kafka/producer"
	platformmetrics "linkage/internal/platform/metrics"
	"linkage/internal/platform/migrate"
	"linkage/internal/platform/postgres"
	platformredis "linkage/internal/platform/redis"
	"linkage/internal/relationship/handler"
	"linkage/internal/relationship/lock"
	relmetrics "linkage/internal/relationship/metrics"
	"linkage/internal/relationship/service"
	"linkage/internal/relationship/store/edge"
	httptransport "linkage/internal/transport/http"
	audit "linkage/pkg/platform/audit"
	historyconsumer "linkage/pkg/platform/audit/consumer"
	"linkage/pkg/platform/audit/publisher"
	kafkasink "linkage/pkg/platform/audit/store/kafka"
	auditmemory "linkage/pkg/platform/audit/store/memory"
	auditpostgres "linkage/pkg/platform/audit/store/postgres"
	"linkage/pkg/platform/circuit"
)

// app holds the wired process: the HTTP router, the background workers and
// everything that must be closed on shutdown.
type app struct {
	router    http.Handler
	publisher *publisher.Publisher
	consumer  *kafkaconsumer.Consumer
	storeKind string
	sinkKind  string
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build selects backends from cfg: Postgres or memory for edges and history,
// Redis or in-process locking, HTTP or in-memory party registry, and Kafka as
// an optional history transport in front of Postgres.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateFirst bool) (_ *app, err error) {
	a := &app{storeKind: "memory", sinkKind: "memory"}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	checks := map[string]httptransport.HealthCheck{}

	var (
		db     *sql.DB
		store  service.Store
		sink   audit.Sink
		reader audit.Reader
	)
	if cfg.Database.URL != "" {
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if migrateFirst {
			if err := migrate.New(db, logger).Up(ctx); err != nil {
				return nil, err
			}
		}
		history := auditpostgres.New(db)
		store, sink, reader = edge.NewPostgres(db), history, history
		a.storeKind, a.sinkKind = "postgres", "postgres"
		checks["postgres"] = db.PingContext
	} else {
		history := auditmemory.NewInMemoryStore()
		store, sink, reader = edge.NewInMemory(), history, history
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		checks["redis"] = rc.Health
	}

	if cfg.Kafka.Enabled() {
		prod, err := producer.New(cfg.Kafka.Brokers)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, prod.Close)
		if err := admin.EnsureTopic(ctx, prod.Client(), cfg.Kafka.HistoryTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			return nil, err
		}
		checks["kafka"] = prod.Ping

		router := historyconsumer.NewRouter(logger, nil)
		router.Register(cfg.Kafka.HistoryTopic, historyconsumer.NewHistoryHandler(sink, logger))
		a.consumer, err = kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.ConsumerGroup,
			Topics:  []string{cfg.Kafka.HistoryTopic},
		}, router, logger)
		if err != nil {
			return nil, err
		}
		sink = kafkasink.NewSink(prod, cfg.Kafka.HistoryTopic)
		a.sinkKind = "kafka"
	}

	a.publisher = publisher.New(sink,
		publisher.WithLogger(logger),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithBufferSize(cfg.History.BufferSize),
		publisher.WithMaxAttempts(cfg.History.MaxAttempts),
		publisher.WithRetryBackoff(cfg.History.RetryBackoff),
	)

	parties, err := buildRegistry(cfg, rc, logger)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(relmetrics.New()),
		service.WithHistory(a.publisher),
		service.WithHistoryReader(reader),
		service.WithStaleVerificationWindow(cfg.Relationship.StaleMonths),
		service.WithPageLimits(cfg.Relationship.DefaultPageSize, cfg.Relationship.MaxPageSize),
	}
	if rc != nil {
		opts = append(opts, service.WithLocker(lock.NewRedis(rc.Client, lock.WithTTL(cfg.Redis.LockTTL))))
	}
	if cfg.Auth.EnforceRoles {
		opts = append(opts, service.WithAuthorizer(service.NewRoleAuthorizer(nil)))
	}
	svc := service.New(store, parties, opts...)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	a.router = httptransport.NewRouter(httptransport.RouterConfig{
		Relationships: handler.New(svc, logger),
		Validator:     jwttoken.NewJWTServiceAdapter(tokens),
		Metrics:       platformmetrics.New(),
		Logger:        logger,
		HealthChecks:  checks,
	})
	return a, nil
}

func buildRegistry(cfg *config.Config, rc *platformredis.Client, logger *slog.Logger) (party.Registry, error) {
	if cfg.Registry.URL == "" {
		reg := party.NewInMemory()
		if err := reg.Seed(cfg.Registry.Seed); err != nil {
			return nil, fmt.Errorf("seed party registry: %w", err)
		}
		return reg, nil
	}

	m := party.NewMetrics()
	var reg party.Registry = party.NewHTTPClient(cfg.Registry.URL, cfg.Registry.Timeout,
		party.WithLogger(logger),
		party.WithMetrics(m),
		party.WithBreaker(circuit.New("party_registry")),
	)
	if rc != nil {
		reg = party.NewCachedRegistry(reg, rc.Client, cfg.Registry.CacheTTL, logger, m)
	}
	return reg, nil
}
