package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	httpapi "minbar/internal/http"
	lifecyclemetrics "minbar/internal/lifecycle/metrics"
	"minbar/internal/lifecycle/service"
	lifecyclememory "minbar/internal/lifecycle/store/memory"
	lifecyclepostgres "minbar/internal/lifecycle/store/postgres"
	"minbar/internal/lifecycle/throttle"
	"minbar/internal/platform/config"
	"minbar/internal/platform/postgres"
	platformredis "minbar/internal/platform/redis"
	"minbar/internal/session"
	"minbar/pkg/platform/audit/recorder"
	auditmemory "minbar/pkg/platform/audit/store/memory"
	auditpostgres "minbar/pkg/platform/audit/store/postgres"
	"minbar/pkg/platform/audit/stream"
	"minbar/pkg/platform/circuit"
	authmw "minbar/pkg/platform/middleware/auth"
)

// app holds the long-lived collaborators and what must be closed on exit.
type app struct {
	service  *service.Service
	sessions authmw.SessionChecker
	checks   map[string]httpapi.HealthCheck
	durable  bool
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// sessionStore is both sides of the revocation list.
type sessionStore interface {
	service.SessionRevoker
	authmw.SessionChecker
}

// build picks Postgres, Redis and Kafka when configured and falls back to
// in-process implementations otherwise.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{checks: map[string]httpapi.HealthCheck{}}

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.checks["postgres"] = db.PingContext
		a.durable = true
	} else {
		log.Warn("no postgres DSN configured, state is kept in memory")
	}

	var sessions sessionStore = session.NewInMemory()
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if client != nil {
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks["redis"] = client.Health
		sessions, err = session.NewRedis(client.Client, cfg.Auth.TokenTTL)
		if err != nil {
			a.close()
			return nil, err
		}
	}
	a.sessions = sessions

	recOpts := []recorder.Option{
		recorder.WithLogger(log),
		recorder.WithMetrics(recorder.NewMetrics(reg)),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := stream.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, kafka.Close)
		a.checks["kafka"] = func(ctx context.Context) error { return pingKafka(ctx, kafka) }
		streamMetrics := stream.NewMetrics(reg)
		sink := stream.NewSink(kafka, cfg.Kafka.Topic,
			stream.WithLogger(log),
			stream.WithMetrics(streamMetrics),
			stream.WithBreaker(circuit.New("audit-stream")),
		)
		queue := stream.NewQueue(sink, cfg.Kafka.QueueSize,
			stream.WithQueueLogger(log),
			stream.WithQueueMetrics(streamMetrics),
		)
		// Closers run in reverse, so the queue drains before the client closes.
		a.closers = append(a.closers, queue.Close)
		recOpts = append(recOpts, recorder.WithSink(queue))
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(lifecyclemetrics.New(reg)),
		service.WithSessionRevoker(sessions),
		service.WithTimeout(cfg.OperationTimeout),
		service.WithAttemptLimiter(throttle.New(cfg.CodeAttempts.PerMinute, cfg.CodeAttempts.Burst)),
	}
	if db != nil {
		audits := auditpostgres.NewPostgres(db)
		a.service = service.New(lifecyclepostgres.NewPostgres(db), recorder.New(audits, recOpts...), audits, opts...)
	} else {
		audits := auditmemory.NewInMemoryStore()
		a.service = service.New(lifecyclememory.New(), recorder.New(audits, recOpts...), audits, opts...)
	}
	return a, nil
}

func pingKafka(ctx context.Context, client *kgo.Client) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	return nil
}
