package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	consistencymemory "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/memory"
	consistencypostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/persistence/postgres"
	consistencyapp "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/application"
	consistencyports "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	deliverymemory "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/memory"
	deliveryobs "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/observability"
	deliverypostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/persistence/postgres"
	deliveryapp "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/application"
	deliveryports "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	requisitionmemory "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/memory"
	requisitionobs "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/observability"
	requisitionpostgres "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/persistence/postgres"
	requisitionapp "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/application"
	requisitionports "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-procurement-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-procurement-api/internal/platform/postgres"
	"github.com/Apurer/go-gin-procurement-api/internal/platform/publishers"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// Components holds the wired services shared by the API, worker and CLI processes.
type Components struct {
	Requisitions requisitionports.Service
	Delivery     deliveryports.Service
	Monitor      *consistencyapp.Monitor
	// Durable reports whether repositories are backed by Postgres.
	Durable bool
}

// BuildComponents connects storage and the event publisher and wires every
// bounded context. The returned cleanup closes those connections.
func BuildComponents(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Components, func(), error) {
	logger := effectiveLogger(instruments)
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	cleanups = append(cleanups, closeDB)
	if db != nil {
		if err := migrations.Run(db.WithContext(ctx)); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	publisher, closePublisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closePublisher)
	dispatcher := events.NewDispatcher(publisher, logger)

	requisitionRepo, idempotency, deliveryRepo, corrections := buildRepositories(db)

	coreRequisitions := requisitionapp.NewService(requisitionRepo,
		requisitionapp.WithIdempotencyStore(idempotency),
		requisitionapp.WithDispatcher(dispatcher),
	)
	coreDelivery := deliveryapp.NewService(deliveryRepo, deliveryapp.WithDispatcher(dispatcher))
	monitor := consistencyapp.NewMonitor(requisitionRepo, corrections,
		consistencyapp.WithLogger(logger),
		consistencyapp.WithTracer(instruments.Tracer("internal.consistency.application")),
		consistencyapp.WithMeter(instruments.Meter("internal.consistency.application")),
		consistencyapp.WithDispatcher(dispatcher),
	)

	return &Components{
		Requisitions: requisitionobs.New(coreRequisitions,
			requisitionobs.WithLogger(logger),
			requisitionobs.WithTracer(instruments.Tracer("internal.requisitions.application")),
			requisitionobs.WithMeter(instruments.Meter("internal.requisitions.application")),
		),
		Delivery: deliveryobs.New(coreDelivery,
			deliveryobs.WithLogger(logger),
			deliveryobs.WithTracer(instruments.Tracer("internal.delivery.application")),
			deliveryobs.WithMeter(instruments.Meter("internal.delivery.application")),
		),
		Monitor: monitor,
		Durable: db != nil,
	}, cleanup, nil
}

func buildRepositories(db *gorm.DB) (requisitionports.Repository, requisitionports.IdempotencyStore, deliveryports.Repository, consistencyports.CorrectionLog) {
	if db == nil {
		return requisitionmemory.NewRepository(),
			requisitionmemory.NewIdempotencyStore(),
			deliverymemory.NewRepository(),
			consistencymemory.NewCorrectionLog()
	}
	return requisitionpostgres.NewRepository(db),
		requisitionpostgres.NewIdempotencyStore(db),
		deliverypostgres.NewRepository(db),
		consistencypostgres.NewCorrectionLog(db)
}

// buildPublisher selects the status change publisher. A broker that cannot be
// reached degrades to the log publisher so state changes never block on it.
func buildPublisher(ctx context.Context, cfg Config, logger *slog.Logger) (events.Publisher, func(), error) {
	switch cfg.EventsBackend {
	case EventsBackendRedis:
		rdb, err := publishers.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, publishing status changes to the log", slog.String("error", err.Error()))
			return publishers.NewLogPublisher(logger), func() {}, nil
		}
		logger.Info("publishing status changes to redis", slog.String("channel", cfg.RedisChannel))
		return publishers.NewRedisPublisher(rdb, cfg.RedisChannel), func() { _ = rdb.Close() }, nil
	case EventsBackendSQS:
		sqsClient, err := publishers.NewSQSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("configure sqs publisher: %w", err)
		}
		logger.Info("publishing status changes to sqs", slog.String("queue", cfg.SQSQueueURL))
		return publishers.NewSQSPublisher(sqsClient, cfg.SQSQueueURL), func() {}, nil
	default:
		return publishers.NewLogPublisher(logger), func() {}, nil
	}
}

// ConnectTemporal dials Temporal with tracing and slog-backed logging.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
