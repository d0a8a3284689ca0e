package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	procurementserver "github.com/Apurer/go-gin-procurement-api/go"
	consistencyworkflows "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/workflows"
	platformobservability "github.com/Apurer/go-gin-procurement-api/internal/platform/observability"
)

// ServiceName identifies the HTTP process in traces and logs.
const ServiceName = "procurement-api"

// Run boots the procurement HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, cleanup, err := BuildComponents(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanup()

	var starter consistencyworkflows.WorkflowStarter
	if !components.Durable {
		logger.Warn("in-memory storage active, reconciling inline without Temporal")
	} else if c, err := ConnectTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, reconciling inline", slog.String("error", err.Error()))
	} else {
		defer c.Close()
		starter = c
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	reconciler := SelectReconciler(components, starter)

	handlers := procurementserver.ApiHandleFunctions{
		RequisitionAPI: procurementserver.NewRequisitionAPI(components.Requisitions),
		DeliveryAPI:    procurementserver.NewDeliveryAPI(components.Delivery),
		ConsistencyAPI: procurementserver.NewConsistencyAPI(components.Monitor, reconciler),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(ServiceName))
	router := procurementserver.NewRouterWithGinEngine(engine, handlers)

	addr := cfg.Addr()
	logger.Info("procurement API listening", slog.String("addr", addr), slog.Bool("durable", components.Durable))
	if err := router.Run(addr); err != nil {
		logger.Error("procurement API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}
