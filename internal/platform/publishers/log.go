// Package publishers holds the outbound adapters for status change notifications.
package publishers

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// LogPublisher writes every status change as a structured log line. It is the
// default channel when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event events.StatusChanged) error {
	p.logger.LogAttrs(ctx, slog.LevelInfo, "status changed",
		slog.String("event_id", event.ID),
		slog.String("aggregate", event.Aggregate),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("from", event.From),
		slog.String("to", event.To),
		slog.String("actor", event.Actor),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}

var _ events.Publisher = (*LogPublisher)(nil)
