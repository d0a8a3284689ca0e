package application

import (
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// Notifications converts recorded domain events into outbound status changes.
func Notifications(recorded []domain.Event) []events.StatusChanged {
	out := make([]events.StatusChanged, 0, len(recorded))
	for _, e := range recorded {
		switch ev := e.(type) {
		case domain.DeliveryStatusChanged:
			out = append(out, events.NewStatusChanged(events.AggregatePurchaseOrder, ev.PONo,
				string(ev.From), string(ev.To), ev.Actor, ev.OccurredAt()))
		case domain.PurchaseStatusChanged:
			out = append(out, events.NewStatusChanged(events.AggregatePurchase, ev.PONo,
				string(ev.From), string(ev.To), ev.Actor, ev.OccurredAt()))
		case domain.LogisticsStatusChanged:
			out = append(out, events.NewStatusChanged(events.AggregateConsolidation, ev.ConsolidationID,
				string(ev.From), string(ev.To), ev.Actor, ev.OccurredAt()))
		}
	}
	return out
}
