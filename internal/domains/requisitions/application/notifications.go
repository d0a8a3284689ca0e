package application

import (
	"fmt"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

// Notifications converts recorded domain events into outbound status changes.
func Notifications(recorded []domain.Event) []events.StatusChanged {
	out := make([]events.StatusChanged, 0, len(recorded))
	for _, e := range recorded {
		switch ev := e.(type) {
		case domain.RequisitionStatusChanged:
			out = append(out, events.NewStatusChanged(events.AggregateRequisition, ev.OrderNo,
				string(ev.From), string(ev.To), ev.Actor, ev.OccurredAt()))
		case domain.LineItemDecided:
			out = append(out, events.NewStatusChanged(events.AggregateLineItem, fmt.Sprintf("%s#%d", ev.OrderNo, ev.LineNo),
				string(ev.From), string(ev.To), ev.Actor, ev.OccurredAt()))
		}
	}
	return out
}
