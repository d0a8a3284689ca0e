package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/memory"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/application"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

func TestService_CountsStatusUpdatesAndConsolidations(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	svc := New(application.NewService(memory.NewRepository()),
		WithLogger(logger),
		WithMeter(provider.Meter("test")),
	)
	ctx := context.Background()
	buyer := actor.Actor{ID: "carol", Role: actor.RoleProcurementManager}

	_, err := svc.CreateSupplier(ctx, ports.SupplierInput{ID: "SUP-1", Name: "Acme", Region: "domestic"})
	require.NoError(t, err)
	po, err := svc.CreatePurchaseOrder(ctx, buyer, ports.CreatePurchaseOrderInput{
		SupplierID: "SUP-1",
		Items:      []ports.POItemInput{{ItemName: "Cable", Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = svc.ConfirmPurchase(ctx, buyer, po.PONo)
	require.NoError(t, err)
	_, err = svc.UpdateDeliveryStatus(ctx, buyer, po.PONo, ports.DeliveryStatusInput{Status: "foreign_customs"})
	require.Error(t, err)
	_, err = svc.CreateConsolidation(ctx, buyer, ports.CreateConsolidationInput{PurchaseOrders: []string{po.PONo}})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	require.Equal(t, int64(2), totals["delivery.service.status_updates"])
	require.Equal(t, int64(1), totals["delivery.service.consolidations"])
	require.Contains(t, logs.String(), "purchase order delivery_status failed")
	require.Contains(t, logs.String(), "failed to create consolidation")
}
