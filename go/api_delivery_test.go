package procurementserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	deliverymapper "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/http/mapper"
)

var (
	buyer = as("dave", "procurement_manager")
	admin = as("erin", "admin")
)

func createSupplier(t *testing.T, app *testApp, id, region string) {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/v1/suppliers", deliverymapper.CreateSupplier{ID: id, Name: id + " Ltd", Region: region}, buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func shippedOrder(t *testing.T, app *testApp, supplierID string) string {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/v1/purchase-orders", deliverymapper.CreatePurchaseOrder{
		SupplierID: supplierID,
		Items:      []deliverymapper.POItemRequest{{ItemName: "Server rack", Quantity: 1, UnitPrice: 900}},
	}, buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	po := decode[deliverymapper.PurchaseOrder](t, rec)

	rec = app.do(t, http.MethodPost, "/v1/purchase-orders/"+po.PONo+"/confirm", nil, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, decode[deliverymapper.PurchaseOrder](t, rec).StatusUpdateRequired)

	rec = app.do(t, http.MethodPut, "/v1/purchase-orders/"+po.PONo+"/delivery-status", deliverymapper.DeliveryStatusUpdate{Status: "shipped"}, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	shipped := decode[deliverymapper.PurchaseOrder](t, rec)
	require.NotNil(t, shipped.ShippedAt)
	require.False(t, shipped.StatusUpdateRequired)
	return po.PONo
}

func TestSupplier_DuplicateAndMissing(t *testing.T) {
	app := newTestApp(t)
	createSupplier(t, app, "SUP-1", "domestic")

	rec := app.do(t, http.MethodPost, "/v1/suppliers", deliverymapper.CreateSupplier{ID: "SUP-1", Name: "Again", Region: "domestic"}, buyer)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/suppliers/SUP-404", nil, buyer)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/suppliers", deliverymapper.CreateSupplier{ID: "SUP-2", Name: "Moon", Region: "lunar"}, buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryStatus_RejectsBackwardAndCustomsForDomestic(t *testing.T) {
	app := newTestApp(t)
	createSupplier(t, app, "SUP-DOM", "domestic")
	poNo := shippedOrder(t, app, "SUP-DOM")
	path := "/v1/purchase-orders/" + poNo + "/delivery-status"

	rec := app.do(t, http.MethodPut, path, deliverymapper.DeliveryStatusUpdate{Status: "foreign_customs"}, buyer)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodPut, path, deliverymapper.DeliveryStatusUpdate{Status: "teleported"}, buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, path, deliverymapper.DeliveryStatusUpdate{Status: "delivered"}, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode[deliverymapper.PurchaseOrder](t, rec).ActualDeliveryDate)

	rec = app.do(t, http.MethodPut, path, deliverymapper.DeliveryStatusUpdate{Status: "in_transit"}, buyer)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "delivered", decodeProblem(t, rec).Extensions["currentStatus"])
}

func TestOverrideDeliveryStatus_AdminOnly(t *testing.T) {
	app := newTestApp(t)
	createSupplier(t, app, "SUP-DOM", "domestic")
	poNo := shippedOrder(t, app, "SUP-DOM")
	path := "/v1/purchase-orders/" + poNo + "/delivery-status/override"
	body := deliverymapper.DeliveryOverride{Status: "not_shipped", Reason: "entered by mistake"}

	rec := app.do(t, http.MethodPost, path, body, buyer)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, path, body, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	po := decode[deliverymapper.PurchaseOrder](t, rec)
	require.Equal(t, "not_shipped", po.DeliveryStatus)
	require.Contains(t, po.Remarks, "entered by mistake")
}

func TestConsolidation_EligibilityAndCascade(t *testing.T) {
	app := newTestApp(t)
	createSupplier(t, app, "SUP-INT", "international")
	createSupplier(t, app, "SUP-DOM", "domestic")
	first := shippedOrder(t, app, "SUP-INT")
	second := shippedOrder(t, app, "SUP-INT")
	domestic := shippedOrder(t, app, "SUP-DOM")

	rec := app.do(t, http.MethodPost, "/v1/consolidations", deliverymapper.CreateConsolidation{PurchaseOrders: []string{first, domestic}}, buyer)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, domestic, decodeProblem(t, rec).Extensions["purchaseOrder"])

	rec = app.do(t, http.MethodPost, "/v1/consolidations", deliverymapper.CreateConsolidation{PurchaseOrders: []string{first, "PO-missing"}}, buyer)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/consolidations", deliverymapper.CreateConsolidation{
		PurchaseOrders: []string{first, second},
		Carrier:        "DHL",
	}, buyer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	consolidation := decode[deliverymapper.Consolidation](t, rec)
	require.Equal(t, "shipped", consolidation.LogisticsStatus)
	require.ElementsMatch(t, []string{first, second}, consolidation.Members)

	rec = app.do(t, http.MethodPut, "/v1/purchase-orders/"+first+"/delivery-status", deliverymapper.DeliveryStatusUpdate{Status: "in_transit"}, buyer)
	require.Equal(t, http.StatusConflict, rec.Code)

	remarks := "left Kaohsiung"
	rec = app.do(t, http.MethodPut, "/v1/consolidations/"+consolidation.ID+"/logistics-status", deliverymapper.LogisticsStatusUpdate{
		DeliveryStatusUpdate: deliverymapper.DeliveryStatusUpdate{Status: "in_transit", Remarks: &remarks},
	}, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[deliverymapper.Consolidation](t, rec)
	require.Equal(t, "in_transit", updated.LogisticsStatus)
	require.Len(t, updated.PurchaseOrders, 2)
	for _, po := range updated.PurchaseOrders {
		require.Equal(t, "in_transit", po.DeliveryStatus)
		for _, item := range po.Items {
			require.Equal(t, "in_transit", item.DeliveryStatus)
			require.Equal(t, remarks, item.Remarks)
		}
	}

	rec = app.do(t, http.MethodGet, "/v1/purchase-orders?view=consolidation", nil, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]deliverymapper.PurchaseOrder](t, rec), 2)

	rec = app.do(t, http.MethodGet, "/v1/purchase-orders?view=delivery", nil, buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	delivery := decode[[]deliverymapper.PurchaseOrder](t, rec)
	require.Len(t, delivery, 1)
	require.Equal(t, domestic, delivery[0].PONo)

	rec = app.do(t, http.MethodGet, "/v1/purchase-orders?view=sideways", nil, buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawPurchaseOrder(t *testing.T) {
	app := newTestApp(t)
	createSupplier(t, app, "SUP-DOM", "domestic")
	rec := app.do(t, http.MethodPost, "/v1/purchase-orders", deliverymapper.CreatePurchaseOrder{
		SupplierID: "SUP-DOM",
		Items:      []deliverymapper.POItemRequest{{ItemName: "Chair", Quantity: 4, UnitPrice: 50}},
	}, buyer)
	require.Equal(t, http.StatusCreated, rec.Code)
	po := decode[deliverymapper.PurchaseOrder](t, rec)
	path := "/v1/purchase-orders/" + po.PONo + "/withdraw"

	rec = app.do(t, http.MethodPost, path, deliverymapper.Withdraw{}, buyer)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, path, deliverymapper.Withdraw{Reason: "supplier out of stock"}, buyer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "cancelled", decode[deliverymapper.PurchaseOrder](t, rec).PurchaseStatus)
}
