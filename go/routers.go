package procurementserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI, relative to /v1.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every bounded context.
type ApiHandleFunctions struct {
	RequisitionAPI RequisitionAPI
	DeliveryAPI    DeliveryAPI
	ConsistencyAPI ConsistencyAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing engine. Middleware
// installed on router before this call applies to every route.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.GET("/healthz", Healthz)
	v1 := router.Group("/v1", RequireActor())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		v1.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DefaultHandleFunc answers routes without a handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(h ApiHandleFunctions) []Route {
	return []Route{
		{"CreateRequisition", http.MethodPost, "/requisitions", h.RequisitionAPI.CreateRequisition},
		{"ListRequisitions", http.MethodGet, "/requisitions", h.RequisitionAPI.ListRequisitions},
		{"ListQuestionedItems", http.MethodGet, "/requisitions/questioned-items", h.RequisitionAPI.ListQuestionedItems},
		{"GetRequisition", http.MethodGet, "/requisitions/:orderNo", h.RequisitionAPI.GetRequisition},
		{"GetRequisitionSummary", http.MethodGet, "/requisitions/:orderNo/summary", h.RequisitionAPI.GetRequisitionSummary},
		{"SubmitRequisition", http.MethodPost, "/requisitions/:orderNo/submit", h.RequisitionAPI.SubmitRequisition},
		{"CancelRequisition", http.MethodPost, "/requisitions/:orderNo/cancel", h.RequisitionAPI.CancelRequisition},
		{"RejectRequisition", http.MethodPost, "/requisitions/:orderNo/reject", h.RequisitionAPI.RejectRequisition},
		{"ApproveLineItem", http.MethodPost, "/requisitions/:orderNo/lines/:lineNo/approve", h.RequisitionAPI.ApproveLineItem},
		{"RejectLineItem", http.MethodPost, "/requisitions/:orderNo/lines/:lineNo/reject", h.RequisitionAPI.RejectLineItem},
		{"QuestionLineItem", http.MethodPost, "/requisitions/:orderNo/lines/:lineNo/question", h.RequisitionAPI.QuestionLineItem},
		{"MarkLineItemUnavailable", http.MethodPost, "/requisitions/:orderNo/lines/:lineNo/unavailable", h.RequisitionAPI.MarkLineItemUnavailable},
		{"UpdateLineItemNote", http.MethodPatch, "/requisitions/:orderNo/lines/:lineNo/note", h.RequisitionAPI.UpdateLineItemNote},

		{"CreateSupplier", http.MethodPost, "/suppliers", h.DeliveryAPI.CreateSupplier},
		{"ListSuppliers", http.MethodGet, "/suppliers", h.DeliveryAPI.ListSuppliers},
		{"GetSupplier", http.MethodGet, "/suppliers/:id", h.DeliveryAPI.GetSupplier},
		{"CreatePurchaseOrder", http.MethodPost, "/purchase-orders", h.DeliveryAPI.CreatePurchaseOrder},
		{"ListPurchaseOrders", http.MethodGet, "/purchase-orders", h.DeliveryAPI.ListPurchaseOrders},
		{"GetPurchaseOrder", http.MethodGet, "/purchase-orders/:poNo", h.DeliveryAPI.GetPurchaseOrder},
		{"ConfirmPurchase", http.MethodPost, "/purchase-orders/:poNo/confirm", h.DeliveryAPI.ConfirmPurchase},
		{"WithdrawPurchaseOrder", http.MethodPost, "/purchase-orders/:poNo/withdraw", h.DeliveryAPI.WithdrawPurchaseOrder},
		{"UpdateDeliveryStatus", http.MethodPut, "/purchase-orders/:poNo/delivery-status", h.DeliveryAPI.UpdateDeliveryStatus},
		{"OverrideDeliveryStatus", http.MethodPost, "/purchase-orders/:poNo/delivery-status/override", h.DeliveryAPI.OverrideDeliveryStatus},
		{"CreateConsolidation", http.MethodPost, "/consolidations", h.DeliveryAPI.CreateConsolidation},
		{"ListConsolidations", http.MethodGet, "/consolidations", h.DeliveryAPI.ListConsolidations},
		{"GetConsolidation", http.MethodGet, "/consolidations/:id", h.DeliveryAPI.GetConsolidation},
		{"AddConsolidationMembers", http.MethodPost, "/consolidations/:id/members", h.DeliveryAPI.AddConsolidationMembers},
		{"UpdateLogisticsStatus", http.MethodPut, "/consolidations/:id/logistics-status", h.DeliveryAPI.UpdateLogisticsStatus},

		{"GetConsistencyReport", http.MethodGet, "/consistency/report", h.ConsistencyAPI.GetConsistencyReport},
		{"Reconcile", http.MethodPost, "/consistency/reconcile", h.ConsistencyAPI.Reconcile},
		{"ListCorrections", http.MethodGet, "/consistency/corrections", h.ConsistencyAPI.ListCorrections},
	}
}
