package procurementserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	deliverymapper "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/http/mapper"
	deliverydomain "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	deliveryports "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
)

// DeliveryAPI exposes suppliers, purchase order delivery tracking and consolidations.
type DeliveryAPI struct {
	service deliveryports.Service
}

func NewDeliveryAPI(service deliveryports.Service) DeliveryAPI {
	return DeliveryAPI{service: service}
}

// Post /v1/suppliers
func (api *DeliveryAPI) CreateSupplier(c *gin.Context) {
	var payload deliverymapper.CreateSupplier
	if !bindAndValidate(c, &payload) {
		return
	}
	supplier, err := api.service.CreateSupplier(c.Request.Context(), deliverymapper.ToSupplierInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliverymapper.FromSupplier(supplier))
}

// Get /v1/suppliers
func (api *DeliveryAPI) ListSuppliers(c *gin.Context) {
	suppliers, err := api.service.ListSuppliers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromSuppliers(suppliers))
}

// Get /v1/suppliers/:id
func (api *DeliveryAPI) GetSupplier(c *gin.Context) {
	supplier, err := api.service.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromSupplier(supplier))
}

// Post /v1/purchase-orders
// Create a purchase order for a supplier, stamping its region
func (api *DeliveryAPI) CreatePurchaseOrder(c *gin.Context) {
	var payload deliverymapper.CreatePurchaseOrder
	if !bindAndValidate(c, &payload) {
		return
	}
	po, err := api.service.CreatePurchaseOrder(c.Request.Context(), actorFrom(c), deliverymapper.ToCreatePurchaseOrderInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliverymapper.FromPurchaseOrder(po))
}

// Get /v1/purchase-orders
// List purchase orders, optionally as the delivery or consolidation view
func (api *DeliveryAPI) ListPurchaseOrders(c *gin.Context) {
	filter := deliveryports.PurchaseOrderFilter{
		View:           deliveryports.ListView(c.Query("view")),
		DeliveryStatus: deliverydomain.DeliveryStatus(c.Query("deliveryStatus")),
		SupplierID:     c.Query("supplierId"),
	}
	orders, err := api.service.ListPurchaseOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromPurchaseOrders(orders))
}

// Get /v1/purchase-orders/:poNo
func (api *DeliveryAPI) GetPurchaseOrder(c *gin.Context) {
	po, err := api.service.GetPurchaseOrder(c.Request.Context(), c.Param("poNo"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromPurchaseOrder(po))
}

// Post /v1/purchase-orders/:poNo/confirm
// Confirm the purchase with the supplier
func (api *DeliveryAPI) ConfirmPurchase(c *gin.Context) {
	api.respondOrder(c, func() (*deliverydomain.PurchaseOrder, error) {
		return api.service.ConfirmPurchase(c.Request.Context(), actorFrom(c), c.Param("poNo"))
	})
}

// Post /v1/purchase-orders/:poNo/withdraw
// Cancel a purchase order that has not shipped
func (api *DeliveryAPI) WithdrawPurchaseOrder(c *gin.Context) {
	var payload deliverymapper.Withdraw
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respondOrder(c, func() (*deliverydomain.PurchaseOrder, error) {
		return api.service.Withdraw(c.Request.Context(), actorFrom(c), c.Param("poNo"), payload.Reason)
	})
}

// Put /v1/purchase-orders/:poNo/delivery-status
// Move a purchase order forward along the delivery chain
func (api *DeliveryAPI) UpdateDeliveryStatus(c *gin.Context) {
	var payload deliverymapper.DeliveryStatusUpdate
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respondOrder(c, func() (*deliverydomain.PurchaseOrder, error) {
		return api.service.UpdateDeliveryStatus(c.Request.Context(), actorFrom(c), c.Param("poNo"), deliverymapper.ToDeliveryStatusInput(payload))
	})
}

// Post /v1/purchase-orders/:poNo/delivery-status/override
// Administrative correction of the delivery status, backward moves included
func (api *DeliveryAPI) OverrideDeliveryStatus(c *gin.Context) {
	var payload deliverymapper.DeliveryOverride
	if !bindAndValidate(c, &payload) {
		return
	}
	input := deliveryports.OverrideInput{Status: payload.Status, Reason: payload.Reason}
	api.respondOrder(c, func() (*deliverydomain.PurchaseOrder, error) {
		return api.service.OverrideDeliveryStatus(c.Request.Context(), actorFrom(c), c.Param("poNo"), input)
	})
}

// Post /v1/consolidations
// Group shipped international purchase orders into one shipment
func (api *DeliveryAPI) CreateConsolidation(c *gin.Context) {
	var payload deliverymapper.CreateConsolidation
	if !bindAndValidate(c, &payload) {
		return
	}
	view, err := api.service.CreateConsolidation(c.Request.Context(), actorFrom(c), deliverymapper.ToCreateConsolidationInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deliverymapper.FromConsolidationView(view))
}

// Get /v1/consolidations
func (api *DeliveryAPI) ListConsolidations(c *gin.Context) {
	list, err := api.service.ListConsolidations(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromConsolidations(list))
}

// Get /v1/consolidations/:id
func (api *DeliveryAPI) GetConsolidation(c *gin.Context) {
	api.respondConsolidation(c, func() (*deliveryports.ConsolidationView, error) {
		return api.service.GetConsolidation(c.Request.Context(), c.Param("id"))
	})
}

// Post /v1/consolidations/:id/members
// Add shipped purchase orders to an existing consolidation
func (api *DeliveryAPI) AddConsolidationMembers(c *gin.Context) {
	var payload deliverymapper.AddMembers
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respondConsolidation(c, func() (*deliveryports.ConsolidationView, error) {
		return api.service.AddToConsolidation(c.Request.Context(), actorFrom(c), c.Param("id"), payload.PurchaseOrders)
	})
}

// Put /v1/consolidations/:id/logistics-status
// Advance the shipment and cascade the status to every member order
func (api *DeliveryAPI) UpdateLogisticsStatus(c *gin.Context) {
	var payload deliverymapper.LogisticsStatusUpdate
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respondConsolidation(c, func() (*deliveryports.ConsolidationView, error) {
		return api.service.UpdateLogisticsStatus(c.Request.Context(), actorFrom(c), c.Param("id"), deliverymapper.ToLogisticsStatusInput(payload))
	})
}

func (api *DeliveryAPI) respondOrder(c *gin.Context, call func() (*deliverydomain.PurchaseOrder, error)) {
	po, err := call()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromPurchaseOrder(po))
}

func (api *DeliveryAPI) respondConsolidation(c *gin.Context, call func() (*deliveryports.ConsolidationView, error)) {
	view, err := call()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliverymapper.FromConsolidationView(view))
}
