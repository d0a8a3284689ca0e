package procurementserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	requisitionmapper "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/http/mapper"
	requisitiondomain "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	requisitionports "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
)

// RequisitionAPI wires HTTP transport with the requisitions bounded context service.
type RequisitionAPI struct {
	service requisitionports.Service
}

// NewRequisitionAPI creates a RequisitionAPI backed by the provided service.
func NewRequisitionAPI(service requisitionports.Service) RequisitionAPI {
	return RequisitionAPI{service: service}
}

// Post /v1/requisitions
// Create a draft requisition
func (api *RequisitionAPI) CreateRequisition(c *gin.Context) {
	var payload requisitionmapper.CreateRequisition
	if !bindAndValidate(c, &payload) {
		return
	}
	input := requisitionmapper.ToCreateInput(payload, c.GetHeader(HeaderIdempotencyKey))
	created, err := api.service.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, requisitionmapper.FromRequisition(created))
}

// Get /v1/requisitions
// List requisitions by status and requester
func (api *RequisitionAPI) ListRequisitions(c *gin.Context) {
	filter := requisitionports.ListFilter{
		Status:    requisitiondomain.OrderStatus(c.Query("status")),
		Requester: c.Query("requester"),
	}
	result, err := api.service.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionmapper.FromRequisitions(result))
}

// Get /v1/requisitions/questioned-items
// List line items waiting on the requester
func (api *RequisitionAPI) ListQuestionedItems(c *gin.Context) {
	result, err := api.service.QuestionedItems(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionmapper.FromQuestionedItems(result))
}

// Get /v1/requisitions/:orderNo
func (api *RequisitionAPI) GetRequisition(c *gin.Context) {
	req, err := api.service.Get(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionmapper.FromRequisition(req))
}

// Get /v1/requisitions/:orderNo/summary
// Count line items per review outcome
func (api *RequisitionAPI) GetRequisitionSummary(c *gin.Context) {
	summary, err := api.service.Summary(c.Request.Context(), c.Param("orderNo"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionmapper.FromSummary(summary))
}

// Post /v1/requisitions/:orderNo/submit
// Submit a draft requisition for review
func (api *RequisitionAPI) SubmitRequisition(c *gin.Context) {
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.Submit(c.Request.Context(), actorFrom(c), c.Param("orderNo"))
	})
}

// Post /v1/requisitions/:orderNo/cancel
// Cancel a requisition and every line item
func (api *RequisitionAPI) CancelRequisition(c *gin.Context) {
	var payload requisitionmapper.Reason
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.Cancel(c.Request.Context(), actorFrom(c), c.Param("orderNo"), payload.Reason)
	})
}

// Post /v1/requisitions/:orderNo/reject
// Reject every line item still awaiting a decision
func (api *RequisitionAPI) RejectRequisition(c *gin.Context) {
	var payload requisitionmapper.Reason
	if !bindAndValidate(c, &payload) {
		return
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.RejectRemaining(c.Request.Context(), actorFrom(c), c.Param("orderNo"), payload.Reason)
	})
}

// Post /v1/requisitions/:orderNo/lines/:lineNo/approve
// Approve a line item with supplier and unit price
func (api *RequisitionAPI) ApproveLineItem(c *gin.Context) {
	lineNo, ok := parseLineNo(c)
	if !ok {
		return
	}
	var payload requisitionmapper.ApproveItem
	if !bindAndValidate(c, &payload) {
		return
	}
	input := requisitionports.ApproveInput{
		OrderNo:    c.Param("orderNo"),
		LineNo:     lineNo,
		SupplierID: payload.SupplierID,
		UnitPrice:  payload.UnitPrice,
		Note:       payload.Note,
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.ApproveItem(c.Request.Context(), actorFrom(c), input)
	})
}

// Post /v1/requisitions/:orderNo/lines/:lineNo/reject
func (api *RequisitionAPI) RejectLineItem(c *gin.Context) {
	input, ok := decisionInput(c, true)
	if !ok {
		return
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.RejectItem(c.Request.Context(), actorFrom(c), input)
	})
}

// Post /v1/requisitions/:orderNo/lines/:lineNo/question
func (api *RequisitionAPI) QuestionLineItem(c *gin.Context) {
	input, ok := decisionInput(c, true)
	if !ok {
		return
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.QuestionItem(c.Request.Context(), actorFrom(c), input)
	})
}

// Post /v1/requisitions/:orderNo/lines/:lineNo/unavailable
func (api *RequisitionAPI) MarkLineItemUnavailable(c *gin.Context) {
	input, ok := decisionInput(c, false)
	if !ok {
		return
	}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.MarkItemUnavailable(c.Request.Context(), actorFrom(c), input)
	})
}

// Patch /v1/requisitions/:orderNo/lines/:lineNo/note
// Replace the status note of a line item
func (api *RequisitionAPI) UpdateLineItemNote(c *gin.Context) {
	lineNo, ok := parseLineNo(c)
	if !ok {
		return
	}
	var payload requisitionmapper.Note
	if !bindAndValidate(c, &payload) {
		return
	}
	input := requisitionports.DecisionInput{OrderNo: c.Param("orderNo"), LineNo: lineNo, Reason: payload.Note}
	api.respond(c, func() (*requisitiondomain.Requisition, error) {
		return api.service.UpdateItemNote(c.Request.Context(), actorFrom(c), input)
	})
}

func (api *RequisitionAPI) respond(c *gin.Context, call func() (*requisitiondomain.Requisition, error)) {
	updated, err := call()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requisitionmapper.FromRequisition(updated))
}

func decisionInput(c *gin.Context, reasonRequired bool) (requisitionports.DecisionInput, bool) {
	lineNo, ok := parseLineNo(c)
	if !ok {
		return requisitionports.DecisionInput{}, false
	}
	input := requisitionports.DecisionInput{OrderNo: c.Param("orderNo"), LineNo: lineNo}
	if reasonRequired {
		var payload requisitionmapper.Reason
		if !bindAndValidate(c, &payload) {
			return requisitionports.DecisionInput{}, false
		}
		input.Reason = payload.Reason
		return input, true
	}
	var payload requisitionmapper.OptionalReason
	if c.Request.ContentLength != 0 {
		if !bindAndValidate(c, &payload) {
			return requisitionports.DecisionInput{}, false
		}
	}
	input.Reason = payload.Reason
	return input, true
}

func parseLineNo(c *gin.Context) (int64, bool) {
	lineNo, err := strconv.ParseInt(c.Param("lineNo"), 10, 64)
	if err != nil || lineNo <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("lineNo must be a positive integer"))
		return 0, false
	}
	return lineNo, true
}
