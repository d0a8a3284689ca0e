package procurementserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	requisitionmapper "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/http/mapper"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
)

var (
	requester = as("alice", "requester")
	reviewer  = as("bob", "reviewer")
	manager   = as("carol", "procurement_manager")
)

func createRequisition(t *testing.T, app *testApp, items int, opts ...requestOption) requisitionmapper.Requisition {
	t.Helper()
	payload := requisitionmapper.CreateRequisition{}
	for i := 0; i < items; i++ {
		payload.Items = append(payload.Items, requisitionmapper.ItemRequest{ItemName: "Monitor", Quantity: 2, Unit: "pcs"})
	}
	rec := app.do(t, http.MethodPost, "/v1/requisitions", payload, append([]requestOption{requester}, opts...)...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[requisitionmapper.Requisition](t, rec)
}

func submitted(t *testing.T, app *testApp, items int) string {
	t.Helper()
	req := createRequisition(t, app, items)
	rec := app.do(t, http.MethodPost, "/v1/requisitions/"+req.OrderNo+"/submit", nil, requester)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return req.OrderNo
}

func TestCreateRequisition_Draft(t *testing.T) {
	app := newTestApp(t)

	req := createRequisition(t, app, 2)

	require.Equal(t, "alice", req.Requester)
	require.Equal(t, "draft", req.Status)
	require.Len(t, req.Items, 2)
	require.Equal(t, 2, req.Summary.Pending)
}

func TestCreateRequisition_ValidatesPayload(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/requisitions", requisitionmapper.CreateRequisition{}, requester)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, apierrors.TypeValidation, problem.Type)
	require.Contains(t, problem.Extensions, "fields")
}

func TestCreateRequisition_IdempotencyKey(t *testing.T) {
	app := newTestApp(t)
	key := withHeader(HeaderIdempotencyKey, "create-1")

	first := createRequisition(t, app, 1, key)
	second := createRequisition(t, app, 1, key)
	require.Equal(t, first.OrderNo, second.OrderNo)

	rec := app.do(t, http.MethodPost, "/v1/requisitions", requisitionmapper.CreateRequisition{
		Items: []requisitionmapper.ItemRequest{{ItemName: "Desk", Quantity: 1}},
	}, requester, key)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestReviewFlow_DerivesReviewedStatus(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 2)
	base := "/v1/requisitions/" + orderNo

	rec := app.do(t, http.MethodPost, base+"/lines/1/approve", requisitionmapper.ApproveItem{SupplierID: "SUP-1", UnitPrice: 120}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "submitted", decode[requisitionmapper.Requisition](t, rec).Status)

	rec = app.do(t, http.MethodPost, base+"/lines/2/reject", requisitionmapper.Reason{}, reviewer)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, base+"/lines/2/reject", requisitionmapper.Reason{Reason: "duplicate"}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[requisitionmapper.Requisition](t, rec)
	require.Equal(t, "reviewed", updated.Status)
	require.Equal(t, "approved", updated.Items[0].Status)
	require.NotNil(t, updated.Items[0].UnitPrice)
	require.Equal(t, "rejected", updated.Items[1].Status)

	rec = app.do(t, http.MethodGet, base+"/summary", nil, reviewer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, requisitionmapper.Summary{Total: 2, Approved: 1, Rejected: 1}, decode[requisitionmapper.Summary](t, rec))
}

func TestDecision_InvalidTransitionIsConflict(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 2)
	base := "/v1/requisitions/" + orderNo
	rec := app.do(t, http.MethodPost, base+"/lines/1/reject", requisitionmapper.Reason{Reason: "no"}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, base+"/lines/1/approve", requisitionmapper.ApproveItem{SupplierID: "SUP-1", UnitPrice: 1}, reviewer)

	require.Equal(t, http.StatusConflict, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, "rejected", problem.Extensions["currentStatus"])
	require.Equal(t, "approve", problem.Extensions["action"])
}

func TestDecision_NotFoundAndBadLineNumber(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 1)

	rec := app.do(t, http.MethodPost, "/v1/requisitions/"+orderNo+"/lines/9/unavailable", nil, reviewer)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/requisitions/REQ-missing/lines/1/unavailable", nil, reviewer)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/requisitions/"+orderNo+"/lines/x/unavailable", nil, reviewer)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/requisitions/"+orderNo+"/lines/1/unavailable", nil, reviewer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "reviewed", decode[requisitionmapper.Requisition](t, rec).Status)
}

func TestCancelRequisition_RequiresManager(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 1)
	path := "/v1/requisitions/" + orderNo + "/cancel"

	rec := app.do(t, http.MethodPost, path, requisitionmapper.Reason{Reason: "budget"}, reviewer)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, path, requisitionmapper.Reason{Reason: "budget"}, manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cancelled := decode[requisitionmapper.Requisition](t, rec)
	require.Equal(t, "cancelled", cancelled.Status)
	require.Equal(t, "cancelled", cancelled.Items[0].Status)
}

func TestListRequisitions_FiltersAndQuestionedItems(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 2)
	createRequisition(t, app, 1)

	rec := app.do(t, http.MethodPost, "/v1/requisitions/"+orderNo+"/lines/2/question", requisitionmapper.Reason{Reason: "which brand?"}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/v1/requisitions?status=submitted", nil, reviewer)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]requisitionmapper.Requisition](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, orderNo, list[0].OrderNo)

	rec = app.do(t, http.MethodGet, "/v1/requisitions?status=teleported", nil, reviewer)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "teleported", decodeProblem(t, rec).Extensions["value"])

	rec = app.do(t, http.MethodGet, "/v1/requisitions/questioned-items", nil, reviewer)
	require.Equal(t, http.StatusOK, rec.Code)
	questioned := decode[[]requisitionmapper.QuestionedItem](t, rec)
	require.Len(t, questioned, 1)
	require.Equal(t, int64(2), questioned[0].Item.LineNo)
}

func TestUpdateLineItemNoteAndRejectRemaining(t *testing.T) {
	app := newTestApp(t)
	orderNo := submitted(t, app, 2)
	base := "/v1/requisitions/" + orderNo

	rec := app.do(t, http.MethodPatch, base+"/lines/1/note", requisitionmapper.Note{Note: "prefer 27 inch"}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "prefer 27 inch", decode[requisitionmapper.Requisition](t, rec).Items[0].StatusNote)

	rec = app.do(t, http.MethodPost, base+"/reject", requisitionmapper.Reason{Reason: "budget cut"}, reviewer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[requisitionmapper.Requisition](t, rec)
	require.Equal(t, "reviewed", updated.Status)
	require.Equal(t, 2, updated.Summary.Rejected)
}
