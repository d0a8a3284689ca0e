package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

var (
	requester = actor.Actor{ID: "alice", Role: actor.RoleRequester}
	reviewer  = actor.Actor{ID: "bob", Role: actor.RoleReviewer}
)

func newSubmitted(t *testing.T, items int) *Requisition {
	t.Helper()
	req := newDraft(t, items)
	require.NoError(t, req.Submit(requester))
	return req
}

func newDraft(t *testing.T, items int) *Requisition {
	t.Helper()
	lines := make([]*LineItem, 0, items)
	for i := 0; i < items; i++ {
		item, err := NewLineItem("Widget", "M6", float64(i+1), "pcs")
		require.NoError(t, err)
		lines = append(lines, item)
	}
	req, err := NewRequisition("REQ20240101001", "alice", lines...)
	require.NoError(t, err)
	return req
}

func TestSubmit_FlipsDraftItemsToPendingReview(t *testing.T) {
	req := newDraft(t, 2)

	require.NoError(t, req.Submit(requester))

	require.Equal(t, OrderSubmitted, req.Status)
	require.NotNil(t, req.SubmitDate)
	for _, item := range req.Items {
		require.Equal(t, ItemPendingReview, item.Status)
	}
	require.Equal(t, Summary{Total: 2, Pending: 2}, req.Summary())
}

func TestSubmit_RequiresDraftWithItems(t *testing.T) {
	empty, err := NewRequisition("REQ20240101002", "alice")
	require.NoError(t, err)
	err = empty.Submit(requester)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	require.Equal(t, OrderDraft, empty.Status)

	req := newSubmitted(t, 1)
	require.ErrorIs(t, req.Submit(requester), lifecycle.ErrInvalidTransition)
}

func TestNewRequisition_AssignsLineNumbers(t *testing.T) {
	req := newDraft(t, 3)
	for i, item := range req.Items {
		require.Equal(t, int64(i+1), item.LineNo)
		require.Equal(t, "REQ20240101001", item.OrderNo)
	}
	extra, err := NewLineItem("Bolt", "", 4, "pcs")
	require.NoError(t, err)
	require.NoError(t, req.AddItem(extra))
	require.Equal(t, int64(4), extra.LineNo)
	require.Equal(t, "REQ20240101001", extra.OrderNo)
	require.Equal(t, "REQ20240101001", req.Clone().Items[3].OrderNo)

	require.NoError(t, req.Submit(requester))
	late, err := NewLineItem("Nut", "", 1, "pcs")
	require.NoError(t, err)
	require.ErrorIs(t, req.AddItem(late), lifecycle.ErrInvalidTransition)
}

func TestApproveApproveReject_ReviewsRequisition(t *testing.T) {
	req := newSubmitted(t, 3)

	require.NoError(t, req.ApproveItem(1, "SUP-1", 12.5, "", reviewer))
	require.NoError(t, req.ApproveItem(2, "SUP-2", 30, "", reviewer))
	require.Equal(t, OrderSubmitted, req.Status)

	require.NoError(t, req.RejectItem(3, "over budget", reviewer))

	require.Equal(t, OrderReviewed, req.Status)
	require.Equal(t, Summary{Total: 3, Approved: 2, Rejected: 1}, req.Summary())
	for lineNo, want := range map[int64]ItemStatus{1: ItemApproved, 2: ItemApproved, 3: ItemRejected} {
		item, err := req.Item(lineNo)
		require.NoError(t, err)
		require.Equal(t, want, item.Status)
	}
}

func TestMixedDecisions_ReviewOnLastPendingItem(t *testing.T) {
	req := newSubmitted(t, 3)

	require.NoError(t, req.ApproveItem(1, "SUP-1", 12.5, "", reviewer))
	require.Equal(t, OrderSubmitted, req.Status)

	require.NoError(t, req.RejectItem(2, "not needed", reviewer))
	require.Equal(t, OrderSubmitted, req.Status)

	require.NoError(t, req.QuestionItem(3, "which size?", reviewer))
	require.Equal(t, OrderReviewed, req.Status)
	require.Equal(t, Summary{Total: 3, Approved: 1, Rejected: 1, Questioned: 1}, req.Summary())
}

func TestApprove_FromApprovedIsRejected(t *testing.T) {
	req := newSubmitted(t, 2)
	require.NoError(t, req.ApproveItem(1, "SUP-1", 10, "", reviewer))

	err := req.RejectItem(1, "changed my mind", reviewer)

	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	te, ok := lifecycle.AsTransition(err)
	require.True(t, ok)
	require.Equal(t, string(ItemApproved), te.From)
	require.Equal(t, "REQ20240101001#1", te.ID)
	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemApproved, item.Status)
	require.Equal(t, OrderSubmitted, req.Status)
}

func TestApprove_ValidatesSupplierAndPrice(t *testing.T) {
	req := newSubmitted(t, 1)

	require.ErrorIs(t, req.ApproveItem(1, " ", 10, "", reviewer), ErrSupplierRequired)
	require.ErrorIs(t, req.ApproveItem(1, "SUP-1", 0, "", reviewer), ErrInvalidUnitPrice)
	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemPendingReview, item.Status)
	require.Nil(t, item.SupplierID)
}

func TestApprove_FromQuestionedAppendsNote(t *testing.T) {
	req := newSubmitted(t, 1)
	require.NoError(t, req.QuestionItem(1, "which size?", reviewer))
	require.Equal(t, OrderReviewed, req.Status)

	require.NoError(t, req.ApproveItem(1, "SUP-9", 3.2, "size confirmed", reviewer))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemApproved, item.Status)
	require.Equal(t, "SUP-9", *item.SupplierID)
	require.Equal(t, 3.2, *item.UnitPrice)
	require.Equal(t, "[bob] which size?\n[bob] size confirmed", item.StatusNote)
	require.Equal(t, OrderReviewed, req.Status)
}

func TestReject_IsIdempotentOnRejectedItem(t *testing.T) {
	req := newSubmitted(t, 2)
	require.NoError(t, req.RejectItem(1, "too expensive", reviewer))
	req.ClearEvents()

	require.NoError(t, req.RejectItem(1, "duplicate request", reviewer))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemRejected, item.Status)
	require.Equal(t, "[bob] duplicate request", item.StatusNote)
	require.Empty(t, req.Events())
}

func TestQuestion_OnlyFromPendingReview(t *testing.T) {
	req := newSubmitted(t, 2)
	require.NoError(t, req.QuestionItem(1, "colour?", reviewer))
	require.NoError(t, req.QuestionItem(1, "colour and size?", reviewer))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, "[bob] colour and size?", item.StatusNote)

	require.NoError(t, req.RejectItem(2, "no budget", reviewer))
	require.ErrorIs(t, req.QuestionItem(2, "why?", reviewer), lifecycle.ErrInvalidTransition)
}

func TestMarkUnavailable_ClearsSupplierAndPrice(t *testing.T) {
	req := newSubmitted(t, 2)
	require.NoError(t, req.ApproveItem(1, "SUP-1", 10, "", reviewer))

	require.NoError(t, req.MarkItemUnavailable(1, "discontinued", reviewer))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemUnavailable, item.Status)
	require.Nil(t, item.SupplierID)
	require.Nil(t, item.UnitPrice)
	require.ErrorIs(t, req.MarkItemUnavailable(1, "again", reviewer), lifecycle.ErrInvalidTransition)

	require.NoError(t, req.MarkItemUnavailable(2, "out of stock", reviewer))
	require.Equal(t, OrderReviewed, req.Status)
	require.Equal(t, 2, req.Summary().Unavailable)
}

func TestDecisions_RequireSubmittedRequisition(t *testing.T) {
	req := newDraft(t, 1)
	require.ErrorIs(t, req.ApproveItem(1, "SUP-1", 1, "", reviewer), lifecycle.ErrInvalidTransition)

	submitted := newSubmitted(t, 1)
	require.ErrorIs(t, submitted.ApproveItem(9, "SUP-1", 1, "", reviewer), ErrLineItemNotFound)
}

func TestCancel_CancelsEveryItem(t *testing.T) {
	req := newSubmitted(t, 3)
	require.NoError(t, req.ApproveItem(1, "SUP-1", 10, "", reviewer))

	require.ErrorIs(t, req.Cancel(" ", reviewer), ErrReasonRequired)
	require.NoError(t, req.Cancel("budget frozen", reviewer))

	require.Equal(t, OrderCancelled, req.Status)
	require.Equal(t, "budget frozen", req.CancelReason)
	for _, item := range req.Items {
		require.Equal(t, ItemCancelled, item.Status)
		require.Nil(t, item.SupplierID)
		require.Contains(t, item.StatusNote, "cancelled: budget frozen")
	}
	require.Equal(t, 3, req.Summary().Cancelled)
	require.ErrorIs(t, req.Cancel("again", reviewer), lifecycle.ErrInvalidTransition)
	require.ErrorIs(t, req.RejectItem(2, "x", reviewer), lifecycle.ErrInvalidTransition)
	require.ErrorIs(t, req.UpdateItemNote(2, "x"), lifecycle.ErrInvalidTransition)
}

func TestCancel_AllowedAfterReview(t *testing.T) {
	req := newSubmitted(t, 1)
	require.NoError(t, req.RejectItem(1, "no", reviewer))
	require.Equal(t, OrderReviewed, req.Status)

	require.NoError(t, req.Cancel("superseded", reviewer))
	require.Equal(t, OrderCancelled, req.Status)
}

func TestRejectRemaining_RejectsPendingAndQuestioned(t *testing.T) {
	req := newSubmitted(t, 3)
	require.NoError(t, req.ApproveItem(1, "SUP-1", 10, "", reviewer))
	require.NoError(t, req.QuestionItem(2, "spec?", reviewer))

	require.NoError(t, req.RejectRemaining("budget cut", reviewer))

	require.Equal(t, OrderReviewed, req.Status)
	require.Equal(t, Summary{Total: 3, Approved: 1, Rejected: 2}, req.Summary())
	require.ErrorIs(t, req.RejectRemaining("again", reviewer), lifecycle.ErrInvalidTransition)
}

func TestUpdateItemNote_KeepsStatus(t *testing.T) {
	req := newSubmitted(t, 1)
	require.NoError(t, req.UpdateItemNote(1, "urgent"))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, "urgent", item.StatusNote)
	require.Equal(t, ItemPendingReview, item.Status)
	require.Equal(t, OrderSubmitted, req.Status)
}

func TestUpdateStatusAfterReview_RepairsStaleRequisition(t *testing.T) {
	req := newSubmitted(t, 2)
	// Simulate rows written by an older release that never recomputed the status.
	for _, item := range req.Items {
		supplier, price := "SUP-1", 5.0
		item.Status = ItemApproved
		item.SupplierID = &supplier
		item.UnitPrice = &price
	}
	require.Equal(t, OrderSubmitted, req.Status)

	require.True(t, req.UpdateStatusAfterReview())
	require.Equal(t, OrderReviewed, req.Status)
	require.False(t, req.UpdateStatusAfterReview())
}

func TestUpdateStatusAfterReview_NoOpOutsideSubmitted(t *testing.T) {
	draft := newDraft(t, 1)
	require.False(t, draft.UpdateStatusAfterReview())
	require.Equal(t, OrderDraft, draft.Status)

	empty := &Requisition{OrderNo: "REQ1", Requester: "alice", Status: OrderSubmitted}
	require.False(t, empty.UpdateStatusAfterReview())
	require.Equal(t, OrderSubmitted, empty.Status)
}

func TestEvents_RecordStatusChanges(t *testing.T) {
	req := newDraft(t, 1)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	req.SetClock(func() time.Time { return fixed })

	require.NoError(t, req.Submit(requester))
	require.NoError(t, req.ApproveItem(1, "SUP-1", 1, "", reviewer))

	events := req.Events()
	require.Len(t, events, 3)
	submitted := events[0].(RequisitionStatusChanged)
	require.Equal(t, OrderDraft, submitted.From)
	require.Equal(t, OrderSubmitted, submitted.To)
	require.Equal(t, "alice", submitted.Actor)
	decided := events[1].(LineItemDecided)
	require.Equal(t, ItemApproved, decided.To)
	reviewed := events[2].(RequisitionStatusChanged)
	require.Equal(t, OrderReviewed, reviewed.To)
	require.Equal(t, "bob", reviewed.Actor)
	require.Equal(t, fixed, reviewed.OccurredAt())

	req.ClearEvents()
	require.Empty(t, req.Events())
}

func TestClone_IsIndependent(t *testing.T) {
	req := newSubmitted(t, 1)
	clone := req.Clone()
	require.NoError(t, clone.ApproveItem(1, "SUP-1", 1, "", reviewer))

	item, err := req.Item(1)
	require.NoError(t, err)
	require.Equal(t, ItemPendingReview, item.Status)
	require.Equal(t, OrderSubmitted, req.Status)
}

func TestParseItemStatus_NormalizesLegacyValues(t *testing.T) {
	status, err := ParseItemStatus("submitted")
	require.NoError(t, err)
	require.Equal(t, ItemPendingReview, status)

	status, err = ParseItemStatus(" Approved ")
	require.NoError(t, err)
	require.Equal(t, ItemApproved, status)

	_, err = ParseItemStatus("reviewed")
	require.ErrorIs(t, err, lifecycle.ErrInvalidStatus)
}

// Random decision sequences must never leave a submitted requisition with
// every item decided, and a reviewed requisition never regains pending items.
func TestRandomDecisionSequences_KeepDerivedStatusConsistent(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		req := newSubmitted(t, 1+rng.Intn(6))
		for step := 0; step < 25; step++ {
			line := int64(1 + rng.Intn(len(req.Items)))
			switch rng.Intn(5) {
			case 0:
				_ = req.ApproveItem(line, "SUP-1", 1+rng.Float64()*100, "", reviewer)
			case 1:
				_ = req.RejectItem(line, "no", reviewer)
			case 2:
				_ = req.QuestionItem(line, "why?", reviewer)
			case 3:
				_ = req.MarkItemUnavailable(line, "gone", reviewer)
			case 4:
				_ = req.UpdateItemNote(line, "note")
			}
			summary := req.Summary()
			if req.Status == OrderSubmitted {
				require.False(t, summary.AllDecided(), "seed %d step %d", seed, step)
			}
			if summary.AllDecided() {
				require.Equal(t, OrderReviewed, req.Status, "seed %d step %d", seed, step)
			}
			for _, item := range req.Items {
				require.Equal(t, item.Status == ItemApproved, item.SupplierID != nil, "seed %d step %d", seed, step)
				require.Equal(t, item.Status == ItemApproved, item.UnitPrice != nil, "seed %d step %d", seed, step)
			}
		}
	}
}
