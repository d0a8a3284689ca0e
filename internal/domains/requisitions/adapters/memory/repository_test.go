package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
)

func seed(t *testing.T, repo *Repository, items int) string {
	t.Helper()
	ctx := context.Background()
	orderNo, err := repo.NextOrderNo(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	lines := make([]*domain.LineItem, 0, items)
	for i := 0; i < items; i++ {
		item, err := domain.NewLineItem("Cable", "", 1, "m")
		require.NoError(t, err)
		lines = append(lines, item)
	}
	req, err := domain.NewRequisition(orderNo, "alice", lines...)
	require.NoError(t, err)
	require.NoError(t, req.Submit(actor.Actor{ID: "alice"}))
	_, err = repo.Create(ctx, req)
	require.NoError(t, err)
	return orderNo
}

func TestUpdate_DiscardsChangesOnError(t *testing.T) {
	repo := NewRepository()
	orderNo := seed(t, repo, 2)
	boom := errors.New("boom")

	_, err := repo.Update(context.Background(), orderNo, func(req *domain.Requisition) error {
		if err := req.ApproveItem(1, "SUP-1", 10, "", actor.Actor{ID: "bob"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	require.Equal(t, domain.ItemPendingReview, stored.Items[0].Status)
}

func TestUpdate_ConcurrentDecisionsOnDifferentItems(t *testing.T) {
	repo := NewRepository()
	orderNo := seed(t, repo, 2)
	reviewer := actor.Actor{ID: "bob"}

	var wg sync.WaitGroup
	for line := int64(1); line <= 2; line++ {
		wg.Add(1)
		go func(line int64) {
			defer wg.Done()
			_, err := repo.Update(context.Background(), orderNo, func(req *domain.Requisition) error {
				return req.ApproveItem(line, "SUP-1", 10, "", reviewer)
			})
			assert.NoError(t, err)
		}(line)
	}
	wg.Wait()

	stored, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	require.Equal(t, domain.OrderReviewed, stored.Status)
	require.Equal(t, 2, stored.Summary().Approved)
}

func TestGetAndList(t *testing.T) {
	repo := NewRepository()
	first := seed(t, repo, 1)
	second := seed(t, repo, 1)
	require.Equal(t, "REQ20240301001", first)
	require.Equal(t, "REQ20240301002", second)

	_, err := repo.Get(context.Background(), "REQ-missing")
	require.ErrorIs(t, err, ports.ErrNotFound)

	list, err := repo.List(context.Background(), ports.ListFilter{Status: domain.OrderSubmitted})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first, list[0].OrderNo)

	list, err = repo.List(context.Background(), ports.ListFilter{Status: domain.OrderReviewed})
	require.NoError(t, err)
	require.Empty(t, list)
}
