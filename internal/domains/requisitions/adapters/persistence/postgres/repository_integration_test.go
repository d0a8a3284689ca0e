//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	platformpostgres "github.com/Apurer/go-gin-procurement-api/internal/platform/postgres"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

func setupRequisitionPostgres(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("procurement_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(append(platformpostgres.Models(), Models()...)...))

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

func createSubmitted(t *testing.T, repo *Repository, items int) string {
	t.Helper()
	ctx := context.Background()
	orderNo, err := repo.NextOrderNo(ctx, time.Now())
	require.NoError(t, err)
	lines := make([]*domain.LineItem, 0, items)
	for i := 0; i < items; i++ {
		item, err := domain.NewLineItem("Toner", "black", 2, "box")
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

func TestRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	repo := NewRepository(db)

	orderNo := createSubmitted(t, repo, 2)

	fetched, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderSubmitted, fetched.Status)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, domain.ItemPendingReview, fetched.Items[1].Status)
	assert.Equal(t, int64(2), fetched.Items[1].LineNo)
	assert.Equal(t, fetched.OrderNo, fetched.Items[1].OrderNo)

	_, err = repo.Get(context.Background(), "REQ-missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateDerivesReviewedAtomically(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	repo := NewRepository(db)
	orderNo := createSubmitted(t, repo, 2)
	reviewer := actor.Actor{ID: "bob"}

	var wg sync.WaitGroup
	for line := int64(1); line <= 2; line++ {
		wg.Add(1)
		go func(line int64) {
			defer wg.Done()
			_, err := repo.Update(context.Background(), orderNo, func(req *domain.Requisition) error {
				return req.ApproveItem(line, "SUP-1", 9.99, "", reviewer)
			})
			assert.NoError(t, err)
		}(line)
	}
	wg.Wait()

	fetched, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderReviewed, fetched.Status)
	assert.Equal(t, 2, fetched.Summary().Approved)
	require.NotNil(t, fetched.Items[0].UnitPrice)
	assert.Equal(t, 9.99, *fetched.Items[0].UnitPrice)
}

func TestRepository_UpdateRollsBackOnDomainError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	repo := NewRepository(db)
	orderNo := createSubmitted(t, repo, 1)
	reviewer := actor.Actor{ID: "bob"}

	_, err := repo.Update(context.Background(), orderNo, func(req *domain.Requisition) error {
		if err := req.ApproveItem(1, "SUP-1", 10, "", reviewer); err != nil {
			return err
		}
		return req.RejectItem(1, "too late", reviewer)
	})
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	fetched, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderSubmitted, fetched.Status)
	assert.Equal(t, domain.ItemPendingReview, fetched.Items[0].Status)
}

func TestRepository_LegacyItemStatusIsNormalized(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	repo := NewRepository(db)
	orderNo := createSubmitted(t, repo, 1)
	require.NoError(t, db.Model(&lineItemRecord{}).Where("order_no = ?", orderNo).Update("status", "submitted").Error)

	fetched, err := repo.Get(context.Background(), orderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemPendingReview, fetched.Items[0].Status)
	assert.Equal(t, 1, fetched.Summary().Pending)
}

func TestRepository_ListFiltersAndNumbers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	repo := NewRepository(db)
	first := createSubmitted(t, repo, 1)
	second := createSubmitted(t, repo, 1)
	assert.Equal(t, first[:11], second[:11])
	assert.NotEqual(t, first, second)

	list, err := repo.List(context.Background(), ports.ListFilter{Status: domain.OrderSubmitted})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.List(context.Background(), ports.ListFilter{Requester: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIdempotencyStore_ReserveCompleteRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, cleanup := setupRequisitionPostgres(t)
	defer cleanup()
	store := NewIdempotencyStore(db)
	ctx := context.Background()

	record, reserved, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.True(t, record.Pending())

	again, reserved, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.True(t, again.Pending())

	require.NoError(t, store.Complete(ctx, "k1", "REQ1"))
	require.NoError(t, store.Complete(ctx, "k1", "REQ1"))
	assert.ErrorIs(t, store.Complete(ctx, "k1", "REQ2"), ports.ErrIdempotencyConflict)

	require.NoError(t, store.Release(ctx, "k1"))
	bound, reserved, err := store.Reserve(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "REQ1", bound.OrderNo)

	_, _, err = store.Reserve(ctx, "k1", "h2")
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	_, reserved, err = store.Reserve(ctx, "k2", "h1")
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, store.Release(ctx, "k2"))
	_, reserved, err = store.Reserve(ctx, "k2", "h1")
	require.NoError(t, err)
	assert.True(t, reserved)

	results := make(chan bool, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, won, err := store.Reserve(ctx, "k3", "h1")
			assert.NoError(t, err)
			results <- won
		}()
	}
	wg.Wait()
	close(results)
	winners := 0
	for won := range results {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	missing, err := store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
