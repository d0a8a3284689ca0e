package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
)

func TestCorrectionLog_ListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := NewCorrectionLog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, orderNo := range []string{"REQ20240101001", "REQ20240101002", "REQ20240101003"} {
		c, err := domain.NewCorrection(orderNo, "submitted", "reviewed", "", domain.SourceScan, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, log.Append(ctx, c))
	}

	latest, err := log.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "REQ20240101003", latest[0].OrderNo)
	require.Equal(t, "REQ20240101002", latest[1].OrderNo)

	all, err := log.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestNewCorrection_RequiresOrderAndStatuses(t *testing.T) {
	_, err := domain.NewCorrection("", "submitted", "reviewed", "", domain.SourceScan, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidCorrection)
}
