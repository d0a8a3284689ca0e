package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/memory"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	"github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	reqmemory "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/memory"
	reqdomain "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	reqports "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/events"
)

var alice = actor.Actor{ID: "alice", Role: actor.RoleRequester}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.StatusChanged
}

func (p *recordingPublisher) Publish(_ context.Context, event events.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// seedStale stores a submitted requisition whose items were all decided
// without the status being recomputed, as older releases left them.
func seedStale(t *testing.T, repo *reqmemory.Repository, orderNo string) {
	t.Helper()
	item, err := reqdomain.NewLineItem("Desk", "", 1, "pcs")
	require.NoError(t, err)
	req, err := reqdomain.NewRequisition(orderNo, "alice", item)
	require.NoError(t, err)
	require.NoError(t, req.Submit(alice))
	req.Items[0].Status = reqdomain.ItemRejected
	req.Items[0].StatusNote = "[bob] over budget"
	repo.Put(req)
}

func seedPending(t *testing.T, repo *reqmemory.Repository, orderNo string) {
	t.Helper()
	item, err := reqdomain.NewLineItem("Lamp", "", 1, "pcs")
	require.NoError(t, err)
	req, err := reqdomain.NewRequisition(orderNo, "alice", item)
	require.NoError(t, err)
	require.NoError(t, req.Submit(alice))
	repo.Put(req)
}

func TestScan_RepairsStaleRequisitions(t *testing.T) {
	ctx := context.Background()
	repo := reqmemory.NewRepository()
	seedStale(t, repo, "REQ20240101001")
	seedPending(t, repo, "REQ20240101002")
	var logs bytes.Buffer
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	publisher := &recordingPublisher{}
	corrections := memory.NewCorrectionLog()
	fixed := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)

	monitor := NewMonitor(repo, corrections,
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithMeter(provider.Meter("test")),
		WithDispatcher(events.NewDispatcher(publisher, nil)),
		WithClock(func() time.Time { return fixed }),
	)

	report, err := monitor.Scan(ctx, ports.ScanOptions{Source: domain.SourceCLI})
	require.NoError(t, err)

	require.Equal(t, 2, report.Scanned)
	require.Len(t, report.Inconsistent, 1)
	require.Len(t, report.Corrections, 1)
	require.Empty(t, report.Failures)
	require.Equal(t, map[string]int{"submitted": 1, "reviewed": 1}, report.StatusCounts)

	correction := report.Corrections[0]
	require.Equal(t, "REQ20240101001", correction.OrderNo)
	require.Equal(t, "submitted", correction.Before)
	require.Equal(t, "reviewed", correction.After)
	require.Equal(t, domain.SourceCLI, correction.Source)
	require.Equal(t, fixed, correction.DetectedAt)

	stored, err := repo.Get(ctx, "REQ20240101001")
	require.NoError(t, err)
	require.Equal(t, reqdomain.OrderReviewed, stored.Status)

	logged, err := monitor.Corrections(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logged, 1)

	require.Len(t, publisher.events, 1)
	require.Equal(t, events.AggregateRequisition, publisher.events[0].Aggregate)
	require.Equal(t, actor.System.ID, publisher.events[0].Actor)
	require.Contains(t, logs.String(), `"level":"WARN"`)
	require.Contains(t, logs.String(), "requisition status corrected")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "consistency.monitor.corrections" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	require.Equal(t, int64(1), total)

	again, err := monitor.Scan(ctx, ports.ScanOptions{})
	require.NoError(t, err)
	require.Empty(t, again.Inconsistent)
	require.Empty(t, again.Corrections)
}

func TestScan_DryRunChangesNothing(t *testing.T) {
	ctx := context.Background()
	repo := reqmemory.NewRepository()
	seedStale(t, repo, "REQ20240101001")
	corrections := memory.NewCorrectionLog()
	monitor := NewMonitor(repo, corrections, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	report, err := monitor.Scan(ctx, ports.ScanOptions{DryRun: true})
	require.NoError(t, err)

	require.True(t, report.DryRun)
	require.Len(t, report.Inconsistent, 1)
	require.Empty(t, report.Corrections)
	stored, err := repo.Get(ctx, "REQ20240101001")
	require.NoError(t, err)
	require.Equal(t, reqdomain.OrderSubmitted, stored.Status)
	logged, err := corrections.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, logged)
}

type failingRepository struct {
	*reqmemory.Repository
	failOn string
}

func (r failingRepository) Update(ctx context.Context, orderNo string, fn reqports.MutateFunc) (*reqdomain.Requisition, error) {
	if orderNo == r.failOn {
		return nil, errors.New("connection reset")
	}
	return r.Repository.Update(ctx, orderNo, fn)
}

func TestScan_ReportsFailuresAndContinues(t *testing.T) {
	ctx := context.Background()
	repo := reqmemory.NewRepository()
	seedStale(t, repo, "REQ20240101001")
	seedStale(t, repo, "REQ20240101002")
	monitor := NewMonitor(failingRepository{Repository: repo, failOn: "REQ20240101001"}, memory.NewCorrectionLog(),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	report, err := monitor.Scan(ctx, ports.ScanOptions{})
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	require.Equal(t, "REQ20240101001", report.Failures[0].OrderNo)
	require.Len(t, report.Corrections, 1)
	require.Equal(t, "REQ20240101002", report.Corrections[0].OrderNo)
}
