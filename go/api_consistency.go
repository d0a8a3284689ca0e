package procurementserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	consistencymapper "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/http/mapper"
	consistencydomain "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/domain"
	consistencyports "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
)

const defaultCorrectionsLimit = 100

// ConsistencyAPI exposes the requisition status monitor.
type ConsistencyAPI struct {
	monitor    consistencyports.Monitor
	reconciler consistencyports.Reconciler
}

// NewConsistencyAPI takes the monitor for read paths and the reconciler,
// durable or inline, for repairs.
func NewConsistencyAPI(monitor consistencyports.Monitor, reconciler consistencyports.Reconciler) ConsistencyAPI {
	return ConsistencyAPI{monitor: monitor, reconciler: reconciler}
}

// Get /v1/consistency/report
// Report inconsistent requisitions without repairing them
func (api *ConsistencyAPI) GetConsistencyReport(c *gin.Context) {
	report, err := api.monitor.Scan(c.Request.Context(), consistencyports.ScanOptions{DryRun: true, Source: consistencydomain.SourceScan})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, consistencymapper.FromReport(report))
}

// Post /v1/consistency/reconcile
// Repair requisitions whose status lags behind their items
func (api *ConsistencyAPI) Reconcile(c *gin.Context) {
	by := actorFrom(c)
	if !by.HasRole(actor.RoleAdmin, actor.RoleProcurementManager) {
		respondServiceError(c, fmt.Errorf("reconcile as %s: %w", by.Role, actor.ErrForbidden))
		return
	}
	report, err := api.reconciler.Reconcile(c.Request.Context(), consistencyports.ScanOptions{Source: consistencydomain.SourceScan})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, consistencymapper.FromReport(report))
}

// Get /v1/consistency/corrections
// List recorded status repairs, newest first
func (api *ConsistencyAPI) ListCorrections(c *gin.Context) {
	limit := defaultCorrectionsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	corrections, err := api.monitor.Corrections(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, consistencymapper.FromCorrections(corrections))
}
