package procurementserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	consistencymemory "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/memory"
	consistencyworkflows "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/adapters/workflows"
	consistencyapp "github.com/Apurer/go-gin-procurement-api/internal/domains/consistency/application"
	deliverymemory "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/adapters/memory"
	deliveryapp "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/application"
	requisitionmemory "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/adapters/memory"
	requisitionapp "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/application"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
)

type testApp struct {
	router       *gin.Engine
	requisitions *requisitionmemory.Repository
	delivery     *deliverymemory.Repository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	requisitions := requisitionmemory.NewRepository()
	delivery := deliverymemory.NewRepository()
	monitor := consistencyapp.NewMonitor(requisitions, consistencymemory.NewCorrectionLog())

	handlers := ApiHandleFunctions{
		RequisitionAPI: NewRequisitionAPI(requisitionapp.NewService(requisitions,
			requisitionapp.WithIdempotencyStore(requisitionmemory.NewIdempotencyStore()))),
		DeliveryAPI:    NewDeliveryAPI(deliveryapp.NewService(delivery)),
		ConsistencyAPI: NewConsistencyAPI(monitor, consistencyworkflows.NewInlineReconciler(monitor)),
	}
	router := gin.New()
	router.Use(gin.Recovery())
	return &testApp{
		router:       NewRouterWithGinEngine(router, handlers),
		requisitions: requisitions,
		delivery:     delivery,
	}
}

type requestOption func(*http.Request)

func as(id, role string) requestOption {
	return func(r *http.Request) {
		r.Header.Set(HeaderActorID, id)
		if role != "" {
			r.Header.Set(HeaderActorRole, role)
		}
	}
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (a *testApp) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	return decode[apierrors.ProblemDetail](t, rec)
}

func TestHealthzNeedsNoActor(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireActor_RejectsAnonymousRequests(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/requisitions", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, apierrors.TypeUnauthorized, problem.Type)
	require.Equal(t, "/v1/requisitions", problem.Instance)
}

func TestEveryRouteHasAHandler(t *testing.T) {
	routes := getRoutes(ApiHandleFunctions{})
	seen := map[string]bool{}
	for _, route := range routes {
		key := route.Method + " " + route.Pattern
		require.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
		require.NotNil(t, route.HandlerFunc, route.Name)
	}
}
