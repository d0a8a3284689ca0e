package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/things/:id", handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/7", nil))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestWithExtensionDoesNotMutateTemplate(t *testing.T) {
	problem := NewTransitionProblem("rejected", "approve", "line 1 is rejected")

	assert.Equal(t, "rejected", problem.Extensions["currentStatus"])
	assert.Empty(t, ErrInvalidTransition.Extensions)
	assert.Equal(t, http.StatusConflict, problem.Status)
}

func TestNewEligibilityProblemOmitsEmptyPurchaseOrder(t *testing.T) {
	assert.NotContains(t, NewEligibilityProblem("", "x").Extensions, "purchaseOrder")
	assert.Equal(t, "PO20240101001", NewEligibilityProblem("PO20240101001", "x").Extensions["purchaseOrder"])
}

func TestRespondSetsInstanceAndContentType(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) {
		Respond(c, ErrNotFound.WithDetail("thing 7 not found"))
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "/v1/things/7", problem.Instance)
	assert.Equal(t, TypeNotFound, problem.Type)
}

func TestChainedResponderUsesFirstMatchingMapper(t *testing.T) {
	errDomain := errors.New("thing is locked")
	responder := NewChainedResponder("https://procurement.example",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errDomain) {
				return ErrConflict.WithDetail(err.Error()), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrForbidden, true },
	)

	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, errDomain)
		assert.Len(t, c.Errors, 1)
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "https://procurement.example"+TypeConflict, problem.Type)
}

func TestChainedResponderHidesUnknownErrors(t *testing.T) {
	responder := NewChainedResponder("")

	rec, problem := serve(t, func(c *gin.Context) {
		responder.RespondError(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, unexpectedDetail, problem.Detail)
}

func TestChainedResponderPassesProblemDetailsThrough(t *testing.T) {
	responder := NewChainedResponder("")

	rec, _ := serve(t, func(c *gin.Context) {
		responder.RespondError(c, ErrUnauthorized.WithDetail("who are you"))
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
