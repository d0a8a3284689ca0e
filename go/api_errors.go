package procurementserver

import (
	"errors"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	deliveryapp "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/application"
	deliverydomain "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/domain"
	deliveryports "github.com/Apurer/go-gin-procurement-api/internal/domains/delivery/ports"
	requisitionapp "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/application"
	requisitiondomain "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/domain"
	requisitionports "github.com/Apurer/go-gin-procurement-api/internal/domains/requisitions/ports"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
	"github.com/Apurer/go-gin-procurement-api/internal/shared/lifecycle"
)

// problems maps domain and application errors onto RFC 7807 responses.
var problems = apierrors.NewChainedResponder("",
	mapNotFound,
	mapForbidden,
	mapTransition,
	mapEligibility,
	mapInvalidStatus,
	mapInvalidInput,
	mapConflict,
)

var requestValidator = validatorv10.New()

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondServiceError writes the problem mapped from a service error.
func respondServiceError(c *gin.Context, err error) {
	problems.RespondError(c, err)
}

// bindAndValidate decodes the JSON body into out and runs the validate tags.
// On failure it writes the problem response and returns false.
func bindAndValidate(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return false
	}
	if err := requestValidator.Struct(out); err != nil {
		var fieldErrs validatorv10.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields[fe.Namespace()] = fe.Error()
			}
			respondProblem(c, apierrors.NewValidationProblem(fields))
			return false
		}
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return false
	}
	return true
}

func mapNotFound(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, requisitionports.ErrNotFound),
		errors.Is(err, requisitiondomain.ErrLineItemNotFound),
		errors.Is(err, deliveryports.ErrPurchaseOrderNotFound),
		errors.Is(err, deliveryports.ErrSupplierNotFound),
		errors.Is(err, deliveryports.ErrConsolidationNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapForbidden(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, actor.ErrForbidden) {
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapTransition(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		return apierrors.ProblemDetail{}, false
	}
	if te, ok := lifecycle.AsTransition(err); ok {
		return apierrors.NewTransitionProblem(te.From, te.Action, err.Error()), true
	}
	return apierrors.ErrInvalidTransition.WithDetail(err.Error()), true
}

func mapEligibility(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, deliverydomain.ErrNotEligible) {
		return apierrors.ProblemDetail{}, false
	}
	var poNo string
	var eligibility *deliverydomain.EligibilityError
	if errors.As(err, &eligibility) {
		poNo = eligibility.PONo
	}
	return apierrors.NewEligibilityProblem(poNo, err.Error()), true
}

func mapInvalidStatus(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, lifecycle.ErrInvalidStatus) {
		return apierrors.ProblemDetail{}, false
	}
	problem := apierrors.ErrValidation.WithDetail(err.Error())
	var statusErr *lifecycle.StatusError
	if errors.As(err, &statusErr) {
		problem = problem.WithExtension("field", statusErr.Field).WithExtension("value", statusErr.Value)
	}
	return problem, true
}

func mapInvalidInput(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, requisitionapp.ErrInvalidInput) || errors.Is(err, deliveryapp.ErrInvalidInput) {
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapConflict(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, requisitionports.ErrIdempotencyConflict) ||
		errors.Is(err, requisitionports.ErrIdempotencyInProgress) ||
		errors.Is(err, deliveryports.ErrSupplierExists) {
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
