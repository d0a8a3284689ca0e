// Package errors provides RFC 7807 Problem Details for the procurement API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries machine-readable context such as the current status
	// of an entity that refused a transition.
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
// The receiver's map is never mutated, so shared templates stay clean.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

const (
	TypeValidation        = "/problems/validation-error"
	TypeNotFound          = "/problems/not-found"
	TypeConflict          = "/problems/conflict"
	TypeInvalidTransition = "/problems/invalid-transition"
	TypeNotEligible       = "/problems/not-eligible"
	TypeInternal          = "/problems/internal-error"
	TypeUnauthorized      = "/problems/unauthorized"
	TypeForbidden         = "/problems/forbidden"
	TypeBadRequest        = "/problems/bad-request"
)

var (
	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	ErrValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
	}

	// ErrBadRequest covers bodies and parameters that could not be decoded at all.
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	ErrConflict = ProblemDetail{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
	}

	// ErrInvalidTransition is returned when an entity's lifecycle forbids the action.
	ErrInvalidTransition = ProblemDetail{
		Type:   TypeInvalidTransition,
		Title:  "Invalid State Transition",
		Status: http.StatusConflict,
	}

	// ErrNotEligible is returned when purchase orders cannot join a consolidation.
	ErrNotEligible = ProblemDetail{
		Type:   TypeNotEligible,
		Title:  "Not Eligible",
		Status: http.StatusUnprocessableEntity,
	}

	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}

	ErrUnauthorized = ProblemDetail{
		Type:   TypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
	}

	ErrForbidden = ProblemDetail{
		Type:   TypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
	}
)

// NewValidationProblem creates a validation error with field-level details.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewTransitionProblem reports the status an entity was in when it refused action.
func NewTransitionProblem(currentStatus, action, detail string) ProblemDetail {
	return ErrInvalidTransition.
		WithDetail(detail).
		WithExtension("currentStatus", currentStatus).
		WithExtension("action", action)
}

// NewEligibilityProblem names the purchase order that blocked a consolidation.
func NewEligibilityProblem(poNo, detail string) ProblemDetail {
	problem := ErrNotEligible.WithDetail(detail)
	if poNo != "" {
		problem = problem.WithExtension("purchaseOrder", poNo)
	}
	return problem
}
