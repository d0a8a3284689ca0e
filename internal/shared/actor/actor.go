// Package actor carries the identity of whoever triggers a state change.
package actor

import (
	"context"
	"errors"
	"strings"
)

// ErrForbidden signals the actor's role does not allow the operation.
var ErrForbidden = errors.New("operation not permitted for actor")

// Role names the procurement role an actor acts under.
type Role string

const (
	RoleRequester          Role = "requester"
	RoleReviewer           Role = "reviewer"
	RoleProcurementManager Role = "procurement_manager"
	RoleAdmin              Role = "admin"
	RoleSystem             Role = "system"
)

// Actor identifies the user or process performing an operation.
type Actor struct {
	ID   string
	Role Role
}

// System is used for corrections made by background processes.
var System = Actor{ID: "system", Role: RoleSystem}

// New trims and normalizes the supplied identity.
func New(id string, role string) Actor {
	return Actor{
		ID:   strings.TrimSpace(id),
		Role: Role(strings.ToLower(strings.TrimSpace(role))),
	}
}

// Valid reports whether the actor carries an identifier.
func (a Actor) Valid() bool {
	return a.ID != ""
}

// HasRole reports whether the actor holds any of the given roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (a Actor) String() string {
	if a.ID == "" {
		return "unknown"
	}
	return a.ID
}

type contextKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor stored on ctx, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
