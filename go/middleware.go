package procurementserver

import (
	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-procurement-api/internal/shared/actor"
	apierrors "github.com/Apurer/go-gin-procurement-api/internal/shared/errors"
)

const (
	HeaderActorID        = "X-Actor-ID"
	HeaderActorRole      = "X-Actor-Role"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// RequireActor reads the acting user from request headers and stores it on
// the request context. Requests without an actor id are rejected with 401.
// A missing role defaults to requester.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor.New(c.GetHeader(HeaderActorID), c.GetHeader(HeaderActorRole))
		if !a.Valid() {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(HeaderActorID+" header is required"))
			return
		}
		if a.Role == "" {
			a.Role = actor.RoleRequester
		}
		c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), a))
		c.Next()
	}
}

func actorFrom(c *gin.Context) actor.Actor {
	a, _ := actor.FromContext(c.Request.Context())
	return a
}
