package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
)

const (
	HeaderOperatorID   = "X-Operator-ID"
	HeaderOperatorRole = "X-Operator-Role"

	contextActorKey = "actor"
	maxHeaderLen    = 64
)

// Actor is the operator asserted by the upstream identity proxy.
type Actor struct {
	ID   string
	Role string
}

// OperatorRequired reads the operator identity headers and stores the actor
// on both the gin and the request context.
func (s *Server) OperatorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderOperatorID))
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderOperatorRole)))
		if id == "" || role == "" || len(id) > maxHeaderLen || len(role) > maxHeaderLen {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := Actor{ID: id, Role: role}
		c.Set(contextActorKey, actor)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "operator", id))
		c.Next()
	}
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.ID, actor.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (Actor, bool) {
	if c == nil {
		return Actor{}, false
	}
	value, ok := c.Get(contextActorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}
