package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/pkg/auth"
)

const ContextActor = "actor"

// AuthMiddleware turns the external identity provider's bearer token into the
// request's Actor. The portal never issues tokens itself.
type AuthMiddleware struct {
	tokens *auth.TokenValidator
}

func NewAuthMiddleware(tokens *auth.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the actor in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid authorization format"})
			return
		}

		actor, err := m.tokens.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token"})
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole guards a route group with the allow-set of roles. Ownership
// checks stay in the services; this is the coarse route-level gate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if !actor.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "error", "message": "role not permitted"})
	}
}

// ActorFromContext returns the authenticated actor, or a zero Actor when the
// request carried no valid identity.
func ActorFromContext(c *gin.Context) model.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}
	}
	actor, ok := v.(model.Actor)
	if !ok {
		return model.Actor{}
	}
	return actor
}
