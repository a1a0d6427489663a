package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Actor is the resolved local identity behind a verified token.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// ActorResolver maps an external subject to a local user, creating one on
// first sight. The user service implements this; an adapter in main wires it
// here to keep this package free of domain imports.
type ActorResolver interface {
	ResolveSubject(ctx context.Context, subject, email, name string) (Actor, error)
}

// IdentityMiddleware resolves the verified external subject to a local user
// and stores its id and role on the request context. Must run after
// JWTMiddleware (or DevAuthMiddleware).
func IdentityMiddleware(resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			subject := SubjectFromContext(ctx)
			if subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}

			actor, err := resolver.ResolveSubject(ctx, subject, EmailFromContext(ctx), NameFromContext(ctx))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "identity resolution failed")
			}

			ctx = context.WithValue(ctx, UserIDKey, actor.ID.String())
			ctx = context.WithValue(ctx, UserRoleKey, actor.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development. A request may
// impersonate any local user by setting X-Debug-User to its id and
// X-Debug-Role to its role; unauthenticated requests get no identity.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := c.Request().Header.Get("X-Debug-User")
			role := c.Request().Header.Get("X-Debug-Role")
			if uid != "" {
				ctx := c.Request().Context()
				ctx = context.WithValue(ctx, UserIDKey, uid)
				ctx = context.WithValue(ctx, UserRoleKey, role)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// ActorFromContext returns the resolved actor id, or uuid.Nil when the
// request is unauthenticated or carries a malformed id.
func ActorFromContext(ctx context.Context) uuid.UUID {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(uid)
	if err != nil {
		return uuid.Nil
	}
	return id
}
