package middleware

import (
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"skillsphere/internal/dto"
	"skillsphere/pkg/auth"
)

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// Auth requires a valid bearer token and stores the resolved identity on
// the request context for handlers downstream.
func Auth(tokens *auth.Service) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			dto.UnauthorizedError(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			if err == auth.ErrExpiredToken {
				dto.UnauthorizedError(c, "Token has expired")
			} else {
				dto.UnauthorizedError(c, "Invalid token")
			}
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// OptionalAuth resolves the identity when a bearer token is present but
// lets anonymous requests through. Used on public listings whose results
// depend on who is asking.
func OptionalAuth(tokens *auth.Service) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			if claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("user_role", claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set. Must
// run after Auth.
func RequireRoles(roles ...string) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		role := c.GetString("user_role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		dto.ForbiddenError(c, "Insufficient role for this operation")
		c.Abort()
	}
}
