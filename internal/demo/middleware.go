// Package demo provides a read-only mode for public demo deployments.
package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware blocks write operations in demo mode. Read-only operations
// (GET) are always allowed, and a small set of paths is allowlisted for
// non-GET methods so visitors can still log in.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a demo mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether demo mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "this action is disabled in demo mode",
			"demo_mode": true,
		})
	}
}

// isAllowedPath checks if a path is allowed for write operations in demo
// mode. Intentionally restrictive: only explicitly allowed paths pass.
func (m *Middleware) isAllowedPath(path string) bool {
	allowedPaths := []string{
		// Login must work so visitors can try the seeded accounts
		"/api/users/login",
	}

	for _, allowed := range allowedPaths {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}
