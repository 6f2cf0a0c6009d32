package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/invoicehub/backend/internal/interfaces/http/dto"
)

// UserIDHeader carries the caller identity, set by the upstream gateway.
// Authentication itself happens outside this service.
const UserIDHeader = "X-User-ID"

// PermissionChecker answers whether a user may perform an action. The
// real implementation lives in an external authorization service; this
// service only consumes the boolean answer.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permission string) bool
}

// AllowAllChecker grants every permission. It is the default when no
// authorization service is configured.
type AllowAllChecker struct{}

// HasPermission always returns true.
func (AllowAllChecker) HasPermission(context.Context, string, string) bool {
	return true
}

// PermissionCheckerFunc adapts a function to the PermissionChecker interface.
type PermissionCheckerFunc func(ctx context.Context, userID, permission string) bool

// HasPermission calls the wrapped function.
func (f PermissionCheckerFunc) HasPermission(ctx context.Context, userID, permission string) bool {
	return f(ctx, userID, permission)
}

// Authorize enforces permissions on every API route. The permission name
// is derived from the request as "<resource>.read" for safe methods and
// "<resource>.write" for mutating ones, e.g. "payments.write" for
// POST /api/v1/invoicing/payments/:id/allocations. Requests outside the
// versioned API surface pass through unchecked.
func Authorize(checker PermissionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		permission := PermissionForRequest(c.Request.Method, c.Request.URL.Path)
		if permission == "" {
			c.Next()
			return
		}

		userID := c.GetHeader(UserIDHeader)
		if !checker.HasPermission(c.Request.Context(), userID, permission) {
			requestID := c.GetString("request_id")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"You do not have permission to perform this action",
				requestID,
			))
			return
		}

		c.Next()
	}
}

// PermissionForRequest derives the permission name for a method and path.
// Returns "" for paths with no governed resource (health, ping, system).
func PermissionForRequest(method, path string) string {
	// Expected shape: /api/v1/<domain>/<resource>/...
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 4 || parts[0] != "api" {
		return ""
	}
	if parts[2] == "system" {
		return ""
	}
	resource := parts[3]

	switch method {
	case http.MethodGet, http.MethodHead:
		return resource + ".read"
	default:
		return resource + ".write"
	}
}
