package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/forgewave/bombard/internal/audit"
	"github.com/forgewave/bombard/internal/auth"
)

// AuditMiddleware creates middleware that logs all API requests
func AuditMiddleware(auditLogger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Record start time
		startTime := time.Now()

		// Process request
		c.Next()

		// Calculate duration
		duration := time.Since(startTime).Milliseconds()

		// Get user info from context (if authenticated)
		userID, _ := c.Get(AuthUserKey)
		role, _ := c.Get(AuthRoleKey)

		userIDStr := ""
		roleStr := ""

		if userID != nil {
			if uid, ok := userID.(string); ok {
				userIDStr = uid
			}
		}

		if role != nil {
			roleStr = string(role.(auth.Role))
		}

		// Create audit event
		event := audit.AuditEvent{
			UserID:     userIDStr,
			Role:       roleStr,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			Duration:   duration,
		}

		// Add error if request failed
		if len(c.Errors) > 0 {
			event.Error = c.Errors.String()
		}

		// Determine event type based on path and method
		event.EventType = determineEventType(c.Request.Method, c.Request.URL.Path, c.Writer.Status())

		// Log the event
		auditLogger.Log(event)
	}
}

// determineEventType infers event type from HTTP method and path
func determineEventType(method, path string, statusCode int) audit.EventType {
	// Check for unauthorized access
	if statusCode == 401 || statusCode == 403 {
		return audit.EventUnauthorizedAccess
	}

	const methodPost = "POST"

	switch {
	case method == methodPost && strings.Contains(path, "/bombard"):
		return audit.EventJobDispatched
	case method == methodPost && strings.Contains(path, "/stop"):
		return audit.EventJobStopped
	default:
		return audit.EventType("api.request")
	}
}
