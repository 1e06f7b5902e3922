package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	DocumentIDKey = "documentId"
	ViewPhaseKey  = "viewPhase"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get("isGuest")
		documentID, _ := c.Get(DocumentIDKey)
		phase := ""
		if raw, ok := c.Get(ViewPhaseKey); ok {
			if s, ok := raw.(string); ok {
				phase = s
			}
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"view_phase":  phase,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"document_id": documentID,
			"is_guest":    isGuest,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
