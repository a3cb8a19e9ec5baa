// internal/server/middleware.go
package server

import (
	"net/http"
	"time"

	"cohost-dashboard/internal/common/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "sessionID"

// requestLogger writes one structured line per request.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIP":  c.ClientIP(),
		}
		if id := c.GetString(sessionKey); id != "" {
			fields[sessionKey] = id
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed", fields)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			log.Debug("request handled", fields)
		default:
			log.Info("request handled", fields)
		}
	}
}

// corsMiddleware allows the configured origins. Wildcard patterns such as
// https://*.vercel.app are honoured. An empty list allows any origin without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowWildcard:    true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// sessionCookie attaches a session id to the request, issuing a new cookie when the
// browser has none or sends one that is not a uuid.
func sessionCookie(name string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(name)
		if err == nil {
			if _, parseErr := uuid.Parse(id); parseErr != nil {
				err = parseErr
			}
		}
		if err != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(name, id, 0, "/", "", secure, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}
