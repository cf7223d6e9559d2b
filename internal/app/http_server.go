package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	slk "timebot/internal/adapter/slack"
	"timebot/internal/requestid"
)

// HTTPServer returns a configured http.Server for the Slack endpoints.
// Call ListenAndServe on the returned server in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.log.Info("http server configured", slog.String("addr", addr))
	return srv
}

// Router builds the gin engine with all routes.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware(a.log))

	r.GET("/healthz", a.handleHealth)

	sl := r.Group("/slack", slk.VerifySignature(a.signingSecret, a.log))
	sl.POST("/commands", a.handleCommand)
	sl.POST("/interactions", a.handleInteraction)
	return r
}

func (a *App) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "store": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "up"})
}

// requestIDMiddleware reads X-Request-Id or assigns a new one, and echoes it back.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-Id")
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(requestid.With(c.Request.Context(), rid))
		c.Writer.Header().Set("X-Request-Id", rid)
		c.Next()
	}
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			slog.String("request_id", c.GetString("request_id")),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("remote", c.ClientIP()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}
