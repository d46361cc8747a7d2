package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"goalengine/internal/handler"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker is satisfied by mq consumers and publishers.
type ConnChecker interface {
	IsConnected() bool
}

// NewHealthRouter serves liveness, readiness and metrics only.
func NewHealthRouter(logger *zap.Logger, db Pinger, checks ...ConnChecker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogMiddleware(logger))

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		for _, check := range checks {
			if check != nil && !check.IsConnected() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewRouter adds the authenticated goal API on top of the health routes.
func NewRouter(goalHandler *handler.GoalHandler, jwtSecret string, logger *zap.Logger, db Pinger, checks ...ConnChecker) *gin.Engine {
	r := NewHealthRouter(logger, db, checks...)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/goals", goalHandler.ListGoals)
		auth.POST("/goals", goalHandler.CreateGoal)
		auth.GET("/goals/:id/progress", goalHandler.GoalProgress)
		auth.GET("/goals/:id/occurrences", goalHandler.Occurrences)
		auth.GET("/dashboard", goalHandler.Dashboard)
	}
	return r
}
