// Package api exposes the ingestion and question-answering operations over
// HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-engine/internal/service"
	"insight-engine/pkg/logger"
	"insight-engine/pkg/ratelimiter"
)

// NewRouter builds the gin engine with all routes registered. limiter may be
// nil to disable request rate limiting on the ask endpoint.
func NewRouter(svc *service.Service, limiter ratelimiter.RateLimiter, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	h := newHandler(svc, log)

	router.GET("/healthz", h.health)

	api := router.Group("/api/v1")
	{
		api.POST("/documents", h.uploadDocument)
		api.POST("/documents/folder", h.ingestFolder)
		api.POST("/ask", rateLimit(limiter), h.ask)
	}

	return router
}

// rateLimit rejects requests with 429 once the token bucket is drained.
func rateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
