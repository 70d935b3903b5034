// Package api wires the HTTP surface: routing, auth, and rate limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/serpent/api/handler"
	"github.com/use-agent/serpent/api/middleware"
	"github.com/use-agent/serpent/cache"
	"github.com/use-agent/serpent/cleaner"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/fetch"
)

// Deps carries the shared components the handlers need.
type Deps struct {
	Config     *config.Config
	Cache      *cache.Cache
	Dispatcher *fetch.Dispatcher
	Cleaner    *cleaner.Cleaner
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(deps.Config.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())

	startTime := time.Now()
	batchStore := handler.NewBatchStore()

	v1 := r.Group("/api/v1")

	// Health stays outside auth so probes work without a key.
	v1.GET("/health", handler.Health(startTime))

	protected := v1.Group("")
	if deps.Config.Auth.Enabled {
		protected.Use(middleware.Auth(deps.Config.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(
		deps.Config.RateLimit.RequestsPerSecond,
		deps.Config.RateLimit.Burst,
	))

	protected.POST("/search", handler.Search(deps.Config, deps.Cache))
	protected.POST("/search/batch", handler.BatchSearch(deps.Config, batchStore))
	protected.GET("/search/batch/:id", handler.BatchStatus(batchStore))
	protected.POST("/fetch", handler.Fetch(deps.Config, deps.Dispatcher, deps.Cleaner))

	return r
}
