package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/osa030/loungeclock/internal/infra/logger"
	"github.com/osa030/loungeclock/internal/infra/metrics"
)

// Options configures the router.
type Options struct {
	AdminToken   string
	RateLimit    rate.Limit
	RateBurst    int
	CacheTTL     time.Duration
	PingInterval time.Duration
}

// NewRouter creates and configures the gin router.
func NewRouter(lounge Lounge, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware("http"))

	handler := NewHandler(lounge, opts.PingInterval)

	// Price chart changes only with a restart.
	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL+time.Minute)
	caching := Cache(cacheStore, opts.CacheTTL)
	admin := AdminAuth(opts.AdminToken)

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(RateLimit(NewIPRateLimiter(opts.RateLimit, opts.RateBurst)))
	{
		api.GET("/tiers", caching, handler.GetTiers)
		api.GET("/quote", handler.GetQuote)
		api.GET("/stations", handler.GetStations)
		api.GET("/stations/:id", handler.GetStation)
		api.GET("/summary", handler.GetSummary)
		api.GET("/events", handler.Events)

		api.POST("/stations", admin, handler.PostStation)
		api.POST("/stations/:id/pause", admin, handler.PauseStation)
		api.POST("/stations/:id/resume", admin, handler.ResumeStation)
		api.POST("/stations/:id/end", admin, handler.EndStation)
		api.DELETE("/stations/:id", admin, handler.DeleteStation)
	}

	return r
}
