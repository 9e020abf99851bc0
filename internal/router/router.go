package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	health  handler.Handler
	routes  []handler.Handler
	metrics *middleware.HTTPMetrics
	limiter *middleware.RateLimiter
}

type RouterConfig struct {
	Release          bool
	RateLimit        float64
	RateBurst        int
	AllowedOrigins   []string
	MetricsNamespace string
	Registerer       prometheus.Registerer
}

// NewRouter builds the engine. health is mounted without authentication; every handler in
// routes sits behind Authenticate.
func NewRouter(
	auth *middleware.AuthMiddleware,
	health handler.Handler,
	routes []handler.Handler,
	log *logger.Logger,
	config RouterConfig,
) *Router {
	if config.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.RegisterWithGin()

	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		health:  health,
		routes:  routes,
		metrics: middleware.NewHTTPMetrics(config.MetricsNamespace, config.Registerer),
		limiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		}),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		r.metrics.Middleware(),
		middleware.CORS(middleware.DefaultCORSConfig(config.AllowedOrigins)),
	)

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(
		r.auth.Authenticate(),
		r.limiter.RateLimit(),
	)
	for _, h := range r.routes {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
