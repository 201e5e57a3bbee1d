package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/brookside/clinic-portal/internal/handler"
	promhandler "github.com/brookside/clinic-portal/internal/handler/prometheus"
	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	appointmentH Handler
	orderH       Handler
	ratingH      Handler
	statsH       StatsHandler
	prom         *promhandler.Handler
}

// StatsHandler is split out because its admin route carries an extra
// role guard on top of authentication.
type StatsHandler interface {
	AdminSummary(*gin.Context)
	PatientSummary(*gin.Context)
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	appointmentH Handler,
	orderH Handler,
	ratingH Handler,
	statsH StatsHandler,
	prom *promhandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		appointmentH: appointmentH,
		orderH:       orderH,
		ratingH:      ratingH,
		statsH:       statsH,
		prom:         prom,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		prom.Middleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   float64(config.RateLimit),
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", handler.HealthCheck)
	r.engine.GET("/metrics", r.prom.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.appointmentH.RegisterRoutes(protected)
	r.orderH.RegisterRoutes(protected)
	r.ratingH.RegisterRoutes(protected)
	r.setupStatsRoutes(protected)
}

func (r *Router) setupStatsRoutes(rg *gin.RouterGroup) {
	st := rg.Group("/stats")
	{
		st.GET("/admin", r.auth.RequireRole(model.RoleAdmin), r.statsH.AdminSummary)
		st.GET("/patient", r.statsH.PatientSummary)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
