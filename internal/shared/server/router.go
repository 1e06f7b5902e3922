package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "docassist-web/internal/auth"
	"docassist-web/internal/detail"
	"docassist-web/internal/generated"
	"docassist-web/internal/services/health"
	"docassist-web/internal/shared/config"
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/server/respond"
	"docassist-web/internal/users"
)

// RouterDeps groups handlers needed to build the router.
type RouterDeps struct {
	Config           config.Config
	DetailHandler    *detail.Handler
	GeneratedHandler *generated.Handler
	UserHandler      *users.Handler
	GoogleAuth       *googleauth.GoogleService
	Health           *health.Service
	RateLimiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())
	r.GET("/", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"service": "docassist-web"})
	})

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	api.GET("/health", func(c *gin.Context) {
		status := healthSvc.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.GeneratedHandler != nil {
		deps.GeneratedHandler.RegisterRoutes(api)
	}

	if deps.DetailHandler != nil {
		limiter := deps.RateLimiter
		if limiter == nil {
			limiter = middleware.NewRateLimiter(time.Now)
		}
		limited := middleware.RateLimit(middleware.RateLimitConfig{Limiter: limiter})
		deps.DetailHandler.RegisterRoutes(&r.RouterGroup, limited)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
