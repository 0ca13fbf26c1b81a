package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/config"
	"github.com/stemsi/exstem-portal/internal/handler"
	"github.com/stemsi/exstem-portal/internal/metrics"
	"github.com/stemsi/exstem-portal/internal/middleware"
	"github.com/stemsi/exstem-portal/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam          *handler.ExamHandler
	StudentPortal *handler.StudentPortalHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// Deps are the shared pieces the route groups need besides handlers.
type Deps struct {
	Auth      middleware.TokenValidator
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	WSLimiter *middleware.RateLimiter
	Log       zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope share it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(deps.Log))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		SkipPaths: []string{"/metrics", "/ws/"},
	}))

	// Health check and scrape endpoint.
	router.GET("/health", handlers.System.Health)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ─── 1. Exam Catalog (Public) ──────────────────────────────────────
	exams := router.Group("/api/v1/exams")
	{
		exams.GET("", middleware.CacheControl(30), handlers.Exam.ListExams)
		exams.GET("/stats", middleware.CacheControl(30), handlers.Exam.GetStats)
		exams.POST("", middleware.RequireAdminJWT(deps.Auth), handlers.Exam.CreateExam)
	}

	// ─── 2. Student Group (Student JWT) ────────────────────────────────
	student := router.Group("/api/v1/student")
	student.Use(middleware.RequireStudentJWT(deps.Auth), middleware.NoStore())
	{
		student.GET("/results", handlers.StudentPortal.GetMyResults)
	}

	// ─── 3. WebSocket (Student JWT via query, Rate Limited) ───────────
	wsGroup := router.Group("/ws/v1")
	if deps.WSLimiter != nil {
		wsGroup.Use(deps.WSLimiter.Middleware())
	}
	wsGroup.Use(middleware.RequireStudentWSAuth(deps.Auth))
	{
		wsGroup.GET("/exams/:exam_id/session", handlers.WS.ExamSession)
	}

	return router
}
