package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/handler"
	"github.com/icpl-digital/bi-portal-api/internal/middleware"
	"github.com/icpl-digital/bi-portal-api/internal/repository"
	"github.com/icpl-digital/bi-portal-api/internal/service"
	"github.com/icpl-digital/bi-portal-api/pkg/config"
	"github.com/icpl-digital/bi-portal-api/pkg/logger"
	corsmiddleware "github.com/icpl-digital/bi-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/icpl-digital/bi-portal-api/pkg/middleware/requestid"
)

// New wires repositories, services and handlers onto a gin engine.
func New(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *gin.Engine {
	// repositories
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	stateRepo := repository.NewOAuthStateRepository(redisClient)

	// services
	metricsSvc := service.NewMetricsService()
	activitySvc := service.NewActivityService(activityRepo, cfg.Activity.DefaultLimit, cfg.Activity.MaxLimit, logr)
	accessSvc := service.NewAccessService(accessRepo, reportRepo, userRepo, cacheRepo, activitySvc, logr)
	prefSvc := service.NewPreferenceService(prefRepo, accessSvc, cacheRepo, activitySvc, logr)
	reportSvc := service.NewReportService(reportRepo, categoryRepo, accessSvc, cacheRepo, activitySvc, logr)
	categorySvc := service.NewCategoryService(categoryRepo, reportRepo, cacheRepo, activitySvc, logr)
	userSvc := service.NewUserService(userRepo, activitySvc, logr)
	authSvc := service.NewAuthService(userRepo, stateRepo, activitySvc, cfg, logr)
	menuSvc := service.NewMenuService(prefSvc, categoryRepo, cacheRepo, cfg.Menu.CacheTTL, metricsSvc, logr)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc, metricsSvc, cfg.BaseURL)
	reportHandler := handler.NewReportHandler(reportSvc, prefSvc, metricsSvc)
	prefHandler := handler.NewPreferenceHandler(prefSvc)
	accessHandler := handler.NewAccessHandler(accessSvc)
	userHandler := handler.NewUserHandler(userSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	menuHandler := handler.NewMenuHandler(menuSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.RequestMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
	}

	session := middleware.Session(authSvc, userRepo)

	authed := api.Group("")
	authed.Use(session)
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/logout", authHandler.Logout)

		authed.GET("/menu", menuHandler.Menu)
		authed.GET("/dashboard", menuHandler.Dashboard)
		authed.GET("/categories", categoryHandler.List)
		authed.GET("/categories/:id", categoryHandler.Get)

		authed.GET("/reports", reportHandler.ListForViewer)
		authed.GET("/reports/:id", reportHandler.GetForViewer)
		authed.POST("/reports/:id/pin", prefHandler.TogglePin)
		authed.PUT("/preferences/order", prefHandler.Reorder)
	}

	admin := api.Group("/admin")
	admin.Use(session, middleware.RequireAdmin())
	{
		admin.GET("/reports", reportHandler.List)
		admin.POST("/reports", reportHandler.Create)
		admin.GET("/reports/:id", reportHandler.Get)
		admin.PUT("/reports/:id", reportHandler.Update)
		admin.DELETE("/reports/:id", reportHandler.Delete)
		admin.GET("/reports/:id/access", accessHandler.UsersForReport)

		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)

		admin.GET("/access", accessHandler.ListAll)
		admin.GET("/users/:id/access", accessHandler.GrantsForUser)
		admin.PUT("/users/:id/access", accessHandler.SetAll)
		admin.POST("/users/:id/access/:reportID", accessHandler.Grant)
		admin.DELETE("/users/:id/access/:reportID", accessHandler.Revoke)

		admin.GET("/activity", activityHandler.List)
	}

	return r
}
