package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	adminHandler "github.com/anoixa/event-gallery/api/handler/admin"
	"github.com/anoixa/event-gallery/api/handler/gallery"
	"github.com/anoixa/event-gallery/api/handler/objects"
	"github.com/anoixa/event-gallery/api/middleware"
	"github.com/anoixa/event-gallery/cache"
	"github.com/anoixa/event-gallery/config"
	"github.com/anoixa/event-gallery/internal/auth"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
	"github.com/anoixa/event-gallery/storage"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DB             *gorm.DB
	StorageFactory *storage.Factory
	CacheProvider  cache.Provider
	UploadService  *photoSvc.UploadService
	QueryService   *photoSvc.QueryService
	AdminService   *photoSvc.AdminService
	AdminGate      *auth.AdminGate
}

// setupRouter 组装 gin 路由
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	// 并发限制，避免内存过载
	concurrencyLimiter := middleware.NewConcurrencyLimiter(100)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体大小限制：上传限制的 2 倍，最小 100MB
	requestBodyLimit := int64(cfg.UploadMaxSizeMB) * 2 << 20
	if requestBodyLimit < 100<<20 {
		requestBodyLimit = 100 << 20
	}
	router.Use(middleware.MaxBytesReader(requestBodyLimit))

	// 请求 ID 追踪
	router.Use(middleware.RequestID())

	// 基础监控指标
	router.Use(middleware.Metrics())

	// 速率限制
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	objectRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitObjectRPS, cfg.RateLimitObjectBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		objectRateLimiter.StopCleanup()
	}

	registerBasicRoutes(router, deps)

	// 创建处理器（依赖注入）
	galleryHandler := gallery.NewHandler(deps.UploadService, deps.QueryService)
	objectHandler := objects.NewHandler(deps.StorageFactory.GetDefault())
	admin := adminHandler.NewHandler(deps.AdminService)

	// 公开对象下载
	objectGroup := router.Group("/o")
	objectGroup.Use(objectRateLimiter.Middleware())
	{
		objectGroup.GET("/*object", objectHandler.GetObject) // GET /o/{path}?alt=media
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(func(c *gin.Context) { // 所有API禁止缓存
		c.Header("Cache-Control", "no-store")
		c.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		v1.Use(apiRateLimiter.Middleware())
		{
			photosGroup := v1.Group("/photos")
			{
				photosGroup.POST("/upload", galleryHandler.UploadPhoto) // POST /api/v1/photos/upload
				photosGroup.GET("/:id", galleryHandler.GetPhoto)       // GET /api/v1/photos/{id}
			}

			galleryGroup := v1.Group("/gallery")
			{
				galleryGroup.GET("", galleryHandler.ListPhotos)          // GET /api/v1/gallery
				galleryGroup.GET("/live", galleryHandler.LivePhotos)     // GET /api/v1/gallery/live (SSE)
				galleryGroup.GET("/search", galleryHandler.SearchPhotos) // GET /api/v1/gallery/search
				galleryGroup.GET("/stats", galleryHandler.GalleryStats)  // GET /api/v1/gallery/stats
			}

			adminGroup := v1.Group("/admin")
			adminGroup.Use(middleware.AdminAuth(deps.AdminGate))
			{
				adminGroup.GET("/delete", admin.DeletePhoto)           // GET /api/v1/admin/delete
				adminGroup.POST("/delete", admin.DeletePhoto)          // POST /api/v1/admin/delete
				adminGroup.GET("/download", admin.DownloadPhoto)       // GET /api/v1/admin/download
				adminGroup.GET("/download/zip", admin.ExportZip)       // GET /api/v1/admin/download/zip
				adminGroup.POST("/download/zip", admin.ExportZip)      // POST /api/v1/admin/download/zip
			}
		}
	}

	return router, cleanup
}

// registerBasicRoutes 注册健康检查等基础路由
func registerBasicRoutes(router *gin.Engine, deps *ServerDependencies) {
	router.GET("/health", func(c *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DB),
				"cache":    checkCacheHealth(deps.CacheProvider),
				"storage":  checkStorageHealth(deps.StorageFactory),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(httpStatus, health)
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, cleanup := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, cleanup
}
