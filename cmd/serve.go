package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/event-gallery/api/core"
	"github.com/anoixa/event-gallery/cache"
	"github.com/anoixa/event-gallery/config"
	"github.com/anoixa/event-gallery/database"
	"github.com/anoixa/event-gallery/database/repo/photos"
	"github.com/anoixa/event-gallery/internal/auth"
	photoSvc "github.com/anoixa/event-gallery/internal/services/photo"
	"github.com/anoixa/event-gallery/storage"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	storageFactory, err := storage.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Default storage provider: %s", storageFactory.GetDefaultName())

	cacheProvider, err := cache.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	verifier, err := auth.NewJWTVerifier(cfg.AuthJWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize JWT verifier: %v", err)
	}
	if cfg.AdminEmail == "" {
		log.Println("[Warning] admin_email is not configured, admin endpoints will be unavailable")
	}
	adminGate := auth.NewAdminGate(verifier, cfg.AdminEmail)

	repo := photos.NewRepository(db)
	store := storageFactory.GetDefault()
	deriver := photoSvc.NewDeriver(cfg.ThumbnailMaxSide, cfg.ThumbnailQuality)

	uploadService := photoSvc.NewUploadService(repo, store, deriver, cfg.BaseURL(), cfg.UploadMaxSizeMB)
	queryService := photoSvc.NewQueryService(repo, cacheProvider, cfg.CachePhotoTTL)
	adminService := photoSvc.NewAdminService(repo, store, queryService)

	deps := &core.ServerDependencies{
		DB:             db,
		StorageFactory: storageFactory,
		CacheProvider:  cacheProvider,
		UploadService:  uploadService,
		QueryService:   queryService,
		AdminService:   adminService,
		AdminGate:      adminGate,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	if err := cacheProvider.Close(); err != nil {
		log.Printf("Error closing cache: %v", err)
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited successfully")
}
