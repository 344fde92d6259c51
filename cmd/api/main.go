package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inventory-rest-api/internal/cache"
	"inventory-rest-api/internal/config"
	"inventory-rest-api/internal/handler"
	"inventory-rest-api/internal/logger"
	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/middleware"
	"inventory-rest-api/internal/repository"
	"inventory-rest-api/internal/router"
	"inventory-rest-api/internal/service"
	"inventory-rest-api/internal/uploader"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := slog.With("component", "main")
	log.Info("starting inventory API", "version", cfg.App.Version, "env", cfg.App.Environment)

	// Initialize store based on config
	store, err := openStore(cfg.Database)
	if err != nil {
		log.Error("failed to initialize store", "db_type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	checks := map[string]handler.Pinger{"database": store}

	// Token revocation list: Redis when enabled, otherwise in-process
	var revoked cache.Cache
	revocation := "memory"
	if cfg.Cache.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, falling back to in-memory revocation", "error", err)
		} else {
			revoked = redisCache
			revocation = "redis"
			checks["redis"] = redisCache
		}
	}
	if revoked == nil {
		revoked = cache.NewMemoryCache()
	}
	defer revoked.Close()

	// Image hosting
	var images uploader.Uploader
	uploadDir := ""
	switch cfg.Upload.Provider {
	case "cloudinary":
		images = uploader.NewCloudinaryUploader(uploader.CloudinaryConfig{
			CloudName: cfg.Upload.CloudinaryCloudName,
			APIKey:    cfg.Upload.CloudinaryAPIKey,
			APISecret: cfg.Upload.CloudinaryAPISecret,
			Folder:    cfg.Upload.CloudinaryFolder,
			BaseURL:   cfg.Upload.CloudinaryBaseURL,
		})
	default:
		local, err := uploader.NewLocalUploader(cfg.Upload.LocalDir, cfg.Upload.PublicBaseURL)
		if err != nil {
			log.Error("failed to initialize local uploader", "error", err)
			os.Exit(1)
		}
		images = local
		uploadDir = local.Dir()
	}

	m := metrics.New()

	// Initialize services
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, revoked)
	authService, err := service.NewAuthService(store.Repositories().Users, service.NewBcryptHasher(cfg.Auth.BcryptCost), tokens)
	if err != nil {
		log.Error("failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	productService := service.NewProductService(store, images, m)
	transferService := service.NewTransferService(productService, m)

	// Stale staged uploads are swept in the background
	if err := os.MkdirAll(cfg.Upload.TempDir(), 0o700); err != nil {
		log.Error("failed to create upload staging directory", "dir", cfg.Upload.TempDir(), "error", err)
		os.Exit(1)
	}
	sweeper := service.NewSweeper(service.SweeperConfig{Dir: cfg.Upload.TempDir()})
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	upload := handler.UploadConfig{TmpDir: cfg.Upload.TempDir(), MaxBytes: cfg.Upload.MaxBytes}

	// Create auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Verifier: authService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:         handler.New(cfg.App.Version, checks),
		ProductHandler:  handler.NewProductHandler(productService, upload),
		TransferHandler: handler.NewTransferHandler(transferService, upload),
		AuthHandler:     handler.NewAuthHandler(authService),
		AdminHandler:    handler.NewAdminHandler(store, revocation, cfg.Upload.Provider),
		AuthMiddleware:  authMiddleware,
		Metrics:         m,
		FrontendURL:     cfg.App.FrontendURL,
		UploadDir:       uploadDir,
		LogoutEnabled:   authService.CanLogout(),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		log.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}

func openStore(cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Type {
	case "postgres", "postgresql":
		return repository.NewPostgresStore(cfg.PostgresDSN())
	case "mysql":
		return repository.NewMySQLStore(cfg.MySQLDSN())
	default: // sqlite
		return repository.NewSQLiteStore(cfg.Path)
	}
}
