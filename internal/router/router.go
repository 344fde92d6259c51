package router

import (
	"net/http"

	"inventory-rest-api/internal/handler"
	"inventory-rest-api/internal/metrics"
	"inventory-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ProductHandler  *handler.ProductHandler
	TransferHandler *handler.TransferHandler
	AuthHandler     *handler.AuthHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  func(http.Handler) http.Handler
	Metrics         *metrics.Metrics
	FrontendURL     string
	UploadDir       string // served under /uploads when set
	LogoutEnabled   bool
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origin := cfg.FrontendURL
	if origin == "" {
		origin = "*"
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: origin != "*",
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/", cfg.Handler.Root)
		r.Get("/api/health", cfg.Handler.Health)
		r.Get("/api/ready", cfg.Handler.Ready)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// Locally hosted product images
	if cfg.UploadDir != "" {
		fileServer := http.FileServer(http.Dir(cfg.UploadDir))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	if cfg.AuthHandler != nil {
		r.Post("/api/signup", cfg.AuthHandler.Signup)
		r.Post("/api/login", cfg.AuthHandler.Login)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		if cfg.AuthHandler != nil && cfg.LogoutEnabled {
			r.Post("/api/logout", cfg.AuthHandler.Logout)
		}

		// Product endpoints
		if cfg.ProductHandler != nil {
			r.Post("/api/product/add", cfg.ProductHandler.Add)
			r.Get("/api/product", cfg.ProductHandler.List)
			r.Patch("/api/product/{id}", cfg.ProductHandler.Update)
			r.Delete("/api/product/delete/{id}", cfg.ProductHandler.Delete)
			r.Get("/api/products/{id}/history", cfg.ProductHandler.History)
		}

		// CSV transfer endpoints
		if cfg.TransferHandler != nil {
			r.Post("/api/products/import", cfg.TransferHandler.Import)
			r.Get("/api/products/export", cfg.TransferHandler.Export)
		}

		// Admin endpoints
		if cfg.AdminHandler != nil {
			r.Get("/api/admin/stats", cfg.AdminHandler.GetStats)
		}
	})

	return r
}
