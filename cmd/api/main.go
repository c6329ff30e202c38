//	@title			Galerie API
//	@version		1.0
//	@description	Backend for a photo-gallery and blog site: albums, photos and markdown articles over switchable storage (local disk, S3, Cloudinary).
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/galerie/service/internal/album"
	"github.com/galerie/service/internal/article"
	"github.com/galerie/service/internal/auth"
	"github.com/galerie/service/internal/config"
	"github.com/galerie/service/internal/contact"
	"github.com/galerie/service/internal/db"
	"github.com/galerie/service/internal/logger"
	appMiddleware "github.com/galerie/service/internal/middleware"
	"github.com/galerie/service/internal/photo"
	"github.com/galerie/service/internal/storage"

	_ "github.com/galerie/service/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		zlog.Fatal("database migration failed", zap.Error(err))
	}
	zlog.Info("database ready")

	// The local backend is always constructed: it is cheap, and records
	// created under local mode must stay resolvable after a mode switch.
	// The remote backends come up when they are active or credentialed.
	local, err := storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		zlog.Fatal("local storage init failed", zap.Error(err))
	}
	backends := []storage.Backend{local}

	if cfg.StorageMode == storage.ModeAWS || cfg.S3AccessKey != "" {
		obj, err := storage.NewObjectStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			zlog.Fatal("object storage init failed", zap.Error(err))
		}
		backends = append(backends, obj)
	}
	if cfg.StorageMode == storage.ModeCloudinary || cfg.CloudinaryURL != "" {
		cdn, err := storage.NewCDN(cfg.CloudinaryURL)
		if err != nil {
			zlog.Fatal("cloudinary init failed", zap.Error(err))
		}
		backends = append(backends, cdn)
	}

	resolver := storage.NewResolver(backends...)
	active, ok := resolver.Backend(cfg.StorageMode)
	if !ok {
		zlog.Fatal("active storage mode has no configured backend", zap.String("mode", string(cfg.StorageMode)))
	}
	zlog.Info("storage ready", zap.String("mode", string(cfg.StorageMode)))

	// Wire dependencies: repository → service → handler
	albumSvc := album.NewService(album.NewRepository(pool), active, resolver, zlog)
	albumHandler := album.NewHandler(albumSvc)

	photoSvc := photo.NewService(photo.NewRepository(pool), active, resolver, zlog)
	photoHandler := photo.NewHandler(photoSvc)

	articleSvc := article.NewService(article.NewRepository(pool), active, resolver, zlog)
	articleHandler := article.NewHandler(articleSvc)

	authSvc := auth.NewService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret, zlog)
	authHandler := auth.NewHandler(authSvc, cfg.IsProduction())

	mailer := contact.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.ContactTo)
	contactHandler := contact.NewHandler(contact.NewService(mailer, zlog))

	requireAdmin := appMiddleware.RequireAdmin(cfg.JWTSecret)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(zlog))
	r.Use(chiMiddleware.Recoverer)
	r.Use(appMiddleware.RateLimit(cfg.RateLimitRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Local-mode uploads are served statically.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.With(requireAdmin).Post("/logout", authHandler.Logout)
	})

	r.Route("/albums", func(r chi.Router) {
		r.Get("/", albumHandler.List)
		r.Get("/{id}", albumHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", albumHandler.Create)
			r.Put("/{id}", albumHandler.Update)
			r.Delete("/{id}", albumHandler.Delete)
			r.Post("/add-photo", albumHandler.AddPhoto)
			r.Post("/move-photo", albumHandler.MovePhoto)
		})
	})

	r.Route("/photos", func(r chi.Router) {
		r.Get("/", photoHandler.List)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/upload", photoHandler.Upload)
			r.Put("/{id}", photoHandler.Update)
			r.Delete("/{id}", photoHandler.Delete)
		})
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", articleHandler.List)
		r.Get("/{slug}", articleHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/upload", articleHandler.Upload)
			r.Delete("/{slug}", articleHandler.Delete)
		})
	})

	r.Post("/contact", contactHandler.Submit)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Info("server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("forced shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
}
