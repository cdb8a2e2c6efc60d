package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airlift/airlift/internal/auth"
	"github.com/airlift/airlift/internal/config"
	"github.com/airlift/airlift/internal/handlers"
	"github.com/airlift/airlift/internal/metrics"
	"github.com/airlift/airlift/internal/middleware"
	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
	"github.com/airlift/airlift/internal/repository/postgres"
	"github.com/airlift/airlift/internal/repository/sqlite"
	"github.com/airlift/airlift/internal/service"
	"github.com/airlift/airlift/internal/storage/filesystem"
)

// filesPublicPath is the URL prefix under which local uploads are served.
const filesPublicPath = "/files"

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting airlift",
		"port", cfg.Port,
		"db_driver", cfg.DBDriver,
		"upload_dir", cfg.UploadDir,
		"admin_enabled", cfg.AdminEnabled(),
	)

	// Initialize repositories for the configured driver
	repos, err := openRepositories(cfg)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	slog.Info("database initialized", "driver", cfg.DBDriver)

	// Resolve the admin password hash; a plaintext ADMIN_PASSWORD is hashed
	// once at startup.
	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" && cfg.AdminPassword != "" {
		passwordHash, err = auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to hash admin password", "error", err)
			os.Exit(1)
		}
	}

	// Local storage backend; the object-storage backend is built lazily from
	// settings by the provider.
	localBackend, err := filesystem.NewFilesystemStorage(cfg.UploadDir, filesPublicPath)
	if err != nil {
		slog.Error("failed to initialize upload directory", "error", err)
		os.Exit(1)
	}
	provider := newBackendProvider(localBackend)

	// Services
	settingsSvc := service.NewSettingsService(repos.Settings)
	uploader := service.NewUploader(repos.Files, settingsSvc, provider, nil)
	downloader := service.NewDownloader(repos.Files, settingsSvc, provider, nil)
	authSvc := auth.NewService(cfg.AdminUsername, passwordHash, repos.Sessions,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute, nil)

	reaper := service.NewReaper(repos.Files, settingsSvc, provider,
		time.Duration(cfg.ReaperIntervalMinutes)*time.Minute,
		time.Duration(cfg.ReaperStartupDelaySeconds)*time.Second, nil)
	reaper.OnDelete = func(record *models.FileRecord) {
		metrics.ReaperDeletedTotal.Inc()
	}

	startTime := time.Now()

	// Setup HTTP router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", handlers.UploadHandler(uploader, cfg))
	mux.HandleFunc("/api/claim/", handlers.ClaimHandler(downloader))

	requireAdmin := auth.RequireAdmin(authSvc)
	mux.Handle("/api/files", requireAdmin(handlers.ListFilesHandler(repos.Files)))
	mux.HandleFunc("/api/files/", handlers.FilesHandler(repos.Files, downloader, uploader, authSvc))

	mux.HandleFunc("/api/settings", handlers.SettingsHandler(settingsSvc, authSvc))

	mux.HandleFunc("/api/auth/login", handlers.LoginHandler(authSvc))
	mux.HandleFunc("/api/auth/logout", handlers.LogoutHandler(authSvc))
	mux.HandleFunc("/api/auth/check", handlers.AuthCheckHandler(authSvc))

	mux.HandleFunc("/health", handlers.HealthHandler(repos.Files, startTime, nil))
	mux.Handle("/metrics", promhttp.Handler())

	// Direct access to locally stored files (the record's data URL).
	mux.Handle(filesPublicPath+"/", http.StripPrefix(filesPublicPath+"/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	// Wrap with middleware (order: Recovery -> Logging -> CORS -> metrics -> handlers)
	handler := middleware.Recovery(
		middleware.Logging(
			middleware.CORS(cfg.AllowedOrigins)(
				metrics.Middleware(mux),
			),
		),
	)

	// Setup HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go reaper.Run(ctx)
	go authSvc.CleanupLoop(ctx, 30*time.Minute)

	// Start HTTP server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig)

		// Stop the reaper and session cleanup
		cancel()

		// Give outstanding requests 10 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				slog.Error("server close failed", "error", err)
			}
			os.Exit(1)
		}

		slog.Info("server shutdown complete")
	}
}

// openRepositories builds the repository set for the configured DB driver.
func openRepositories(cfg *config.Config) (*repository.Repositories, error) {
	switch cfg.DBDriver {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewRepositories(pool)

	default:
		db, err := sqlite.Initialize(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewRepositories(db)
	}
}
