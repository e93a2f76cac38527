package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lmercadier/sentinelle/internal/auth"
	"github.com/lmercadier/sentinelle/internal/background"
	"github.com/lmercadier/sentinelle/internal/config"
	"github.com/lmercadier/sentinelle/internal/database"
	"github.com/lmercadier/sentinelle/internal/handlers"
	middlewareCustom "github.com/lmercadier/sentinelle/internal/middleware"
	"github.com/lmercadier/sentinelle/internal/repositories"
	"github.com/lmercadier/sentinelle/internal/reputation"
	"github.com/lmercadier/sentinelle/internal/routes"
	"github.com/lmercadier/sentinelle/internal/services"
	pkgauth "github.com/lmercadier/sentinelle/pkg/auth"
	pkghttp "github.com/lmercadier/sentinelle/pkg/http"
	pkglogger "github.com/lmercadier/sentinelle/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store_backend", cfg.Security.StoreBackend))

	// Initialize storage backend
	var (
		historyRepo services.HistoryRepository
		deviceRepo  services.DeviceRepository
		blockRepo   services.BlockRepository
		lockRepo    services.LockRepository
		sweepRepo   background.LockPurger
		db          *database.DB
	)

	switch cfg.Security.StoreBackend {
	case config.StoreBackendPostgres:
		db, err = database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}

		pgLocks := repositories.NewLockRepository(db)
		historyRepo = repositories.NewHistoryRepository(db)
		deviceRepo = repositories.NewDeviceRepository(db)
		blockRepo = repositories.NewBlockRepository(db)
		lockRepo = pgLocks
		sweepRepo = pgLocks
	default:
		memLocks := repositories.NewMemoryLockRepository()
		historyRepo = repositories.NewMemoryHistoryRepository()
		deviceRepo = repositories.NewMemoryDeviceRepository()
		blockRepo = repositories.NewMemoryBlockRepository()
		lockRepo = memLocks
		sweepRepo = memLocks
	}

	// IP reputation classifier
	classifier := reputation.NewIP2ProxyClient(
		cfg.Security.IP2ProxyAPIKey,
		cfg.Security.ClassifierTimeout,
		logger,
	)

	// Lock notification email, optional
	var notifier services.LockNotifier
	if cfg.Email.AWSRegion != "" && cfg.Email.FromAddress != "" {
		sesNotifier, err := services.NewAWSSESLockNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize lock notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	} else {
		logger.Info("lock notification email disabled, AWS_REGION or EMAIL_FROM not set")
	}

	// Security gate
	auditLogger := pkglogger.NewAuditLogger(logger)
	securityService := services.NewSecurityService(
		historyRepo,
		deviceRepo,
		blockRepo,
		lockRepo,
		classifier,
		notifier,
		services.SecurityConfig{
			LockDuration:   cfg.Security.LockDuration,
			LocationWindow: cfg.Security.LocationWindow,
		},
		logger,
		auditLogger,
	)

	// Admin token manager and bootstrap credential
	tokenManager := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenExpiry)

	adminHash, err := pkgauth.HashPassword(cfg.Admin.Password)
	if err != nil {
		logger.Error("failed to hash admin password", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	securityHandler := handlers.NewSecurityHandler(securityService, ipConfig)
	adminHandler := handlers.NewAdminHandler(securityService, tokenManager, handlers.AdminCredential{
		Email:        cfg.Admin.Email,
		PasswordHash: adminHash,
	}, auditLogger)

	// Expired lock sweeper
	sweepManager := background.NewSweepManager(sweepRepo, logger, cfg.Security.LockSweepInterval)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, securityHandler, adminHandler, tokenManager)

	// Liveness
	router.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"pong"}`))
	})

	// Health check, database-aware when the postgres backend is active
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
				return
			}

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy","database":"up"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","store":"memory"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start lock sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweepManager.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweepManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
