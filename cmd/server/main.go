package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/truetone/api/internal/config"
	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/handler"
	"github.com/truetone/api/internal/jobs"
	"github.com/truetone/api/internal/metrics"
	"github.com/truetone/api/internal/middleware"
	"github.com/truetone/api/internal/repository"
	"github.com/truetone/api/internal/service"
	"github.com/truetone/api/internal/storage"
	"github.com/truetone/api/internal/storage/gcs"
	"github.com/truetone/api/internal/storage/memory"
	"github.com/truetone/api/migrations"
	"github.com/truetone/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Namespace:      cfg.Database.Namespace,
		Database:       cfg.Database.Database,
		ConnectRetries: cfg.Database.ConnectRetries,
		RetryWait:      cfg.Database.RetryWait,
		Logger:         logger,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	if cfg.Database.AutoMigrate {
		applied, err := database.ApplyMigrations(ctx, db, migrations.Files)
		if err != nil {
			slog.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("migrations applied", slog.String("files", strings.Join(applied, ",")))
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Photo storage
	var (
		photos storage.Storage
		media  http.Handler
	)
	switch cfg.Storage.Backend {
	case "gcs":
		store, err := gcs.New(ctx, gcs.Config{
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, logger)
		if err != nil {
			slog.Error("failed to initialize photo storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		photos = store
	default:
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:" + cfg.Server.Port
		}
		store := memory.New(baseURL)
		photos = store
		media = store
		slog.Warn("using in-memory photo storage; uploads are lost on restart")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	saxophoneRepo := repository.NewSaxophoneRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService: jwtService,
		TokenRepo:  tokenRepo,
	})

	authProvider := service.NewLocalAuthProvider(service.LocalAuthProviderConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
	})

	authService := service.NewAuthService(service.AuthServiceConfig{
		Provider:     authProvider,
		UserRepo:     userRepo,
		Profiles:     profileRepo,
		TokenService: tokenService,
		Logger:       logger,
	})

	invitationService := service.NewInvitationService(service.InvitationServiceConfig{
		InvitationRepo: invitationRepo,
		Origin:         cfg.Server.AppOrigin,
		TTL:            cfg.Invitation.TTL,
		Logger:         logger,
		Metrics:        recorder,
	})

	provisioningService := service.NewProvisioningService(service.ProvisioningServiceConfig{
		DB:             db,
		InvitationRepo: invitationRepo,
		ProfileRepo:    profileRepo,
		Provider:       authProvider,
		TokenService:   tokenService,
		Logger:         logger,
		Metrics:        recorder,
	})

	catalogService := service.NewCatalogService(service.CatalogServiceConfig{
		SaxophoneRepo: saxophoneRepo,
		ReviewRepo:    reviewRepo,
		Profiles:      profileRepo,
		Storage:       photos,
		MaxPhotoBytes: cfg.Storage.MaxPhotoBytes,
		Logger:        logger,
		Metrics:       recorder,
	})

	// Initialize rate limiter for the credential endpoints
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   float64(cfg.RateLimit.Rate) / cfg.RateLimit.Every.Seconds(),
		Burst: cfg.RateLimit.Burst,
	})

	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.Storage.MaxPhotoBytes)

	// Initialize idempotency store for catalog submissions
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		MaxBody: catalogHandler.MaxBodyBytes(),
	})

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       registry,
		HTTPMetrics:    httpMetrics,
		Tokens:         authService,
		Profiles:       profileRepo,
		RateLimiter:    rateLimiter,
		Idempotency:    idempotencyStore,
		Health:         handler.NewHealthHandler(db),
		Auth:           handler.NewAuthHandler(authService),
		Signup:         handler.NewSignupHandler(invitationService, provisioningService),
		Catalog:        catalogHandler,
		Invitations:    handler.NewInvitationHandler(invitationService),
		Media:          media,
	})

	// Background jobs
	expiryJob := jobs.NewInvitationExpiryJob(jobs.InvitationExpiryJobConfig{
		Invitations: invitationService,
		Tokens:      tokenService,
		Interval:    cfg.Invitation.ReconcileInterval,
		Logger:      logger,
	})
	expiryJob.Start()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("storage", cfg.Storage.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	expiryJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	idempotencyStore.Stop()

	slog.Info("server exited")
}
