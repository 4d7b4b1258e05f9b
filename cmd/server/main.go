package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/config"
	"github.com/AnshRaj112/travelnest-backend/internal/database"
	"github.com/AnshRaj112/travelnest-backend/internal/handlers"
	"github.com/AnshRaj112/travelnest-backend/internal/logging"
	"github.com/AnshRaj112/travelnest-backend/internal/middleware"
	"github.com/AnshRaj112/travelnest-backend/internal/routes"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := database.ConnectPostgres(cfg.PostgresURI, logger); err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.DisconnectPostgres()

	if err := database.ConnectRedis(cfg.RedisURI, logger); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer database.DisconnectRedis()

	if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase, logger); err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer database.Disconnect()

	setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(setupCtx, database.DB); err != nil {
		logger.Warn("failed to ensure MongoDB indexes", zap.Error(err))
	}
	if err := database.InitPostgresTables(setupCtx, database.PostgresDB); err != nil {
		cancel()
		logger.Fatal("failed to create PostgreSQL tables", zap.Error(err))
	}
	cancel()

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		logger.Info("smtp mailer enabled", zap.String("host", cfg.SMTPHost))
	} else {
		mailer = services.NewLogMailer(logger)
		logger.Warn("SMTP not configured, emails will only be logged")
	}

	users := services.NewMongoUserStore(database.DB)
	packages := services.NewMongoPackageStore(database.DB)
	adminCodes := services.NewMongoAdminOTPStore(database.DB)
	inquiries := services.NewPostgresInquiryStore(database.PostgresDB)
	sessions := services.NewSessionManager(cfg.JWTSecret, cfg.UserTokenTTL, cfg.AdminTokenTTL)

	ctx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	events := services.NewEventHub(database.RedisClient, logger)
	events.Start(ctx)

	clientIP := middleware.ClientIP(cfg.TrustProxy)
	h := &handlers.Handler{
		Auth: services.NewAuthService(users, mailer,
			services.NewResendCooldown(database.RedisClient, cfg.OTPResendCooldown),
			sessions, logger, services.AuthSettings{
				OTPExpiry:     cfg.OTPExpiry,
				MaxAttempts:   cfg.OTPMaxAttempts,
				ResetTokenTTL: cfg.ResetTokenTTL,
				BcryptCost:    cfg.BcryptCost,
			}),
		Admin:     services.NewAdminAuthService(cfg.AdminEmail, adminCodes, mailer, sessions, logger, cfg.AdminOTPTTL),
		Catalog:   services.NewPackageService(packages, users, services.NewCacheService(database.RedisClient), logger),
		Wishlist:  services.NewWishlistService(users, packages),
		Inquiries: services.NewInquiryService(inquiries, packages, mailer, logger, cfg.AdminEmail).WithEvents(events),
		Events:    events,
		Checks: map[string]handlers.HealthCheck{
			"mongo":    func(ctx context.Context) error { return database.Client.Ping(ctx, nil) },
			"redis":    func(ctx context.Context) error { return database.RedisClient.Ping(ctx).Err() },
			"postgres": func(ctx context.Context) error { return database.PostgresDB.PingContext(ctx) },
		},
		AllowedOrigins: cfg.AllowedOrigins,
		ClientIP:       clientIP,
		Logger:         logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: security headers, host check and per-IP token buckets.
	// Elsewhere: the Redis request counter, which admins can lift per IP.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost, clientIP) {
			r.Use(mw)
		}
		logger.Info("production security enabled", zap.String("allowedHost", cfg.AllowedHost))
	} else {
		limiter := middleware.NewRateLimiter(database.RedisClient, clientIP, logger)
		r.Use(limiter.Middleware)
		h.Unblocker = limiter
	}
	r.Use(middleware.AuthRateLimit(clientIP))
	r.Use(middleware.FormRateLimit(clientIP))

	routes.SetupRoutes(r, h, sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("TravelNest backend running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	stopEvents()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
