// Package app wires configuration, storage and transport into the runnable commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"campusevents/config"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/email"
	"campusevents/internal/adapters/identity"
	"campusevents/internal/database"
	delivery "campusevents/internal/delivery/http"
	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/metrics"
	"campusevents/internal/repository/postgres"
	"campusevents/internal/services"
	"campusevents/internal/session"
)

// Run parses the subcommand from args (os.Args[1:]) and runs it.
func Run(args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialization.
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("starting application", "command", cmd, "env", cfg.Environment, "port", cfg.Port)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, logger)
	case CommandCreateAdmin:
		return runCreateAdmin(cfg, logger)
	default:
		return runServe(cfg, logger)
	}
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connection established")

	rdb, err := identity.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("redis connection established", "addr", cfg.RedisAddr)

	// Repositories
	credentialRepo := postgres.NewCredentialRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	venueRepo := postgres.NewVenueRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	// Email
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.SESRegion,
			AccessKeyID:        cfg.Email.SESAccessKeyID,
			SecretAccessKey:    cfg.Email.SESSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	// Identity
	tokens := auth.NewJWT(cfg.JWTSecret)
	identities := identity.NewStore(rdb, credentialRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), tokens, cfg.SessionTTL, logger)
	registry := session.NewRegistry(identities, profileRepo, recorder, logger, session.RegistryConfig{IdleTTL: cfg.ClientIdleTTL})
	defer registry.Close()

	// Services
	eventService := services.NewEventService(eventRepo, venueRepo, profileRepo, emailService, recorder, logger, cfg.RequestTimeout)
	registrationService := services.NewRegistrationService(eventRepo, registrationRepo, recorder)
	approvalService := services.NewApprovalService(profileRepo, emailService, recorder, logger)
	venueService := services.NewVenueService(venueRepo, eventRepo)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{PerMinute: cfg.LoginRatePerMinute}, logger)
	defer limiter.Stop()

	router := delivery.NewRouter(delivery.RouterDeps{
		Logger:         logger,
		Sessions:       registry,
		Verifier:       tokens,
		Limiter:        limiter,
		Recorder:       recorder,
		MetricsHandler: metrics.Handler(reg),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		CSRFKey:        []byte(cfg.CSRFKey),
		Secure:         cfg.IsProduction(),

		Session:       controllers.NewSessionController(logger),
		Dashboard:     controllers.NewDashboardController(logger, eventService, registrationService, approvalService),
		Events:        controllers.NewEventController(logger, eventService),
		Registrations: controllers.NewRegistrationController(logger, registrationService),
		Approvals:     controllers.NewApprovalController(logger, approvalService),
		Venues:        controllers.NewVenueController(logger, venueService),
		System:        controllers.NewSystemController(logger, healthChecks(db, rdb)),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("API server stopped gracefully")
	return nil
}

func healthChecks(db *sql.DB, rdb *redis.Client) map[string]controllers.HealthCheck {
	return map[string]controllers.HealthCheck{
		"database": db.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}

func runMigrate(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations", "database_url", maskDatabaseURL(cfg.DBUrl))

	if err := database.RunMigrations(cfg.DBUrl); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("database migrations completed successfully")
	return nil
}

func runCreateAdmin(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	profile, err := CreateAdmin(ctx,
		postgres.NewCredentialRepository(db),
		postgres.NewProfileRepository(db),
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		adminFromEnv(os.Getenv),
	)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin account created", "profile_id", profile.ID, "email", profile.Email)
	return nil
}

// runHealthcheck probes /healthz of a server running on port.
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL hides the password of a database URL for logging.
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
