package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/cache"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/handlers"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/mailer"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/migrations"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/notify"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/repository"
	"github.com/ggrewal99/jobtrackr-backend-v2/internal/service"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/config"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/database"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/events"
	"github.com/ggrewal99/jobtrackr-backend-v2/pkg/logger"
	mw "github.com/ggrewal99/jobtrackr-backend-v2/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	// Apply schema migrations before opening the pool
	if cfg.Database.AutoMigrate {
		if err := migrations.Run(ctx, cfg.Database.URL); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Connect to database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus; fall back to a no-op publisher when NATS is off
	var bus events.Publisher
	if cfg.NATS.Enabled {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	} else {
		bus = events.NewNoopPublisher()
	}
	defer bus.Close()

	// Redis backs idempotency replay; without it keys are not deduplicated
	var idemStore mw.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		idemStore = store
	} else {
		logger.Warn("Redis disabled, idempotency keys will not be deduplicated")
	}

	// Pick a mail provider
	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.From)
	default:
		mail = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
	dispatcher := notify.NewDispatcher(mail, 0)
	defer dispatcher.Close()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	// Initialize services
	accountService := service.NewAccountService(accountRepo, service.Argon2Hasher{}, dispatcher, bus, cfg.Auth, cfg.Server.AppBaseURL)
	jobService := service.NewJobService(jobRepo, bus)
	taskService := service.NewTaskService(taskRepo, jobRepo, bus)
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	// Initialize handlers
	h := handlers.New(accountService, jobService, taskService, analyticsService, idemStore, cfg)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "Panic recovered", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	})

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(mw.Health)

	r.Mount("/", h.Routes())

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
