package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpAdapter "github.com/lorrc/conversation-service/internal/adapters/primary/http"
	mw "github.com/lorrc/conversation-service/internal/adapters/primary/http/middleware"
	"github.com/lorrc/conversation-service/internal/adapters/primary/websocket"
	"github.com/lorrc/conversation-service/internal/adapters/secondary/jobqueue"
	"github.com/lorrc/conversation-service/internal/adapters/secondary/postgres"
	"github.com/lorrc/conversation-service/internal/adapters/secondary/pubsub"
	"github.com/lorrc/conversation-service/internal/auth"
	"github.com/lorrc/conversation-service/internal/config"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/services"
	"github.com/lorrc/conversation-service/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Database Pool
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxOpenConns,
		MinConns:        cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		if cfg.Queue.Enabled {
			if err := jobqueue.Migrate(ctx, pool, logger); err != nil {
				logger.Error("queue migration failed", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("migrations applied")
	}

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	hub := websocket.NewHub(websocket.HubConfig{
		BroadcastBuffer: cfg.WebSocket.BroadcastBuffer,
		SessionBuffer:   cfg.WebSocket.SessionBuffer,
	}, logger)
	go hub.Run(ctx)

	var broadcaster ports.EventBroadcaster = hub
	var bridge *pubsub.RedisBridge
	if cfg.MultiInstance() {
		bridge, err = pubsub.NewRedisBridge(pubsub.Config{
			URL:           cfg.Redis.URL,
			Channel:       cfg.Redis.Channel,
			PublishBuffer: cfg.Redis.PublishBuffer,
		}, hub, logger)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer bridge.Close()
		go bridge.Run(ctx)
		broadcaster = bridge
		logger.Info("cross-instance signal relay enabled", "channel", cfg.Redis.Channel)
	}

	// 5. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var sendLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		sendLimit = mw.NewRateLimitByKey(cfg.RateLimit.SendRPS, cfg.RateLimit.SendBurst).ActorMiddleware
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	messageRepo := postgres.NewMessageRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	directory := postgres.NewParticipantDirectory(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Services (Core)
	messageService := services.NewMessageService(messageRepo, directory, txManager, broadcaster, logger)
	readStateService := services.NewReadStateService(messageRepo, broadcaster, logger)
	unreadService := services.NewUnreadService(messageRepo)
	notificationService := services.NewNotificationService(notificationRepo, directory, broadcaster, logger)

	// Business-event queue
	var eventQueue ports.BusinessEventQueue
	var queue *jobqueue.Queue
	if cfg.Queue.Enabled {
		queue, err = jobqueue.NewQueue(pool, jobqueue.Config{
			MaxWorkers:        cfg.Queue.MaxWorkers,
			JobTimeout:        cfg.Queue.JobTimeout,
			FetchPollInterval: cfg.Queue.PollInterval,
		}, notificationService, directory, logger)
		if err != nil {
			logger.Error("failed to create job queue", "error", err)
			os.Exit(1)
		}
		if err := queue.Start(ctx); err != nil {
			logger.Error("failed to start job queue", "error", err)
			os.Exit(1)
		}
		eventQueue = queue
	}

	// Handlers (Primary Adapters)
	conversationHandler := httpAdapter.NewConversationHandler(
		messageService, readStateService, unreadService, directory, sendLimit, errorHandler, logger,
	)
	notificationHandler := httpAdapter.NewNotificationHandler(notificationService, errorHandler, logger)
	eventsHandler := httpAdapter.NewEventsHandler(eventQueue, notificationService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version).WithSessions(hub)
	if bridge != nil {
		healthHandler.WithDependency("redis", bridge)
	}

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxAge:         cfg.CORS.MaxAge,
		AllowAll:       cfg.IsDevelopment(),
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Service-to-service business events
		r.Group(func(r chi.Router) {
			r.Use(mw.InternalTokenMiddleware(cfg.Events.InternalToken))
			r.Route("/internal/events", eventsHandler.RegisterRoutes)
		})

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/channels", conversationHandler.RegisterRoutes)
			r.Route("/notifications", notificationHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if queue != nil {
		if err := queue.Stop(shutdownCtx); err != nil {
			logger.Error("job queue shutdown error", "error", err)
		}
	}

	// Stops the hub (closing every session) and the Redis relay.
	cancel()

	logger.Info("server shutdown complete")
}
