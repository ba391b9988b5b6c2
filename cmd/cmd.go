package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-hub-backend/internal/config"
	"campus-hub-backend/internal/events"
	"campus-hub-backend/internal/handlers"
	"campus-hub-backend/internal/middleware"
	"campus-hub-backend/internal/repository"
	"campus-hub-backend/internal/retry"
	"campus-hub-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to Redis for realtime notifications
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping Redis")
	}
	log.Info().Msg("Redis connection established")

	retryPolicy := retry.Policy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}
	bus := events.NewBus(rdb, retryPolicy)

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	groupRepo := repository.NewStudyGroupRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// Initialize services
	storage, err := services.NewStorageService(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage service")
	}

	userService := services.NewUserService(profileRepo, friendshipRepo, storage, cfg.JWT.Secret)
	friendshipService := services.NewFriendshipService(friendshipRepo, profileRepo, bus)
	conversationService := services.NewConversationService(friendshipRepo, messageRepo, retryPolicy)
	messageService := services.NewMessageService(messageRepo, friendshipService, storage, bus)
	announcementService := services.NewAnnouncementService(announcementRepo, bus)
	groupService := services.NewStudyGroupService(groupRepo)
	resourceService := services.NewResourceService(resourceRepo, storage)

	wsHub := services.NewWSHub(friendshipService, conversationService, messageService)

	// Route bus events into the hub
	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	go func() {
		if err := bus.Run(busCtx, wsHub.HandleEvent); err != nil && busCtx.Err() == nil {
			log.Error().Err(err).Msg("Event bus stopped")
		}
	}()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendshipService)
	messageHandler := handlers.NewMessageHandler(messageService, conversationService, wsHub)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService)
	groupHandler := handlers.NewStudyGroupHandler(groupService)
	resourceHandler := handlers.NewResourceHandler(resourceService, userService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, messageService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/profiles/me", userHandler.Me)
			r.Patch("/profiles/me", userHandler.UpdateMe)
			r.Post("/profiles/me/avatar", userHandler.UploadAvatar)
			r.Get("/profiles/suggestions", userHandler.Suggestions)

			r.Get("/friends", friendHandler.List)
			r.Get("/friends/requests", friendHandler.Pending)
			r.Post("/friends/requests", friendHandler.SendRequest)
			r.Post("/friends/requests/{request_id}/respond", friendHandler.Respond)
			r.Get("/friends/status/{user_id}", friendHandler.Status)

			r.Get("/conversations", messageHandler.Conversations)
			r.Get("/conversations/{peer_id}/messages", messageHandler.Open)
			r.Post("/messages", messageHandler.Send)

			r.Get("/announcements", announcementHandler.List)

			r.Get("/study-groups", groupHandler.List)
			r.Post("/study-groups", groupHandler.Create)
			r.Post("/study-groups/{group_id}/join", groupHandler.Join)
			r.Delete("/study-groups/{group_id}/leave", groupHandler.Leave)
			r.Get("/study-groups/{group_id}/members", groupHandler.Members)

			r.Get("/resources", resourceHandler.List)
			r.Post("/resources", resourceHandler.Upload)

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminMiddleware(userService))

				r.Post("/announcements", announcementHandler.Create)
				r.Patch("/announcements/{announcement_id}", announcementHandler.Update)
				r.Delete("/announcements/{announcement_id}", announcementHandler.Delete)

				r.Get("/resources", resourceHandler.ListPending)
				r.Post("/resources/{resource_id}/approve", resourceHandler.Approve)
				r.Delete("/resources/{resource_id}", resourceHandler.Delete)

				r.Delete("/study-groups/{group_id}", groupHandler.Delete)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	stopBus()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
