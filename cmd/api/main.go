package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/kindra/kindra-api/internal/config"
	"github.com/kindra/kindra-api/internal/domain/interaction"
	"github.com/kindra/kindra-api/internal/domain/messaging"
	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/domain/realtime"
	"github.com/kindra/kindra-api/internal/domain/relationship"
	"github.com/kindra/kindra-api/internal/middleware"
	"github.com/kindra/kindra-api/internal/pkg/database"
	"github.com/kindra/kindra-api/internal/pkg/jwt"
	"github.com/kindra/kindra-api/internal/pkg/logger"
	"github.com/kindra/kindra-api/internal/pkg/push"
	"github.com/kindra/kindra-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Kindra API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Push ----------
	var pusher *push.FCMClient
	if cfg.PushEnabled {
		pusher = push.NewFCMClient(push.FCMConfig{
			ServerKey: cfg.FCMServerKey,
			ProjectID: cfg.FCMProjectID,
		})
	}

	// ---------- Repositories ----------
	profileRepo := profile.NewRepository(db)
	relationshipStore := relationship.NewRepository(db)
	messagingRepo := messaging.NewRepository(db)

	// ---------- Services ----------
	relationshipService := relationship.NewService(relationshipStore)
	messagingService := messaging.NewService(messagingRepo, relationshipStore, profileRepo, hub, pusherOrNil(pusher))
	interactionService := interaction.NewService(relationshipStore, profileRepo, messagingService, hub, pusherOrNil(pusher))

	// ---------- Handlers ----------
	relationshipHandler := relationship.NewHandler(relationshipService, profileRepo)
	messagingHandler := messaging.NewHandler(messagingService, redis)
	interactionHandler := interaction.NewHandler(interactionService)
	realtimeHandler := realtime.NewHandler(hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(realtimeHandler.WebSocket)).ServeHTTP(w, r)
	})

	// Compress for everything else
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.OK(w, map[string]string{
				"status":  "ok",
				"version": "1.0.0",
			})
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				response.OK(w, map[string]string{"message": "pong"})
			})

			r.Mount("/interactions", interactionHandler.Routes(authMiddleware))
			r.Mount("/relationships", relationshipHandler.Routes(authMiddleware))
			r.Mount("/messaging", messagingHandler.Routes(authMiddleware))
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// pusherOrNil keeps a disabled pusher a true nil interface so the
// services' nil checks work.
func pusherOrNil(client *push.FCMClient) messaging.Pusher {
	if client == nil {
		return nil
	}
	return client
}
