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
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/stayvista/stayvista-api/internal/http/handlers"
	httpmw "github.com/stayvista/stayvista-api/internal/http/middleware"
	"github.com/stayvista/stayvista-api/internal/platform/assets"
	"github.com/stayvista/stayvista-api/internal/platform/auth"
	"github.com/stayvista/stayvista-api/internal/platform/mailer"
	repo "github.com/stayvista/stayvista-api/internal/repo/mongo"
	"github.com/stayvista/stayvista-api/internal/service"
	"github.com/stayvista/stayvista-api/pkg/config"
	"github.com/stayvista/stayvista-api/pkg/database"
	"github.com/stayvista/stayvista-api/pkg/events"
	"github.com/stayvista/stayvista-api/pkg/logger"
	mw "github.com/stayvista/stayvista-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// A missing signing key is a deployment error, not something to limp
	// along without.
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		logger.Error("JWT_SECRET must be set", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.Database)

	if err := repo.EnsureUserIndexes(ctx, db); err != nil {
		logger.Error("Failed to ensure user indexes", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var eventBus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	uploader, err := assets.NewMinioUploader(ctx,
		cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
		cfg.Minio.Bucket, cfg.Minio.UseSSL,
		cfg.Upload.MaxImageBytes, cfg.Upload.Timeout,
	)
	if err != nil {
		logger.Error("Failed to initialize asset store", "error", err)
		os.Exit(1)
	}

	var mailSvc mailer.Service
	if cfg.Email.DevMode {
		mailSvc = mailer.NewDevMailer()
	} else {
		mailSvc = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	userRepo := repo.NewUserRepository(db)
	hotelRepo := repo.NewHotelRepository(db)

	authService := service.NewAuthService(userRepo, tokens, mailSvc, eventBus)
	hotelService := service.NewHotelService(hotelRepo, uploader, eventBus, cfg.Upload.MaxImages)

	gate := httpmw.RequireAuth(tokens, cfg.Auth.CookieName)
	authLimiter := httpmw.NewRateLimiter(redisClient, httpmw.RateLimitConfig{
		Requests: 20,
		Window:   time.Minute,
	})

	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieName, cfg.Auth.AccessTokenTTL)
	hotelsHandler := handlers.NewHotelsHandler(hotelService, cfg.Upload.MaxImages, cfg.Upload.MaxImageBytes)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware())
		r.Mount("/", authHandler.Routes(gate))
	})
	r.Route("/hotels", func(r chi.Router) {
		r.Use(gate)
		r.Mount("/", hotelsHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting stayvista api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
