package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/api"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/router"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	router          *gin.Engine
	http            *http.Server
	log             *zap.Logger
	cooking         *service.InteractionService
	shutdownTimeout time.Duration
}

// New wires every service onto db and redisClient and builds the router.
// redisClient may be nil. The AI assistant and image storage are optional and
// stay disabled when their configuration is missing.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	m := metrics.New()

	emailService := service.NewEmailService(cfg.SMTP, log)
	otpService := service.NewOTPService(db, cfg.Auth.OTPTTL, middleware.NewOTPAttemptLimiter(redisClient), log)
	authService := service.NewAuthService(db, cfg.Auth, otpService, emailService, log)

	calendarService := service.NewCalendarService(db, service.NewGoogleCalendarFactory(cfg.Calendar), cfg.Calendar.DefaultTimeZone, log, m)
	mealPlanService := service.NewMealPlanService(db, calendarService, log)
	interactionService := service.NewInteractionService(db, log, m)

	var generator service.TextGenerator
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := service.NewGeminiGenerator(ctx, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AI assistant: %w", err)
		}
		generator = gemini
	} else {
		log.Warn("Gemini API key not configured, AI assistant disabled")
	}

	var storage service.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3, err := config.NewS3Config(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize image storage: %w", err)
		}
		storage = s3
	} else {
		log.Warn("Storage bucket not configured, image analysis disabled")
	}

	engine, err := router.SetupRouter(cfg.Server.AllowedOrigins, api.Dependencies{
		DB:            db,
		Redis:         redisClient,
		Metrics:       m,
		Log:           log,
		Auth:          authService,
		Users:         service.NewUserService(db, log),
		Recipes:       service.NewRecipeService(db, log),
		Favorites:     service.NewFavoriteService(db, log),
		Reviews:       service.NewReviewService(db, log, m),
		MealPlans:     mealPlanService,
		Calendar:      calendarService,
		Cooking:       interactionService,
		Chat:          service.NewChatService(db, generator, storage, mealPlanService, log, m),
		ChatLimiter:   middleware.NewChatRateLimiter(redisClient, cfg.RateLimit.ChatPerHour),
		RecipeLimiter: middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RateLimit.RecipePerHour),
	})
	if err != nil {
		return nil, err
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              cfg.Server.Address(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log:             log,
		cooking:         interactionService,
		shutdownTimeout: timeout,
	}, nil
}

// Handler exposes the routed engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is shut down. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info("Starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, drains in-flight ones and waits for
// background meal-plan updates to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.cooking.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("Timed out waiting for background tasks")
	}
	return nil
}
