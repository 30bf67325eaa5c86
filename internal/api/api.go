// Package api exposes the services over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies is everything the handlers need. Redis, the limiters and
// Metrics may be nil.
type Dependencies struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Log     *zap.Logger

	Auth      service.IAuthService
	Users     service.IUserService
	Recipes   service.IRecipeService
	Favorites service.IFavoriteService
	Reviews   service.IReviewService
	MealPlans service.IMealPlanService
	Calendar  service.ICalendarService
	Cooking   service.IInteractionService
	Chat      service.IChatService

	ChatLimiter   *middleware.RateLimiter
	RecipeLimiter *middleware.RateLimiter
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	health := NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.Check)
	router.GET("/api/health", health.Check)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	NewAuthHandler(deps.Auth).RegisterRoutes(v1)
	NewProfileHandler(deps.Users, deps.Auth).RegisterRoutes(v1)
	NewRecipeHandler(deps.Recipes, deps.Auth, deps.RecipeLimiter, log).RegisterRoutes(v1)
	NewFavoriteHandler(deps.Favorites, deps.Auth).RegisterRoutes(v1)
	NewReviewHandler(deps.Reviews, deps.Auth).RegisterRoutes(v1)
	NewMealPlanHandler(deps.MealPlans, deps.Calendar, deps.Auth).RegisterRoutes(v1)
	NewCookingHandler(deps.Cooking, deps.Auth).RegisterRoutes(v1)
	NewChatHandler(deps.Chat, deps.Auth, deps.ChatLimiter, log).RegisterRoutes(v1)
}
