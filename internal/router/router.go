package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/api"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
)

// SetupRouter builds the engine with the middleware chain and every API route.
func SetupRouter(allowedOrigins []string, deps api.Dependencies) (*gin.Engine, error) {
	if err := types.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(allowedOrigins),
	)
	router.HandleMethodNotAllowed = true

	api.RegisterRoutes(router, deps)
	return router, nil
}
