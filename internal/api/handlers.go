package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthHandler reports whether the API can reach its backing stores.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Check pings the database and, when configured, Redis.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if err := database.HealthCheck(ctx, h.db); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Data:    gin.H{"status": "unhealthy", "checks": checks},
			Error:   "Service unavailable",
		})
		return
	}
	response.OK(c, "", gin.H{"status": "healthy", "checks": checks})
}

// callerFrom returns the authenticated caller or writes a 401.
func callerFrom(c *gin.Context) (service.Caller, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperror.Unauthorized(""))
		return service.Caller{}, false
	}
	return service.Caller{ID: id, Role: middleware.GetRole(c)}, true
}

// optionalCaller returns the zero Caller for anonymous requests.
func optionalCaller(c *gin.Context) service.Caller {
	id, ok := middleware.GetUserID(c)
	if !ok {
		return service.Caller{}
	}
	return service.Caller{ID: id, Role: middleware.GetRole(c)}
}

// uuidParam parses a path parameter, writing a 400 naming the resource on failure.
func uuidParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.BadRequest("Invalid "+resource+" ID"))
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses s when present. Binding has already validated the format.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}
