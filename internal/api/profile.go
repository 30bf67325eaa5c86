package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// ProfileHandler serves the caller's own profile and user administration.
type ProfileHandler struct {
	userService service.IUserService
	tokens      middleware.TokenValidator
}

func NewProfileHandler(userService service.IUserService, tokens middleware.TokenValidator) *ProfileHandler {
	return &ProfileHandler{userService: userService, tokens: tokens}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middleware.AuthMiddleware(h.tokens))
	{
		users.GET("/me", h.GetProfile)
		users.PUT("/me", h.UpdateProfile)
	}

	admin := router.Group("/admin/users")
	admin.Use(middleware.AuthMiddleware(h.tokens))
	{
		admin.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), h.ListUsers)
		admin.PATCH("/:id/role", middleware.RequireRoles(models.RoleSuperAdmin), h.UpdateRole)
		admin.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), h.DeleteUser)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", user)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), caller.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile updated successfully", user)
}

func (h *ProfileHandler) ListUsers(c *gin.Context) {
	var filter types.UserFilter
	if !bindQuery(c, &filter) {
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", page)
}

func (h *ProfileHandler) UpdateRole(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id", "user")
	if !ok {
		return
	}
	var req types.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), caller, userID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Role updated successfully", user)
}

func (h *ProfileHandler) DeleteUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id", "user")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), caller, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User deleted successfully", nil)
}
