package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
)

type RecipeHandler struct {
	recipeService service.IRecipeService
	tokens        middleware.TokenValidator
	createLimiter *middleware.RateLimiter
	log           *zap.Logger
}

// NewRecipeHandler creates the recipe handler. createLimiter may be nil.
func NewRecipeHandler(recipeService service.IRecipeService, tokens middleware.TokenValidator, createLimiter *middleware.RateLimiter, log *zap.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		tokens:        tokens,
		createLimiter: createLimiter,
		log:           log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.tokens)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuth(h.tokens), h.ListRecipes)
		recipes.GET("/:id", middleware.OptionalAuth(h.tokens), h.GetRecipe)
		recipes.POST("", requireAuth, h.createLimiter.RateLimitMiddleware(h.log), h.CreateRecipe)
		recipes.PUT("/:id", requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.PATCH("/:id/publish", requireAuth, middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), h.SetPublished)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter types.RecipeFilter
	if !bindQuery(c, &filter) {
		return
	}

	page, err := h.recipeService.ListRecipes(c.Request.Context(), optionalCaller(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", page)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := uuidParam(c, "id", "recipe")
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), optionalCaller(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Recipe created successfully", recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "recipe")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Recipe updated successfully", recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "recipe")
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Recipe deleted successfully", nil)
}

func (h *RecipeHandler) SetPublished(c *gin.Context) {
	id, ok := uuidParam(c, "id", "recipe")
	if !ok {
		return
	}
	var req types.PublishRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.SetPublished(c.Request.Context(), id, *req.IsPublished)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Recipe unpublished"
	if recipe.IsPublished {
		msg = "Recipe published"
	}
	response.OK(c, msg, recipe)
}
