package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

type FavoriteHandler struct {
	favoriteService service.IFavoriteService
	tokens          middleware.TokenValidator
}

func NewFavoriteHandler(favoriteService service.IFavoriteService, tokens middleware.TokenValidator) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, tokens: tokens}
}

func (h *FavoriteHandler) RegisterRoutes(router *gin.RouterGroup) {
	favorites := router.Group("/favorites")
	favorites.Use(middleware.AuthMiddleware(h.tokens))
	{
		favorites.GET("", h.ListFavorites)
		favorites.POST("", h.AddFavorite)
		favorites.GET("/:recipeId", h.GetFavoriteStatus)
		favorites.DELETE("/:recipeId", h.RemoveFavorite)
	}
}

func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.AddFavoriteRequest
	if !bindJSON(c, &req) {
		return
	}

	favorite, err := h.favoriteService.AddFavorite(c.Request.Context(), caller, uuid.MustParse(req.RecipeID), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Recipe added to favorites", favorite)
}

func (h *FavoriteHandler) GetFavoriteStatus(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	recipeID, ok := uuidParam(c, "recipeId", "recipe")
	if !ok {
		return
	}

	status, err := h.favoriteService.GetFavoriteStatus(c.Request.Context(), caller.ID, recipeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", status)
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	recipeID, ok := uuidParam(c, "recipeId", "recipe")
	if !ok {
		return
	}

	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), caller.ID, recipeID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Recipe removed from favorites", nil)
}

func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var filter types.FavoriteFilter
	if !bindQuery(c, &filter) {
		return
	}

	page, err := h.favoriteService.ListFavorites(c.Request.Context(), caller.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", page)
}
