package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

type ReviewHandler struct {
	reviewService service.IReviewService
	tokens        middleware.TokenValidator
}

func NewReviewHandler(reviewService service.IReviewService, tokens middleware.TokenValidator) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, tokens: tokens}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.tokens)

	reviews := router.Group("/reviews")
	{
		reviews.GET("/recipe/:recipeId", h.ListRecipeReviews)
		reviews.GET("/me", requireAuth, h.ListMyReviews)
		reviews.POST("", requireAuth, h.CreateReview)
		reviews.PATCH("", requireAuth, h.UpdateReview)
		reviews.DELETE("/:id", requireAuth, h.DeleteReview)
	}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), caller.ID, uuid.MustParse(req.RecipeID), req.Rating, req.Title, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Review created successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), caller.ID, uuid.MustParse(req.RecipeID), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	reviewID, ok := uuidParam(c, "id", "review")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), caller, reviewID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review deleted successfully", nil)
}

func (h *ReviewHandler) ListRecipeReviews(c *gin.Context) {
	recipeID, ok := uuidParam(c, "recipeId", "recipe")
	if !ok {
		return
	}
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}

	reviews, err := h.reviewService.ListRecipeReviews(c.Request.Context(), recipeID, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", reviews)
}

func (h *ReviewHandler) ListMyReviews(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}

	reviews, err := h.reviewService.ListUserReviews(c.Request.Context(), caller.ID, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", reviews)
}
