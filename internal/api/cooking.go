package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// CookingHandler drives cooking sessions through their lifecycle.
type CookingHandler struct {
	interactionService service.IInteractionService
	tokens             middleware.TokenValidator
}

func NewCookingHandler(interactionService service.IInteractionService, tokens middleware.TokenValidator) *CookingHandler {
	return &CookingHandler{interactionService: interactionService, tokens: tokens}
}

func (h *CookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	cooking := router.Group("/cooking")
	cooking.Use(middleware.AuthMiddleware(h.tokens))
	{
		cooking.POST("/start", h.StartCooking)
		cooking.POST("/step", h.TrackStep)
		cooking.POST("/complete", h.CompleteCooking)
		cooking.POST("/didnt-cook", h.DidntCook)
		cooking.GET("/active/:recipeId", h.ActiveSession)
		cooking.GET("/history", h.History)
		cooking.GET("/stats", h.Stats)
	}
}

func (h *CookingHandler) StartCooking(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.StartCookingRequest
	if !bindJSON(c, &req) {
		return
	}

	interaction, resumed, err := h.interactionService.StartCooking(c.Request.Context(), caller.ID, service.StartCookingInput{
		RecipeID:   uuid.MustParse(req.RecipeID),
		MealPlanID: optionalUUID(req.MealPlanID),
		Day:        req.Day,
		MealType:   req.MealType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if resumed {
		response.OK(c, "Resumed cooking session", interaction)
		return
	}
	response.Created(c, "Cooking session started", interaction)
}

func (h *CookingHandler) TrackStep(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.TrackStepRequest
	if !bindJSON(c, &req) {
		return
	}

	interaction, err := h.interactionService.TrackStep(c.Request.Context(), caller.ID, uuid.MustParse(req.RecipeID), req.Step, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Step recorded", interaction)
}

func (h *CookingHandler) CompleteCooking(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.CompleteCookingRequest
	if !bindJSON(c, &req) {
		return
	}

	interaction, err := h.interactionService.CompleteCooking(c.Request.Context(), caller.ID, uuid.MustParse(req.RecipeID), req.CookingTimeMinutes, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cooking session completed", interaction)
}

func (h *CookingHandler) DidntCook(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.DidntCookRequest
	if !bindJSON(c, &req) {
		return
	}

	interaction, err := h.interactionService.DidntCook(c.Request.Context(), caller.ID, uuid.MustParse(req.RecipeID), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cooking session marked as not cooked", interaction)
}

func (h *CookingHandler) ActiveSession(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	recipeID, ok := uuidParam(c, "recipeId", "recipe")
	if !ok {
		return
	}

	interaction, err := h.interactionService.ActiveSession(c.Request.Context(), caller.ID, recipeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", interaction)
}

func (h *CookingHandler) History(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var filter types.CookingHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}

	page, err := h.interactionService.History(c.Request.Context(), caller.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", page)
}

func (h *CookingHandler) Stats(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	stats, err := h.interactionService.Stats(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", stats)
}
