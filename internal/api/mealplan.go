package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// MealPlanHandler serves weekly plans, their shopping lists and calendar linkage.
type MealPlanHandler struct {
	mealPlanService service.IMealPlanService
	calendarService service.ICalendarService
	tokens          middleware.TokenValidator
}

func NewMealPlanHandler(mealPlanService service.IMealPlanService, calendarService service.ICalendarService, tokens middleware.TokenValidator) *MealPlanHandler {
	return &MealPlanHandler{
		mealPlanService: mealPlanService,
		calendarService: calendarService,
		tokens:          tokens,
	}
}

func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/meal-planner")
	plans.Use(middleware.AuthMiddleware(h.tokens))
	{
		plans.POST("", h.CreateMealPlan)
		plans.GET("", h.ListMealPlans)
		plans.GET("/:id", h.GetMealPlan)
		plans.PUT("/:id", h.UpdateMealPlan)
		plans.PUT("/:id/meals", h.SetMeal)
		plans.PATCH("/:id/complete", h.CompleteMealPlan)
		plans.DELETE("/:id", h.DeleteMealPlan)

		plans.GET("/:id/shopping-list", h.ShoppingList)
		plans.GET("/:id/shopping-list/categorized", h.CategorizedShoppingList)
		plans.GET("/:id/shopping-list/printable", h.PrintableShoppingList)
		plans.GET("/:id/shopping-list/status", h.ShoppingListStatus)
		plans.PUT("/:id/shopping-list/status", h.SetShoppingItemStatus)
		plans.POST("/:id/shopping-list/reset", h.ResetShoppingListStatus)

		plans.POST("/:id/calendar/connect", h.ConnectCalendar)
		plans.POST("/:id/calendar/sync", h.SyncCalendar)
		plans.POST("/:id/calendar/disconnect", h.DisconnectCalendar)
		plans.GET("/:id/calendar.ics", h.ExportCalendar)
	}
}

// planParams resolves the caller and the :id plan parameter.
func planParams(c *gin.Context) (service.Caller, uuid.UUID, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		return service.Caller{}, uuid.Nil, false
	}
	id, ok := uuidParam(c, "id", "meal plan")
	if !ok {
		return service.Caller{}, uuid.Nil, false
	}
	return caller, id, true
}

func (h *MealPlanHandler) CreateMealPlan(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.CreateMealPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.mealPlanService.CreateMealPlan(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Meal plan created successfully", plan)
}

func (h *MealPlanHandler) ListMealPlans(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}

	plans, err := h.mealPlanService.ListMealPlans(c.Request.Context(), caller.ID, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", plans)
}

func (h *MealPlanHandler) GetMealPlan(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	plan, err := h.mealPlanService.GetMealPlan(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", plan)
}

func (h *MealPlanHandler) UpdateMealPlan(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}
	var req types.UpdateMealPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.mealPlanService.UpdateMealPlan(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan updated successfully", plan)
}

func (h *MealPlanHandler) SetMeal(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}
	var req types.SetMealRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.mealPlanService.SetMeal(c.Request.Context(), caller, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal updated successfully", plan)
}

func (h *MealPlanHandler) CompleteMealPlan(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	plan, err := h.mealPlanService.CompleteMealPlan(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan marked as completed", plan)
}

func (h *MealPlanHandler) DeleteMealPlan(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	if err := h.mealPlanService.DeleteMealPlan(c.Request.Context(), caller.ID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan deleted successfully", nil)
}

func (h *MealPlanHandler) ShoppingList(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	list, err := h.mealPlanService.ShoppingList(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", list)
}

func (h *MealPlanHandler) CategorizedShoppingList(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	list, err := h.mealPlanService.CategorizedShoppingList(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", list)
}

func (h *MealPlanHandler) PrintableShoppingList(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	text, err := h.mealPlanService.PrintableShoppingList(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *MealPlanHandler) ShoppingListStatus(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	list, err := h.mealPlanService.ShoppingListStatus(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", list)
}

func (h *MealPlanHandler) SetShoppingItemStatus(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}
	var req types.ShoppingItemStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.mealPlanService.SetShoppingItemStatus(c.Request.Context(), caller.ID, id, req.Key, req.Checked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Shopping list updated", list)
}

func (h *MealPlanHandler) ResetShoppingListStatus(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	list, err := h.mealPlanService.ResetShoppingListStatus(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Shopping list reset", list)
}

func (h *MealPlanHandler) ConnectCalendar(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}
	var req types.CalendarConnectRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.calendarService.Connect(c.Request.Context(), caller.ID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan connected to Google Calendar", result)
}

func (h *MealPlanHandler) SyncCalendar(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	result, err := h.calendarService.Sync(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan synced to Google Calendar", result)
}

func (h *MealPlanHandler) DisconnectCalendar(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	result, err := h.calendarService.Disconnect(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Meal plan disconnected from Google Calendar", result)
}

func (h *MealPlanHandler) ExportCalendar(c *gin.Context) {
	caller, id, ok := planParams(c)
	if !ok {
		return
	}

	data, err := h.calendarService.ExportICS(c.Request.Context(), caller.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"meal-plan-%s.ics\"", id))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}
