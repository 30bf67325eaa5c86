package types

import (
	"time"

	"github.com/pageza/mealplanner/backend/internal/models"
)

type CreateMealPlanRequest struct {
	WeekStartDate string          `json:"weekStartDate" binding:"required,datetime=2006-01-02"`
	Title         string          `json:"title" binding:"max=200"`
	Notes         string          `json:"notes" binding:"max=2000"`
	Meals         models.WeekGrid `json:"meals"`
}

// UpdateMealPlanRequest replaces the provided fields; a nil Meals keeps the grid.
type UpdateMealPlanRequest struct {
	Title *string         `json:"title" binding:"omitempty,max=200"`
	Notes *string         `json:"notes" binding:"omitempty,max=2000"`
	Meals models.WeekGrid `json:"meals"`
}

// SetMealRequest sets one grid cell, or clears it when RecipeID is empty.
type SetMealRequest struct {
	Day      string          `json:"day" binding:"required,weekday"`
	MealType models.MealType `json:"mealType" binding:"required,mealtype"`
	RecipeID string          `json:"recipeId" binding:"omitempty,uuid"`
	Servings int             `json:"servings" binding:"min=0"`
	Notes    string          `json:"notes" binding:"max=500"`
}

// ShoppingItemStatusRequest toggles one merged shopping-list item.
type ShoppingItemStatusRequest struct {
	Key     string `json:"key" binding:"required"`
	Checked bool   `json:"checked"`
}

// MealTimeInput overrides the calendar window of one meal type.
type MealTimeInput struct {
	Start           string `json:"start" binding:"required,hhmm"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=5,max=720"`
}

// CalendarConnectRequest carries the OAuth grant obtained by the frontend.
type CalendarConnectRequest struct {
	AccessToken  string                            `json:"accessToken" binding:"required"`
	RefreshToken string                            `json:"refreshToken"`
	Expiry       *time.Time                        `json:"expiry"`
	CalendarID   string                            `json:"calendarId"`
	TimeZone     string                            `json:"timeZone"`
	MealTimes    map[models.MealType]MealTimeInput `json:"mealTimes" binding:"omitempty,dive,keys,mealtype,endkeys"`
}

// CalendarSyncResult reports what a sync or disconnect did.
type CalendarSyncResult struct {
	Created  int      `json:"created"`
	Deleted  int      `json:"deleted"`
	Failures []string `json:"failures"`
}
