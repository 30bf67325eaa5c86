package types

import "github.com/pageza/mealplanner/backend/internal/models"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name               string   `json:"name" binding:"required,max=100"`
	Email              string   `json:"email" binding:"required,email"`
	Password           string   `json:"password" binding:"required,min=8,max=72"`
	DietaryPreferences []string `json:"dietaryPreferences"`
	Allergens          []string `json:"allergens"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// EmailRequest starts an OTP flow for an address.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// AddFavoriteRequest is the body of POST /favorites.
type AddFavoriteRequest struct {
	RecipeID string `json:"recipeId" binding:"required,uuid"`
	Note     string `json:"note" binding:"max=1000"`
}

// FavoriteFilter holds the query string of GET /favorites.
type FavoriteFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Sort     string `form:"sort" binding:"omitempty,oneof=newest oldest title rating"`
	PageQuery
}

// CreateReviewRequest carries the rating unvalidated so the range check can report its own message.
type CreateReviewRequest struct {
	RecipeID string `json:"recipeId" binding:"required,uuid"`
	Rating   int    `json:"rating"`
	Title    string `json:"title" binding:"max=200"`
	Comment  string `json:"comment" binding:"max=5000"`
}

// UpdateReviewRequest patches the caller's review of RecipeID.
type UpdateReviewRequest struct {
	RecipeID string  `json:"recipeId" binding:"required,uuid"`
	Rating   *int    `json:"rating"`
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Comment  *string `json:"comment" binding:"omitempty,max=5000"`
}

type StartCookingRequest struct {
	RecipeID   string          `json:"recipeId" binding:"required,uuid"`
	MealPlanID string          `json:"mealPlanId" binding:"omitempty,uuid"`
	Day        string          `json:"day" binding:"omitempty,weekday"`
	MealType   models.MealType `json:"mealType" binding:"omitempty,mealtype"`
}

type TrackStepRequest struct {
	RecipeID string `json:"recipeId" binding:"required,uuid"`
	Step     int    `json:"step" binding:"min=0"`
	Note     string `json:"note" binding:"max=1000"`
}

type CompleteCookingRequest struct {
	RecipeID           string `json:"recipeId" binding:"required,uuid"`
	CookingTimeMinutes *int   `json:"cookingTime" binding:"omitempty,min=1"`
	Notes              string `json:"notes" binding:"max=2000"`
}

type DidntCookRequest struct {
	RecipeID string `json:"recipeId" binding:"required,uuid"`
	Reason   string `json:"reason" binding:"max=1000"`
}

// CookingHistoryFilter holds the query string of GET /cooking/history.
type CookingHistoryFilter struct {
	Status models.InteractionStatus `form:"status"`
	PageQuery
}

// ChatMessageRequest is the body of POST /chat/message.
type ChatMessageRequest struct {
	SessionID string `json:"sessionId" binding:"omitempty,uuid"`
	Message   string `json:"message" binding:"required,max=4000"`
}
