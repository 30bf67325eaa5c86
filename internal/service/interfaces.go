package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// Caller identifies the authenticated user a request acts for.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*types.AuthResponse, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
	RequestEmailVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// IUserService defines profile and administration operations
type IUserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req types.UpdateProfileRequest) (*models.User, error)
	ListUsers(ctx context.Context, filter types.UserFilter) (types.Page[models.User], error)
	UpdateRole(ctx context.Context, actor Caller, userID uuid.UUID, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, actor Caller, userID uuid.UUID) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, caller Caller, req types.RecipeRequest) (*models.Recipe, error)
	GetRecipe(ctx context.Context, caller Caller, id uuid.UUID) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, caller Caller, id uuid.UUID, req types.RecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, caller Caller, id uuid.UUID) error
	ListRecipes(ctx context.Context, caller Caller, filter types.RecipeFilter) (types.Page[models.Recipe], error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Recipe, error)
}

// IFavoriteService defines the interface for favorite operations
type IFavoriteService interface {
	AddFavorite(ctx context.Context, caller Caller, recipeID uuid.UUID, note string) (*models.Favorite, error)
	GetFavoriteStatus(ctx context.Context, userID, recipeID uuid.UUID) (*FavoriteStatus, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID, filter types.FavoriteFilter) (types.Page[models.Favorite], error)
}

// IReviewService defines the interface for review operations
type IReviewService interface {
	CreateReview(ctx context.Context, userID, recipeID uuid.UUID, rating int, title, comment string) (*models.Review, error)
	UpdateReview(ctx context.Context, userID, recipeID uuid.UUID, req types.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, caller Caller, reviewID uuid.UUID) error
	ListRecipeReviews(ctx context.Context, recipeID uuid.UUID, page types.PageQuery) (types.Page[models.Review], error)
	ListUserReviews(ctx context.Context, userID uuid.UUID, page types.PageQuery) (types.Page[models.Review], error)
}

// IMealPlanService defines meal plan and shopping list operations
type IMealPlanService interface {
	CreateMealPlan(ctx context.Context, caller Caller, req types.CreateMealPlanRequest) (*models.MealPlan, error)
	ListMealPlans(ctx context.Context, userID uuid.UUID, page types.PageQuery) (types.Page[models.MealPlan], error)
	GetMealPlan(ctx context.Context, userID, planID uuid.UUID) (*models.MealPlan, error)
	UpdateMealPlan(ctx context.Context, caller Caller, planID uuid.UUID, req types.UpdateMealPlanRequest) (*models.MealPlan, error)
	SetMeal(ctx context.Context, caller Caller, planID uuid.UUID, req types.SetMealRequest) (*models.MealPlan, error)
	CompleteMealPlan(ctx context.Context, userID, planID uuid.UUID) (*models.MealPlan, error)
	DeleteMealPlan(ctx context.Context, userID, planID uuid.UUID) error

	ShoppingList(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error)
	CategorizedShoppingList(ctx context.Context, userID, planID uuid.UUID) (*CategorizedShoppingList, error)
	PrintableShoppingList(ctx context.Context, userID, planID uuid.UUID) (string, error)
	ShoppingListStatus(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error)
	SetShoppingItemStatus(ctx context.Context, userID, planID uuid.UUID, key string, checked bool) (*ShoppingList, error)
	ResetShoppingListStatus(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error)
}

// ICalendarService defines Google Calendar linkage of meal plans
type ICalendarService interface {
	Connect(ctx context.Context, userID, planID uuid.UUID, req types.CalendarConnectRequest) (*types.CalendarSyncResult, error)
	Sync(ctx context.Context, userID, planID uuid.UUID) (*types.CalendarSyncResult, error)
	Disconnect(ctx context.Context, userID, planID uuid.UUID) (*types.CalendarSyncResult, error)
	ExportICS(ctx context.Context, userID, planID uuid.UUID) ([]byte, error)
}

// IInteractionService defines the cooking session state machine
type IInteractionService interface {
	StartCooking(ctx context.Context, userID uuid.UUID, req StartCookingInput) (*models.RecipeInteraction, bool, error)
	TrackStep(ctx context.Context, userID, recipeID uuid.UUID, step int, note string) (*models.RecipeInteraction, error)
	CompleteCooking(ctx context.Context, userID, recipeID uuid.UUID, minutes *int, notes string) (*models.RecipeInteraction, error)
	DidntCook(ctx context.Context, userID, recipeID uuid.UUID, reason string) (*models.RecipeInteraction, error)
	ActiveSession(ctx context.Context, userID, recipeID uuid.UUID) (*models.RecipeInteraction, error)
	History(ctx context.Context, userID uuid.UUID, filter types.CookingHistoryFilter) (types.Page[models.RecipeInteraction], error)
	Stats(ctx context.Context, userID uuid.UUID) (*CookingStats, error)
}

// IChatService defines the AI assistant operations
type IChatService interface {
	SendMessage(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, message string) (*ChatReply, error)
	AnalyzeImage(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, prompt string, image []byte, contentType string) (*ChatReply, error)
	ListSessions(ctx context.Context, userID uuid.UUID, page types.PageQuery) (types.Page[models.ChatSession], error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error)
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

// IEmailService defines the interface for email operations
type IEmailService interface {
	SendEmail(to, subject, body string) error
	SendOTPEmail(user *models.User, purpose models.OTPPurpose, code string, ttl time.Duration) error
	SendWelcomeEmail(user *models.User) error
}

// TextGenerator is the generative model behind the chat assistant.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt string, history []ChatTurn, message string) (string, error)
	AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// ObjectStorage stores uploaded files and returns their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// AttemptLimiter throttles repeated attempts for a key.
type AttemptLimiter interface {
	IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error)
	Reset(ctx context.Context, key string) error
}

// CalendarEvent is the provider-neutral event built from a planned meal.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// CalendarClient inserts and deletes events in one user's calendar.
type CalendarClient interface {
	InsertEvent(ctx context.Context, calendarID string, event CalendarEvent) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// CalendarClientFactory builds a client authorised with a user's stored credentials.
type CalendarClientFactory interface {
	Client(ctx context.Context, creds models.CalendarCredentials) (CalendarClient, error)
}

var (
	_ IAuthService        = (*AuthService)(nil)
	_ IUserService        = (*UserService)(nil)
	_ IRecipeService      = (*RecipeService)(nil)
	_ IFavoriteService    = (*FavoriteService)(nil)
	_ IReviewService      = (*ReviewService)(nil)
	_ IMealPlanService    = (*MealPlanService)(nil)
	_ ICalendarService    = (*CalendarService)(nil)
	_ IInteractionService = (*InteractionService)(nil)
	_ IChatService        = (*ChatService)(nil)
	_ IEmailService       = (*EmailService)(nil)
)
