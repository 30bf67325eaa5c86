package service_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/mocks"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db        *gorm.DB
	f         *testhelpers.Factory
	svc       *service.ChatService
	generator *mocks.MockTextGenerator
	storage   *mocks.MockObjectStorage
	user      *models.User
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()
	db, f := setup(t)
	generator := new(mocks.MockTextGenerator)
	storage := new(mocks.MockObjectStorage)
	plans := service.NewMealPlanService(db, nil, nopLog)
	return chatFixture{
		db:        db,
		f:         f,
		svc:       service.NewChatService(db, generator, storage, plans, nopLog, nil),
		generator: generator,
		storage:   storage,
		user:      f.User(t),
	}
}

func TestSendMessageGeneralCooking(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SendMessage(ctx, fx.user.ID, nil, "   ")
	requireAppError(t, err, http.StatusBadRequest, "Message cannot be empty")

	fx.generator.On("GenerateText", mock.Anything, mock.Anything, []service.ChatTurn{}, "How do I braise short ribs?").
		Return("Sear, then simmer low for three hours.", nil).Once()

	reply, err := fx.svc.SendMessage(ctx, fx.user.ID, nil, "How do I braise short ribs?")
	require.NoError(t, err)
	assert.Equal(t, models.ModeGeneralCooking, reply.Mode)
	assert.Equal(t, "Sear, then simmer low for three hours.", reply.Message.Content)
	assert.Equal(t, models.ChatRoleAssistant, reply.Message.Role)
	assert.Equal(t, models.ChatRoleUser, reply.UserMessage.Role)

	fx.generator.On("GenerateText", mock.Anything, mock.Anything, mock.MatchedBy(func(history []service.ChatTurn) bool {
		return len(history) == 2 &&
			history[0].Role == models.ChatRoleUser &&
			history[1].Content == "Sear, then simmer low for three hours."
	}), "What wine should I use?").Return("A dry red.", nil).Once()

	_, err = fx.svc.SendMessage(ctx, fx.user.ID, &reply.SessionID, "What wine should I use?")
	require.NoError(t, err)
	fx.generator.AssertExpectations(t)

	session, err := fx.svc.GetSession(ctx, fx.user.ID, reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "How do I braise short ribs?", session.Title)
	require.Len(t, session.Messages, 4)
	assert.Equal(t, "A dry red.", session.Messages[3].Content)
}

func TestSendMessageDatabaseSummary(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()

	reply, err := fx.svc.SendMessage(ctx, fx.user.ID, nil, "Show me my favorites")
	require.NoError(t, err)
	assert.Equal(t, models.ModeDatabase, reply.Mode)
	assert.Equal(t, "You have no favorite recipes yet.", reply.Message.Content)

	recipe := fx.f.Recipe(t, fx.user.ID, func(r *models.Recipe) { r.Title = "Lasagne" })
	require.NoError(t, fx.db.Create(&models.Favorite{UserID: fx.user.ID, RecipeID: recipe.ID}).Error)

	reply, err = fx.svc.SendMessage(ctx, fx.user.ID, &reply.SessionID, "Show me my favorites")
	require.NoError(t, err)
	assert.Equal(t, "You have 1 favorite recipes:\n- Lasagne", reply.Message.Content)

	fx.f.MealPlan(t, fx.user.ID, "2024-03-11", models.WeekGrid{
		"monday": {models.MealDinner: testhelpers.Meal(recipe, 4)},
	})
	reply, err = fx.svc.SendMessage(ctx, fx.user.ID, nil, "what is on my shopping list")
	require.NoError(t, err)
	assert.Equal(t, "Your shopping list for the week of 2024-03-11 has 2 items:\n- 3 Eggs\n- 2 cup Flour", reply.Message.Content)

	reply, err = fx.svc.SendMessage(ctx, fx.user.ID, nil, "what's in my meal plan?")
	require.NoError(t, err)
	assert.Equal(t, "Your meal plan for the week of 2024-03-11 (active) has 1 meals:\n- monday dinner: Lasagne", reply.Message.Content)

	fx.generator.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageSmartRequestUsesUserContext(t *testing.T) {
	fx := newChatFixture(t)
	require.NoError(t, fx.db.Model(fx.user).UpdateColumns(map[string]interface{}{
		"dietary_preferences": `["vegetarian"]`,
		"allergens":           `["peanuts"]`,
	}).Error)

	fx.generator.On("GenerateText", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "- Dietary preferences: vegetarian") &&
			strings.Contains(prompt, "- Allergens: peanuts") &&
			strings.Contains(prompt, "- Favorite recipes: none")
	}), mock.Anything, "Create a meal plan for next week").Return("Here is a plan.", nil).Once()

	reply, err := fx.svc.SendMessage(context.Background(), fx.user.ID, nil, "Create a meal plan for next week")
	require.NoError(t, err)
	assert.Equal(t, models.ModeSmartRequest, reply.Mode)
	fx.generator.AssertExpectations(t)
}

func TestSendMessageGeneratorFailure(t *testing.T) {
	fx := newChatFixture(t)
	fx.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("upstream timeout"))

	_, err := fx.svc.SendMessage(context.Background(), fx.user.ID, nil, "How long do eggs boil?")
	requireAppError(t, err, http.StatusBadGateway, "External service error")

	other := fx.f.User(t)
	_, err = fx.svc.SendMessage(context.Background(), other.ID, ptrUUID(uuid.New()), "hello")
	requireAppError(t, err, http.StatusNotFound, "Chat session not found")
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }

func TestAnalyzeImage(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	image := []byte("\x89PNG fake image")

	_, err := fx.svc.AnalyzeImage(ctx, fx.user.ID, nil, "", image, "image/gif")
	requireAppError(t, err, http.StatusBadRequest, "Image must be a JPEG, PNG or WebP file")

	_, err = fx.svc.AnalyzeImage(ctx, fx.user.ID, nil, "", bytes.Repeat([]byte{1}, service.MaxChatImageBytes+1), "image/png")
	requireAppError(t, err, http.StatusBadRequest, "Image must be 5MB or smaller")

	prefix := "chat-images/" + fx.user.ID.String() + "/"
	fx.storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, prefix) && strings.HasSuffix(key, ".png")
	}), "image/png", image).Return("https://cdn.example.com/img.png", nil).Once()
	fx.generator.On("AnalyzeImage", mock.Anything, "What can I make?", image, "image/png").
		Return("That looks like a tomato.", nil).Once()

	reply, err := fx.svc.AnalyzeImage(ctx, fx.user.ID, nil, "What can I make?", image, "image/png")
	require.NoError(t, err)
	assert.Equal(t, models.ModeImageAnalysis, reply.Mode)
	assert.Equal(t, "https://cdn.example.com/img.png", reply.UserMessage.ImageURL)
	assert.Equal(t, "That looks like a tomato.", reply.Message.Content)
	fx.storage.AssertExpectations(t)
	fx.generator.AssertExpectations(t)

	// Someone else's session is rejected before anything reaches storage.
	other := fx.f.User(t)
	_, err = fx.svc.AnalyzeImage(ctx, other.ID, &reply.SessionID, "", image, "image/png")
	requireAppError(t, err, http.StatusNotFound, "Chat session not found")
	_, err = fx.svc.AnalyzeImage(ctx, fx.user.ID, ptrUUID(uuid.New()), "", image, "image/png")
	requireAppError(t, err, http.StatusNotFound, "Chat session not found")
	fx.storage.AssertNumberOfCalls(t, "Upload", 1)

	noStorage := service.NewChatService(fx.db, fx.generator, nil, nil, nopLog, nil)
	_, err = noStorage.AnalyzeImage(ctx, fx.user.ID, nil, "", image, "image/png")
	requireAppError(t, err, http.StatusBadGateway, "External service error")
}

func TestChatSessions(t *testing.T) {
	fx := newChatFixture(t)
	ctx := context.Background()
	fx.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	first, err := fx.svc.SendMessage(ctx, fx.user.ID, nil, strings.Repeat("long question ", 10))
	require.NoError(t, err)
	second, err := fx.svc.SendMessage(ctx, fx.user.ID, nil, "How do I poach an egg?")
	require.NoError(t, err)

	page, err := fx.svc.ListSessions(ctx, fx.user.ID, types.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, s := range page.Items {
		assert.LessOrEqual(t, len([]rune(s.Title)), 63)
	}

	other := fx.f.User(t)
	_, err = fx.svc.GetSession(ctx, other.ID, first.SessionID)
	requireAppError(t, err, http.StatusNotFound, "Chat session not found")
	err = fx.svc.DeleteSession(ctx, other.ID, first.SessionID)
	requireAppError(t, err, http.StatusNotFound, "Chat session not found")

	require.NoError(t, fx.svc.DeleteSession(ctx, fx.user.ID, first.SessionID))
	var remaining int64
	require.NoError(t, fx.db.Model(&models.ChatMessage{}).Where("session_id = ?", first.SessionID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	page, err = fx.svc.ListSessions(ctx, fx.user.ID, types.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.SessionID, page.Items[0].ID)
}
