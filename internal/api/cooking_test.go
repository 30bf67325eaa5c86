package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookingSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t)
	token := env.token(t, user)
	recipe := env.factory.Recipe(t, user.ID)
	plan := env.factory.MealPlan(t, user.ID, "2024-03-11", models.WeekGrid{
		"monday": {models.MealDinner: testhelpers.Meal(recipe, 2)},
	})
	start := gin.H{"recipeId": recipe.ID, "mealPlanId": plan.ID, "day": "monday", "mealType": "dinner"}

	w, resp := env.do(t, http.MethodPost, "/api/v1/cooking/start", token, start)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Cooking session started", resp.Message)
	session := decode[models.RecipeInteraction](t, resp)
	assert.Equal(t, models.StatusStartedCooking, session.Status)
	assert.Equal(t, 3, session.TotalSteps)

	w, resp = env.do(t, http.MethodPost, "/api/v1/cooking/start", token, start)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Resumed cooking session", resp.Message)
	assert.Equal(t, session.ID, decode[models.RecipeInteraction](t, resp).ID)

	w, resp = env.do(t, http.MethodPost, "/api/v1/cooking/step", token, gin.H{"recipeId": recipe.ID, "step": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Step must be between 0 and 3", resp.Error)

	w, resp = env.do(t, http.MethodPost, "/api/v1/cooking/step", token, gin.H{"recipeId": recipe.ID, "step": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCookingInProgress, decode[models.RecipeInteraction](t, resp).Status)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cooking/active/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.RecipeInteraction](t, resp).CurrentStep)

	w, resp = env.do(t, http.MethodPost, "/api/v1/cooking/complete", token, gin.H{"recipeId": recipe.ID, "cookingTime": 35})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[models.RecipeInteraction](t, resp)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, 35, done.CookingTimeMinutes)
	assert.True(t, done.IsVerifiedCook)

	env.cooking.Wait()
	var stored models.MealPlan
	require.NoError(t, env.db.First(&stored, "id = ?", plan.ID).Error)
	assert.Equal(t, models.MealCooked, stored.Grid().Cell("monday", models.MealDinner).Status)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cooking/active/"+recipe.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No active cooking session found", resp.Error)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cooking/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[service.CookingStats](t, resp)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(35), stats.TotalCookingMinutes)
}

func TestDidntCookAndHistory(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t)
	token := env.token(t, user)
	recipe := env.factory.Recipe(t, user.ID)

	w, _ := env.do(t, http.MethodPost, "/api/v1/cooking/didnt-cook", token, gin.H{"recipeId": recipe.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/cooking/start", token, gin.H{"recipeId": recipe.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := env.do(t, http.MethodPost, "/api/v1/cooking/didnt-cook", token, gin.H{"recipeId": recipe.ID, "reason": "Ordered pizza"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ordered pizza", decode[models.RecipeInteraction](t, resp).DidntCookReason)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cooking/history?status=didnt_cook", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[types.Page[models.RecipeInteraction]](t, resp).Items, 1)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cooking/history?status=burnt", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `Invalid status "burnt"`, resp.Error)

	w, resp = env.do(t, http.MethodPost, "/api/v1/cooking/start", token, gin.H{"recipeId": recipe.ID, "day": "someday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "day must be a lower-case weekday name", resp.Message)
}
