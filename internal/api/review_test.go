package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteEndpoints(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t)
	token := env.token(t, user)
	recipe := env.factory.Recipe(t, env.factory.User(t).ID)

	w, resp := env.do(t, http.MethodPost, "/api/v1/favorites", token, gin.H{"recipeId": recipe.ID, "note": "weeknight"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Recipe added to favorites", resp.Message)

	w, resp = env.do(t, http.MethodPost, "/api/v1/favorites", token, gin.H{"recipeId": recipe.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Recipe is already in favorites", resp.Error)

	w, resp = env.do(t, http.MethodPost, "/api/v1/favorites", token, gin.H{"recipeId": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "recipeId must be a valid id", resp.Message)

	w, resp = env.do(t, http.MethodGet, "/api/v1/favorites/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[service.FavoriteStatus](t, resp)
	assert.True(t, status.IsFavorite)
	assert.Equal(t, "weeknight", status.Favorite.Note)

	w, resp = env.do(t, http.MethodGet, "/api/v1/favorites?sort=title", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[types.Page[models.Favorite]](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, recipe.ID, page.Items[0].RecipeID)

	w, resp = env.do(t, http.MethodGet, "/api/v1/favorites?sort=spicy", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Message, "sort must be one of: newest, oldest, title, rating")

	w, _ = env.do(t, http.MethodDelete, "/api/v1/favorites/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodDelete, "/api/v1/favorites/"+recipe.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Recipe not found in favorites", resp.Error)
}

func TestReviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	reviewer := env.factory.User(t)
	token := env.token(t, reviewer)
	recipe := env.factory.Recipe(t, env.factory.User(t).ID)

	w, resp := env.do(t, http.MethodPost, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating must be between 1 and 5", resp.Error)

	w, resp = env.do(t, http.MethodPost, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 4, "title": "Solid"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[models.Review](t, resp)
	assert.Equal(t, 4, review.Rating)
	assert.False(t, review.IsVerified)

	w, resp = env.do(t, http.MethodPost, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have already reviewed this recipe", resp.Error)

	w, resp = env.do(t, http.MethodPatch, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[models.Review](t, resp).Rating)
	assert.Equal(t, "Solid", decode[models.Review](t, resp).Title)

	w, resp = env.do(t, http.MethodGet, "/api/v1/reviews/recipe/"+recipe.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[types.Page[models.Review]](t, resp)
	require.Len(t, page.Items, 1)
	assert.Equal(t, reviewer.Name, page.Items[0].ReviewerName)

	w, resp = env.do(t, http.MethodGet, "/api/v1/reviews/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[types.Page[models.Review]](t, resp).Items, 1)

	var stored models.Recipe
	require.NoError(t, env.db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Equal(t, 2.0, stored.AverageRating)
	assert.Equal(t, 1, stored.TotalReviews)

	stranger := env.factory.User(t)
	w, resp = env.do(t, http.MethodDelete, "/api/v1/reviews/"+review.ID.String(), env.token(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only delete your own reviews", resp.Error)

	w, _ = env.do(t, http.MethodDelete, "/api/v1/reviews/"+review.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Zero(t, stored.TotalReviews)
	assert.Zero(t, stored.AverageRating)
}

func TestReviewValidationBeforeEmailVerification(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t, func(u *models.User) { u.EmailVerified = false })
	token := env.token(t, user)
	recipe := env.factory.Recipe(t, user.ID)

	w, resp := env.do(t, http.MethodPost, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating must be between 1 and 5", resp.Error)

	w, _ = env.do(t, http.MethodPost, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 5})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = env.do(t, http.MethodPatch, "/api/v1/reviews", token, gin.H{"recipeId": recipe.ID, "rating": 4})
	assert.Equal(t, http.StatusOK, w.Code)
}
