package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	db, f := setup(t)
	svc := service.NewUserService(db, nopLog)
	ctx := context.Background()
	user := f.User(t)

	blank := " "
	_, err := svc.UpdateProfile(ctx, user.ID, types.UpdateProfileRequest{Name: &blank})
	requireAppError(t, err, http.StatusBadRequest, "Name cannot be empty")

	name, bio := "Julia", "Cooks a lot"
	updated, err := svc.UpdateProfile(ctx, user.ID, types.UpdateProfileRequest{
		Name:      &name,
		Bio:       &bio,
		Allergens: []string{"Peanuts", "peanuts", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Julia", updated.Name)

	stored := reload[models.User](t, db, user.ID)
	assert.Equal(t, "Julia", stored.Name)
	assert.Equal(t, "Cooks a lot", stored.Bio)
	assert.Equal(t, []string{"Peanuts"}, []string(stored.Allergens))
	assert.Equal(t, user.Email, stored.Email)
}

func TestUpdateRole(t *testing.T) {
	db, f := setup(t)
	svc := service.NewUserService(db, nopLog)
	ctx := context.Background()
	admin := f.Admin(t, models.RoleSuperAdmin)
	user := f.User(t)

	_, err := svc.UpdateRole(ctx, callerOf(admin), user.ID, "chef")
	requireAppError(t, err, http.StatusBadRequest, "Invalid role")

	_, err = svc.UpdateRole(ctx, callerOf(admin), admin.ID, models.RoleUser)
	requireAppError(t, err, http.StatusBadRequest, "You cannot change your own role")

	updated, err := svc.UpdateRole(ctx, callerOf(admin), user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, models.RoleAdmin, reload[models.User](t, db, user.ID).Role)
}

func TestListUsers(t *testing.T) {
	db, f := setup(t)
	svc := service.NewUserService(db, nopLog)
	f.User(t, func(u *models.User) { u.Name = "Ada Admin"; u.Role = models.RoleAdmin })
	f.User(t, func(u *models.User) { u.Name = "Bob Baker" })
	f.User(t, func(u *models.User) { u.Name = "Cara Cook" })

	admins, err := svc.ListUsers(context.Background(), types.UserFilter{Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins.Items, 1)
	assert.Equal(t, "Ada Admin", admins.Items[0].Name)

	search, err := svc.ListUsers(context.Background(), types.UserFilter{Search: "BAKER"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)

	all, err := svc.ListUsers(context.Background(), types.UserFilter{PageQuery: types.PageQuery{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, int64(3), all.Pagination.Total)
}

func TestDeleteUserCascades(t *testing.T) {
	db, f := setup(t)
	svc := service.NewUserService(db, nopLog)
	reviews := service.NewReviewService(db, nopLog, nil)
	ctx := context.Background()
	admin := f.Admin(t, models.RoleSuperAdmin)
	owner := f.User(t)
	leaving := f.User(t)
	recipe := f.Recipe(t, owner.ID)

	_, err := reviews.CreateReview(ctx, owner.ID, recipe.ID, 2, "", "")
	require.NoError(t, err)
	_, err = reviews.CreateReview(ctx, leaving.ID, recipe.ID, 5, "", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Favorite{UserID: leaving.ID, RecipeID: recipe.ID}).Error)
	f.MealPlan(t, leaving.ID, "2024-03-11", models.WeekGrid{
		"monday": {models.MealDinner: testhelpers.Meal(recipe, 2)},
	})
	session := models.ChatSession{UserID: leaving.ID, Title: "hi"}
	require.NoError(t, db.Create(&session).Error)
	require.NoError(t, db.Create(&models.ChatMessage{SessionID: session.ID, Role: models.ChatRoleUser, Content: "hi"}).Error)

	err = svc.DeleteUser(ctx, callerOf(admin), admin.ID)
	requireAppError(t, err, http.StatusBadRequest, "You cannot delete your own account")

	require.NoError(t, svc.DeleteUser(ctx, callerOf(admin), leaving.ID))

	_, err = svc.GetUser(ctx, leaving.ID)
	requireAppError(t, err, http.StatusNotFound, "User not found")

	for _, model := range []interface{}{&models.Favorite{}, &models.MealPlan{}, &models.ChatSession{}, &models.ChatMessage{}} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	stored := reload[models.Recipe](t, db, recipe.ID)
	assert.Equal(t, 1, stored.TotalReviews)
	assert.Equal(t, 2.0, stored.AverageRating)
}
