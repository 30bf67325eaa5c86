package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCleaner struct {
	calls int
	err   error
}

func (s *stubCleaner) RemoveEvents(_ context.Context, _ uuid.UUID, plan *models.MealPlan) (*types.CalendarSyncResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &types.CalendarSyncResult{Deleted: len(plan.CalendarEvents), Failures: []string{}}, nil
}

func TestCreateMealPlan(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	ctx := context.Background()
	user := f.User(t)
	recipe := f.Recipe(t, user.ID)

	// 2024-03-13 is a Wednesday.
	plan, err := svc.CreateMealPlan(ctx, callerOf(user), types.CreateMealPlanRequest{
		WeekStartDate: "2024-03-13",
		Meals: models.WeekGrid{
			"monday":  {models.MealDinner: {RecipeID: &recipe.ID, Servings: 2}},
			"tuesday": {models.MealLunch: {Notes: "Leftovers"}},
			"friday":  {models.MealBreakfast: nil},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", plan.WeekStartDate)
	assert.Equal(t, "Week of 2024-03-11", plan.Title)
	assert.Equal(t, models.PlanActive, plan.Status)

	stored := reload[models.MealPlan](t, db, plan.ID)
	grid := stored.Grid()
	cell := grid.Cell("monday", models.MealDinner)
	require.NotNil(t, cell)
	assert.Equal(t, recipe.Title, cell.RecipeTitle)
	assert.Equal(t, models.MealPlanned, cell.Status)
	assert.Equal(t, "Leftovers", grid.Cell("tuesday", models.MealLunch).Notes)
	assert.Nil(t, grid.Cell("friday", models.MealBreakfast))

	_, err = svc.CreateMealPlan(ctx, callerOf(user), types.CreateMealPlanRequest{WeekStartDate: "2024-03-17"})
	requireAppError(t, err, http.StatusBadRequest, "A meal plan already exists for this week")

	// Another user may plan the same week.
	_, err = svc.CreateMealPlan(ctx, callerOf(f.User(t)), types.CreateMealPlanRequest{WeekStartDate: "2024-03-11"})
	require.NoError(t, err)
}

func TestCreateMealPlanValidation(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	ctx := context.Background()
	user := f.User(t)
	recipe := f.Recipe(t, user.ID)
	stranger := f.User(t)
	private := f.Recipe(t, stranger.ID, func(r *models.Recipe) { r.IsPublic = false })
	missing := uuid.New()

	tests := []struct {
		name    string
		req     types.CreateMealPlanRequest
		status  int
		message string
	}{
		{"bad date", types.CreateMealPlanRequest{WeekStartDate: "13/03/2024"}, http.StatusBadRequest, "weekStartDate must be formatted as YYYY-MM-DD"},
		{"bad day", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"funday": {models.MealDinner: {RecipeID: &recipe.ID}},
		}}, http.StatusBadRequest, `Invalid day "funday"`},
		{"bad slot", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"monday": {"brunch": {RecipeID: &recipe.ID}},
		}}, http.StatusBadRequest, `Invalid meal type "brunch"`},
		{"negative servings", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"monday": {models.MealDinner: {RecipeID: &recipe.ID, Servings: -1}},
		}}, http.StatusBadRequest, "Servings cannot be negative"},
		{"bad status", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"monday": {models.MealDinner: {RecipeID: &recipe.ID, Status: "eaten"}},
		}}, http.StatusBadRequest, `Invalid meal status "eaten"`},
		{"unknown recipe", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"monday": {models.MealDinner: {RecipeID: &missing}},
		}}, http.StatusNotFound, "Recipe not found"},
		{"private recipe", types.CreateMealPlanRequest{WeekStartDate: "2024-03-11", Meals: models.WeekGrid{
			"monday": {models.MealDinner: {RecipeID: &private.ID}},
		}}, http.StatusNotFound, "Recipe not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMealPlan(ctx, callerOf(user), tt.req)
			requireAppError(t, err, tt.status, tt.message)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.MealPlan{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMealPlanOwnership(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	ctx := context.Background()
	owner := f.User(t)
	other := f.User(t)
	plan := f.MealPlan(t, owner.ID, "2024-03-11", nil)

	_, err := svc.GetMealPlan(ctx, other.ID, plan.ID)
	requireAppError(t, err, http.StatusNotFound, "Meal plan not found")
	err = svc.DeleteMealPlan(ctx, other.ID, plan.ID)
	requireAppError(t, err, http.StatusNotFound, "Meal plan not found")

	got, err := svc.GetMealPlan(ctx, owner.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
}

func TestListMealPlansNewestWeekFirst(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	user := f.User(t)
	for _, week := range []string{"2024-03-04", "2024-03-18", "2024-03-11"} {
		f.MealPlan(t, user.ID, week, nil)
	}
	f.MealPlan(t, f.User(t).ID, "2024-03-25", nil)

	page, err := svc.ListMealPlans(context.Background(), user.ID, types.PageQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "2024-03-18", page.Items[0].WeekStartDate)
	assert.Equal(t, "2024-03-04", page.Items[2].WeekStartDate)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestUpdateMealPlanAndSetMeal(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	ctx := context.Background()
	user := f.User(t)
	soup := f.Recipe(t, user.ID, func(r *models.Recipe) { r.Title = "Soup" })
	salad := f.Recipe(t, user.ID, func(r *models.Recipe) { r.Title = "Salad" })
	plan := f.MealPlan(t, user.ID, "2024-03-11", models.WeekGrid{
		"monday": {models.MealDinner: testhelpers.Meal(soup, 2)},
	})

	empty := "  "
	notes := "Shop on Sunday"
	updated, err := svc.UpdateMealPlan(ctx, callerOf(user), plan.ID, types.UpdateMealPlanRequest{Title: &empty, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "Week of 2024-03-11", updated.Title)
	assert.Equal(t, notes, updated.Notes)
	assert.NotNil(t, updated.Grid().Cell("monday", models.MealDinner), "nil meals keeps the grid")

	updated, err = svc.SetMeal(ctx, callerOf(user), plan.ID, types.SetMealRequest{
		Day: "wednesday", MealType: models.MealLunch, RecipeID: salad.ID.String(), Servings: 1,
	})
	require.NoError(t, err)
	cell := updated.Grid().Cell("wednesday", models.MealLunch)
	require.NotNil(t, cell)
	assert.Equal(t, "Salad", cell.RecipeTitle)

	updated, err = svc.SetMeal(ctx, callerOf(user), plan.ID, types.SetMealRequest{Day: "monday", MealType: models.MealDinner})
	require.NoError(t, err)
	assert.Nil(t, updated.Grid().Cell("monday", models.MealDinner))

	_, err = svc.SetMeal(ctx, callerOf(user), plan.ID, types.SetMealRequest{
		Day: "monday", MealType: models.MealDinner, RecipeID: uuid.NewString(),
	})
	requireAppError(t, err, http.StatusNotFound, "Recipe not found")

	stored := reload[models.MealPlan](t, db, plan.ID)
	grid := stored.Grid()
	assert.Nil(t, grid.Cell("monday", models.MealDinner))
	assert.Equal(t, []uuid.UUID{salad.ID}, grid.PlannedRecipeIDs())
	assert.Equal(t, notes, stored.Notes)
}

func TestCompleteMealPlanIsIdempotent(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	ctx := context.Background()
	user := f.User(t)
	plan := f.MealPlan(t, user.ID, "2024-03-11", nil)

	first, err := svc.CompleteMealPlan(ctx, user.ID, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	second, err := svc.CompleteMealPlan(ctx, user.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanCompleted, second.Status)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
}

func TestDeleteMealPlanCleansCalendar(t *testing.T) {
	db, f := setup(t)
	ctx := context.Background()
	user := f.User(t)
	recipe := f.Recipe(t, user.ID)

	linked := func(week string) *models.MealPlan {
		return f.MealPlan(t, user.ID, week, nil, func(p *models.MealPlan) {
			p.CalendarConnected = true
			p.CalendarEvents = []models.CalendarEventRef{{EventID: "evt-1", Day: "monday", MealType: models.MealDinner, RecipeID: recipe.ID}}
		})
	}

	cleaner := &stubCleaner{}
	svc := service.NewMealPlanService(db, cleaner, nopLog)
	plan := linked("2024-02-05")
	require.NoError(t, svc.DeleteMealPlan(ctx, user.ID, plan.ID))
	assert.Equal(t, 1, cleaner.calls)

	// A calendar failure does not block deletion.
	failing := &stubCleaner{err: errors.New("calendar down")}
	svc = service.NewMealPlanService(db, failing, nopLog)
	plan = linked("2024-02-12")
	require.NoError(t, svc.DeleteMealPlan(ctx, user.ID, plan.ID))
	assert.Equal(t, 1, failing.calls)

	var count int64
	require.NoError(t, db.Model(&models.MealPlan{}).Count(&count).Error)
	assert.Zero(t, count)

	// Plans without events skip the calendar entirely.
	unlinked := f.MealPlan(t, user.ID, "2024-01-01", nil)
	require.NoError(t, svc.DeleteMealPlan(ctx, user.ID, unlinked.ID))
	assert.Equal(t, 1, failing.calls)
}
