package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type shoppingFixture struct {
	svc  *service.MealPlanService
	user *models.User
	plan *models.MealPlan
}

func newShoppingFixture(t *testing.T) shoppingFixture {
	t.Helper()
	db, f := setup(t)
	user := f.User(t)

	pancakes := f.Recipe(t, user.ID, func(r *models.Recipe) {
		r.Title = "Pancakes"
		r.Servings = 4
		r.Ingredients = datatypes.JSONSlice[models.Ingredient]{
			{Name: "Flour", Quantity: 2, Unit: "cup", Category: "baking"},
			{Name: "Eggs", Quantity: 3},
			{Name: "Milk", Quantity: 1, Unit: "cup", Category: "dairy"},
		}
	})
	omelette := f.Recipe(t, user.ID, func(r *models.Recipe) {
		r.Title = "Omelette"
		r.Servings = 2
		r.Ingredients = datatypes.JSONSlice[models.Ingredient]{
			{Name: " flour ", Quantity: 1, Unit: "Cup"},
			{Name: "eggs", Quantity: 2, Category: "dairy"},
		}
	})

	plan := f.MealPlan(t, user.ID, "2024-03-11", models.WeekGrid{
		"monday":  {models.MealBreakfast: testhelpers.Meal(pancakes, 2)},
		"tuesday": {models.MealBreakfast: testhelpers.Meal(omelette, 0)},
	})
	return shoppingFixture{svc: service.NewMealPlanService(db, nil, nopLog), user: user, plan: plan}
}

func TestShoppingListMergesAndScales(t *testing.T) {
	fx := newShoppingFixture(t)

	list, err := fx.svc.ShoppingList(context.Background(), fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", list.WeekStartDate)
	require.Len(t, list.Items, 3)
	assert.Equal(t, 3, list.TotalItems)

	eggs, flour, milk := list.Items[0], list.Items[1], list.Items[2]

	assert.Equal(t, "eggs|", eggs.Key)
	assert.Equal(t, "Eggs", eggs.Name)
	assert.Equal(t, 3.5, eggs.Quantity)
	assert.Equal(t, "Dairy", eggs.Category, "a later category replaces Other")
	assert.Equal(t, []string{"Pancakes", "Omelette"}, eggs.Recipes)

	assert.Equal(t, "flour|cup", flour.Key)
	assert.Equal(t, 2.0, flour.Quantity)
	assert.Equal(t, "cup", flour.Unit)
	assert.Equal(t, "Baking", flour.Category)

	assert.Equal(t, "milk|cup", milk.Key)
	assert.Equal(t, 0.5, milk.Quantity)

	again, err := fx.svc.ShoppingList(context.Background(), fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, list.Items, again.Items)
}

func TestCategorizedShoppingList(t *testing.T) {
	fx := newShoppingFixture(t)

	list, err := fx.svc.CategorizedShoppingList(context.Background(), fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalItems)
	require.Len(t, list.Categories, 2)
	assert.Equal(t, "Baking", list.Categories[0].Name)
	assert.Len(t, list.Categories[0].Items, 1)
	assert.Equal(t, "Dairy", list.Categories[1].Name)
	assert.Len(t, list.Categories[1].Items, 2)
}

func TestShoppingItemStatus(t *testing.T) {
	fx := newShoppingFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SetShoppingItemStatus(ctx, fx.user.ID, fx.plan.ID, "butter|", true)
	requireAppError(t, err, http.StatusNotFound, "Shopping list item not found")

	list, err := fx.svc.SetShoppingItemStatus(ctx, fx.user.ID, fx.plan.ID, service.ShoppingKey("Flour", "CUP"), true)
	require.NoError(t, err)
	assert.Equal(t, 1, list.CheckedItems)

	status, err := fx.svc.ShoppingListStatus(ctx, fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CheckedItems)
	assert.True(t, status.Items[1].Checked)

	text, err := fx.svc.PrintableShoppingList(ctx, fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shopping List: Week of 2024-03-11\n"+
		"Week of 2024-03-11\n"+
		"\nBAKING\n"+
		"  [x] 2 cup Flour\n"+
		"\nDAIRY\n"+
		"  [ ] 3.5 Eggs\n"+
		"  [ ] 0.5 cup Milk\n", text)

	list, err = fx.svc.SetShoppingItemStatus(ctx, fx.user.ID, fx.plan.ID, "flour|cup", false)
	require.NoError(t, err)
	assert.Zero(t, list.CheckedItems)

	_, err = fx.svc.SetShoppingItemStatus(ctx, fx.user.ID, fx.plan.ID, "eggs|", true)
	require.NoError(t, err)
	reset, err := fx.svc.ResetShoppingListStatus(ctx, fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Zero(t, reset.CheckedItems)

	status, err = fx.svc.ShoppingListStatus(ctx, fx.user.ID, fx.plan.ID)
	require.NoError(t, err)
	assert.Zero(t, status.CheckedItems)
}

func TestPrintableShoppingListEmptyPlan(t *testing.T) {
	db, f := setup(t)
	svc := service.NewMealPlanService(db, nil, nopLog)
	user := f.User(t)
	plan := f.MealPlan(t, user.ID, "2024-03-11", nil, func(p *models.MealPlan) { p.Title = "Quiet week" })

	text, err := svc.PrintableShoppingList(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shopping List: Quiet week\nWeek of 2024-03-11\n\nNo ingredients planned.\n", text)

	list, err := svc.ShoppingList(context.Background(), user.ID, plan.ID)
	require.NoError(t, err)
	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}
