package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every factory user.
const DefaultPassword = "password123"

// Factory persists realistic fixtures. The faker is seeded so runs are reproducible.
type Factory struct {
	DB    *gorm.DB
	faker *gofakeit.Faker
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{DB: db, faker: gofakeit.New(42)}
}

// User creates a verified, active user. opts run before the insert.
func (f *Factory) User(t *testing.T, opts ...func(*models.User)) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:          f.faker.Name(),
		Email:         strings.ToLower(fmt.Sprintf("%s.%s@example.com", f.faker.Username(), uuid.NewString()[:8])),
		PasswordHash:  string(hash),
		Role:          models.RoleUser,
		EmailVerified: true,
		IsActive:      true,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := f.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// Admin creates a user with the given administrative role.
func (f *Factory) Admin(t *testing.T, role models.Role) *models.User {
	return f.User(t, func(u *models.User) { u.Role = role })
}

// Recipe creates a public, published recipe owned by createdBy.
func (f *Factory) Recipe(t *testing.T, createdBy uuid.UUID, opts ...func(*models.Recipe)) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Title:           f.faker.Dinner(),
		Description:     f.faker.Sentence(12),
		Category:        "Dinner",
		Cuisine:         "Italian",
		Difficulty:      "easy",
		PrepTimeMinutes: 10,
		CookTimeMinutes: 20,
		Servings:        4,
		Ingredients: datatypes.JSONSlice[models.Ingredient]{
			{Name: "Flour", Quantity: 2, Unit: "cup", Category: "baking"},
			{Name: "Eggs", Quantity: 3, Category: "dairy"},
		},
		Steps:       datatypes.JSONSlice[string]{"Mix", "Rest", "Cook"},
		Tags:        datatypes.JSONSlice[string]{"test"},
		IsPublic:    true,
		IsPublished: true,
		CreatedBy:   createdBy,
		CreatorRole: models.RoleUser,
	}
	for _, opt := range opts {
		opt(recipe)
	}
	if err := f.DB.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

// MealPlan creates an active plan for the week starting weekStart (YYYY-MM-DD).
func (f *Factory) MealPlan(t *testing.T, userID uuid.UUID, weekStart string, grid models.WeekGrid, opts ...func(*models.MealPlan)) *models.MealPlan {
	t.Helper()
	if grid == nil {
		grid = models.WeekGrid{}
	}
	plan := &models.MealPlan{
		UserID:        userID,
		WeekStartDate: weekStart,
		Title:         "Week of " + weekStart,
		Status:        models.PlanActive,
	}
	plan.SetGrid(grid)
	for _, opt := range opts {
		opt(plan)
	}
	if err := f.DB.Create(plan).Error; err != nil {
		t.Fatalf("failed to create meal plan: %v", err)
	}
	return plan
}

// Meal builds a planned grid cell for recipe.
func Meal(recipe *models.Recipe, servings int) *models.PlannedMeal {
	id := recipe.ID
	return &models.PlannedMeal{
		RecipeID:    &id,
		RecipeTitle: recipe.Title,
		Servings:    servings,
		Status:      models.MealPlanned,
	}
}
