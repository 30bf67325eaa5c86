package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/logger"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const seedOwnerEmail = "chef@example.com"

var curated = []types.RecipeRequest{
	{
		Title:       "Classic Pancakes",
		Description: "Fluffy weekend pancakes.",
		Category:    "Breakfast",
		Cuisine:     "American",
		Difficulty:  "easy",
		PrepTime:    10,
		CookTime:    15,
		Servings:    4,
		Ingredients: []models.Ingredient{
			{Name: "Flour", Quantity: 2, Unit: "cup", Category: "Baking"},
			{Name: "Eggs", Quantity: 2, Category: "Dairy"},
			{Name: "Milk", Quantity: 1.5, Unit: "cup", Category: "Dairy"},
			{Name: "Butter", Quantity: 3, Unit: "tbsp", Category: "Dairy"},
		},
		Steps: []string{
			"Whisk the dry ingredients.",
			"Beat in the eggs, milk and melted butter.",
			"Cook ladlefuls on a hot griddle until golden on both sides.",
		},
		Tags:      []string{"breakfast", "vegetarian"},
		Nutrition: &models.Nutrition{Calories: 320, Protein: 9, Carbs: 45, Fat: 11, Fiber: 1},
	},
	{
		Title:       "Chicken Stir-Fry",
		Description: "Quick weeknight stir-fry with crisp vegetables.",
		Category:    "Dinner",
		Cuisine:     "Chinese",
		Difficulty:  "medium",
		PrepTime:    15,
		CookTime:    10,
		Servings:    2,
		Ingredients: []models.Ingredient{
			{Name: "Chicken breast", Quantity: 300, Unit: "g", Category: "Meat"},
			{Name: "Bell pepper", Quantity: 1, Category: "Produce"},
			{Name: "Broccoli", Quantity: 200, Unit: "g", Category: "Produce"},
			{Name: "Soy sauce", Quantity: 3, Unit: "tbsp", Category: "Pantry"},
			{Name: "Rice", Quantity: 1, Unit: "cup", Category: "Pantry"},
		},
		Steps: []string{
			"Cook the rice.",
			"Slice the chicken and vegetables.",
			"Stir-fry the chicken, add the vegetables and soy sauce, and serve over rice.",
		},
		Tags:      []string{"dinner", "quick"},
		Nutrition: &models.Nutrition{Calories: 540, Protein: 42, Carbs: 60, Fat: 12, Fiber: 5},
	},
	{
		Title:       "Greek Salad",
		Description: "Tomatoes, cucumber, olives and feta.",
		Category:    "Lunch",
		Cuisine:     "Greek",
		Difficulty:  "easy",
		PrepTime:    15,
		Servings:    2,
		Ingredients: []models.Ingredient{
			{Name: "Tomatoes", Quantity: 3, Category: "Produce"},
			{Name: "Cucumber", Quantity: 1, Category: "Produce"},
			{Name: "Feta", Quantity: 150, Unit: "g", Category: "Dairy"},
			{Name: "Olives", Quantity: 0.5, Unit: "cup", Category: "Pantry"},
			{Name: "Olive oil", Quantity: 2, Unit: "tbsp", Category: "Pantry"},
		},
		Steps: []string{
			"Chop the tomatoes and cucumber.",
			"Top with feta and olives and dress with olive oil.",
		},
		Tags:      []string{"lunch", "vegetarian", "gluten-free"},
		Nutrition: &models.Nutrition{Calories: 380, Protein: 12, Carbs: 14, Fat: 31, Fiber: 4},
	},
	{
		Title:       "Lentil Soup",
		Description: "Hearty red lentil soup with cumin.",
		Category:    "Dinner",
		Cuisine:     "Middle Eastern",
		Difficulty:  "easy",
		PrepTime:    10,
		CookTime:    30,
		Servings:    4,
		Ingredients: []models.Ingredient{
			{Name: "Red lentils", Quantity: 1.5, Unit: "cup", Category: "Pantry"},
			{Name: "Onion", Quantity: 1, Category: "Produce"},
			{Name: "Carrot", Quantity: 2, Category: "Produce"},
			{Name: "Cumin", Quantity: 2, Unit: "tsp", Category: "Spices"},
			{Name: "Vegetable stock", Quantity: 1.5, Unit: "l", Category: "Pantry"},
		},
		Steps: []string{
			"Soften the onion and carrot.",
			"Add the cumin, lentils and stock and simmer for 25 minutes.",
			"Blend until smooth.",
		},
		Tags:      []string{"dinner", "vegan"},
		Nutrition: &models.Nutrition{Calories: 290, Protein: 17, Carbs: 48, Fat: 3, Fiber: 9},
	},
}

func main() {
	fake := flag.Int("fake", 0, "Number of additional generated recipes")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console", Development: true})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	owner, err := seedOwner(db)
	if err != nil {
		log.Fatal("Failed to create recipe owner", zap.Error(err))
	}

	ctx := context.Background()
	recipes := service.NewRecipeService(db, log)
	caller := service.Caller{ID: owner.ID, Role: owner.Role}

	requests := append([]types.RecipeRequest{}, curated...)
	faker := gofakeit.New(0)
	for i := 0; i < *fake; i++ {
		requests = append(requests, fakeRecipe(faker))
	}

	created := 0
	for _, req := range requests {
		var count int64
		if err := db.Model(&models.Recipe{}).Where("title = ? AND created_by = ?", req.Title, owner.ID).Count(&count).Error; err != nil {
			log.Fatal("Failed to check existing recipe", zap.Error(err))
		}
		if count > 0 {
			log.Info("Recipe already exists, skipping", zap.String("title", req.Title))
			continue
		}
		recipe, err := recipes.CreateRecipe(ctx, caller, req)
		if err != nil {
			log.Error("Failed to create recipe", zap.String("title", req.Title), zap.Error(err))
			continue
		}
		created++
		log.Info("Created recipe", zap.String("id", recipe.ID.String()), zap.String("title", recipe.Title))
	}

	log.Info("Seeding complete", zap.Int("created", created), zap.String("owner", seedOwnerEmail))
}

// seedOwner returns the admin account that owns seeded recipes, creating it if needed.
func seedOwner(db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", seedOwnerEmail).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user = models.User{
		Name:          "House Chef",
		Email:         seedOwnerEmail,
		PasswordHash:  string(hash),
		Role:          models.RoleAdmin,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func fakeRecipe(f *gofakeit.Faker) types.RecipeRequest {
	title := cases.Title(language.English)
	n := f.Number(3, 6)
	ingredients := make([]models.Ingredient, 0, n)
	for i := 0; i < n; i++ {
		ingredients = append(ingredients, models.Ingredient{
			Name:     title.String(f.NounConcrete()),
			Quantity: float64(f.Number(1, 4)),
			Unit:     f.RandomString([]string{"", "cup", "tbsp", "g"}),
			Category: f.RandomString([]string{"Produce", "Pantry", "Dairy", "Meat"}),
		})
	}
	n = f.Number(2, 4)
	steps := make([]string, 0, n)
	for i := 0; i < n; i++ {
		steps = append(steps, f.Sentence(8))
	}
	return types.RecipeRequest{
		Title:       title.String(fmt.Sprintf("%s %s", f.Adjective(), f.Dinner())),
		Description: f.Sentence(12),
		Category:    f.RandomString([]string{"Breakfast", "Lunch", "Dinner", "Snack"}),
		Cuisine:     f.RandomString([]string{"Italian", "Mexican", "Thai", "French"}),
		Difficulty:  f.RandomString([]string{"easy", "medium", "hard"}),
		PrepTime:    f.Number(5, 30),
		CookTime:    f.Number(0, 60),
		Servings:    f.Number(1, 6),
		Ingredients: ingredients,
		Steps:       steps,
		Tags:        []string{"generated"},
	}
}
