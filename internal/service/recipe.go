package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/embedding"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRecipeService(db *gorm.DB, log *zap.Logger) *RecipeService {
	return &RecipeService{db: db, log: log}
}

// findRecipe loads a live recipe or returns a "Recipe not found" error.
func findRecipe(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Recipe")
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// searchScope filters recipes whose text matches term.
func searchScope(db *gorm.DB, term string) func(*gorm.DB) *gorm.DB {
	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	ingredients := "LOWER(ingredients)"
	if db.Dialector.Name() == "postgres" {
		ingredients = "LOWER(ingredients::text)"
	}
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR "+ingredients+" LIKE ?", like, like, like)
	}
}

func validateRecipeRequest(req *types.RecipeRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperror.BadRequest("Title is required")
	}
	for _, ing := range req.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return apperror.BadRequest("Ingredient name is required")
		}
		if ing.Quantity < 0 {
			return apperror.BadRequest("Ingredient quantity cannot be negative")
		}
	}
	return nil
}

func applyRecipeRequest(recipe *models.Recipe, req *types.RecipeRequest) {
	recipe.Title = strings.TrimSpace(req.Title)
	recipe.Description = req.Description
	recipe.Category = req.Category
	recipe.Cuisine = req.Cuisine
	recipe.Difficulty = req.Difficulty
	recipe.PrepTimeMinutes = req.PrepTime
	recipe.CookTimeMinutes = req.CookTime
	recipe.Servings = req.Servings
	recipe.ImageURL = req.ImageURL
	recipe.Ingredients = req.Ingredients
	recipe.Steps = req.Steps
	recipe.Tags = cleanList(req.Tags)
	if req.Nutrition != nil {
		recipe.Nutrition = datatypes.NewJSONType(*req.Nutrition)
	}
	if req.IsPublic != nil {
		recipe.IsPublic = *req.IsPublic
	}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, caller Caller, req types.RecipeRequest) (*models.Recipe, error) {
	if err := validateRecipeRequest(&req); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		IsPublic:           true,
		IsPublished:        true,
		CreatedBy:          caller.ID,
		CreatorRole:        caller.Role,
		RatingDistribution: datatypes.NewJSONType(models.RatingDistribution{}),
	}
	applyRecipeRequest(&recipe, &req)

	if err := s.db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return &recipe, nil
}

// GetRecipe returns a recipe the caller may see. Hidden recipes are reported as not found.
func (s *RecipeService) GetRecipe(ctx context.Context, caller Caller, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !recipe.VisibleTo(caller.ID, caller.Role) {
		return nil, apperror.NotFound("Recipe")
	}
	return recipe, nil
}

// UpdateRecipe replaces the editable fields. Rating aggregates are never touched here.
func (s *RecipeService) UpdateRecipe(ctx context.Context, caller Caller, id uuid.UUID, req types.RecipeRequest) (*models.Recipe, error) {
	if err := validateRecipeRequest(&req); err != nil {
		return nil, err
	}

	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !recipe.EditableBy(caller.ID, caller.Role) {
		return nil, apperror.Forbidden("You can only modify your own recipes")
	}

	applyRecipeRequest(recipe, &req)
	if err := s.db.WithContext(ctx).Select(
		"title", "description", "category", "cuisine", "difficulty",
		"prep_time_minutes", "cook_time_minutes", "servings", "image_url",
		"ingredients", "steps", "tags", "nutrition", "is_public", "embedding", "updated_at",
	).Updates(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return recipe, nil
}

// DeleteRecipe soft-deletes the recipe and removes its favorites and reviews.
func (s *RecipeService) DeleteRecipe(ctx context.Context, caller Caller, id uuid.UUID) error {
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !recipe.EditableBy(caller.ID, caller.Role) {
		return apperror.Forbidden("You can only delete your own recipes")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// ListRecipes lists public recipes, or the caller's own when filter.Mine is set.
// On Postgres a search term orders results by embedding distance.
func (s *RecipeService) ListRecipes(ctx context.Context, caller Caller, filter types.RecipeFilter) (types.Page[models.Recipe], error) {
	page := filter.PageQuery.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.Mine {
		if caller.ID == uuid.Nil {
			return types.Page[models.Recipe]{}, apperror.Unauthorized("")
		}
		query = query.Where("created_by = ?", caller.ID)
	} else {
		query = query.Where("is_public = ? AND is_published = ?", true, true)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(filter.Cuisine))
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Search != "" {
		query = searchScope(s.db, filter.Search)(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.Recipe]{}, fmt.Errorf("failed to count recipes: %w", err)
	}

	if filter.Search != "" && s.db.Dialector.Name() == "postgres" {
		vec := embedding.Generate(filter.Search)
		query = query.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		})
	} else {
		query = query.Order("created_at DESC")
	}

	var recipes []models.Recipe
	if err := query.Offset(page.Offset()).Limit(page.Limit).Find(&recipes).Error; err != nil {
		return types.Page[models.Recipe]{}, fmt.Errorf("failed to list recipes: %w", err)
	}
	return types.NewPage(recipes, page, total), nil
}

func (s *RecipeService) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Recipe, error) {
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(recipe).UpdateColumn("is_published", published).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	recipe.IsPublished = published
	return recipe, nil
}
