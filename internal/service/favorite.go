package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgAlreadyFavorite = "Recipe is already in favorites"

// FavoriteStatus answers GET /favorites/:recipeId.
type FavoriteStatus struct {
	IsFavorite bool             `json:"isFavorite"`
	Favorite   *models.Favorite `json:"favorite,omitempty"`
}

type FavoriteService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewFavoriteService(db *gorm.DB, log *zap.Logger) *FavoriteService {
	return &FavoriteService{db: db, log: log}
}

// AddFavorite bookmarks a recipe the caller can see. The existence check is
// an early exit; the unique index decides concurrent duplicates.
func (s *FavoriteService) AddFavorite(ctx context.Context, caller Caller, recipeID uuid.UUID, note string) (*models.Favorite, error) {
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.VisibleTo(caller.ID, caller.Role) {
		return nil, apperror.NotFound("Recipe")
	}
	userID := caller.ID

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict(msgAlreadyFavorite)
	}

	favorite := models.Favorite{UserID: userID, RecipeID: recipeID, Note: strings.TrimSpace(note)}
	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgAlreadyFavorite)
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	favorite.Recipe = recipe
	return &favorite, nil
}

func (s *FavoriteService) GetFavoriteStatus(ctx context.Context, userID, recipeID uuid.UUID) (*FavoriteStatus, error) {
	var favorite models.Favorite
	err := s.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).First(&favorite).Error
	if database.IsNotFound(err) {
		return &FavoriteStatus{IsFavorite: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite: %w", err)
	}
	return &FavoriteStatus{IsFavorite: true, Favorite: &favorite}, nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&models.Favorite{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.New(apperror.CodeNotFound, "Recipe not found in favorites")
	}
	return nil
}

// ListFavorites pages through the user's favorites with their recipes.
// Search and category narrow the recipe side first; when nothing matches the
// favorites table is not queried at all. The title and rating sorts reorder
// only the fetched page.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID, filter types.FavoriteFilter) (types.Page[models.Favorite], error) {
	page := filter.PageQuery.Normalize()
	query := s.db.WithContext(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID)

	if filter.Search != "" || filter.Category != "" {
		recipeQuery := s.db.WithContext(ctx).Model(&models.Recipe{})
		if filter.Search != "" {
			recipeQuery = searchScope(s.db, filter.Search)(recipeQuery)
		}
		if filter.Category != "" {
			recipeQuery = recipeQuery.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
		}

		var recipeIDs []uuid.UUID
		if err := recipeQuery.Pluck("id", &recipeIDs).Error; err != nil {
			return types.Page[models.Favorite]{}, fmt.Errorf("failed to filter recipes: %w", err)
		}
		if len(recipeIDs) == 0 {
			return types.NewPage([]models.Favorite(nil), page, 0), nil
		}
		query = query.Where("recipe_id IN ?", recipeIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.Favorite]{}, fmt.Errorf("failed to count favorites: %w", err)
	}

	if filter.Sort == "oldest" {
		query = query.Order("created_at ASC")
	} else {
		query = query.Order("created_at DESC")
	}

	var favorites []models.Favorite
	if err := query.Preload("Recipe").Offset(page.Offset()).Limit(page.Limit).Find(&favorites).Error; err != nil {
		return types.Page[models.Favorite]{}, fmt.Errorf("failed to list favorites: %w", err)
	}

	switch filter.Sort {
	case "title":
		sort.SliceStable(favorites, func(i, j int) bool {
			return strings.ToLower(recipeTitle(favorites[i].Recipe)) < strings.ToLower(recipeTitle(favorites[j].Recipe))
		})
	case "rating":
		sort.SliceStable(favorites, func(i, j int) bool {
			return recipeRating(favorites[i].Recipe) > recipeRating(favorites[j].Recipe)
		})
	}

	return types.NewPage(favorites, page, total), nil
}

func recipeTitle(r *models.Recipe) string {
	if r == nil {
		return ""
	}
	return r.Title
}

func recipeRating(r *models.Recipe) float64 {
	if r == nil {
		return 0
	}
	return r.AverageRating
}
