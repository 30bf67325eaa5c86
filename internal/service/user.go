package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{db: db, log: log}
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req types.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.BadRequest("Name cannot be empty")
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.DietaryPreferences != nil {
		user.DietaryPreferences = cleanList(req.DietaryPreferences)
	}
	if req.Allergens != nil {
		user.Allergens = cleanList(req.Allergens)
	}

	if err := s.db.WithContext(ctx).Select("name", "bio", "avatar_url", "dietary_preferences", "allergens").Updates(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, filter types.UserFilter) (types.Page[models.User], error) {
	page := filter.PageQuery.Normalize()
	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return types.Page[models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return types.NewPage(users, page, total), nil
}

// UpdateRole changes a user's role. Callers cannot change their own role.
func (s *UserService) UpdateRole(ctx context.Context, actor Caller, userID uuid.UUID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperror.BadRequest("Invalid role")
	}
	if actor.ID == userID {
		return nil, apperror.BadRequest("You cannot change your own role")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role

	s.log.Info("User role changed",
		zap.String("actor_id", actor.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
	)
	return user, nil
}

// DeleteUser hard-deletes a user and everything they own.
func (s *UserService) DeleteUser(ctx context.Context, actor Caller, userID uuid.UUID) error {
	if actor.ID == userID {
		return apperror.BadRequest("You cannot delete your own account")
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := tx.Model(&models.ChatSession{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("session_id IN (?)", sessions).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.ChatSession{},
			&models.RecipeInteraction{},
			&models.MealPlan{},
			&models.Favorite{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}

		var recipeIDs []uuid.UUID
		if err := tx.Model(&models.Review{}).Where("user_id = ?", userID).Distinct().Pluck("recipe_id", &recipeIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		for _, recipeID := range recipeIDs {
			if err := recalculateRating(ctx, tx, recipeID); err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.log.Info("User deleted", zap.String("actor_id", actor.ID.String()), zap.String("user_id", userID.String()))
	return nil
}
