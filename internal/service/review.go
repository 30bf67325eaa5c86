package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	msgInvalidRating   = "Rating must be between 1 and 5"
	msgAlreadyReviewed = "You have already reviewed this recipe"

	// verifiedPlanAge is how long ago a plan's week must have started for a
	// planned recipe to count as cooked.
	verifiedPlanAge = 7 * 24 * time.Hour
)

type ReviewService struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewReviewService(db *gorm.DB, log *zap.Logger, m *metrics.Metrics) *ReviewService {
	return &ReviewService{db: db, log: log, metrics: m, now: time.Now}
}

// CreateReview stores the user's single review of a recipe and refreshes the
// recipe's rating summary.
func (s *ReviewService) CreateReview(ctx context.Context, userID, recipeID uuid.UUID, rating int, title, comment string) (*models.Review, error) {
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return nil, err
	}
	if !models.ValidRating(rating) {
		return nil, apperror.BadRequest(msgInvalidRating)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict(msgAlreadyReviewed)
	}

	verified, err := s.hasCooked(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	review := models.Review{
		RecipeID:   recipeID,
		UserID:     userID,
		Rating:     rating,
		Title:      strings.TrimSpace(title),
		Comment:    strings.TrimSpace(comment),
		IsVerified: verified,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgAlreadyReviewed)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.refreshRating(ctx, recipeID)
	s.metrics.ReviewCreated()
	return &review, nil
}

// UpdateReview patches the caller's review of a recipe. The verified flag is
// never recomputed.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, recipeID uuid.UUID, req types.UpdateReviewRequest) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&review).Error
	if database.IsNotFound(err) {
		return nil, apperror.NotFound("Review")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	if req.Rating != nil {
		if !models.ValidRating(*req.Rating) {
			return nil, apperror.BadRequest(msgInvalidRating)
		}
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = strings.TrimSpace(*req.Title)
	}
	if req.Comment != nil {
		review.Comment = strings.TrimSpace(*req.Comment)
	}

	if err := s.db.WithContext(ctx).Model(&review).Select("rating", "title", "comment", "updated_at").Updates(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.refreshRating(ctx, recipeID)
	return &review, nil
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (s *ReviewService) DeleteReview(ctx context.Context, caller Caller, reviewID uuid.UUID) error {
	var review models.Review
	err := s.db.WithContext(ctx).First(&review, "id = ?", reviewID).Error
	if database.IsNotFound(err) {
		return apperror.NotFound("Review")
	}
	if err != nil {
		return fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID != caller.ID && !caller.Role.IsAdmin() {
		return apperror.Forbidden("You can only delete your own reviews")
	}

	if err := s.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.refreshRating(ctx, review.RecipeID)
	return nil
}

func (s *ReviewService) ListRecipeReviews(ctx context.Context, recipeID uuid.UUID, q types.PageQuery) (types.Page[models.Review], error) {
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return types.Page[models.Review]{}, err
	}
	return s.listReviews(ctx, s.db.WithContext(ctx).Where("recipe_id = ?", recipeID), q, "User")
}

func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, q types.PageQuery) (types.Page[models.Review], error) {
	return s.listReviews(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID), q, "User", "Recipe")
}

func (s *ReviewService) listReviews(ctx context.Context, query *gorm.DB, q types.PageQuery, preloads ...string) (types.Page[models.Review], error) {
	page := q.Normalize()

	var total int64
	if err := query.Model(&models.Review{}).Count(&total).Error; err != nil {
		return types.Page[models.Review]{}, fmt.Errorf("failed to count reviews: %w", err)
	}

	for _, p := range preloads {
		query = query.Preload(p)
	}
	var reviews []models.Review
	if err := query.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&reviews).Error; err != nil {
		return types.Page[models.Review]{}, fmt.Errorf("failed to list reviews: %w", err)
	}
	return types.NewPage(reviews, page, total), nil
}

// refreshRating recomputes the summary after a review write. A failure leaves
// the review in place and is only logged.
func (s *ReviewService) refreshRating(ctx context.Context, recipeID uuid.UUID) {
	if err := recalculateRating(ctx, s.db, recipeID); err != nil {
		s.log.Error("Failed to recalculate recipe rating",
			zap.String("recipe_id", recipeID.String()),
			zap.Error(err),
		)
	}
}

// hasCooked decides the verified flag of a new review.
func (s *ReviewService) hasCooked(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var cooked int64
	if err := s.db.WithContext(ctx).Model(&models.RecipeInteraction{}).
		Where("user_id = ? AND recipe_id = ? AND status = ? AND is_verified_cook = ?", userID, recipeID, models.StatusCompleted, true).
		Count(&cooked).Error; err != nil {
		return false, fmt.Errorf("failed to check cooking history: %w", err)
	}
	if cooked > 0 {
		return true, nil
	}

	var plans []models.MealPlan
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&plans).Error; err != nil {
		return false, fmt.Errorf("failed to check meal plans: %w", err)
	}
	cutoff := s.now().UTC().Add(-verifiedPlanAge).Format(models.WeekStartLayout)
	for i := range plans {
		plan := &plans[i]
		if !plan.ContainsRecipe(recipeID) {
			continue
		}
		if plan.Status == models.PlanCompleted || plan.CookedRecipe(recipeID) || plan.WeekStartDate < cutoff {
			return true, nil
		}
	}
	return false, nil
}

type ratingBucket struct {
	Rating int
	Count  int
}

// recalculateRating rewrites a recipe's average, total and distribution from
// its reviews.
func recalculateRating(ctx context.Context, db *gorm.DB, recipeID uuid.UUID) error {
	var buckets []ratingBucket
	if err := db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("recipe_id = ?", recipeID).
		Group("rating").
		Scan(&buckets).Error; err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	var dist models.RatingDistribution
	total, sum := 0, 0
	for _, b := range buckets {
		dist.Add(b.Rating, b.Count)
		total += b.Count
		sum += b.Rating * b.Count
	}
	average := 0.0
	if total > 0 {
		average = math.Round(float64(sum)/float64(total)*10) / 10
	}

	return db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).UpdateColumns(map[string]interface{}{
		"average_rating":      average,
		"total_reviews":       total,
		"rating_distribution": datatypes.NewJSONType(dist),
	}).Error
}
