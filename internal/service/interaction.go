package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultBackfillTimeout = 10 * time.Second

var errNoActiveSession = apperror.New(apperror.CodeNotFound, "No active cooking session found")

// StartCookingInput identifies the recipe and, optionally, the meal-plan cell
// a cooking session starts from.
type StartCookingInput struct {
	RecipeID   uuid.UUID
	MealPlanID *uuid.UUID
	Day        string
	MealType   models.MealType
}

type CookingStats struct {
	TotalSessions       int64            `json:"totalSessions"`
	Completed           int64            `json:"completed"`
	DidntCook           int64            `json:"didntCook"`
	Active              int64            `json:"active"`
	TotalCookingMinutes int64            `json:"totalCookingMinutes"`
	RecipesCooked       int64            `json:"recipesCooked"`
	ByStatus            map[string]int64 `json:"byStatus"`
}

type InteractionService struct {
	db              *gorm.DB
	log             *zap.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
	backfillTimeout time.Duration
	wg              sync.WaitGroup
	backfillMu      sync.Mutex
}

func NewInteractionService(db *gorm.DB, log *zap.Logger, m *metrics.Metrics) *InteractionService {
	return &InteractionService{
		db:              db,
		log:             log,
		metrics:         m,
		now:             time.Now,
		backfillTimeout: defaultBackfillTimeout,
	}
}

// Wait blocks until every pending meal-plan backfill has finished.
func (s *InteractionService) Wait() {
	s.wg.Wait()
}

// StartCooking resumes the user's active session for the recipe or opens a
// new one. The returned flag is true when a session was resumed.
func (s *InteractionService) StartCooking(ctx context.Context, userID uuid.UUID, in StartCookingInput) (*models.RecipeInteraction, bool, error) {
	recipe, err := findRecipe(ctx, s.db, in.RecipeID)
	if err != nil {
		return nil, false, err
	}
	if in.MealPlanID != nil {
		if _, err := findPlan(ctx, s.db, userID, *in.MealPlanID); err != nil {
			return nil, false, err
		}
	}

	now := s.now().UTC()
	active, err := s.activeSession(ctx, userID, in.RecipeID)
	switch {
	case err == nil:
		active.Record(models.ActionResumed, nil, "", now)
		if in.MealPlanID != nil && (!active.FromMealPlan() || active.MealDay == "") {
			setOrigin(active, in)
		}
		if err := s.save(ctx, active); err != nil {
			return nil, false, err
		}
		return active, true, nil
	case !errors.Is(err, errNoActiveSession):
		return nil, false, err
	}

	interaction := models.RecipeInteraction{
		UserID:     userID,
		RecipeID:   recipe.ID,
		Status:     models.StatusStartedCooking,
		StartedAt:  now,
		TotalSteps: len(recipe.Steps),
	}
	setOrigin(&interaction, in)
	interaction.Record(models.ActionStarted, nil, "", now)

	if err := s.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		return nil, false, fmt.Errorf("failed to start cooking session: %w", err)
	}
	s.metrics.CookingSession(models.ActionStarted)
	return &interaction, false, nil
}

func (s *InteractionService) TrackStep(ctx context.Context, userID, recipeID uuid.UUID, step int, note string) (*models.RecipeInteraction, error) {
	interaction, err := s.activeSession(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if step < 0 || (interaction.TotalSteps > 0 && step > interaction.TotalSteps) {
		return nil, apperror.BadRequest(fmt.Sprintf("Step must be between 0 and %d", interaction.TotalSteps))
	}

	interaction.Status = models.StatusCookingInProgress
	interaction.CurrentStep = step
	interaction.Record(models.ActionStepCompleted, &step, strings.TrimSpace(note), s.now().UTC())
	if err := s.save(ctx, interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

// CompleteCooking finishes the active session. Without an explicit duration
// the elapsed time since start is used, never less than one minute.
func (s *InteractionService) CompleteCooking(ctx context.Context, userID, recipeID uuid.UUID, minutes *int, notes string) (*models.RecipeInteraction, error) {
	interaction, err := s.activeSession(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var elapsed int
	if minutes != nil && *minutes > 0 {
		elapsed = *minutes
	} else {
		elapsed = int(math.Round(now.Sub(interaction.StartedAt).Minutes()))
	}
	if elapsed < 1 {
		elapsed = 1
	}

	interaction.Status = models.StatusCompleted
	interaction.CompletedAt = &now
	interaction.CookingTimeMinutes = elapsed
	interaction.IsVerifiedCook = true
	if notes = strings.TrimSpace(notes); notes != "" {
		interaction.Notes = notes
	}
	interaction.Record(models.ActionCompleted, nil, notes, now)
	if err := s.save(ctx, interaction); err != nil {
		return nil, err
	}

	s.metrics.CookingSession(models.ActionCompleted)
	s.backfill(interaction, models.MealCooked, now)
	return interaction, nil
}

func (s *InteractionService) DidntCook(ctx context.Context, userID, recipeID uuid.UUID, reason string) (*models.RecipeInteraction, error) {
	interaction, err := s.activeSession(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reason = strings.TrimSpace(reason)
	interaction.Status = models.StatusDidntCook
	interaction.DidntCookReason = reason
	interaction.Record(models.ActionDidntCook, nil, reason, now)
	if err := s.save(ctx, interaction); err != nil {
		return nil, err
	}

	s.metrics.CookingSession(models.ActionDidntCook)
	s.backfill(interaction, models.MealSkipped, now)
	return interaction, nil
}

func (s *InteractionService) ActiveSession(ctx context.Context, userID, recipeID uuid.UUID) (*models.RecipeInteraction, error) {
	return s.activeSession(ctx, userID, recipeID)
}

func (s *InteractionService) History(ctx context.Context, userID uuid.UUID, filter types.CookingHistoryFilter) (types.Page[models.RecipeInteraction], error) {
	page := filter.PageQuery.Normalize()
	query := s.db.WithContext(ctx).Model(&models.RecipeInteraction{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		if !validInteractionStatus(filter.Status) {
			return types.Page[models.RecipeInteraction]{}, apperror.BadRequest(fmt.Sprintf("Invalid status %q", filter.Status))
		}
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.RecipeInteraction]{}, fmt.Errorf("failed to count cooking history: %w", err)
	}

	var interactions []models.RecipeInteraction
	if err := query.Preload("Recipe").Order("started_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&interactions).Error; err != nil {
		return types.Page[models.RecipeInteraction]{}, fmt.Errorf("failed to list cooking history: %w", err)
	}
	return types.NewPage(interactions, page, total), nil
}

type statusCount struct {
	Status  models.InteractionStatus
	Count   int64
	Minutes int64
}

func (s *InteractionService) Stats(ctx context.Context, userID uuid.UUID) (*CookingStats, error) {
	var rows []statusCount
	if err := s.db.WithContext(ctx).Model(&models.RecipeInteraction{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(cooking_time_minutes), 0) AS minutes").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate cooking stats: %w", err)
	}

	stats := &CookingStats{ByStatus: map[string]int64{}}
	for _, row := range rows {
		stats.ByStatus[string(row.Status)] = row.Count
		stats.TotalSessions += row.Count
		switch {
		case row.Status == models.StatusCompleted:
			stats.Completed = row.Count
			stats.TotalCookingMinutes = row.Minutes
		case row.Status == models.StatusDidntCook:
			stats.DidntCook = row.Count
		case row.Status.Active():
			stats.Active += row.Count
		}
	}

	if err := s.db.WithContext(ctx).Model(&models.RecipeInteraction{}).
		Where("user_id = ? AND status = ?", userID, models.StatusCompleted).
		Distinct("recipe_id").
		Count(&stats.RecipesCooked).Error; err != nil {
		return nil, fmt.Errorf("failed to count cooked recipes: %w", err)
	}
	return stats, nil
}

// activeSession returns the latest session for user and recipe that is still
// started or in progress.
func (s *InteractionService) activeSession(ctx context.Context, userID, recipeID uuid.UUID) (*models.RecipeInteraction, error) {
	var interaction models.RecipeInteraction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ? AND status IN ?", userID, recipeID,
			[]models.InteractionStatus{models.StatusStartedCooking, models.StatusCookingInProgress}).
		Order("started_at DESC").
		First(&interaction).Error
	if database.IsNotFound(err) {
		return nil, errNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cooking session: %w", err)
	}
	return &interaction, nil
}

func (s *InteractionService) save(ctx context.Context, interaction *models.RecipeInteraction) error {
	if err := s.db.WithContext(ctx).Omit("Recipe").Save(interaction).Error; err != nil {
		return fmt.Errorf("failed to save cooking session: %w", err)
	}
	return nil
}

// backfill marks the originating meal-plan cell in the background. The
// request has already succeeded, so failures are only logged.
func (s *InteractionService) backfill(interaction *models.RecipeInteraction, status models.MealStatus, at time.Time) {
	if !interaction.FromMealPlan() {
		return
	}
	userID, recipeID, planID := interaction.UserID, interaction.RecipeID, *interaction.MealPlanID
	day, slot := interaction.MealDay, interaction.MealType

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.backfillTimeout)
		defer cancel()

		s.backfillMu.Lock()
		defer s.backfillMu.Unlock()

		if err := s.markMeal(ctx, userID, planID, day, slot, recipeID, status, at); err != nil {
			s.log.Warn("Failed to update meal plan after cooking session",
				zap.String("meal_plan_id", planID.String()),
				zap.String("day", day),
				zap.String("meal_type", string(slot)),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
	}()
}

func (s *InteractionService) markMeal(ctx context.Context, userID, planID uuid.UUID, day string, slot models.MealType, recipeID uuid.UUID, status models.MealStatus, at time.Time) error {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return err
	}
	grid := plan.Grid()
	if day == "" || slot == "" {
		var ok bool
		if day, slot, ok = grid.FindRecipe(recipeID); !ok {
			return fmt.Errorf("meal plan no longer holds recipe %s", recipeID)
		}
	}
	cell := grid.Cell(day, slot)
	if cell == nil || cell.RecipeID == nil || *cell.RecipeID != recipeID {
		return fmt.Errorf("meal plan cell %s/%s no longer holds recipe %s", day, slot, recipeID)
	}

	cell.Status = status
	if status == models.MealCooked {
		cell.CompletedAt = &at
	}
	plan.SetGrid(grid)
	return s.db.WithContext(ctx).Model(plan).Select("meals", "updated_at").Updates(plan).Error
}

func setOrigin(interaction *models.RecipeInteraction, in StartCookingInput) {
	if in.MealPlanID == nil {
		return
	}
	id := *in.MealPlanID
	interaction.MealPlanID = &id
	interaction.MealDay = in.Day
	interaction.MealType = in.MealType
}

func validInteractionStatus(status models.InteractionStatus) bool {
	switch status {
	case models.StatusNotStarted, models.StatusStartedCooking, models.StatusCookingInProgress,
		models.StatusCompleted, models.StatusDidntCook:
		return true
	}
	return false
}
