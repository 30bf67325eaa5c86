package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgPlanExists = "A meal plan already exists for this week"

// CalendarCleaner removes a plan's calendar events before the plan is deleted.
type CalendarCleaner interface {
	RemoveEvents(ctx context.Context, userID uuid.UUID, plan *models.MealPlan) (*types.CalendarSyncResult, error)
}

type MealPlanService struct {
	db       *gorm.DB
	calendar CalendarCleaner
	log      *zap.Logger
	now      func() time.Time
}

// NewMealPlanService builds the meal-plan service. calendar may be nil when
// Google Calendar is not configured.
func NewMealPlanService(db *gorm.DB, calendar CalendarCleaner, log *zap.Logger) *MealPlanService {
	return &MealPlanService{db: db, calendar: calendar, log: log, now: time.Now}
}

// findPlan loads a plan owned by userID. Plans of other users are reported as missing.
func findPlan(ctx context.Context, db *gorm.DB, userID, planID uuid.UUID) (*models.MealPlan, error) {
	var plan models.MealPlan
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Meal plan")
		}
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	return &plan, nil
}

// loadRecipes fetches live recipes by id. Missing ids are absent from the map.
func loadRecipes(ctx context.Context, db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*models.Recipe, error) {
	out := make(map[uuid.UUID]*models.Recipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recipes []models.Recipe
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	for i := range recipes {
		out[recipes[i].ID] = &recipes[i]
	}
	return out, nil
}

func (s *MealPlanService) CreateMealPlan(ctx context.Context, caller Caller, req types.CreateMealPlanRequest) (*models.MealPlan, error) {
	start, err := time.Parse(models.WeekStartLayout, req.WeekStartDate)
	if err != nil {
		return nil, apperror.BadRequest("weekStartDate must be formatted as YYYY-MM-DD")
	}
	weekStart := models.NormalizeWeekStart(start).Format(models.WeekStartLayout)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MealPlan{}).
		Where("user_id = ? AND week_start_date = ?", caller.ID, weekStart).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check meal plans: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict(msgPlanExists)
	}

	grid, err := s.prepareGrid(ctx, caller, req.Meals)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Week of " + weekStart
	}
	plan := models.MealPlan{
		UserID:        caller.ID,
		WeekStartDate: weekStart,
		Title:         title,
		Notes:         req.Notes,
		Status:        models.PlanActive,
	}
	plan.SetGrid(grid)

	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(msgPlanExists)
		}
		return nil, fmt.Errorf("failed to create meal plan: %w", err)
	}
	return &plan, nil
}

// ListMealPlans returns the user's plans, most recent week first.
func (s *MealPlanService) ListMealPlans(ctx context.Context, userID uuid.UUID, q types.PageQuery) (types.Page[models.MealPlan], error) {
	page := q.Normalize()
	query := s.db.WithContext(ctx).Model(&models.MealPlan{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.MealPlan]{}, fmt.Errorf("failed to count meal plans: %w", err)
	}

	var plans []models.MealPlan
	if err := query.Order("week_start_date DESC").Offset(page.Offset()).Limit(page.Limit).Find(&plans).Error; err != nil {
		return types.Page[models.MealPlan]{}, fmt.Errorf("failed to list meal plans: %w", err)
	}
	return types.NewPage(plans, page, total), nil
}

func (s *MealPlanService) GetMealPlan(ctx context.Context, userID, planID uuid.UUID) (*models.MealPlan, error) {
	return findPlan(ctx, s.db, userID, planID)
}

func (s *MealPlanService) UpdateMealPlan(ctx context.Context, caller Caller, planID uuid.UUID, req types.UpdateMealPlanRequest) (*models.MealPlan, error) {
	plan, err := findPlan(ctx, s.db, caller.ID, planID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			title = "Week of " + plan.WeekStartDate
		}
		plan.Title = title
	}
	if req.Notes != nil {
		plan.Notes = *req.Notes
	}
	if req.Meals != nil {
		grid, err := s.prepareGrid(ctx, caller, req.Meals)
		if err != nil {
			return nil, err
		}
		plan.SetGrid(grid)
	}

	if err := s.save(ctx, plan, "title", "notes", "meals"); err != nil {
		return nil, err
	}
	return plan, nil
}

// SetMeal fills or clears one grid cell.
func (s *MealPlanService) SetMeal(ctx context.Context, caller Caller, planID uuid.UUID, req types.SetMealRequest) (*models.MealPlan, error) {
	plan, err := findPlan(ctx, s.db, caller.ID, planID)
	if err != nil {
		return nil, err
	}

	grid := plan.Grid()
	if req.RecipeID == "" {
		grid.Set(req.Day, req.MealType, nil)
	} else {
		recipeID, err := uuid.Parse(req.RecipeID)
		if err != nil {
			return nil, apperror.BadRequest("Invalid recipe ID")
		}
		recipe, err := s.visibleRecipe(ctx, caller, recipeID)
		if err != nil {
			return nil, err
		}
		grid.Set(req.Day, req.MealType, &models.PlannedMeal{
			RecipeID:    &recipe.ID,
			RecipeTitle: recipe.Title,
			Servings:    req.Servings,
			Notes:       req.Notes,
			Status:      models.MealPlanned,
		})
	}
	plan.SetGrid(grid)

	if err := s.save(ctx, plan, "meals"); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *MealPlanService) CompleteMealPlan(ctx context.Context, userID, planID uuid.UUID) (*models.MealPlan, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanCompleted {
		return plan, nil
	}

	now := s.now().UTC()
	plan.Status = models.PlanCompleted
	plan.CompletedAt = &now
	if err := s.save(ctx, plan, "status", "completed_at"); err != nil {
		return nil, err
	}
	return plan, nil
}

// DeleteMealPlan removes the plan. Calendar events are cleaned up first on a
// best-effort basis.
func (s *MealPlanService) DeleteMealPlan(ctx context.Context, userID, planID uuid.UUID) error {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return err
	}

	if s.calendar != nil && len(plan.CalendarEvents) > 0 {
		result, err := s.calendar.RemoveEvents(ctx, userID, plan)
		switch {
		case err != nil:
			s.log.Warn("Calendar cleanup failed before meal plan deletion",
				zap.String("meal_plan_id", planID.String()),
				zap.Error(err),
			)
		case len(result.Failures) > 0:
			s.log.Warn("Some calendar events could not be deleted",
				zap.String("meal_plan_id", planID.String()),
				zap.Strings("failures", result.Failures),
			)
		}
	}

	if err := s.db.WithContext(ctx).Delete(plan).Error; err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}

func (s *MealPlanService) save(ctx context.Context, plan *models.MealPlan, columns ...string) error {
	columns = append(columns, "updated_at")
	if err := s.db.WithContext(ctx).Model(plan).Select(columns).Updates(plan).Error; err != nil {
		return fmt.Errorf("failed to save meal plan: %w", err)
	}
	return nil
}

func (s *MealPlanService) visibleRecipe(ctx context.Context, caller Caller, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.VisibleTo(caller.ID, caller.Role) {
		return nil, apperror.NotFound("Recipe")
	}
	return recipe, nil
}

// prepareGrid validates a submitted grid and fills in recipe titles and
// default statuses. Empty cells are dropped.
func (s *MealPlanService) prepareGrid(ctx context.Context, caller Caller, in models.WeekGrid) (models.WeekGrid, error) {
	out := models.WeekGrid{}
	var ids []uuid.UUID
	for day, slots := range in {
		if models.DayIndex(day) < 0 {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid day %q", day))
		}
		for slot, meal := range slots {
			if !slot.Valid() {
				return nil, apperror.BadRequest(fmt.Sprintf("Invalid meal type %q", slot))
			}
			if meal == nil || (meal.RecipeID == nil && meal.Notes == "") {
				continue
			}
			if meal.Servings < 0 {
				return nil, apperror.BadRequest("Servings cannot be negative")
			}
			if meal.RecipeID != nil {
				ids = append(ids, *meal.RecipeID)
			}
			cell := *meal
			switch cell.Status {
			case "":
				cell.Status = models.MealPlanned
			case models.MealPlanned, models.MealCooked, models.MealSkipped:
			default:
				return nil, apperror.BadRequest(fmt.Sprintf("Invalid meal status %q", cell.Status))
			}
			out.Set(day, slot, &cell)
		}
	}

	recipes, err := loadRecipes(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	var invalid error
	out.Each(func(_ string, _ models.MealType, meal *models.PlannedMeal) {
		recipe, ok := recipes[*meal.RecipeID]
		if !ok || !recipe.VisibleTo(caller.ID, caller.Role) {
			invalid = apperror.NotFound("Recipe")
			return
		}
		meal.RecipeTitle = recipe.Title
	})
	if invalid != nil {
		return nil, invalid
	}
	return out, nil
}
