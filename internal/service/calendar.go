package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultCalendarID = "primary"

// DefaultMealTimes are the event windows used when a plan has no override.
var DefaultMealTimes = map[models.MealType]models.MealTime{
	models.MealBreakfast: {Start: "08:00", DurationMinutes: 30},
	models.MealLunch:     {Start: "12:30", DurationMinutes: 45},
	models.MealDinner:    {Start: "18:30", DurationMinutes: 60},
	models.MealSnack:     {Start: "15:30", DurationMinutes: 15},
}

type CalendarService struct {
	db        *gorm.DB
	factory   CalendarClientFactory
	log       *zap.Logger
	metrics   *metrics.Metrics
	defaultTZ string
	now       func() time.Time
}

func NewCalendarService(db *gorm.DB, factory CalendarClientFactory, defaultTZ string, log *zap.Logger, m *metrics.Metrics) *CalendarService {
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	return &CalendarService{db: db, factory: factory, log: log, metrics: m, defaultTZ: defaultTZ, now: time.Now}
}

// Connect stores the user's OAuth grant and the plan's calendar settings,
// then runs a first sync.
func (s *CalendarService) Connect(ctx context.Context, userID, planID uuid.UUID, req types.CalendarConnectRequest) (*types.CalendarSyncResult, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(req.TimeZone)
	if tz == "" {
		tz = s.defaultTZ
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid time zone %q", tz))
	}

	overrides := map[models.MealType]models.MealTime{}
	for mealType, mt := range req.MealTimes {
		if !mealType.Valid() {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid meal type %q", mealType))
		}
		if _, _, ok := parseClock(mt.Start); !ok || mt.DurationMinutes <= 0 {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid meal time for %s", mealType))
		}
		overrides[mealType] = models.MealTime{Start: mt.Start, DurationMinutes: mt.DurationMinutes}
	}

	userCols := map[string]interface{}{
		"calendar_access_token":  req.AccessToken,
		"calendar_refresh_token": req.RefreshToken,
		"calendar_token_expiry":  req.Expiry,
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumns(userCols).Error; err != nil {
		return nil, fmt.Errorf("failed to store calendar credentials: %w", err)
	}

	calendarID := strings.TrimSpace(req.CalendarID)
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	plan.CalendarConnected = true
	plan.CalendarID = calendarID
	plan.CalendarTimeZone = tz
	plan.CalendarMealTimes = datatypes.NewJSONType(overrides)
	if err := s.save(ctx, plan, "calendar_connected", "calendar_id", "calendar_time_zone", "calendar_meal_times"); err != nil {
		return nil, err
	}

	return s.sync(ctx, userID, plan)
}

// Sync deletes every event stored for the plan and recreates one per planned meal.
func (s *CalendarService) Sync(ctx context.Context, userID, planID uuid.UUID) (*types.CalendarSyncResult, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	if !plan.CalendarConnected {
		return nil, apperror.BadRequest("Meal plan is not connected to Google Calendar")
	}
	return s.sync(ctx, userID, plan)
}

// Disconnect deletes the plan's events and clears its calendar linkage.
func (s *CalendarService) Disconnect(ctx context.Context, userID, planID uuid.UUID) (*types.CalendarSyncResult, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}

	result := &types.CalendarSyncResult{Failures: []string{}}
	if len(plan.CalendarEvents) > 0 {
		removed, err := s.RemoveEvents(ctx, userID, plan)
		if err != nil {
			s.log.Warn("Calendar events could not be removed on disconnect",
				zap.String("meal_plan_id", planID.String()),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, err.Error())
		} else {
			result = removed
		}
	}

	plan.CalendarConnected = false
	plan.CalendarID = ""
	plan.CalendarEvents = datatypes.JSONSlice[models.CalendarEventRef]{}
	plan.CalendarLastSyncedAt = nil
	if err := s.save(ctx, plan, "calendar_connected", "calendar_id", "calendar_events", "calendar_last_synced_at"); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveEvents deletes every stored event of the plan, one at a time. Failed
// deletions are reported but do not stop the rest.
func (s *CalendarService) RemoveEvents(ctx context.Context, userID uuid.UUID, plan *models.MealPlan) (*types.CalendarSyncResult, error) {
	client, err := s.client(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.deleteEvents(ctx, client, plan), nil
}

func (s *CalendarService) sync(ctx context.Context, userID uuid.UUID, plan *models.MealPlan) (*types.CalendarSyncResult, error) {
	client, err := s.client(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(plan.CalendarTimeZone)
	if err != nil {
		loc = time.UTC
	}
	grid := plan.Grid()
	recipes, err := loadRecipes(ctx, s.db, grid.PlannedRecipeIDs())
	if err != nil {
		return nil, err
	}

	result := s.deleteEvents(ctx, client, plan)

	created := datatypes.JSONSlice[models.CalendarEventRef]{}
	grid.Each(func(day string, slot models.MealType, meal *models.PlannedMeal) {
		recipe, ok := recipes[*meal.RecipeID]
		if !ok {
			result.Failures = append(result.Failures, fmt.Sprintf("%s %s: recipe no longer exists", day, slot))
			return
		}
		event, ok := s.buildEvent(plan, loc, day, slot, meal, recipe)
		if !ok {
			result.Failures = append(result.Failures, fmt.Sprintf("%s %s: invalid meal time", day, slot))
			return
		}

		eventID, err := client.InsertEvent(ctx, plan.CalendarID, event)
		s.metrics.CalendarEvent("create", err)
		if err != nil {
			s.log.Warn("Failed to create calendar event",
				zap.String("meal_plan_id", plan.ID.String()),
				zap.String("day", day),
				zap.String("meal_type", string(slot)),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, fmt.Sprintf("create %s %s: %v", day, slot, err))
			return
		}
		created = append(created, models.CalendarEventRef{EventID: eventID, Day: day, MealType: slot, RecipeID: recipe.ID})
		result.Created++
	})

	now := s.now().UTC()
	plan.CalendarEvents = created
	plan.CalendarLastSyncedAt = &now
	if err := s.save(ctx, plan, "calendar_events", "calendar_last_synced_at"); err != nil {
		return nil, err
	}

	s.log.Info("Meal plan synced to calendar",
		zap.String("meal_plan_id", plan.ID.String()),
		zap.Int("created", result.Created),
		zap.Int("deleted", result.Deleted),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *CalendarService) deleteEvents(ctx context.Context, client CalendarClient, plan *models.MealPlan) *types.CalendarSyncResult {
	result := &types.CalendarSyncResult{Failures: []string{}}
	for _, ref := range plan.CalendarEvents {
		err := client.DeleteEvent(ctx, plan.CalendarID, ref.EventID)
		s.metrics.CalendarEvent("delete", err)
		if err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("delete %s: %v", ref.EventID, err))
			continue
		}
		result.Deleted++
	}
	return result
}

func (s *CalendarService) client(ctx context.Context, userID uuid.UUID) (CalendarClient, error) {
	if s.factory == nil {
		return nil, apperror.BadRequest("Google Calendar is not configured")
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	creds, ok := user.CalendarTokens()
	if !ok {
		return nil, apperror.BadRequest("Google Calendar credentials are missing, please reconnect")
	}
	client, err := s.factory.Client(ctx, creds)
	if err != nil {
		return nil, apperror.ExternalService("Google Calendar", err)
	}
	return client, nil
}

func (s *CalendarService) save(ctx context.Context, plan *models.MealPlan, columns ...string) error {
	columns = append(columns, "updated_at")
	if err := s.db.WithContext(ctx).Model(plan).Select(columns).Updates(plan).Error; err != nil {
		return fmt.Errorf("failed to save calendar state: %w", err)
	}
	return nil
}

// mealWindow returns the configured time window of a meal type for the plan.
func mealWindow(plan *models.MealPlan, slot models.MealType) models.MealTime {
	if mt, ok := plan.CalendarMealTimes.Data()[slot]; ok {
		return mt
	}
	return DefaultMealTimes[slot]
}

func (s *CalendarService) buildEvent(plan *models.MealPlan, loc *time.Location, day string, slot models.MealType, meal *models.PlannedMeal, recipe *models.Recipe) (CalendarEvent, bool) {
	date, ok := plan.DayDate(day)
	if !ok {
		return CalendarEvent{}, false
	}
	window := mealWindow(plan, slot)
	hour, minute, ok := parseClock(window.Start)
	if !ok {
		return CalendarEvent{}, false
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)

	return CalendarEvent{
		Summary:     mealSummary(slot, recipe.Title),
		Description: mealDescription(recipe, meal),
		Start:       start,
		End:         start.Add(time.Duration(window.DurationMinutes) * time.Minute),
		TimeZone:    loc.String(),
	}, true
}

func mealSummary(slot models.MealType, title string) string {
	return cases.Title(language.English).String(string(slot)) + ": " + title
}

func mealDescription(recipe *models.Recipe, meal *models.PlannedMeal) string {
	var b strings.Builder
	if recipe.Description != "" {
		b.WriteString(recipe.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Prep time: %d min\nCook time: %d min\nTotal time: %d min\n",
		recipe.PrepTimeMinutes, recipe.CookTimeMinutes, recipe.TotalTimeMinutes())
	servings := recipe.Servings
	if meal.Servings > 0 {
		servings = meal.Servings
	}
	if servings > 0 {
		fmt.Fprintf(&b, "Servings: %d\n", servings)
	}
	if len(recipe.Ingredients) > 0 {
		b.WriteString("\nIngredients:\n")
		for _, ing := range recipe.Ingredients {
			b.WriteString("- ")
			b.WriteString(formatShoppingLine(ShoppingItem{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit}))
			b.WriteString("\n")
		}
	}
	if meal.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", meal.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseClock parses "HH:MM" in 24-hour time.
func parseClock(v string) (int, int, bool) {
	h, m, found := strings.Cut(v, ":")
	if !found || len(h) != 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
