package service

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/models"
)

// ExportICS renders a plan's meals as an iCalendar document. It needs no
// Google credentials.
func (s *CalendarService) ExportICS(ctx context.Context, userID, planID uuid.UUID) ([]byte, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}

	tz := plan.CalendarTimeZone
	if tz == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	grid := plan.Grid()
	recipes, err := loadRecipes(ctx, s.db, grid.PlannedRecipeIDs())
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Meal Planner//Meal Plans//EN")
	cal.SetXWRCalName(plan.Title)

	stamp := s.now().UTC()
	grid.Each(func(day string, slot models.MealType, meal *models.PlannedMeal) {
		recipe, ok := recipes[*meal.RecipeID]
		if !ok {
			return
		}
		event, ok := s.buildEvent(plan, loc, day, slot, meal, recipe)
		if !ok {
			return
		}
		vevent := cal.AddEvent(fmt.Sprintf("%s-%s-%s@mealplanner", plan.ID, day, slot))
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(event.Summary)
		vevent.SetDescription(event.Description)
		vevent.SetStartAt(event.Start)
		vevent.SetEndAt(event.End)
	})

	return []byte(cal.Serialize()), nil
}
