package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WeekStartLayout is the storage format of MealPlan.WeekStartDate.
const WeekStartLayout = "2006-01-02"

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists the grid's slots in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid reports whether m is one of MealTypes.
func (m MealType) Valid() bool {
	for _, t := range MealTypes {
		if t == m {
			return true
		}
	}
	return false
}

// WeekDays lists the grid's days starting Monday.
var WeekDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayIndex returns the 0-based offset of day from Monday, or -1.
func DayIndex(day string) int {
	for i, d := range WeekDays {
		if d == day {
			return i
		}
	}
	return -1
}

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
)

// MealStatus records what happened to a planned meal.
type MealStatus string

const (
	MealPlanned MealStatus = "planned"
	MealCooked  MealStatus = "cooked"
	MealSkipped MealStatus = "skipped"
)

// PlannedMeal is one cell of the weekly grid.
type PlannedMeal struct {
	RecipeID    *uuid.UUID `json:"recipeId,omitempty"`
	RecipeTitle string     `json:"recipeTitle,omitempty"`
	Servings    int        `json:"servings,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      MealStatus `json:"status,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// DayPlan maps meal slots of one day to their planned meal.
type DayPlan map[MealType]*PlannedMeal

// WeekGrid maps lower-case weekday names to their day plan.
type WeekGrid map[string]DayPlan

// Cell returns the meal planned for day/slot, or nil.
func (g WeekGrid) Cell(day string, meal MealType) *PlannedMeal {
	if g == nil || g[day] == nil {
		return nil
	}
	return g[day][meal]
}

// Set places meal in day/slot, clearing the slot when meal is nil.
func (g WeekGrid) Set(day string, slot MealType, meal *PlannedMeal) {
	if meal == nil {
		if g[day] != nil {
			delete(g[day], slot)
		}
		return
	}
	if g[day] == nil {
		g[day] = DayPlan{}
	}
	g[day][slot] = meal
}

// PlannedRecipeIDs returns every distinct recipe referenced by the grid, in grid order.
func (g WeekGrid) PlannedRecipeIDs() []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	g.Each(func(_ string, _ MealType, meal *PlannedMeal) {
		if !seen[*meal.RecipeID] {
			seen[*meal.RecipeID] = true
			ids = append(ids, *meal.RecipeID)
		}
	})
	return ids
}

// FindRecipe locates the first cell holding recipeID, preferring cells that
// are still planned over ones already cooked or skipped.
func (g WeekGrid) FindRecipe(recipeID uuid.UUID) (string, MealType, bool) {
	var day string
	var slot MealType
	found, planned := false, false
	g.Each(func(d string, m MealType, meal *PlannedMeal) {
		if planned || *meal.RecipeID != recipeID {
			return
		}
		isPlanned := meal.Status == "" || meal.Status == MealPlanned
		if !found || isPlanned {
			day, slot, found, planned = d, m, true, isPlanned
		}
	})
	return day, slot, found
}

// Each calls fn for every cell holding a recipe, walking days then slots in order.
func (g WeekGrid) Each(fn func(day string, slot MealType, meal *PlannedMeal)) {
	for _, day := range WeekDays {
		for _, slot := range MealTypes {
			if meal := g.Cell(day, slot); meal != nil && meal.RecipeID != nil {
				fn(day, slot, meal)
			}
		}
	}
}

// MealTime overrides the default calendar window for a meal type.
type MealTime struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"durationMinutes"`
}

// CalendarEventRef links a created calendar event back to its grid cell.
type CalendarEventRef struct {
	EventID  string    `json:"eventId"`
	Day      string    `json:"day"`
	MealType MealType  `json:"mealType"`
	RecipeID uuid.UUID `json:"recipeId"`
}

type MealPlan struct {
	Base
	UserID        uuid.UUID                    `gorm:"type:varchar(36);not null;uniqueIndex:idx_meal_plans_user_week" json:"userId"`
	WeekStartDate string                       `gorm:"size:10;not null;uniqueIndex:idx_meal_plans_user_week" json:"weekStartDate"`
	Title         string                       `gorm:"size:200" json:"title"`
	Notes         string                       `gorm:"type:text" json:"notes,omitempty"`
	Status        PlanStatus                   `gorm:"size:20;not null;default:'active'" json:"status"`
	CompletedAt   *time.Time                   `json:"completedAt,omitempty"`
	Meals         datatypes.JSONType[WeekGrid] `json:"meals"`

	CalendarConnected    bool                                      `gorm:"not null" json:"calendarConnected"`
	CalendarID           string                                    `gorm:"size:255" json:"calendarId,omitempty"`
	CalendarTimeZone     string                                    `gorm:"size:64" json:"calendarTimeZone,omitempty"`
	CalendarMealTimes    datatypes.JSONType[map[MealType]MealTime] `json:"calendarMealTimes,omitempty"`
	CalendarEvents       datatypes.JSONSlice[CalendarEventRef]     `json:"calendarEvents"`
	CalendarLastSyncedAt *time.Time                                `json:"calendarLastSyncedAt,omitempty"`

	ShoppingListChecked datatypes.JSONType[map[string]bool] `json:"-"`
}

// Grid returns the plan's meal grid, never nil.
func (p *MealPlan) Grid() WeekGrid {
	grid := p.Meals.Data()
	if grid == nil {
		grid = WeekGrid{}
	}
	return grid
}

// SetGrid replaces the plan's meal grid.
func (p *MealPlan) SetGrid(grid WeekGrid) {
	p.Meals = datatypes.NewJSONType(grid)
}

// WeekStart parses WeekStartDate.
func (p *MealPlan) WeekStart() (time.Time, error) {
	return time.Parse(WeekStartLayout, p.WeekStartDate)
}

// DayDate returns the calendar date of a weekday within the plan's week.
func (p *MealPlan) DayDate(day string) (time.Time, bool) {
	start, err := p.WeekStart()
	idx := DayIndex(day)
	if err != nil || idx < 0 {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, idx), true
}

// CheckedItems returns the persisted shopping-list state, never nil.
func (p *MealPlan) CheckedItems() map[string]bool {
	checked := p.ShoppingListChecked.Data()
	if checked == nil {
		checked = map[string]bool{}
	}
	return checked
}

// ContainsRecipe reports whether any grid cell references recipeID.
func (p *MealPlan) ContainsRecipe(recipeID uuid.UUID) bool {
	found := false
	p.Grid().Each(func(_ string, _ MealType, meal *PlannedMeal) {
		if *meal.RecipeID == recipeID {
			found = true
		}
	})
	return found
}

// CookedRecipe reports whether a cell for recipeID was marked cooked.
func (p *MealPlan) CookedRecipe(recipeID uuid.UUID) bool {
	cooked := false
	p.Grid().Each(func(_ string, _ MealType, meal *PlannedMeal) {
		if *meal.RecipeID == recipeID && meal.Status == MealCooked {
			cooked = true
		}
	})
	return cooked
}

// NormalizeWeekStart returns the Monday (00:00 UTC) of the week containing t.
func NormalizeWeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}
