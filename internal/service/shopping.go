package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

const defaultShoppingCategory = "Other"

// ShoppingItem is one merged ingredient line. Key identifies it across
// regenerations of the same plan.
type ShoppingItem struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit,omitempty"`
	Category string   `json:"category"`
	Recipes  []string `json:"recipes"`
	Checked  bool     `json:"checked"`
}

type ShoppingList struct {
	MealPlanID    uuid.UUID      `json:"mealPlanId"`
	WeekStartDate string         `json:"weekStartDate"`
	Items         []ShoppingItem `json:"items"`
	TotalItems    int            `json:"totalItems"`
	CheckedItems  int            `json:"checkedItems"`
}

type ShoppingCategory struct {
	Name  string         `json:"name"`
	Items []ShoppingItem `json:"items"`
}

type CategorizedShoppingList struct {
	MealPlanID    uuid.UUID          `json:"mealPlanId"`
	WeekStartDate string             `json:"weekStartDate"`
	Categories    []ShoppingCategory `json:"categories"`
	TotalItems    int                `json:"totalItems"`
}

// ShoppingKey is the merge key of an ingredient: trimmed lower-case name and unit.
func ShoppingKey(name, unit string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(unit))
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return defaultShoppingCategory
	}
	return cases.Title(language.English).String(category)
}

// shoppingItems merges the ingredients of every planned meal. Quantities are
// scaled by the cell's servings over the recipe's servings when both are set.
func (s *MealPlanService) shoppingItems(ctx context.Context, plan *models.MealPlan) ([]ShoppingItem, error) {
	grid := plan.Grid()
	recipes, err := loadRecipes(ctx, s.db, grid.PlannedRecipeIDs())
	if err != nil {
		return nil, err
	}

	merged := map[string]*ShoppingItem{}
	var order []string
	grid.Each(func(_ string, _ models.MealType, meal *models.PlannedMeal) {
		recipe, ok := recipes[*meal.RecipeID]
		if !ok {
			return
		}
		factor := 1.0
		if meal.Servings > 0 && recipe.Servings > 0 {
			factor = float64(meal.Servings) / float64(recipe.Servings)
		}

		for _, ing := range recipe.Ingredients {
			name := strings.TrimSpace(ing.Name)
			if name == "" {
				continue
			}
			key := ShoppingKey(name, ing.Unit)
			item, ok := merged[key]
			if !ok {
				item = &ShoppingItem{
					Key:      key,
					Name:     name,
					Unit:     strings.TrimSpace(ing.Unit),
					Category: normalizeCategory(ing.Category),
				}
				merged[key] = item
				order = append(order, key)
			} else if item.Category == defaultShoppingCategory && strings.TrimSpace(ing.Category) != "" {
				item.Category = normalizeCategory(ing.Category)
			}
			item.Quantity += ing.Quantity * factor
			if !containsString(item.Recipes, recipe.Title) {
				item.Recipes = append(item.Recipes, recipe.Title)
			}
		}
	})

	items := make([]ShoppingItem, 0, len(order))
	for _, key := range order {
		item := merged[key]
		item.Quantity = math.Round(item.Quantity*100) / 100
		items = append(items, *item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})
	return items, nil
}

func (s *MealPlanService) ShoppingList(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return nil, err
	}
	return newShoppingList(plan, items, nil), nil
}

func (s *MealPlanService) CategorizedShoppingList(ctx context.Context, userID, planID uuid.UUID) (*CategorizedShoppingList, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &CategorizedShoppingList{
		MealPlanID:    plan.ID,
		WeekStartDate: plan.WeekStartDate,
		Categories:    groupByCategory(items),
		TotalItems:    len(items),
	}, nil
}

// PrintableShoppingList renders the categorized list as plain text.
func (s *MealPlanService) PrintableShoppingList(ctx context.Context, userID, planID uuid.UUID) (string, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return "", err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return "", err
	}
	checked := plan.CheckedItems()

	var b strings.Builder
	fmt.Fprintf(&b, "Shopping List: %s\n", plan.Title)
	fmt.Fprintf(&b, "Week of %s\n", plan.WeekStartDate)
	if len(items) == 0 {
		b.WriteString("\nNo ingredients planned.\n")
		return b.String(), nil
	}
	for _, category := range groupByCategory(items) {
		fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(category.Name))
		for _, item := range category.Items {
			box := "[ ]"
			if checked[item.Key] {
				box = "[x]"
			}
			fmt.Fprintf(&b, "  %s %s\n", box, formatShoppingLine(item))
		}
	}
	return b.String(), nil
}

// ShoppingListStatus returns the flat list with the persisted checked state.
func (s *MealPlanService) ShoppingListStatus(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return nil, err
	}
	return newShoppingList(plan, items, plan.CheckedItems()), nil
}

func (s *MealPlanService) SetShoppingItemStatus(ctx context.Context, userID, planID uuid.UUID, key string, checked bool) (*ShoppingList, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return nil, err
	}

	found := false
	for _, item := range items {
		if item.Key == key {
			found = true
			break
		}
	}
	if !found {
		return nil, apperror.NotFound("Shopping list item")
	}

	state := plan.CheckedItems()
	if checked {
		state[key] = true
	} else {
		delete(state, key)
	}
	if err := s.saveChecked(ctx, plan, state); err != nil {
		return nil, err
	}
	return newShoppingList(plan, items, state), nil
}

func (s *MealPlanService) ResetShoppingListStatus(ctx context.Context, userID, planID uuid.UUID) (*ShoppingList, error) {
	plan, err := findPlan(ctx, s.db, userID, planID)
	if err != nil {
		return nil, err
	}
	items, err := s.shoppingItems(ctx, plan)
	if err != nil {
		return nil, err
	}
	if err := s.saveChecked(ctx, plan, map[string]bool{}); err != nil {
		return nil, err
	}
	return newShoppingList(plan, items, nil), nil
}

func (s *MealPlanService) saveChecked(ctx context.Context, plan *models.MealPlan, state map[string]bool) error {
	plan.ShoppingListChecked = datatypes.NewJSONType(state)
	if err := s.db.WithContext(ctx).Model(plan).UpdateColumn("shopping_list_checked", plan.ShoppingListChecked).Error; err != nil {
		return fmt.Errorf("failed to save shopping list state: %w", err)
	}
	return nil
}

func newShoppingList(plan *models.MealPlan, items []ShoppingItem, checked map[string]bool) *ShoppingList {
	list := &ShoppingList{
		MealPlanID:    plan.ID,
		WeekStartDate: plan.WeekStartDate,
		Items:         items,
		TotalItems:    len(items),
	}
	for i := range list.Items {
		list.Items[i].Checked = checked[list.Items[i].Key]
		if list.Items[i].Checked {
			list.CheckedItems++
		}
	}
	return list
}

func groupByCategory(items []ShoppingItem) []ShoppingCategory {
	groups := map[string][]ShoppingItem{}
	for _, item := range items {
		groups[item.Category] = append(groups[item.Category], item)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	categories := make([]ShoppingCategory, 0, len(names))
	for _, name := range names {
		categories = append(categories, ShoppingCategory{Name: name, Items: groups[name]})
	}
	return categories
}

func formatShoppingLine(item ShoppingItem) string {
	parts := make([]string, 0, 3)
	if item.Quantity > 0 {
		parts = append(parts, strconv.FormatFloat(item.Quantity, 'f', -1, 64))
	}
	if item.Unit != "" {
		parts = append(parts, item.Unit)
	}
	parts = append(parts, item.Name)
	return strings.Join(parts, " ")
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
