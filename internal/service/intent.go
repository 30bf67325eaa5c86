package service

import (
	"regexp"
	"strings"

	"github.com/pageza/mealplanner/backend/internal/models"
)

// Chat entities a message can refer to.
const (
	EntityRecipe         = "recipe"
	EntityFavorite       = "favorite"
	EntityMealPlan       = "meal plan"
	EntityShoppingList   = "shopping list"
	EntityReview         = "review"
	EntityCookingHistory = "cooking history"
)

// entityPatterns is ordered from most to least specific so that
// "shopping list" wins over a bare "list" and "meal plan" over "plan".
var entityPatterns = []struct {
	entity  string
	pattern *regexp.Regexp
}{
	{EntityShoppingList, wordPattern(`shopping lists?`)},
	{EntityCookingHistory, wordPattern(`cooking history`)},
	{EntityMealPlan, wordPattern(`meal plans?`, `plans?`)},
	{EntityFavorite, wordPattern(`favou?rites?`)},
	{EntityReview, wordPattern(`reviews?`)},
	{EntityRecipe, wordPattern(`recipes?`)},
}

var (
	possessivePattern = wordPattern(`my`, `mine`, `i have`, `i've`, `i saved`, `saved`)
	actionPattern     = wordPattern(`create`, `make`, `generate`, `suggest`, `plan`, `build`, `add`, `give me`)
	newEntityPattern  = regexp.MustCompile(`\bnew (shopping lists?|cooking history|meal plans?|plans?|favou?rites?|reviews?|recipes?)\b`)
)

func wordPattern(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
}

// ClassifyIntent routes a chat message by keyword co-occurrence. A possessive
// with an entity asks about the user's own data, an action verb with an
// entity asks for something to be produced, anything else is a cooking question.
func ClassifyIntent(message string) models.ChatMode {
	msg := strings.ToLower(message)
	if DetectEntity(msg) == "" {
		return models.ModeGeneralCooking
	}
	if possessivePattern.MatchString(msg) {
		return models.ModeDatabase
	}
	if actionPattern.MatchString(msg) || newEntityPattern.MatchString(msg) {
		return models.ModeSmartRequest
	}
	return models.ModeGeneralCooking
}

// DetectEntity returns the first entity mentioned in message, or "".
func DetectEntity(message string) string {
	msg := strings.ToLower(message)
	for _, e := range entityPatterns {
		if e.pattern.MatchString(msg) {
			return e.entity
		}
	}
	return ""
}
