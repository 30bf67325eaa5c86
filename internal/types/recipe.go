package types

import "github.com/pageza/mealplanner/backend/internal/models"

// RecipeRequest is the body of POST /recipes and PUT /recipes/:id.
// Rating fields are not part of it and can never be written by clients.
type RecipeRequest struct {
	Title       string              `json:"title" binding:"required,max=255"`
	Description string              `json:"description" binding:"max=5000"`
	Category    string              `json:"category" binding:"max=50"`
	Cuisine     string              `json:"cuisine" binding:"max=50"`
	Difficulty  string              `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	PrepTime    int                 `json:"prepTime" binding:"min=0"`
	CookTime    int                 `json:"cookTime" binding:"min=0"`
	Servings    int                 `json:"servings" binding:"min=0"`
	ImageURL    string              `json:"imageUrl" binding:"omitempty,url"`
	Ingredients []models.Ingredient `json:"ingredients" binding:"required,min=1"`
	Steps       []string            `json:"steps" binding:"required,min=1"`
	Tags        []string            `json:"tags"`
	Nutrition   *models.Nutrition   `json:"nutrition"`
	IsPublic    *bool               `json:"isPublic"`
}

// RecipeFilter holds the query string of GET /recipes.
type RecipeFilter struct {
	Search     string `form:"search"`
	Category   string `form:"category"`
	Cuisine    string `form:"cuisine"`
	Difficulty string `form:"difficulty"`
	Mine       bool   `form:"mine"`
	PageQuery
}

type PublishRequest struct {
	IsPublished *bool `json:"isPublished" binding:"required"`
}
