package models

import "github.com/google/uuid"

// Favorite is a bookmark of a recipe by a user; one per (user, recipe).
type Favorite struct {
	Base
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorites_user_recipe" json:"userId"`
	RecipeID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorites_user_recipe;index" json:"recipeId"`
	Note     string    `gorm:"type:text" json:"note,omitempty"`
	Recipe   *Recipe   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`
}
