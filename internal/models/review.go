package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a recipe; one per (recipe, user).
// IsVerified is decided once when the review is created.
type Review struct {
	Base
	RecipeID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_recipe_user" json:"recipeId"`
	UserID     uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_recipe_user;index" json:"userId"`
	Rating     int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title      string    `gorm:"size:200" json:"title,omitempty"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	IsVerified bool      `gorm:"not null" json:"isVerified"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe     *Recipe   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`

	ReviewerName string `gorm:"-" json:"reviewerName,omitempty"`
}

// AfterFind exposes the preloaded reviewer's display name.
func (r *Review) AfterFind(tx *gorm.DB) error {
	if r.User != nil {
		r.ReviewerName = r.User.Name
	}
	return nil
}

// ValidRating reports whether rating is within [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
