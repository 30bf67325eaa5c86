package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/embedding"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Category string  `json:"category,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// RatingDistribution counts reviews per star value. All five keys are always serialized.
type RatingDistribution struct {
	One   int `json:"1"`
	Two   int `json:"2"`
	Three int `json:"3"`
	Four  int `json:"4"`
	Five  int `json:"5"`
}

// Add increments the bucket for rating by n. Out-of-range ratings are ignored.
func (d *RatingDistribution) Add(rating int, n int) {
	switch rating {
	case 1:
		d.One += n
	case 2:
		d.Two += n
	case 3:
		d.Three += n
	case 4:
		d.Four += n
	case 5:
		d.Five += n
	}
}

// Count returns the bucket for rating.
func (d RatingDistribution) Count(rating int) int {
	switch rating {
	case 1:
		return d.One
	case 2:
		return d.Two
	case 3:
		return d.Three
	case 4:
		return d.Four
	case 5:
		return d.Five
	}
	return 0
}

// Map returns the distribution keyed "1".."5".
func (d RatingDistribution) Map() map[string]int {
	out := make(map[string]int, 5)
	for i := 1; i <= 5; i++ {
		out[strconv.Itoa(i)] = d.Count(i)
	}
	return out
}

type Recipe struct {
	Base
	DeletedAt          gorm.DeletedAt                         `gorm:"index" json:"-"`
	Title              string                                 `gorm:"size:255;not null" json:"title"`
	Description        string                                 `gorm:"type:text" json:"description"`
	Category           string                                 `gorm:"size:50;index" json:"category"`
	Cuisine            string                                 `gorm:"size:50" json:"cuisine,omitempty"`
	Difficulty         string                                 `gorm:"size:20" json:"difficulty,omitempty"`
	PrepTimeMinutes    int                                    `json:"prepTime"`
	CookTimeMinutes    int                                    `json:"cookTime"`
	Servings           int                                    `json:"servings"`
	ImageURL           string                                 `gorm:"size:255" json:"imageUrl,omitempty"`
	Ingredients        datatypes.JSONSlice[Ingredient]        `json:"ingredients"`
	Steps              datatypes.JSONSlice[string]            `json:"steps"`
	Tags               datatypes.JSONSlice[string]            `json:"tags"`
	Nutrition          datatypes.JSONType[Nutrition]          `json:"nutrition"`
	IsPublic           bool                                   `gorm:"not null" json:"isPublic"`
	IsPublished        bool                                   `gorm:"not null" json:"isPublished"`
	AverageRating      float64                                `gorm:"not null;default:0" json:"averageRating"`
	TotalReviews       int                                    `gorm:"not null;default:0" json:"totalReviews"`
	RatingDistribution datatypes.JSONType[RatingDistribution] `json:"ratingDistribution"`
	CreatedBy          uuid.UUID                              `gorm:"type:varchar(36);index;not null" json:"createdBy"`
	CreatorRole        Role                                   `gorm:"size:20" json:"creatorRole"`
	Embedding          pgvector.Vector                        `gorm:"type:vector(64)" json:"-"`
}

// VisibleTo reports whether the recipe may be read by the given user.
// uuid.Nil stands for an anonymous caller.
func (r *Recipe) VisibleTo(userID uuid.UUID, role Role) bool {
	if r.IsPublic && r.IsPublished {
		return true
	}
	if userID == uuid.Nil {
		return false
	}
	return r.CreatedBy == userID || role.IsAdmin()
}

// EditableBy reports whether the user may modify or delete the recipe.
func (r *Recipe) EditableBy(userID uuid.UUID, role Role) bool {
	return r.CreatedBy == userID || role.IsAdmin()
}

// BeforeSave refreshes the search embedding from the recipe's text.
func (r *Recipe) BeforeSave(tx *gorm.DB) error {
	r.Embedding = embedding.Generate(r.SearchText())
	return nil
}

// SearchText is the text the embedding is computed from.
func (r *Recipe) SearchText() string {
	parts := []string{r.Title, r.Description, r.Category, r.Cuisine}
	parts = append(parts, r.Tags...)
	for _, ing := range r.Ingredients {
		parts = append(parts, ing.Name)
	}
	return strings.Join(parts, " ")
}

// TotalTimeMinutes is prep plus cook time.
func (r *Recipe) TotalTimeMinutes() int {
	return r.PrepTimeMinutes + r.CookTimeMinutes
}
