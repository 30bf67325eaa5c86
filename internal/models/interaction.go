package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InteractionStatus is the state of a cooking session.
type InteractionStatus string

const (
	StatusNotStarted        InteractionStatus = "not_started"
	StatusStartedCooking    InteractionStatus = "started_cooking"
	StatusCookingInProgress InteractionStatus = "cooking_in_progress"
	StatusCompleted         InteractionStatus = "completed"
	StatusDidntCook         InteractionStatus = "didnt_cook"
)

// Active reports whether the session still accepts step, complete and didn't-cook.
func (s InteractionStatus) Active() bool {
	return s == StatusStartedCooking || s == StatusCookingInProgress
}

// Terminal reports whether the session has ended.
func (s InteractionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDidntCook
}

// Action log entries.
const (
	ActionStarted       = "started"
	ActionResumed       = "resumed"
	ActionStepCompleted = "step_completed"
	ActionCompleted     = "completed"
	ActionDidntCook     = "didnt_cook"
)

type InteractionAction struct {
	Action string    `json:"action"`
	Step   *int      `json:"step,omitempty"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// RecipeInteraction is one cooking session of a user for a recipe.
type RecipeInteraction struct {
	Base
	UserID             uuid.UUID                              `gorm:"type:varchar(36);not null;index:idx_interactions_user_recipe" json:"userId"`
	RecipeID           uuid.UUID                              `gorm:"type:varchar(36);not null;index:idx_interactions_user_recipe" json:"recipeId"`
	MealPlanID         *uuid.UUID                             `gorm:"type:varchar(36)" json:"mealPlanId,omitempty"`
	MealDay            string                                 `gorm:"size:10" json:"mealDay,omitempty"`
	MealType           MealType                               `gorm:"size:20" json:"mealType,omitempty"`
	Status             InteractionStatus                      `gorm:"size:32;not null;index" json:"status"`
	StartedAt          time.Time                              `json:"startedAt"`
	CompletedAt        *time.Time                             `json:"completedAt,omitempty"`
	CookingTimeMinutes int                                    `json:"cookingTimeMinutes"`
	CurrentStep        int                                    `json:"currentStep"`
	TotalSteps         int                                    `json:"totalSteps"`
	IsVerifiedCook     bool                                   `gorm:"not null" json:"isVerifiedCook"`
	DidntCookReason    string                                 `gorm:"type:text" json:"didntCookReason,omitempty"`
	Notes              string                                 `gorm:"type:text" json:"notes,omitempty"`
	Actions            datatypes.JSONSlice[InteractionAction] `json:"actions"`
	Recipe             *Recipe                                `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`
}

// Record appends an entry to the action log.
func (i *RecipeInteraction) Record(action string, step *int, note string, at time.Time) {
	i.Actions = append(i.Actions, InteractionAction{Action: action, Step: step, Note: note, At: at})
}

// FromMealPlan reports whether the session was started from a meal plan.
// MealDay and MealType may be empty when the caller named only the plan.
func (i *RecipeInteraction) FromMealPlan() bool {
	return i.MealPlanID != nil
}
