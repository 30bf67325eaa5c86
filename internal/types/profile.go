package types

import "github.com/pageza/mealplanner/backend/internal/models"

// UpdateProfileRequest patches the caller's profile. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name               *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Bio                *string  `json:"bio" binding:"omitempty,max=1000"`
	AvatarURL          *string  `json:"avatarUrl" binding:"omitempty,max=255"`
	DietaryPreferences []string `json:"dietaryPreferences"`
	Allergens          []string `json:"allergens"`
}

// UpdateRoleRequest is the body of PATCH /admin/users/:id/role.
type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=user admin super_admin"`
}

// UserFilter holds the query string of GET /admin/users.
type UserFilter struct {
	Search string      `form:"search"`
	Role   models.Role `form:"role"`
	PageQuery
}
