package models

import (
	"time"

	"gorm.io/datatypes"
)

// Role is the authorization level carried in access tokens.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin is true for admin and super_admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// OTPPurpose scopes a one-time code to the flow that issued it.
type OTPPurpose string

const (
	OTPVerifyEmail   OTPPurpose = "verify_email"
	OTPResetPassword OTPPurpose = "reset_password"
)

type User struct {
	Base
	Name               string                      `gorm:"size:100;not null" json:"name"`
	Email              string                      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash       string                      `gorm:"not null" json:"-"`
	Role               Role                        `gorm:"size:20;not null;default:'user'" json:"role"`
	Bio                string                      `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL          string                      `gorm:"size:255" json:"avatarUrl,omitempty"`
	DietaryPreferences datatypes.JSONSlice[string] `json:"dietaryPreferences"`
	Allergens          datatypes.JSONSlice[string] `json:"allergens"`
	EmailVerified      bool                        `gorm:"not null;default:false" json:"emailVerified"`
	EmailVerifiedAt    *time.Time                  `json:"emailVerifiedAt,omitempty"`
	IsActive           bool                        `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt        *time.Time                  `json:"lastLoginAt,omitempty"`

	OTPSecret    string     `gorm:"size:64" json:"-"`
	OTPPurpose   OTPPurpose `gorm:"size:32" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	CalendarAccessToken  string     `gorm:"type:text" json:"-"`
	CalendarRefreshToken string     `gorm:"type:text" json:"-"`
	CalendarTokenExpiry  *time.Time `json:"-"`
}

// CalendarCredentials are the OAuth tokens a user granted for calendar sync.
type CalendarCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// CalendarTokens returns the stored OAuth tokens, if any.
func (u *User) CalendarTokens() (CalendarCredentials, bool) {
	if u.CalendarAccessToken == "" && u.CalendarRefreshToken == "" {
		return CalendarCredentials{}, false
	}
	creds := CalendarCredentials{
		AccessToken:  u.CalendarAccessToken,
		RefreshToken: u.CalendarRefreshToken,
	}
	if u.CalendarTokenExpiry != nil {
		creds.Expiry = *u.CalendarTokenExpiry
	}
	return creds, true
}
