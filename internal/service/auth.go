package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "mealplanner"

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	otp       *OTPService
	email     IEmailService
	log       *zap.Logger
}

func NewAuthService(db *gorm.DB, cfg config.AuthConfig, otp *OTPService, email IEmailService, log *zap.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		db:        db,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		otp:       otp,
		email:     email,
		log:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("An account with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleUser,
		DietaryPreferences: cleanList(req.DietaryPreferences),
		Allergens:          cleanList(req.Allergens),
		IsActive:           true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("An account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendCode(ctx, &user, models.OTPVerifyEmail); err != nil {
		s.log.Warn("Failed to send verification code", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return s.authResponse(&user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperror.Forbidden("Account is disabled")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		s.log.Warn("Failed to record login time", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now

	return s.authResponse(&user)
}

func (s *AuthService) authResponse(user *models.User) (*types.AuthResponse, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &types.AuthResponse{Token: token, User: user}, nil
}

// GenerateToken signs an HS256 access token carrying the user's id and role.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || !claims.Role.Valid() {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequestEmailVerification mails a new code. Unknown or already verified
// addresses succeed silently so the endpoint cannot be used to discover accounts.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil || user == nil || user.EmailVerified {
		return err
	}
	return s.sendCode(ctx, user, models.OTPVerifyEmail)
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.BadRequest("Invalid or expired code")
	}
	if user.EmailVerified {
		return user, nil
	}

	if err := s.otp.Verify(ctx, user, models.OTPVerifyEmail, code); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(user).UpdateColumns(map[string]interface{}{
		"email_verified":    true,
		"email_verified_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	user.EmailVerified = true
	user.EmailVerifiedAt = &now

	if err := s.email.SendWelcomeEmail(user); err != nil {
		s.log.Warn("Failed to send welcome email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil || user == nil {
		return err
	}
	return s.sendCode(ctx, user, models.OTPResetPassword)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.BadRequest("Invalid or expired code")
	}

	if err := s.otp.Verify(ctx, user, models.OTPResetPassword, code); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("password_hash", string(hashedPassword)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) sendCode(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	code, err := s.otp.Issue(ctx, user, purpose)
	if err != nil {
		return err
	}
	return s.email.SendOTPEmail(user, purpose, code, s.otp.TTL())
}

// cleanList trims entries and drops blanks and duplicates.
func cleanList(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
