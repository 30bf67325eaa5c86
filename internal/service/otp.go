package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const otpIssuer = "MealPlanner"

// OTPService issues and checks the six-digit codes mailed for email
// verification and password reset. Each user holds at most one pending code.
type OTPService struct {
	db      *gorm.DB
	ttl     time.Duration
	limiter AttemptLimiter
	log     *zap.Logger
	now     func() time.Time
}

// NewOTPService creates the service. limiter may be nil.
func NewOTPService(db *gorm.DB, ttl time.Duration, limiter AttemptLimiter, log *zap.Logger) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPService{db: db, ttl: ttl, limiter: limiter, log: log, now: time.Now}
}

// TTL is how long an issued code stays valid.
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

func (s *OTPService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.ttl.Seconds()),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Issue creates a fresh secret for user and returns the current code.
func (s *OTPService) Issue(ctx context.Context, user *models.User, purpose models.OTPPurpose) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: user.Email,
		Period:      uint(s.ttl.Seconds()),
		SecretSize:  20,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}

	now := s.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, s.validateOpts())
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	expires := now.Add(s.ttl)
	if err := s.db.WithContext(ctx).Model(user).UpdateColumns(map[string]interface{}{
		"otp_secret":     key.Secret(),
		"otp_purpose":    purpose,
		"otp_expires_at": expires,
	}).Error; err != nil {
		return "", fmt.Errorf("failed to store otp secret: %w", err)
	}
	user.OTPSecret = key.Secret()
	user.OTPPurpose = purpose
	user.OTPExpiresAt = &expires

	return code, nil
}

// Verify checks code against the user's pending secret and consumes it on success.
func (s *OTPService) Verify(ctx context.Context, user *models.User, purpose models.OTPPurpose, code string) error {
	attemptKey := string(purpose) + ":" + user.Email
	if s.limiter != nil {
		allowed, _, _, err := s.limiter.IsAllowed(ctx, attemptKey)
		if err != nil {
			s.log.Warn("OTP attempt limiter unavailable", zap.Error(err))
		} else if !allowed {
			return apperror.TooManyRequests("Too many attempts, please request a new code later")
		}
	}

	now := s.now()
	if user.OTPSecret == "" || user.OTPPurpose != purpose || user.OTPExpiresAt == nil || now.After(*user.OTPExpiresAt) {
		return apperror.BadRequest("Invalid or expired code")
	}

	valid, err := totp.ValidateCustom(code, user.OTPSecret, now, s.validateOpts())
	if err != nil || !valid {
		return apperror.BadRequest("Invalid or expired code")
	}

	if err := s.db.WithContext(ctx).Model(user).UpdateColumns(map[string]interface{}{
		"otp_secret":     "",
		"otp_purpose":    "",
		"otp_expires_at": nil,
	}).Error; err != nil {
		return fmt.Errorf("failed to clear otp secret: %w", err)
	}
	user.OTPSecret = ""
	user.OTPPurpose = ""
	user.OTPExpiresAt = nil

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, attemptKey); err != nil {
			s.log.Warn("Failed to reset OTP attempts", zap.Error(err))
		}
	}
	return nil
}
