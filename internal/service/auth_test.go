package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/mocks"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-0123456789abcdef0123"

// codeCatcher records the last OTP mailed per purpose.
type codeCatcher struct {
	codes map[models.OTPPurpose]string
}

func newAuthService(t *testing.T, db *gorm.DB) (*service.AuthService, *mocks.MockEmailService, *codeCatcher) {
	t.Helper()
	catcher := &codeCatcher{codes: map[models.OTPPurpose]string{}}
	email := new(mocks.MockEmailService)
	email.On("SendOTPEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			catcher.codes[args.Get(1).(models.OTPPurpose)] = args.String(2)
		}).
		Return(nil)
	email.On("SendWelcomeEmail", mock.Anything).Return(nil)

	otp := service.NewOTPService(db, 10*time.Minute, nil, nopLog)
	svc := service.NewAuthService(db, config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour}, otp, email, nopLog)
	return svc, email, catcher
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRegisterAndLogin(t *testing.T) {
	db, _ := setup(t)
	svc, _, catcher := newAuthService(t, db)
	ctx := context.Background()

	res, err := svc.Register(ctx, types.RegisterRequest{
		Name:               "Ada Lovelace",
		Email:              "  Ada@Example.com ",
		Password:           "correct-horse",
		DietaryPreferences: []string{"vegan", " Vegan ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.False(t, res.User.EmailVerified)
	assert.Equal(t, []string{"vegan"}, []string(res.User.DietaryPreferences))
	assert.Len(t, catcher.codes[models.OTPVerifyEmail], 6)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	_, err = svc.Register(ctx, types.RegisterRequest{Name: "Dup", Email: "ADA@example.com", Password: "another-pass"})
	requireAppError(t, err, http.StatusBadRequest, "An account with this email already exists")

	login, err := svc.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.NotNil(t, login.User.LastLoginAt)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")
}

func TestLoginDisabledAccount(t *testing.T) {
	db, f := setup(t)
	svc, _, _ := newAuthService(t, db)
	user := f.User(t)
	require.NoError(t, db.Model(user).UpdateColumn("is_active", false).Error)

	_, err := svc.Login(context.Background(), user.Email, "password123")
	requireAppError(t, err, http.StatusForbidden, "")
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	db, f := setup(t)
	svc, _, _ := newAuthService(t, db)
	user := f.User(t)

	other := service.NewAuthService(db, config.AuthConfig{JWTSecret: "a-different-secret"}, nil, nil, nopLog)
	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestVerifyEmail(t *testing.T) {
	db, _ := setup(t)
	svc, email, catcher := newAuthService(t, db)
	ctx := context.Background()

	res, err := svc.Register(ctx, types.RegisterRequest{Name: "Grace", Email: "grace@example.com", Password: "password-1"})
	require.NoError(t, err)
	code := catcher.codes[models.OTPVerifyEmail]

	_, err = svc.VerifyEmail(ctx, "grace@example.com", wrongCode(code))
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired code")

	user, err := svc.VerifyEmail(ctx, "grace@example.com", code)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	email.AssertCalled(t, "SendWelcomeEmail", mock.Anything)

	stored := reload[models.User](t, db, res.User.ID)
	assert.True(t, stored.EmailVerified)
	assert.Empty(t, stored.OTPSecret)

	// Unknown addresses are accepted silently.
	assert.NoError(t, svc.RequestEmailVerification(ctx, "ghost@example.com"))
}

func TestResetPassword(t *testing.T) {
	db, f := setup(t)
	svc, _, catcher := newAuthService(t, db)
	ctx := context.Background()
	user := f.User(t)

	require.NoError(t, svc.RequestPasswordReset(ctx, user.Email))
	code := catcher.codes[models.OTPResetPassword]
	require.Len(t, code, 6)

	err := svc.ResetPassword(ctx, user.Email, wrongCode(code), "brand-new-pass")
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired code")

	require.NoError(t, svc.ResetPassword(ctx, user.Email, code, "brand-new-pass"))
	_, err = svc.Login(ctx, user.Email, "brand-new-pass")
	require.NoError(t, err)

	// The code is single use.
	err = svc.ResetPassword(ctx, user.Email, code, "another-pass")
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired code")
}

func TestVerifyCodeForWrongPurpose(t *testing.T) {
	db, f := setup(t)
	svc, _, catcher := newAuthService(t, db)
	ctx := context.Background()
	user := f.User(t, func(u *models.User) { u.EmailVerified = false })

	require.NoError(t, svc.RequestPasswordReset(ctx, user.Email))
	_, err := svc.VerifyEmail(ctx, user.Email, catcher.codes[models.OTPResetPassword])
	requireAppError(t, err, http.StatusBadRequest, "Invalid or expired code")
}
