package service_test

import (
	"testing"

	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var nopLog = zap.NewNop()

func setup(t *testing.T) (*gorm.DB, *testhelpers.Factory) {
	t.Helper()
	db := testhelpers.SetupSQLite(t)
	return db, testhelpers.NewFactory(db)
}

func callerOf(u *models.User) service.Caller {
	return service.Caller{ID: u.ID, Role: u.Role}
}

// requireAppError asserts err is an *apperror.AppError with the given HTTP
// status and, when message is non-empty, that message.
func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	assert.Equal(t, status, appErr.StatusCode())
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func reload[T any](t *testing.T, db *gorm.DB, id interface{}) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, "id = ?", id).Error)
	return &out
}
