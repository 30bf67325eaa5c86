package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/mocks"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// envelope mirrors response.Envelope with Data left raw for typed decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	factory   *testhelpers.Factory
	auth      *service.AuthService
	email     *mocks.MockEmailService
	generator *mocks.MockTextGenerator
	storage   *mocks.MockObjectStorage
	calendar  *mocks.MockCalendarFactory
	cooking   *service.InteractionService
}

// newTestEnv wires the real services over an in-memory database. Only the
// third-party collaborators are mocked.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, types.RegisterValidators())

	db := testhelpers.SetupSQLite(t)
	log := zap.NewNop()
	m := metrics.New()

	email := new(mocks.MockEmailService)
	email.On("SendOTPEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	email.On("SendWelcomeEmail", mock.Anything).Return(nil).Maybe()

	otp := service.NewOTPService(db, 10*time.Minute, nil, log)
	auth := service.NewAuthService(db, config.AuthConfig{JWTSecret: "api-test-secret", TokenTTL: time.Hour}, otp, email, log)

	calendarFactory := new(mocks.MockCalendarFactory)
	calendarService := service.NewCalendarService(db, calendarFactory, "UTC", log, m)
	mealPlans := service.NewMealPlanService(db, calendarService, log)
	cooking := service.NewInteractionService(db, log, m)
	t.Cleanup(cooking.Wait)

	generator := new(mocks.MockTextGenerator)
	storage := new(mocks.MockObjectStorage)

	router := gin.New()
	RegisterRoutes(router, Dependencies{
		DB:        db,
		Metrics:   m,
		Log:       log,
		Auth:      auth,
		Users:     service.NewUserService(db, log),
		Recipes:   service.NewRecipeService(db, log),
		Favorites: service.NewFavoriteService(db, log),
		Reviews:   service.NewReviewService(db, log, m),
		MealPlans: mealPlans,
		Calendar:  calendarService,
		Cooking:   cooking,
		Chat:      service.NewChatService(db, generator, storage, mealPlans, log, m),
	})

	return &testEnv{
		router:    router,
		db:        db,
		factory:   testhelpers.NewFactory(db),
		auth:      auth,
		email:     email,
		generator: generator,
		storage:   storage,
		calendar:  calendarFactory,
		cooking:   cooking,
	}
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

// do sends a JSON request. body may be nil, a string (sent verbatim) or any
// value to marshal.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(t, req, token)
}

func (e *testEnv) serve(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if json.Valid(w.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "data: %s", env.Data)
	return out
}
