package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/server"
	"github.com/pageza/mealplanner/backend/internal/testhelpers"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// setupRedis starts a throwaway Redis and returns a connected client.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := database.NewRedisClient(config.RedisConfig{Host: host, Port: port.Port()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *apiClient) call(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func field[T any](t *testing.T, env envelope, name string) T {
	t.Helper()
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &data), "data: %s", env.Data)
	var out T
	require.NoError(t, json.Unmarshal(data[name], &out), "field %s", name)
	return out
}

// TestMealPlanningAgainstPostgres drives a user from registration to a
// shopping list on Postgres with pgvector and Redis-backed rate limits.
func TestMealPlanningAgainstPostgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupPostgres(t)
	rdb := setupRedis(t)

	cfg := &config.Config{
		Environment: config.Test,
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Auth:        config.AuthConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour, OTPTTL: 10 * time.Minute},
		RateLimit:   config.RateLimitConfig{ChatPerHour: 5, RecipePerHour: 2},
	}
	srv, err := server.New(context.Background(), cfg, db, rdb, zap.NewNop())
	require.NoError(t, err)
	client := &apiClient{t: t, handler: srv.Handler()}

	status, resp := client.call(http.MethodPost, "/api/v1/auth/register", gin.H{
		"name": "Integration Cook", "email": "cook@example.com", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	client.token = field[string](t, resp, "token")

	recipe := func(title, ingredient string) gin.H {
		return gin.H{
			"title":       title,
			"description": "A hearty " + title,
			"category":    "Dinner",
			"servings":    2,
			"ingredients": []gin.H{{"name": ingredient, "quantity": 1, "unit": "kg", "category": "produce"}},
			"steps":       []string{"Prep", "Cook"},
		}
	}

	status, resp = client.call(http.MethodPost, "/api/v1/recipes", recipe("Tomato Soup", "Tomatoes"))
	require.Equal(t, http.StatusCreated, status, resp.Error)
	soupID := field[string](t, resp, "id")

	status, _ = client.call(http.MethodPost, "/api/v1/recipes", recipe("Potato Gratin", "Potatoes"))
	require.Equal(t, http.StatusCreated, status)

	status, resp = client.call(http.MethodPost, "/api/v1/recipes", recipe("Leek Pie", "Leeks"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, resp.Error, "rate limit")

	status, resp = client.call(http.MethodGet, "/api/v1/recipes?search=tomato%20soup", nil)
	require.Equal(t, http.StatusOK, status, resp.Error)
	items := field[[]map[string]interface{}](t, resp, "items")
	require.NotEmpty(t, items)
	assert.Equal(t, "Tomato Soup", items[0]["title"])

	status, _ = client.call(http.MethodPost, "/api/v1/favorites", gin.H{"recipeId": soupID})
	require.Equal(t, http.StatusCreated, status)

	status, resp = client.call(http.MethodPost, "/api/v1/meal-planner", gin.H{
		"weekStartDate": "2024-03-11",
		"meals": gin.H{
			"monday":  gin.H{"dinner": gin.H{"recipeId": soupID, "servings": 4}},
			"tuesday": gin.H{"lunch": gin.H{"recipeId": soupID, "servings": 2}},
		},
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	planID := field[string](t, resp, "id")

	status, resp = client.call(http.MethodGet, "/api/v1/meal-planner/"+planID+"/shopping-list", nil)
	require.Equal(t, http.StatusOK, status, resp.Error)
	shopping := field[[]map[string]interface{}](t, resp, "items")
	require.Len(t, shopping, 1)
	assert.Equal(t, 3.0, shopping[0]["quantity"])
}
