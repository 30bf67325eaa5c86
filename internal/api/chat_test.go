package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func imageRequest(t *testing.T, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/analyze-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestChatMessageAndSessions(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t)
	token := env.token(t, user)

	env.generator.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, "How do I braise short ribs?").
		Return("Low and slow.", nil).Once()

	w, resp := env.do(t, http.MethodPost, "/api/v1/chat/message", token, gin.H{"message": "How do I braise short ribs?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[service.ChatReply](t, resp)
	assert.Equal(t, models.ModeGeneralCooking, reply.Mode)
	assert.Equal(t, "Low and slow.", reply.Message.Content)

	w, resp = env.do(t, http.MethodPost, "/api/v1/chat/message", token, gin.H{"message": "Show me my favorites", "sessionId": reply.SessionID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "You have no favorite recipes yet.", decode[service.ChatReply](t, resp).Message.Content)

	w, resp = env.do(t, http.MethodPost, "/api/v1/chat/message", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message is required", resp.Message)

	w, resp = env.do(t, http.MethodGet, "/api/v1/chat/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[types.Page[models.ChatSession]](t, resp).Items, 1)

	sessionPath := "/api/v1/chat/sessions/" + reply.SessionID.String()
	w, resp = env.do(t, http.MethodGet, sessionPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.ChatSession](t, resp).Messages, 4)

	w, resp = env.do(t, http.MethodGet, sessionPath, env.token(t, env.factory.User(t)), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Chat session not found", resp.Error)

	w, resp = env.do(t, http.MethodDelete, sessionPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chat session deleted", resp.Message)

	w, _ = env.do(t, http.MethodGet, sessionPath, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env.generator.AssertExpectations(t)
}

func TestAnalyzeImageUpload(t *testing.T) {
	env := newTestEnv(t)
	user := env.factory.User(t)
	token := env.token(t, user)

	env.storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "chat-images/"+user.ID.String()+"/") && strings.HasSuffix(key, ".png")
	}), "image/png", pngHeader).Return("https://cdn.example.com/chat.png", nil).Once()
	env.generator.On("AnalyzeImage", mock.Anything, "What can I make?", pngHeader, "image/png").
		Return("A tomato salad.", nil).Once()

	w, resp := env.serve(t, imageRequest(t, map[string]string{"prompt": "What can I make?"}, "photo.png", pngHeader), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[service.ChatReply](t, resp)
	assert.Equal(t, models.ModeImageAnalysis, reply.Mode)
	assert.Equal(t, "https://cdn.example.com/chat.png", reply.UserMessage.ImageURL)
	assert.Equal(t, "A tomato salad.", reply.Message.Content)

	t.Run("rejects non-image content", func(t *testing.T) {
		w, resp := env.serve(t, imageRequest(t, nil, "photo.png", []byte("just some text")), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Image must be a JPEG, PNG or WebP file", resp.Error)
	})

	t.Run("requires a file", func(t *testing.T) {
		w, resp := env.serve(t, imageRequest(t, map[string]string{"prompt": "hi"}, "", nil), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Image is required", resp.Error)
	})

	t.Run("rejects a malformed session id", func(t *testing.T) {
		w, resp := env.serve(t, imageRequest(t, map[string]string{"sessionId": "nope"}, "photo.png", pngHeader), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid chat session ID", resp.Error)
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, service.MaxChatImageBytes)...)
		w, resp := env.serve(t, imageRequest(t, nil, "big.png", big), token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Image must be 5MB or smaller", resp.Error)
	})

	env.storage.AssertExpectations(t)
	env.generator.AssertExpectations(t)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	}
}
