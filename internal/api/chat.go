package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/response"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
)

// ChatHandler serves the cooking assistant.
type ChatHandler struct {
	chatService service.IChatService
	tokens      middleware.TokenValidator
	limiter     *middleware.RateLimiter
	log         *zap.Logger
}

// NewChatHandler creates the chat handler. limiter may be nil.
func NewChatHandler(chatService service.IChatService, tokens middleware.TokenValidator, limiter *middleware.RateLimiter, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		tokens:      tokens,
		limiter:     limiter,
		log:         log,
	}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	chat.Use(middleware.AuthMiddleware(h.tokens))
	{
		chat.POST("/message", h.limiter.RateLimitMiddleware(h.log), h.SendMessage)
		chat.POST("/analyze-image", h.limiter.RateLimitMiddleware(h.log), h.AnalyzeImage)
		chat.GET("/sessions", h.ListSessions)
		chat.GET("/sessions/:id", h.GetSession)
		chat.DELETE("/sessions/:id", h.DeleteSession)
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req types.ChatMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), caller.ID, optionalUUID(req.SessionID), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", reply)
}

// AnalyzeImage accepts a multipart "image" file with optional "prompt" and "sessionId" fields.
// The content type is sniffed from the bytes rather than trusted from the client.
func (h *ChatHandler) AnalyzeImage(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, apperror.BadRequest("Image is required"))
		return
	}
	if file.Size > service.MaxChatImageBytes {
		response.Error(c, apperror.BadRequest(fmt.Sprintf("Image must be %dMB or smaller", service.MaxChatImageBytes>>20)))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxChatImageBytes+1))
	if err != nil {
		response.Error(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	sessionID := c.PostForm("sessionId")
	session := optionalUUID(sessionID)
	if sessionID != "" && session == nil {
		response.Error(c, apperror.BadRequest("Invalid chat session ID"))
		return
	}

	reply, err := h.chatService.AnalyzeImage(c.Request.Context(), caller.ID, session, c.PostForm("prompt"), data, http.DetectContentType(data))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", reply)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var page types.PageQuery
	if !bindQuery(c, &page) {
		return
	}

	sessions, err := h.chatService.ListSessions(c.Request.Context(), caller.ID, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", sessions)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id", "chat session")
	if !ok {
		return
	}

	session, err := h.chatService.GetSession(c.Request.Context(), caller.ID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", session)
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id", "chat session")
	if !ok {
		return
	}

	if err := h.chatService.DeleteSession(c.Request.Context(), caller.ID, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Chat session deleted", nil)
}
