package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/apperror"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/metrics"
	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	chatHistoryLimit   = 10
	chatTitleLength    = 60
	summaryListLimit   = 10
	MaxChatImageBytes  = 5 << 20
	defaultImagePrompt = "What is in this image and what could I cook with it?"

	generalSystemPrompt = "You are a friendly cooking assistant. Answer questions about cooking techniques, " +
		"ingredients, substitutions and food safety concisely. If a question is unrelated to food or cooking, " +
		"politely steer the conversation back to cooking."
	smartSystemPrompt = "You are a meal-planning assistant. Use the user's context below to tailor recipes, " +
		"meal plans and shopping suggestions. Never include ingredients the user is allergic to."
	visionSystemPrompt = "You are a cooking assistant looking at a photo a user uploaded. Identify the dish or " +
		"ingredients shown and offer practical cooking suggestions."
)

// AllowedImageTypes maps accepted upload content types to file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var errAssistantUnavailable = errors.New("no text generator configured")

// ChatReply is the result of one exchange with the assistant.
type ChatReply struct {
	SessionID   uuid.UUID           `json:"sessionId"`
	Mode        models.ChatMode     `json:"mode"`
	UserMessage *models.ChatMessage `json:"userMessage"`
	Message     *models.ChatMessage `json:"message"`
}

type ChatService struct {
	db        *gorm.DB
	generator TextGenerator
	storage   ObjectStorage
	plans     *MealPlanService
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewChatService builds the assistant. generator and storage may be nil; the
// affected features then report an external service error.
func NewChatService(db *gorm.DB, generator TextGenerator, storage ObjectStorage, plans *MealPlanService, log *zap.Logger, m *metrics.Metrics) *ChatService {
	return &ChatService{
		db:        db,
		generator: generator,
		storage:   storage,
		plans:     plans,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// SendMessage stores the user's message, answers it according to its intent
// and stores the answer.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.BadRequest("Message cannot be empty")
	}

	session, err := s.openSession(ctx, userID, sessionID, message)
	if err != nil {
		return nil, err
	}
	history, err := s.recentTurns(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	mode := ClassifyIntent(message)
	userMsg, err := s.store(ctx, session, models.ChatRoleUser, message, mode, "")
	if err != nil {
		return nil, err
	}

	var answer string
	switch mode {
	case models.ModeDatabase:
		answer, err = s.databaseSummary(ctx, userID, message)
	case models.ModeSmartRequest:
		answer, err = s.smartRequest(ctx, userID, message)
	default:
		answer, err = s.generate(ctx, generalSystemPrompt, history, message)
	}
	if err != nil {
		return nil, err
	}

	reply, err := s.store(ctx, session, models.ChatRoleAssistant, answer, mode, "")
	if err != nil {
		return nil, err
	}
	s.metrics.ChatMessage(string(mode))
	return &ChatReply{SessionID: session.ID, Mode: mode, UserMessage: userMsg, Message: reply}, nil
}

// AnalyzeImage uploads a photo and asks the vision model about it.
func (s *ChatService) AnalyzeImage(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, prompt string, image []byte, contentType string) (*ChatReply, error) {
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, apperror.BadRequest("Image must be a JPEG, PNG or WebP file")
	}
	if len(image) == 0 {
		return nil, apperror.BadRequest("Image is required")
	}
	if len(image) > MaxChatImageBytes {
		return nil, apperror.BadRequest("Image must be 5MB or smaller")
	}
	if s.storage == nil {
		return nil, apperror.ExternalService("image storage", errors.New("no object storage configured"))
	}
	if s.generator == nil {
		return nil, apperror.ExternalService("AI assistant", errAssistantUnavailable)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = defaultImagePrompt
	}

	// An existing session is checked before the upload so a bad id stores nothing.
	var session *models.ChatSession
	if sessionID != nil {
		found, err := s.findSession(ctx, userID, *sessionID)
		if err != nil {
			return nil, err
		}
		session = found
	}

	key := path.Join("chat-images", userID.String(), uuid.NewString()+ext)
	url, err := s.storage.Upload(ctx, key, contentType, image)
	if err != nil {
		return nil, apperror.ExternalService("image storage", err)
	}

	if session == nil {
		if session, err = s.openSession(ctx, userID, nil, prompt); err != nil {
			return nil, err
		}
	}
	userMsg, err := s.store(ctx, session, models.ChatRoleUser, prompt, models.ModeImageAnalysis, url)
	if err != nil {
		return nil, err
	}

	answer, err := s.generator.AnalyzeImage(ctx, prompt, image, contentType)
	if err != nil {
		return nil, apperror.ExternalService("AI assistant", err)
	}
	reply, err := s.store(ctx, session, models.ChatRoleAssistant, answer, models.ModeImageAnalysis, "")
	if err != nil {
		return nil, err
	}
	s.metrics.ChatMessage(string(models.ModeImageAnalysis))
	return &ChatReply{SessionID: session.ID, Mode: models.ModeImageAnalysis, UserMessage: userMsg, Message: reply}, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID, q types.PageQuery) (types.Page[models.ChatSession], error) {
	page := q.Normalize()
	query := s.db.WithContext(ctx).Model(&models.ChatSession{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return types.Page[models.ChatSession]{}, fmt.Errorf("failed to count chat sessions: %w", err)
	}
	var sessions []models.ChatSession
	if err := query.Order("last_message_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&sessions).Error; err != nil {
		return types.Page[models.ChatSession]{}, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return types.NewPage(sessions, page, total), nil
}

// GetSession returns a session with all of its messages in order.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if database.IsNotFound(err) {
		return nil, apperror.NotFound("Chat session")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.findSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}
		if err := tx.Delete(session).Error; err != nil {
			return fmt.Errorf("failed to delete chat session: %w", err)
		}
		return nil
	})
}

func (s *ChatService) findSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if database.IsNotFound(err) {
		return nil, apperror.NotFound("Chat session")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	return &session, nil
}

func (s *ChatService) openSession(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID, firstMessage string) (*models.ChatSession, error) {
	if sessionID != nil {
		return s.findSession(ctx, userID, *sessionID)
	}
	session := models.ChatSession{
		UserID:        userID,
		Title:         truncate(firstMessage, chatTitleLength),
		LastMessageAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return &session, nil
}

func (s *ChatService) store(ctx context.Context, session *models.ChatSession, role, content string, mode models.ChatMode, imageURL string) (*models.ChatMessage, error) {
	now := s.now().UTC()
	msg := models.ChatMessage{
		SessionID: session.ID,
		Role:      role,
		Content:   content,
		Mode:      mode,
		ImageURL:  imageURL,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}
	session.LastMessageAt = now
	if err := s.db.WithContext(ctx).Model(session).UpdateColumn("last_message_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update chat session: %w", err)
	}
	return &msg, nil
}

// recentTurns returns the session's last messages, oldest first.
func (s *ChatService) recentTurns(ctx context.Context, sessionID uuid.UUID) ([]ChatTurn, error) {
	var messages []models.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(chatHistoryLimit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	turns := make([]ChatTurn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		turns = append(turns, ChatTurn{Role: messages[i].Role, Content: messages[i].Content})
	}
	return turns, nil
}

func (s *ChatService) generate(ctx context.Context, systemPrompt string, history []ChatTurn, message string) (string, error) {
	if s.generator == nil {
		return "", apperror.ExternalService("AI assistant", errAssistantUnavailable)
	}
	answer, err := s.generator.GenerateText(ctx, systemPrompt, history, message)
	if err != nil {
		return "", apperror.ExternalService("AI assistant", err)
	}
	return answer, nil
}

// smartRequest asks the model with the user's preferences and favorites as context.
func (s *ChatService) smartRequest(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	var favorites []models.Favorite
	if err := s.db.WithContext(ctx).Preload("Recipe").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(summaryListLimit).
		Find(&favorites).Error; err != nil {
		return "", fmt.Errorf("failed to load favorites: %w", err)
	}

	var b strings.Builder
	b.WriteString(smartSystemPrompt)
	b.WriteString("\n\nUser context:\n")
	fmt.Fprintf(&b, "- Dietary preferences: %s\n", listOrNone(user.DietaryPreferences))
	fmt.Fprintf(&b, "- Allergens: %s\n", listOrNone(user.Allergens))
	titles := make([]string, 0, len(favorites))
	for _, f := range favorites {
		if f.Recipe != nil {
			titles = append(titles, f.Recipe.Title)
		}
	}
	fmt.Fprintf(&b, "- Favorite recipes: %s\n", listOrNone(titles))

	return s.generate(ctx, b.String(), nil, message)
}

// databaseSummary answers questions about the user's own data without the model.
func (s *ChatService) databaseSummary(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	db := s.db.WithContext(ctx)
	switch DetectEntity(message) {
	case EntityFavorite:
		var favorites []models.Favorite
		if err := db.Preload("Recipe").Where("user_id = ?", userID).Order("created_at DESC").Find(&favorites).Error; err != nil {
			return "", fmt.Errorf("failed to load favorites: %w", err)
		}
		if len(favorites) == 0 {
			return "You have no favorite recipes yet.", nil
		}
		titles := make([]string, 0, len(favorites))
		for _, f := range favorites {
			if f.Recipe != nil {
				titles = append(titles, f.Recipe.Title)
			}
		}
		return fmt.Sprintf("You have %d favorite recipes:\n%s", len(favorites), bulletList(titles, summaryListLimit)), nil

	case EntityMealPlan:
		plan, err := s.latestPlan(ctx, userID)
		if err != nil || plan == nil {
			return "You don't have any meal plans yet.", err
		}
		var lines []string
		plan.Grid().Each(func(day string, slot models.MealType, meal *models.PlannedMeal) {
			lines = append(lines, fmt.Sprintf("%s %s: %s", day, slot, meal.RecipeTitle))
		})
		if len(lines) == 0 {
			return fmt.Sprintf("Your meal plan for the week of %s has no meals yet.", plan.WeekStartDate), nil
		}
		return fmt.Sprintf("Your meal plan for the week of %s (%s) has %d meals:\n%s",
			plan.WeekStartDate, plan.Status, len(lines), bulletList(lines, len(lines))), nil

	case EntityShoppingList:
		plan, err := s.latestPlan(ctx, userID)
		if err != nil || plan == nil {
			return "You don't have a meal plan to build a shopping list from.", err
		}
		items, err := s.plans.shoppingItems(ctx, plan)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return fmt.Sprintf("The shopping list for the week of %s is empty.", plan.WeekStartDate), nil
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, formatShoppingLine(item))
		}
		return fmt.Sprintf("Your shopping list for the week of %s has %d items:\n%s",
			plan.WeekStartDate, len(items), bulletList(lines, len(lines))), nil

	case EntityReview:
		var reviews []models.Review
		if err := db.Preload("Recipe").Where("user_id = ?", userID).Order("created_at DESC").Find(&reviews).Error; err != nil {
			return "", fmt.Errorf("failed to load reviews: %w", err)
		}
		if len(reviews) == 0 {
			return "You haven't reviewed any recipes yet.", nil
		}
		lines := make([]string, 0, len(reviews))
		for _, r := range reviews {
			title := "Deleted recipe"
			if r.Recipe != nil {
				title = r.Recipe.Title
			}
			lines = append(lines, fmt.Sprintf("%s: %d/5", title, r.Rating))
		}
		return fmt.Sprintf("You have written %d reviews:\n%s", len(reviews), bulletList(lines, summaryListLimit)), nil

	case EntityCookingHistory:
		var sessions []models.RecipeInteraction
		if err := db.Preload("Recipe").Where("user_id = ? AND status = ?", userID, models.StatusCompleted).
			Order("completed_at DESC").Find(&sessions).Error; err != nil {
			return "", fmt.Errorf("failed to load cooking history: %w", err)
		}
		if len(sessions) == 0 {
			return "You haven't completed any cooking sessions yet.", nil
		}
		total := 0
		lines := make([]string, 0, len(sessions))
		for _, i := range sessions {
			total += i.CookingTimeMinutes
			if i.Recipe != nil {
				lines = append(lines, fmt.Sprintf("%s (%d min)", i.Recipe.Title, i.CookingTimeMinutes))
			}
		}
		return fmt.Sprintf("You have cooked %d times for a total of %d minutes:\n%s",
			len(sessions), total, bulletList(lines, summaryListLimit)), nil

	default:
		var recipes []models.Recipe
		if err := db.Where("created_by = ?", userID).Order("created_at DESC").Find(&recipes).Error; err != nil {
			return "", fmt.Errorf("failed to load recipes: %w", err)
		}
		if len(recipes) == 0 {
			return "You haven't created any recipes yet.", nil
		}
		titles := make([]string, 0, len(recipes))
		for _, r := range recipes {
			titles = append(titles, r.Title)
		}
		return fmt.Sprintf("You have created %d recipes:\n%s", len(recipes), bulletList(titles, summaryListLimit)), nil
	}
}

// latestPlan returns the user's most recent plan, or nil when there is none.
func (s *ChatService) latestPlan(ctx context.Context, userID uuid.UUID) (*models.MealPlan, error) {
	var plan models.MealPlan
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("week_start_date DESC").First(&plan).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	return &plan, nil
}

func bulletList(lines []string, limit int) string {
	var b strings.Builder
	for i, line := range lines {
		if i == limit {
			fmt.Fprintf(&b, "\n- ...and %d more", len(lines)-limit)
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + line)
	}
	return b.String()
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
