package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/models"
	"google.golang.org/genai"
)

// ChatTurn is one earlier message replayed to the model as context.
type ChatTurn struct {
	Role    string
	Content string
}

// GeminiGenerator answers chat and vision requests with the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	textModel   string
	visionModel string
}

func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiGenerator{client: client, textModel: cfg.TextModel, visionModel: cfg.VisionModel}, nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt string, history []ChatTurn, message string) (string, error) {
	content := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == models.ChatRoleAssistant {
			role = genai.RoleModel
		}
		content = append(content, genai.NewContentFromText(turn.Content, genai.Role(role)))
	}
	content = append(content, genai.NewContentFromText(message, genai.RoleUser))

	res, err := g.client.Models.GenerateContent(ctx, g.textModel, content, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleModel),
	})
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return responseText(res)
}

func (g *GeminiGenerator) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	content := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.visionModel, content, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(visionSystemPrompt, genai.RoleModel),
	})
	if err != nil {
		return "", fmt.Errorf("analyzing image: %w", err)
	}
	return responseText(res)
}

func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.New("model returned no candidates")
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("model returned an empty response")
	}
	return text, nil
}
