// Package mocks holds testify mocks of the service layer and its collaborators.
package mocks

import (
	"context"
	"time"

	"github.com/pageza/mealplanner/backend/internal/models"
	"github.com/pageza/mealplanner/backend/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTextGenerator is a mock implementation of service.TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateText(ctx context.Context, systemPrompt string, history []service.ChatTurn, message string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, message)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, prompt, image, mimeType)
	return args.String(0), args.Error(1)
}

// MockObjectStorage is a mock implementation of service.ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

// MockCalendarClient is a mock implementation of service.CalendarClient
type MockCalendarClient struct {
	mock.Mock
}

func (m *MockCalendarClient) InsertEvent(ctx context.Context, calendarID string, event service.CalendarEvent) (string, error) {
	args := m.Called(ctx, calendarID, event)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	args := m.Called(ctx, calendarID, eventID)
	return args.Error(0)
}

// MockCalendarFactory is a mock implementation of service.CalendarClientFactory
type MockCalendarFactory struct {
	mock.Mock
}

func (m *MockCalendarFactory) Client(ctx context.Context, creds models.CalendarCredentials) (service.CalendarClient, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.CalendarClient), args.Error(1)
}

// MockEmailService is a mock implementation of service.IEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendEmail(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func (m *MockEmailService) SendOTPEmail(user *models.User, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	args := m.Called(user, purpose, code, ttl)
	return args.Error(0)
}

func (m *MockEmailService) SendWelcomeEmail(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

var (
	_ service.TextGenerator         = (*MockTextGenerator)(nil)
	_ service.ObjectStorage         = (*MockObjectStorage)(nil)
	_ service.CalendarClient        = (*MockCalendarClient)(nil)
	_ service.CalendarClientFactory = (*MockCalendarFactory)(nil)
	_ service.IEmailService         = (*MockEmailService)(nil)
	_ service.IAuthService          = (*MockAuthService)(nil)
	_ service.IRecipeService        = (*MockRecipeService)(nil)
)
