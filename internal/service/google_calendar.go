package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendarFactory builds Calendar API clients from stored OAuth tokens.
type GoogleCalendarFactory struct {
	oauthConfig *oauth2.Config
}

func NewGoogleCalendarFactory(cfg config.CalendarConfig) *GoogleCalendarFactory {
	return &GoogleCalendarFactory{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarEventsScope},
		},
	}
}

func (f *GoogleCalendarFactory) Client(ctx context.Context, creds models.CalendarCredentials) (CalendarClient, error) {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
		TokenType:    "Bearer",
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(f.oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return &googleCalendarClient{svc: svc}, nil
}

type googleCalendarClient struct {
	svc *calendar.Service
}

func (c *googleCalendarClient) InsertEvent(ctx context.Context, calendarID string, event CalendarEvent) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent treats events that are already gone as deleted.
func (c *googleCalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", eventID, err)
	}
	return nil
}
