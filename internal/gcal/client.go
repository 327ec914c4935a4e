package gcal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rdvline/booking-server/internal/booking"
	"github.com/rdvline/booking-server/pkg/logging"
)

// NewOAuthConfig builds the Google OAuth2 config requesting offline access
// to the calendar scope.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// Provider builds calendar clients from the persisted token. Implements
// booking.CalendarProvider.
type Provider struct {
	oauth      *oauth2.Config
	store      *TokenStore
	calendarID string
	logger     *logging.Logger
}

// NewProvider creates a Provider reading credentials from store.
func NewProvider(oauthCfg *oauth2.Config, store *TokenStore, calendarID string, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Default()
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Provider{
		oauth:      oauthCfg,
		store:      store,
		calendarID: calendarID,
		logger:     logger,
	}
}

// Calendar returns a client backed by the stored token, refreshing and
// re-persisting it as needed. booking.ErrNotAuthenticated when the consent
// flow has not run yet.
func (p *Provider) Calendar(ctx context.Context) (booking.CalendarClient, error) {
	tok, err := p.store.Load()
	if errors.Is(err, ErrNoCredentials) {
		return nil, booking.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	ts := &persistingTokenSource{
		src:    p.oauth.TokenSource(ctx, tok),
		store:  p.store,
		oauth:  p.oauth,
		last:   tok.AccessToken,
		logger: p.logger,
	}
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewClient(svc, p.calendarID), nil
}

// persistingTokenSource writes refreshed tokens back to the store so the
// next process start does not need a fresh consent flow.
type persistingTokenSource struct {
	src    oauth2.TokenSource
	store  *TokenStore
	oauth  *oauth2.Config
	logger *logging.Logger

	mu   sync.Mutex
	last string
}

func (ts *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.src.Token()
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if tok.AccessToken != ts.last {
		ts.last = tok.AccessToken
		if err := ts.store.Save(ts.oauth, tok); err != nil {
			ts.logger.Warn("failed to persist refreshed token", "error", err)
		} else {
			ts.logger.Info("refreshed calendar token persisted")
		}
	}
	return tok, nil
}

// Client wraps the Calendar API for one calendar. Implements
// booking.CalendarClient.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient wraps an existing calendar service. Exposed so tests can point
// the service at a fake API endpoint.
func NewClient(svc *calendar.Service, calendarID string) *Client {
	return &Client{svc: svc, calendarID: calendarID}
}

// CountOverlapping returns how many existing events overlap [start, end).
// Recurring events are expanded to single instances, matching how occupancy
// is counted when bookings are made by hand.
func (c *Client) CountOverlapping(ctx context.Context, start, end time.Time) (int, error) {
	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	return len(events.Items), nil
}

// CreateEvent inserts the booking event.
func (c *Client) CreateEvent(ctx context.Context, req booking.EventRequest) (*booking.CreatedEvent, error) {
	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
	}
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &booking.CreatedEvent{ID: created.Id, Link: created.HtmlLink}, nil
}
