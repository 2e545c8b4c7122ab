// Package google implements the generic mail/calendar provider: OAuth2
// refresh with client credentials in the POST body, upcoming event listing
// from the primary calendar, and calendar writes keyed by a private
// extended property marker.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-meetsync/core"
	"github.com/goliatone/go-meetsync/transport"
)

const (
	ProviderID             = core.ProviderGoogle
	DefaultTokenURL        = "https://oauth2.googleapis.com/token"
	DefaultRevokeURL       = "https://oauth2.googleapis.com/revoke"
	DefaultCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
)

const maxEventPageSize = 100

type Config struct {
	ClientID        string
	ClientSecret    string
	TokenURL        string
	RevokeURL       string
	CalendarAPIBase string
	Transport       core.TransportAdapter
}

type Provider struct {
	clientID     string
	clientSecret string
	tokenURL     string
	revokeURL    string
	apiBase      string
	transport    core.TransportAdapter
}

func DefaultConfig() Config {
	return Config{
		TokenURL:        DefaultTokenURL,
		RevokeURL:       DefaultRevokeURL,
		CalendarAPIBase: DefaultCalendarAPIBase,
	}
}

func New(cfg Config) (*Provider, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = defaults.TokenURL
	}
	if strings.TrimSpace(cfg.RevokeURL) == "" {
		cfg.RevokeURL = defaults.RevokeURL
	}
	if strings.TrimSpace(cfg.CalendarAPIBase) == "" {
		cfg.CalendarAPIBase = defaults.CalendarAPIBase
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("providers/google: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("providers/google: client secret is required")
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Provider{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		tokenURL:     strings.TrimSpace(cfg.TokenURL),
		revokeURL:    strings.TrimSpace(cfg.RevokeURL),
		apiBase:      strings.TrimRight(strings.TrimSpace(cfg.CalendarAPIBase), "/"),
		transport:    adapter,
	}, nil
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (core.TokenRefreshResult, error) {
	if p == nil || p.transport == nil {
		return core.TokenRefreshResult{}, fmt.Errorf("providers/google: provider transport is not configured")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     p.tokenURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	})
	if err != nil {
		return core.TokenRefreshResult{}, err
	}
	if !is2xx(res.StatusCode) {
		return core.TokenRefreshResult{}, core.RefreshFailedError(ProviderID, res.StatusCode, string(res.Body))
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return core.TokenRefreshResult{}, core.RefreshFailedError(ProviderID, res.StatusCode, "malformed token response")
	}
	return core.TokenRefreshResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        payload.Scope,
	}, nil
}

func (p *Provider) RevokeToken(ctx context.Context, refreshToken string) error {
	if p == nil || p.transport == nil {
		return fmt.Errorf("providers/google: provider transport is not configured")
	}
	form := url.Values{}
	form.Set("token", refreshToken)
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     p.revokeURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	})
	if err != nil {
		return err
	}
	if !is2xx(res.StatusCode) {
		return core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}
	return nil
}

type calendarEvent struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Summary string `json:"summary"`
	Start   struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"end"`
	HangoutLink string `json:"hangoutLink"`
}

func (p *Provider) ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]core.NormalizedEvent, error) {
	if p == nil || p.transport == nil {
		return nil, fmt.Errorf("providers/google: provider transport is not configured")
	}
	if maxCount <= 0 || maxCount > maxEventPageSize {
		maxCount = maxEventPageSize
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/calendars/primary/events",
		Headers: bearerHeaders(accessToken),
		Query: map[string]string{
			"timeMin":      windowStart.UTC().Format(time.RFC3339),
			"maxResults":   strconv.Itoa(maxCount),
			"singleEvents": "true",
			"orderBy":      "startTime",
			"showDeleted":  "true",
		},
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(res.StatusCode) {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}

	var payload struct {
		Items []calendarEvent `json:"items"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, "malformed event list response")
	}

	events := make([]core.NormalizedEvent, 0, len(payload.Items))
	for _, item := range payload.Items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		startsAt, ok := parseEventTime(item.Start.DateTime, item.Start.Date)
		if !ok {
			continue
		}
		event := core.NormalizedEvent{
			ExternalID:  item.ID,
			Title:       item.Summary,
			StartsAt:    startsAt,
			JoinURL:     item.HangoutLink,
			IsCancelled: strings.EqualFold(strings.TrimSpace(item.Status), "cancelled"),
		}
		if endsAt, ok := parseEventTime(item.End.DateTime, item.End.Date); ok {
			event.EndsAt = &endsAt
		}
		events = append(events, event)
	}
	return events, nil
}

// FindEventByOwnerMarker queries the primary calendar for the single
// event carrying the marker value in its private extended properties.
func (p *Provider) FindEventByOwnerMarker(ctx context.Context, accessToken, markerValue string) (string, bool, error) {
	if p == nil || p.transport == nil {
		return "", false, fmt.Errorf("providers/google: provider transport is not configured")
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/calendars/primary/events",
		Headers: bearerHeaders(accessToken),
		Query: map[string]string{
			"privateExtendedProperty": core.CalendarMarkerProperty + "=" + markerValue,
			"maxResults":              "1",
			"showDeleted":             "false",
		},
	})
	if err != nil {
		return "", false, err
	}
	if !is2xx(res.StatusCode) {
		return "", false, core.PushFailedError(res.StatusCode, string(res.Body))
	}

	var payload struct {
		Items []calendarEvent `json:"items"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return "", false, core.PushFailedError(res.StatusCode, "malformed marker lookup response")
	}
	if len(payload.Items) == 0 {
		return "", false, nil
	}
	return payload.Items[0].ID, true, nil
}

func (p *Provider) InsertEvent(ctx context.Context, accessToken string, in core.CalendarEventInput) (string, error) {
	if p == nil || p.transport == nil {
		return "", fmt.Errorf("providers/google: provider transport is not configured")
	}
	body, err := json.Marshal(eventPayload(in))
	if err != nil {
		return "", fmt.Errorf("providers/google: encode event payload: %w", err)
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     p.apiBase + "/calendars/primary/events",
		Headers: jsonBearerHeaders(accessToken),
		Body:    body,
	})
	if err != nil {
		return "", err
	}
	if !is2xx(res.StatusCode) {
		return "", core.PushFailedError(res.StatusCode, string(res.Body))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Body, &created); err != nil {
		return "", core.PushFailedError(res.StatusCode, "malformed insert response")
	}
	return created.ID, nil
}

func (p *Provider) UpdateEvent(ctx context.Context, accessToken, externalEventID string, in core.CalendarEventInput) error {
	if p == nil || p.transport == nil {
		return fmt.Errorf("providers/google: provider transport is not configured")
	}
	body, err := json.Marshal(eventPayload(in))
	if err != nil {
		return fmt.Errorf("providers/google: encode event payload: %w", err)
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPut,
		URL:     p.apiBase + "/calendars/primary/events/" + url.PathEscape(externalEventID),
		Headers: jsonBearerHeaders(accessToken),
		Body:    body,
	})
	if err != nil {
		return err
	}
	if !is2xx(res.StatusCode) {
		return core.PushFailedError(res.StatusCode, string(res.Body))
	}
	return nil
}

// DeleteEvent tolerates 404 and 410: an event already gone remotely is
// treated as deleted.
func (p *Provider) DeleteEvent(ctx context.Context, accessToken, externalEventID string) error {
	if p == nil || p.transport == nil {
		return fmt.Errorf("providers/google: provider transport is not configured")
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodDelete,
		URL:     p.apiBase + "/calendars/primary/events/" + url.PathEscape(externalEventID),
		Headers: bearerHeaders(accessToken),
	})
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone {
		return nil
	}
	if !is2xx(res.StatusCode) {
		return core.PushFailedError(res.StatusCode, string(res.Body))
	}
	return nil
}

func eventPayload(in core.CalendarEventInput) map[string]any {
	return map[string]any{
		"summary":     in.Title,
		"description": in.Description,
		"start":       map[string]any{"dateTime": in.StartsAt.UTC().Format(time.RFC3339)},
		"end":         map[string]any{"dateTime": in.EndsAt.UTC().Format(time.RFC3339)},
		"extendedProperties": map[string]any{
			"private": map[string]string{in.MarkerKey: in.MarkerValue},
		},
	}
}

func parseEventTime(dateTime, date string) (time.Time, bool) {
	if trimmed := strings.TrimSpace(dateTime); trimmed != "" {
		if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	if trimmed := strings.TrimSpace(date); trimmed != "" {
		if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func bearerHeaders(accessToken string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + accessToken}
}

func jsonBearerHeaders(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Content-Type":  "application/json",
	}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

var _ core.Provider = (*Provider)(nil)
var _ core.CalendarWriter = (*Provider)(nil)
var _ core.TokenRevoker = (*Provider)(nil)
