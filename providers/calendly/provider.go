// Package calendly implements the Calendly meeting scheduler provider:
// client-secret-in-body token refresh and upcoming scheduled-event listing.
package calendly

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
	ProviderID      = core.ProviderCalendly
	DefaultTokenURL = "https://auth.calendly.com/oauth/token"
	DefaultAPIBase  = "https://api.calendly.com"
)

const maxEventPageSize = 100

type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
	Transport    core.TransportAdapter
}

type Provider struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBase      string
	transport    core.TransportAdapter
}

func DefaultConfig() Config {
	return Config{
		TokenURL: DefaultTokenURL,
		APIBase:  DefaultAPIBase,
	}
}

func New(cfg Config) (*Provider, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = defaults.TokenURL
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = defaults.APIBase
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("providers/calendly: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("providers/calendly: client secret is required")
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Provider{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		tokenURL:     strings.TrimSpace(cfg.TokenURL),
		apiBase:      strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/"),
		transport:    adapter,
	}, nil
}

func (p *Provider) ID() string {
	return ProviderID
}

func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (core.TokenRefreshResult, error) {
	if p == nil || p.transport == nil {
		return core.TokenRefreshResult{}, fmt.Errorf("providers/calendly: provider transport is not configured")
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

type scheduledEvent struct {
	URI       string `json:"uri"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  struct {
		JoinURL string `json:"join_url"`
	} `json:"location"`
}

// ListUpcomingEvents resolves the token owner's user URI, then lists
// scheduled events ascending by start time. Calendly keeps canceled
// events in the listing with status "canceled".
func (p *Provider) ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]core.NormalizedEvent, error) {
	if p == nil || p.transport == nil {
		return nil, fmt.Errorf("providers/calendly: provider transport is not configured")
	}
	if maxCount <= 0 || maxCount > maxEventPageSize {
		maxCount = maxEventPageSize
	}

	userURI, err := p.currentUserURI(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/scheduled_events",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
		Query: map[string]string{
			"user":           userURI,
			"min_start_time": windowStart.UTC().Format(time.RFC3339),
			"count":          strconv.Itoa(maxCount),
			"sort":           "start_time:asc",
		},
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(res.StatusCode) {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}

	var payload struct {
		Collection []scheduledEvent `json:"collection"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, "malformed event list response")
	}

	events := make([]core.NormalizedEvent, 0, len(payload.Collection))
	for _, item := range payload.Collection {
		externalID := eventIDFromURI(item.URI)
		if externalID == "" {
			continue
		}
		startsAt, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(item.StartTime))
		if parseErr != nil {
			continue
		}
		event := core.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Name,
			StartsAt:    startsAt.UTC(),
			JoinURL:     item.Location.JoinURL,
			IsCancelled: isCancelledStatus(item.Status),
		}
		if endsAt, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(item.EndTime)); parseErr == nil {
			utc := endsAt.UTC()
			event.EndsAt = &utc
		}
		events = append(events, event)
	}
	return events, nil
}

func (p *Provider) currentUserURI(ctx context.Context, accessToken string) (string, error) {
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/users/me",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
	})
	if err != nil {
		return "", err
	}
	if !is2xx(res.StatusCode) {
		return "", core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}
	var payload struct {
		Resource struct {
			URI string `json:"uri"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return "", core.ProviderAPIError(ProviderID, res.StatusCode, "malformed user response")
	}
	uri := strings.TrimSpace(payload.Resource.URI)
	if uri == "" {
		return "", core.ProviderAPIError(ProviderID, res.StatusCode, "user response missing uri")
	}
	return uri, nil
}

func eventIDFromURI(uri string) string {
	uri = strings.TrimRight(strings.TrimSpace(uri), "/")
	if uri == "" {
		return ""
	}
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}

func isCancelledStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "canceled", "cancelled":
		return true
	default:
		return false
	}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

var _ core.Provider = (*Provider)(nil)
