// Package calcom implements the Cal.com meeting scheduler provider:
// client-secret-in-body token refresh and upcoming booking listing.
package calcom

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
	ProviderID      = core.ProviderCalcom
	DefaultTokenURL = "https://app.cal.com/api/auth/oauth/token"
	DefaultAPIBase  = "https://api.cal.com/v2"
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
		return nil, fmt.Errorf("providers/calcom: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("providers/calcom: client secret is required")
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
		return core.TokenRefreshResult{}, fmt.Errorf("providers/calcom: provider transport is not configured")
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

type booking struct {
	UID        string `json:"uid"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Start      string `json:"start"`
	End        string `json:"end"`
	MeetingURL string `json:"meetingUrl"`
}

// ListUpcomingEvents lists bookings ascending by start. Cal.com reports
// cancellations through the CANCELLED status enum.
func (p *Provider) ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]core.NormalizedEvent, error) {
	if p == nil || p.transport == nil {
		return nil, fmt.Errorf("providers/calcom: provider transport is not configured")
	}
	if maxCount <= 0 || maxCount > maxEventPageSize {
		maxCount = maxEventPageSize
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/bookings",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
		Query: map[string]string{
			"afterStart": windowStart.UTC().Format(time.RFC3339),
			"take":       strconv.Itoa(maxCount),
			"sortStart":  "asc",
		},
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(res.StatusCode) {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}

	var payload struct {
		Data []booking `json:"data"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, "malformed booking list response")
	}

	events := make([]core.NormalizedEvent, 0, len(payload.Data))
	for _, item := range payload.Data {
		if strings.TrimSpace(item.UID) == "" {
			continue
		}
		startsAt, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(item.Start))
		if parseErr != nil {
			continue
		}
		event := core.NormalizedEvent{
			ExternalID:  item.UID,
			Title:       item.Title,
			StartsAt:    startsAt.UTC(),
			JoinURL:     item.MeetingURL,
			IsCancelled: isCancelledStatus(item.Status),
		}
		if endsAt, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(item.End)); parseErr == nil {
			utc := endsAt.UTC()
			event.EndsAt = &utc
		}
		events = append(events, event)
	}
	return events, nil
}

func isCancelledStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "cancelled", "canceled":
		return true
	default:
		return false
	}
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

var _ core.Provider = (*Provider)(nil)
