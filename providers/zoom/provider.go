// Package zoom implements the Zoom meeting provider: HTTP Basic token
// refresh (client_id:client_secret) and upcoming meeting listing.
package zoom

import (
	"context"
	"encoding/base64"
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
	ProviderID       = core.ProviderZoom
	DefaultTokenURL  = "https://zoom.us/oauth/token"
	DefaultRevokeURL = "https://zoom.us/oauth/revoke"
	DefaultAPIBase   = "https://api.zoom.us/v2"
)

const maxEventPageSize = 100

type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RevokeURL    string
	APIBase      string
	Transport    core.TransportAdapter
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
		TokenURL:  DefaultTokenURL,
		RevokeURL: DefaultRevokeURL,
		APIBase:   DefaultAPIBase,
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
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = defaults.APIBase
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("providers/zoom: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("providers/zoom: client secret is required")
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
		apiBase:      strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/"),
		transport:    adapter,
	}, nil
}

func (p *Provider) ID() string {
	return ProviderID
}

// RefreshToken authenticates with HTTP Basic client credentials instead
// of putting the secret in the form body.
func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (core.TokenRefreshResult, error) {
	if p == nil || p.transport == nil {
		return core.TokenRefreshResult{}, fmt.Errorf("providers/zoom: provider transport is not configured")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    p.tokenURL,
		Headers: map[string]string{
			"Content-Type":  "application/x-www-form-urlencoded",
			"Authorization": p.basicAuthHeader(),
		},
		Body: []byte(form.Encode()),
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
		return fmt.Errorf("providers/zoom: provider transport is not configured")
	}
	form := url.Values{}
	form.Set("token", refreshToken)
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    p.revokeURL,
		Headers: map[string]string{
			"Content-Type":  "application/x-www-form-urlencoded",
			"Authorization": p.basicAuthHeader(),
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return err
	}
	if !is2xx(res.StatusCode) {
		return core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}
	return nil
}

type meeting struct {
	UUID      string          `json:"uuid"`
	ID        json.Number     `json:"id"`
	Topic     string          `json:"topic"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	JoinURL   string          `json:"join_url"`
	Status    json.RawMessage `json:"status"`
}

// ListUpcomingEvents lists upcoming meetings for the token owner. Zoom
// reports status either as a string or as a numeric code; both shapes
// are normalized.
func (p *Provider) ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]core.NormalizedEvent, error) {
	if p == nil || p.transport == nil {
		return nil, fmt.Errorf("providers/zoom: provider transport is not configured")
	}
	if maxCount <= 0 || maxCount > maxEventPageSize {
		maxCount = maxEventPageSize
	}
	res, err := p.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodGet,
		URL:     p.apiBase + "/users/me/meetings",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
		Query: map[string]string{
			"type":      "upcoming",
			"page_size": strconv.Itoa(maxCount),
		},
	})
	if err != nil {
		return nil, err
	}
	if !is2xx(res.StatusCode) {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, string(res.Body))
	}

	var payload struct {
		Meetings []meeting `json:"meetings"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, core.ProviderAPIError(ProviderID, res.StatusCode, "malformed meeting list response")
	}

	events := make([]core.NormalizedEvent, 0, len(payload.Meetings))
	for _, item := range payload.Meetings {
		externalID := strings.TrimSpace(item.ID.String())
		if externalID == "" {
			externalID = strings.TrimSpace(item.UUID)
		}
		if externalID == "" {
			continue
		}
		startsAt, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(item.StartTime))
		if parseErr != nil {
			continue
		}
		event := core.NormalizedEvent{
			ExternalID:  externalID,
			Title:       item.Topic,
			StartsAt:    startsAt.UTC(),
			JoinURL:     item.JoinURL,
			IsCancelled: isCancelledStatus(item.Status),
		}
		if item.Duration > 0 {
			endsAt := startsAt.UTC().Add(time.Duration(item.Duration) * time.Minute)
			event.EndsAt = &endsAt
		}
		events = append(events, event)
	}
	return events, nil
}

// Meeting status code 3 means cancelled in zoom's numeric vocabulary.
const cancelledStatusCode = 3

func isCancelledStatus(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch strings.ToLower(strings.TrimSpace(asString)) {
		case "cancelled", "canceled", "deleted":
			return true
		default:
			return false
		}
	}
	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber == cancelledStatusCode
	}
	return false
}

func (p *Provider) basicAuthHeader() string {
	raw := p.clientID + ":" + p.clientSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

var _ core.Provider = (*Provider)(nil)
var _ core.TokenRevoker = (*Provider)(nil)
