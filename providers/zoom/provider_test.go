package zoom

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-meetsync/core"
)

func newTestProvider(t *testing.T, server *httptest.Server) *Provider {
	t.Helper()
	provider, err := New(Config{
		ClientID:     "zoom-id",
		ClientSecret: "zoom-secret",
		TokenURL:     server.URL + "/oauth/token",
		RevokeURL:    server.URL + "/oauth/revoke",
		APIBase:      server.URL + "/v2",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestRefreshToken_UsesBasicAuth(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("zoom-id:zoom-secret"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != wantAuth {
			t.Fatalf("expected basic auth header, got %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("client_secret") != "" {
			t.Fatalf("client secret must not leak into the form body")
		}
		if r.PostForm.Get("refresh_token") != "rt-1" {
			t.Fatalf("unexpected refresh token: %q", r.PostForm.Get("refresh_token"))
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-2","expires_in":3600,"scope":"meeting:read"}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	result, err := provider.RefreshToken(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if result.AccessToken != "at-1" || result.RefreshToken != "rt-2" || result.ExpiresIn != 3600 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestRefreshToken_Non2xxIsRefreshFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"reason":"Invalid Token!"}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	_, err := provider.RefreshToken(context.Background(), "rt-bad")
	if err == nil {
		t.Fatalf("expected refresh failure")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.SyncErrorRefreshFailed {
		t.Fatalf("expected %s, got %v", core.SyncErrorRefreshFailed, err)
	}
}

func TestListUpcomingEvents_NormalizesMeetings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/users/me/meetings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("type") != "upcoming" {
			t.Fatalf("expected upcoming filter, got %q", query.Get("type"))
		}
		if query.Get("page_size") != "10" {
			t.Fatalf("unexpected page size: %q", query.Get("page_size"))
		}
		_, _ = w.Write([]byte(`{"meetings":[
			{"id":91001,"topic":"Standup","start_time":"2026-03-10T09:00:00Z","duration":30,"join_url":"https://zoom.us/j/91001"},
			{"uuid":"uu-2","topic":"Review","start_time":"2026-03-11T09:00:00Z","status":"cancelled"},
			{"id":91003,"topic":"Numeric cancel","start_time":"2026-03-12T09:00:00Z","status":3},
			{"topic":"No id","start_time":"2026-03-13T09:00:00Z"},
			{"id":91005,"topic":"Bad time","start_time":"soon"}
		]}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	events, err := provider.ListUpcomingEvents(context.Background(), "at-1", time.Now().UTC(), 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 normalized events, got %d", len(events))
	}
	if events[0].ExternalID != "91001" || events[0].JoinURL != "https://zoom.us/j/91001" {
		t.Fatalf("unexpected first event: %#v", events[0])
	}
	if events[0].EndsAt == nil || !events[0].EndsAt.Equal(events[0].StartsAt.Add(30*time.Minute)) {
		t.Fatalf("expected duration-derived end time: %#v", events[0])
	}
	if events[1].ExternalID != "uu-2" || !events[1].IsCancelled {
		t.Fatalf("expected uuid fallback and string cancel: %#v", events[1])
	}
	if events[1].EndsAt != nil {
		t.Fatalf("expected no end time without duration")
	}
	if !events[2].IsCancelled {
		t.Fatalf("expected numeric status 3 treated as cancelled: %#v", events[2])
	}
}

func TestRevokeToken_SendsTokenForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/revoke" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("token") != "rt-1" {
			t.Fatalf("unexpected token field: %q", r.PostForm.Get("token"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	if err := provider.RevokeToken(context.Background(), "rt-1"); err != nil {
		t.Fatalf("revoke token: %v", err)
	}
}

func TestIsCancelledStatus_Shapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "string cancelled", raw: `"cancelled"`, want: true},
		{name: "string deleted", raw: `"deleted"`, want: true},
		{name: "string waiting", raw: `"waiting"`, want: false},
		{name: "numeric cancelled", raw: `3`, want: true},
		{name: "numeric started", raw: `2`, want: false},
		{name: "absent", raw: ``, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isCancelledStatus([]byte(tc.raw)); got != tc.want {
				t.Fatalf("isCancelledStatus(%s) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
