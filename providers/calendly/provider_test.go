package calendly

import (
	"context"
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
		ClientID:     "cal-id",
		ClientSecret: "cal-secret",
		TokenURL:     server.URL + "/oauth/token",
		APIBase:      server.URL,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider
}

func TestRefreshToken_FormEncodedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("client_id") != "cal-id" || r.PostForm.Get("client_secret") != "cal-secret" {
			t.Fatalf("expected credentials in form body")
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-2","expires_in":7200}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	result, err := provider.RefreshToken(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if result.AccessToken != "at-1" || result.RefreshToken != "rt-2" || result.ExpiresIn != 7200 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestListUpcomingEvents_ResolvesUserThenLists(t *testing.T) {
	var userCalls, listCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			userCalls++
			if r.Header.Get("Authorization") != "Bearer at-1" {
				t.Fatalf("expected bearer token on user lookup")
			}
			_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/USER123"}}`))
		case "/scheduled_events":
			listCalls++
			query := r.URL.Query()
			if query.Get("user") != "https://api.calendly.com/users/USER123" {
				t.Fatalf("expected user uri forwarded, got %q", query.Get("user"))
			}
			if query.Get("sort") != "start_time:asc" {
				t.Fatalf("unexpected sort: %q", query.Get("sort"))
			}
			if query.Get("count") != "5" {
				t.Fatalf("unexpected count: %q", query.Get("count"))
			}
			_, _ = w.Write([]byte(`{"collection":[
				{"uri":"https://api.calendly.com/scheduled_events/EV1","name":"Intro call","status":"active","start_time":"2026-03-10T15:00:00Z","end_time":"2026-03-10T15:30:00Z","location":{"join_url":"https://calendly.com/ev1"}},
				{"uri":"https://api.calendly.com/scheduled_events/EV2","name":"Canceled call","status":"canceled","start_time":"2026-03-11T15:00:00Z"},
				{"uri":"","name":"No uri","start_time":"2026-03-12T15:00:00Z"}
			]}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	events, err := provider.ListUpcomingEvents(context.Background(), "at-1", time.Now().UTC(), 5)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if userCalls != 1 || listCalls != 1 {
		t.Fatalf("expected one user lookup and one listing, got %d/%d", userCalls, listCalls)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 normalized events, got %d", len(events))
	}
	if events[0].ExternalID != "EV1" || events[0].JoinURL != "https://calendly.com/ev1" {
		t.Fatalf("unexpected first event: %#v", events[0])
	}
	if events[0].EndsAt == nil {
		t.Fatalf("expected end time preserved")
	}
	if events[1].ExternalID != "EV2" || !events[1].IsCancelled {
		t.Fatalf("expected canceled status normalized: %#v", events[1])
	}
}

func TestListUpcomingEvents_UserLookupFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/me" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title":"Unauthenticated"}`))
			return
		}
		t.Fatalf("listing must not be called when user lookup fails")
	}))
	defer server.Close()

	provider := newTestProvider(t, server)
	_, err := provider.ListUpcomingEvents(context.Background(), "at-stale", time.Now().UTC(), 5)
	if err == nil {
		t.Fatalf("expected error from user lookup")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.SyncErrorProviderAPIFailed {
		t.Fatalf("expected %s, got %v", core.SyncErrorProviderAPIFailed, err)
	}
}

func TestEventIDFromURI(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{uri: "https://api.calendly.com/scheduled_events/ABC123", want: "ABC123"},
		{uri: "https://api.calendly.com/scheduled_events/ABC123/", want: "ABC123"},
		{uri: "ABC123", want: "ABC123"},
		{uri: "  ", want: ""},
	}
	for _, tc := range cases {
		if got := eventIDFromURI(tc.uri); got != tc.want {
			t.Fatalf("eventIDFromURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}
