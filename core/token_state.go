package core

import (
	"strings"
	"time"
)

// DefaultAccessTokenFreshnessBuffer is the safety margin subtracted from
// a token's remaining lifetime: a token expiring inside the buffer is
// treated as stale even though it is technically still valid.
const DefaultAccessTokenFreshnessBuffer = 30 * time.Second

// TokenState captures access/refresh lifecycle state derived from a
// stored connection.
type TokenState struct {
	ExpiresAt       time.Time
	HasAccessToken  bool
	HasRefreshToken bool
	IsFresh         bool
}

// ResolveTokenState evaluates freshness flags for a stored connection.
func ResolveTokenState(now time.Time, connection OAuthConnection, freshnessBuffer time.Duration) TokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if freshnessBuffer <= 0 {
		freshnessBuffer = DefaultAccessTokenFreshnessBuffer
	}

	state := TokenState{
		HasAccessToken:  strings.TrimSpace(connection.AccessToken) != "",
		HasRefreshToken: strings.TrimSpace(connection.RefreshToken) != "",
	}
	if connection.ExpiresAt.IsZero() {
		return state
	}
	state.ExpiresAt = connection.ExpiresAt.UTC()
	state.IsFresh = state.HasAccessToken && state.ExpiresAt.After(now.Add(freshnessBuffer))
	return state
}

// ShouldRefreshToken returns true when a refresh grant must run before
// the access token can be handed out.
func ShouldRefreshToken(state TokenState) bool {
	return !state.IsFresh
}
