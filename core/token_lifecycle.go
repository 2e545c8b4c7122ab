package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetValidAccessToken returns a usable bearer token for the user's
// provider connection, refreshing it first when the stored token is
// missing or expires within the freshness buffer.
//
// Concurrent calls for the same connection may both refresh; the last
// write wins. Providers keep superseded access tokens valid for a
// grace period, so the race is tolerated instead of locked.
func (s *Service) GetValidAccessToken(ctx context.Context, userID, providerID string) (grant AccessGrant, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":  userID,
		"provider": providerID,
	}
	defer func() {
		s.observeSyncOperation(ctx, startedAt, opGetAccessToken, err, fields)
	}()

	if s == nil {
		return AccessGrant{}, fmt.Errorf("core: service is nil")
	}
	userID = strings.TrimSpace(userID)
	providerID = NormalizeProviderID(providerID)
	if userID == "" {
		err = s.mapError(fmt.Errorf("core: user id is required"))
		return AccessGrant{}, err
	}
	if err = ValidateProviderID(providerID); err != nil {
		err = s.mapError(err)
		return AccessGrant{}, err
	}
	if s.connectionStore == nil {
		err = s.mapError(fmt.Errorf("core: connection store is not configured"))
		return AccessGrant{}, err
	}

	connection, getErr := s.connectionStore.GetByUserProvider(ctx, userID, providerID)
	if getErr != nil {
		if errors.Is(getErr, ErrConnectionNotFound) {
			err = NotConnectedError(userID, providerID)
			return AccessGrant{}, err
		}
		err = s.mapError(getErr)
		return AccessGrant{}, err
	}
	if strings.TrimSpace(connection.RefreshToken) == "" {
		err = NotConnectedError(userID, providerID)
		return AccessGrant{}, err
	}

	now := time.Now().UTC()
	state := ResolveTokenState(now, connection, DefaultAccessTokenFreshnessBuffer)
	if !ShouldRefreshToken(state) {
		return AccessGrant{
			AccessToken:   connection.AccessToken,
			ProviderEmail: connection.ProviderEmail,
		}, nil
	}

	provider, err := s.resolveProvider(providerID)
	if err != nil {
		return AccessGrant{}, err
	}

	refreshed, refreshErr := provider.RefreshToken(ctx, connection.RefreshToken)
	if refreshErr != nil {
		err = s.mapError(refreshErr)
		return AccessGrant{}, err
	}
	if strings.TrimSpace(refreshed.AccessToken) == "" {
		err = s.mapError(RefreshFailedError(providerID, 0, "refresh response missing access_token"))
		return AccessGrant{}, err
	}

	saved, saveErr := s.connectionStore.SaveTokens(ctx, SaveTokensInput{
		UserID:       userID,
		ProviderID:   providerID,
		AccessToken:  refreshed.AccessToken,
		RefreshToken: retainWhenEmpty(refreshed.RefreshToken, connection.RefreshToken),
		ExpiresAt:    now.Add(time.Duration(refreshed.ExpiresIn) * time.Second),
		Scope:        retainWhenEmpty(refreshed.Scope, connection.Scope),
	})
	if saveErr != nil {
		err = s.mapError(saveErr)
		return AccessGrant{}, err
	}

	return AccessGrant{
		AccessToken:   saved.AccessToken,
		ProviderEmail: saved.ProviderEmail,
	}, nil
}

func retainWhenEmpty(candidate, current string) string {
	if strings.TrimSpace(candidate) == "" {
		return current
	}
	return candidate
}
