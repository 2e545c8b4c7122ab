package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-meetsync/core"
)

const connectionCacheKeyPrefix = "go-meetsync::oauth_connection::v1"

// CachedConnectionStore caches the hot GetByUserProvider read. Every
// token write or delete invalidates the cached row, so refreshed tokens
// are never served stale.
type CachedConnectionStore struct {
	base  core.ConnectionStore
	cache repositorycache.CacheService
}

func NewCachedConnectionStore(
	base core.ConnectionStore,
	cacheService repositorycache.CacheService,
) (*CachedConnectionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base connection store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: connection cache service is required")
	}
	return &CachedConnectionStore{base: base, cache: cacheService}, nil
}

// ConnectionCacheKey returns the deterministic cache key contract:
// go-meetsync::oauth_connection::v1::<user_id>::<provider> with each
// segment URL-path escaped.
func ConnectionCacheKey(userID, providerID string) (string, error) {
	userID = strings.TrimSpace(userID)
	providerID = strings.TrimSpace(providerID)
	if userID == "" || providerID == "" {
		return "", fmt.Errorf("sqlstore: user id and provider are required")
	}
	segments := []string{url.PathEscape(userID), url.PathEscape(providerID)}
	return strings.Join(append([]string{connectionCacheKeyPrefix}, segments...), "::"), nil
}

func (s *CachedConnectionStore) GetByUserProvider(ctx context.Context, userID, providerID string) (core.OAuthConnection, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	cacheKey, err := ConnectionCacheKey(userID, providerID)
	if err != nil {
		return core.OAuthConnection{}, err
	}
	connection, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.OAuthConnection, error) {
		return s.base.GetByUserProvider(ctx, userID, providerID)
	})
	if err != nil {
		return core.OAuthConnection{}, err
	}
	return connection, nil
}

func (s *CachedConnectionStore) SaveTokens(ctx context.Context, in core.SaveTokensInput) (core.OAuthConnection, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	saved, err := s.base.SaveTokens(ctx, in)
	if err != nil {
		return core.OAuthConnection{}, err
	}
	cacheKey, err := ConnectionCacheKey(in.UserID, in.ProviderID)
	if err != nil {
		return core.OAuthConnection{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.OAuthConnection{}, err
	}
	return saved, nil
}

func (s *CachedConnectionStore) Delete(ctx context.Context, userID, providerID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	if err := s.base.Delete(ctx, userID, providerID); err != nil {
		return err
	}
	cacheKey, err := ConnectionCacheKey(userID, providerID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.ConnectionStore = (*CachedConnectionStore)(nil)
