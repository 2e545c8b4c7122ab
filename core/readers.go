package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetTask loads a single task by id.
func (s *Service) GetTask(ctx context.Context, taskID string) (Task, error) {
	if s == nil {
		return Task{}, fmt.Errorf("core: service is nil")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Task{}, s.mapError(fmt.Errorf("core: task id is required"))
	}
	if s.taskStore == nil {
		return Task{}, s.mapError(fmt.Errorf("core: task store is not configured"))
	}
	task, err := s.taskStore.Get(ctx, taskID)
	if err != nil {
		return Task{}, s.mapError(err)
	}
	return task, nil
}

// GetConnectionStatus reports whether a (user, provider) connection exists
// and how usable its tokens are. A missing connection is not an error.
func (s *Service) GetConnectionStatus(ctx context.Context, userID, providerID string) (ConnectionStatus, error) {
	if s == nil {
		return ConnectionStatus{}, fmt.Errorf("core: service is nil")
	}
	userID = strings.TrimSpace(userID)
	providerID = NormalizeProviderID(providerID)
	if userID == "" {
		return ConnectionStatus{}, s.mapError(fmt.Errorf("core: user id is required"))
	}
	if err := ValidateProviderID(providerID); err != nil {
		return ConnectionStatus{}, s.mapError(err)
	}
	if s.connectionStore == nil {
		return ConnectionStatus{}, s.mapError(fmt.Errorf("core: connection store is not configured"))
	}

	connection, err := s.connectionStore.GetByUserProvider(ctx, userID, providerID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return ConnectionStatus{ProviderID: providerID}, nil
		}
		return ConnectionStatus{}, s.mapError(err)
	}

	state := ResolveTokenState(time.Now().UTC(), connection, DefaultAccessTokenFreshnessBuffer)
	return ConnectionStatus{
		Connected:      true,
		ProviderID:     providerID,
		ProviderEmail:  connection.ProviderEmail,
		ExpiresAt:      connection.ExpiresAt,
		TokenFresh:     state.IsFresh,
		HasRefreshPath: state.HasRefreshToken,
	}, nil
}

// ListProviders returns the registered provider ids in sorted order.
func (s *Service) ListProviders(ctx context.Context) ([]string, error) {
	if s == nil || s.registry == nil {
		return nil, fmt.Errorf("core: registry unavailable")
	}
	_ = ctx
	providers := s.registry.List()
	ids := make([]string, 0, len(providers))
	for _, provider := range providers {
		ids = append(ids, provider.ID())
	}
	return ids, nil
}
