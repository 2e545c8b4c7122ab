package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type stubConnectionStore struct {
	mu        sync.Mutex
	getFn     func(ctx context.Context, userID, providerID string) (OAuthConnection, error)
	saveFn    func(ctx context.Context, in SaveTokensInput) (OAuthConnection, error)
	deleteFn  func(ctx context.Context, userID, providerID string) error
	saveCalls []SaveTokensInput
}

func (s *stubConnectionStore) GetByUserProvider(ctx context.Context, userID, providerID string) (OAuthConnection, error) {
	if s.getFn == nil {
		return OAuthConnection{}, fmt.Errorf("stub: %w", ErrConnectionNotFound)
	}
	return s.getFn(ctx, userID, providerID)
}

func (s *stubConnectionStore) SaveTokens(ctx context.Context, in SaveTokensInput) (OAuthConnection, error) {
	s.mu.Lock()
	s.saveCalls = append(s.saveCalls, in)
	s.mu.Unlock()
	if s.saveFn == nil {
		return OAuthConnection{
			UserID:       in.UserID,
			ProviderID:   in.ProviderID,
			AccessToken:  in.AccessToken,
			RefreshToken: in.RefreshToken,
			ExpiresAt:    in.ExpiresAt,
			Scope:        in.Scope,
		}, nil
	}
	return s.saveFn(ctx, in)
}

func (s *stubConnectionStore) Delete(ctx context.Context, userID, providerID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, providerID)
}

func (s *stubConnectionStore) savedInputs() []SaveTokensInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SaveTokensInput, len(s.saveCalls))
	copy(out, s.saveCalls)
	return out
}

type stubProvider struct {
	id        string
	refreshFn func(ctx context.Context, refreshToken string) (TokenRefreshResult, error)
	listFn    func(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]NormalizedEvent, error)
}

func (p *stubProvider) ID() string { return p.id }

func (p *stubProvider) RefreshToken(ctx context.Context, refreshToken string) (TokenRefreshResult, error) {
	if p.refreshFn == nil {
		return TokenRefreshResult{}, fmt.Errorf("stub: refresh not configured")
	}
	return p.refreshFn(ctx, refreshToken)
}

func (p *stubProvider) ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]NormalizedEvent, error) {
	if p.listFn == nil {
		return nil, nil
	}
	return p.listFn(ctx, accessToken, windowStart, maxCount)
}

type stubCalendarProvider struct {
	stubProvider
	findFn   func(ctx context.Context, accessToken, markerValue string) (string, bool, error)
	insertFn func(ctx context.Context, accessToken string, in CalendarEventInput) (string, error)
	updateFn func(ctx context.Context, accessToken, externalEventID string, in CalendarEventInput) error
	deleteFn func(ctx context.Context, accessToken, externalEventID string) error
}

func (p *stubCalendarProvider) FindEventByOwnerMarker(ctx context.Context, accessToken, markerValue string) (string, bool, error) {
	if p.findFn == nil {
		return "", false, nil
	}
	return p.findFn(ctx, accessToken, markerValue)
}

func (p *stubCalendarProvider) InsertEvent(ctx context.Context, accessToken string, in CalendarEventInput) (string, error) {
	if p.insertFn == nil {
		return "", fmt.Errorf("stub: insert not configured")
	}
	return p.insertFn(ctx, accessToken, in)
}

func (p *stubCalendarProvider) UpdateEvent(ctx context.Context, accessToken, externalEventID string, in CalendarEventInput) error {
	if p.updateFn == nil {
		return fmt.Errorf("stub: update not configured")
	}
	return p.updateFn(ctx, accessToken, externalEventID, in)
}

func (p *stubCalendarProvider) DeleteEvent(ctx context.Context, accessToken, externalEventID string) error {
	if p.deleteFn == nil {
		return fmt.Errorf("stub: delete not configured")
	}
	return p.deleteFn(ctx, accessToken, externalEventID)
}

type stubMappingStore struct {
	listFn          func(ctx context.Context, userID, providerID string, externalIDs []string) ([]EventTaskMapping, error)
	upsertFn        func(ctx context.Context, in UpsertMappingInput) (EventTaskMapping, error)
	markCanceledFn  func(ctx context.Context, mappingID string, canceledAt time.Time) error
	clearCanceledFn func(ctx context.Context, mappingID string) error
}

func (s *stubMappingStore) ListByExternalIDs(ctx context.Context, userID, providerID string, externalIDs []string) ([]EventTaskMapping, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, providerID, externalIDs)
}

func (s *stubMappingStore) Upsert(ctx context.Context, in UpsertMappingInput) (EventTaskMapping, error) {
	if s.upsertFn == nil {
		return EventTaskMapping{}, fmt.Errorf("stub: upsert not configured")
	}
	return s.upsertFn(ctx, in)
}

func (s *stubMappingStore) MarkCanceled(ctx context.Context, mappingID string, canceledAt time.Time) error {
	if s.markCanceledFn == nil {
		return fmt.Errorf("stub: mark canceled not configured")
	}
	return s.markCanceledFn(ctx, mappingID, canceledAt)
}

func (s *stubMappingStore) ClearCanceled(ctx context.Context, mappingID string) error {
	if s.clearCanceledFn == nil {
		return fmt.Errorf("stub: clear canceled not configured")
	}
	return s.clearCanceledFn(ctx, mappingID)
}

type stubTaskStore struct {
	createFn   func(ctx context.Context, in CreateTaskInput) (Task, error)
	getFn      func(ctx context.Context, taskID string) (Task, error)
	listFn     func(ctx context.Context, taskIDs []string) ([]Task, error)
	updateFn   func(ctx context.Context, in UpdateTaskInput) error
	completeFn func(ctx context.Context, userID, taskID string, completedAt time.Time) error
}

func (s *stubTaskStore) Create(ctx context.Context, in CreateTaskInput) (Task, error) {
	if s.createFn == nil {
		return Task{}, fmt.Errorf("stub: create not configured")
	}
	return s.createFn(ctx, in)
}

func (s *stubTaskStore) Get(ctx context.Context, taskID string) (Task, error) {
	if s.getFn == nil {
		return Task{}, fmt.Errorf("stub: get not configured")
	}
	return s.getFn(ctx, taskID)
}

func (s *stubTaskStore) ListByIDs(ctx context.Context, taskIDs []string) ([]Task, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, taskIDs)
}

func (s *stubTaskStore) UpdateEventFields(ctx context.Context, in UpdateTaskInput) error {
	if s.updateFn == nil {
		return fmt.Errorf("stub: update not configured")
	}
	return s.updateFn(ctx, in)
}

func (s *stubTaskStore) Complete(ctx context.Context, userID, taskID string, completedAt time.Time) error {
	if s.completeFn == nil {
		return fmt.Errorf("stub: complete not configured")
	}
	return s.completeFn(ctx, userID, taskID, completedAt)
}

func newTestService(t *testing.T, options ...Option) *Service {
	t.Helper()
	service, err := NewService(Config{}, options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func registryWith(t *testing.T, providers ...Provider) Registry {
	t.Helper()
	registry := NewProviderRegistry()
	for _, provider := range providers {
		if err := registry.Register(provider); err != nil {
			t.Fatalf("register provider: %v", err)
		}
	}
	return registry
}
