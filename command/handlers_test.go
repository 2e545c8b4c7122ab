package command

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-meetsync/core"
)

type stubMutatingService struct {
	getTokenFn   func(ctx context.Context, userID, providerID string) (core.AccessGrant, error)
	syncTasksFn  func(ctx context.Context, userID, providerID string, maxCount int) (core.SyncResult, error)
	pushFn       func(ctx context.Context, userID, taskID string, shouldSync bool) (core.PushResult, error)
	disconnectFn func(ctx context.Context, userID, providerID string) error
}

func (s *stubMutatingService) GetValidAccessToken(ctx context.Context, userID, providerID string) (core.AccessGrant, error) {
	if s.getTokenFn == nil {
		return core.AccessGrant{}, nil
	}
	return s.getTokenFn(ctx, userID, providerID)
}

func (s *stubMutatingService) SyncTasks(ctx context.Context, userID, providerID string, maxCount int) (core.SyncResult, error) {
	if s.syncTasksFn == nil {
		return core.SyncResult{}, nil
	}
	return s.syncTasksFn(ctx, userID, providerID, maxCount)
}

func (s *stubMutatingService) PushTaskEventByID(ctx context.Context, userID, taskID string, shouldSync bool) (core.PushResult, error) {
	if s.pushFn == nil {
		return core.PushResult{}, nil
	}
	return s.pushFn(ctx, userID, taskID, shouldSync)
}

func (s *stubMutatingService) Disconnect(ctx context.Context, userID, providerID string) error {
	if s.disconnectFn == nil {
		return nil
	}
	return s.disconnectFn(ctx, userID, providerID)
}

func TestSyncTasksCommand_DelegatesAndStoresResult(t *testing.T) {
	service := &stubMutatingService{
		syncTasksFn: func(_ context.Context, userID, providerID string, maxCount int) (core.SyncResult, error) {
			if userID != "u1" || providerID != core.ProviderGoogle || maxCount != 25 {
				t.Fatalf("unexpected args: %q %q %d", userID, providerID, maxCount)
			}
			return core.SyncResult{Created: 2, Updated: 1, Total: 3}, nil
		},
	}
	cmd := NewSyncTasksCommand(service)

	collector := gocmd.NewResult[core.SyncResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, SyncTasksMessage{UserID: "u1", ProviderID: core.ProviderGoogle, MaxCount: 25})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result stored")
	}
	if result.Created != 2 || result.Updated != 1 || result.Total != 3 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestSyncTasksCommand_PropagatesServiceError(t *testing.T) {
	service := &stubMutatingService{
		syncTasksFn: func(context.Context, string, string, int) (core.SyncResult, error) {
			return core.SyncResult{}, fmt.Errorf("stub: sync failed")
		},
	}
	cmd := NewSyncTasksCommand(service)
	if err := cmd.Execute(context.Background(), SyncTasksMessage{UserID: "u1", ProviderID: core.ProviderGoogle}); err == nil {
		t.Fatalf("expected error propagated")
	}
}

func TestGetAccessTokenCommand_StoresGrant(t *testing.T) {
	service := &stubMutatingService{
		getTokenFn: func(context.Context, string, string) (core.AccessGrant, error) {
			return core.AccessGrant{AccessToken: "at-1", ProviderEmail: "u1@example.com"}, nil
		},
	}
	cmd := NewGetAccessTokenCommand(service)

	collector := gocmd.NewResult[core.AccessGrant]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, GetAccessTokenMessage{UserID: "u1", ProviderID: core.ProviderZoom}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	grant, ok := collector.Load()
	if !ok || grant.AccessToken != "at-1" {
		t.Fatalf("expected stored grant, got %#v (%v)", grant, ok)
	}
}

func TestPushTaskEventCommand_DelegatesByTaskID(t *testing.T) {
	service := &stubMutatingService{
		pushFn: func(_ context.Context, userID, taskID string, shouldSync bool) (core.PushResult, error) {
			if userID != "u1" || taskID != "task-1" || !shouldSync {
				t.Fatalf("unexpected args: %q %q %v", userID, taskID, shouldSync)
			}
			return core.PushResult{Action: core.PushActionInsert, ExternalEventID: "gcal-1"}, nil
		},
	}
	cmd := NewPushTaskEventCommand(service)

	collector := gocmd.NewResult[core.PushResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, PushTaskEventMessage{UserID: "u1", TaskID: "task-1", ShouldSync: true})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	result, ok := collector.Load()
	if !ok || result.Action != core.PushActionInsert || result.ExternalEventID != "gcal-1" {
		t.Fatalf("unexpected result: %#v (%v)", result, ok)
	}
}

func TestDisconnectCommand_Delegates(t *testing.T) {
	called := 0
	service := &stubMutatingService{
		disconnectFn: func(_ context.Context, userID, providerID string) error {
			called++
			if userID != "u1" || providerID != core.ProviderCalendly {
				t.Fatalf("unexpected args: %q %q", userID, providerID)
			}
			return nil
		},
	}
	cmd := NewDisconnectCommand(service)
	if err := cmd.Execute(context.Background(), DisconnectMessage{UserID: "u1", ProviderID: core.ProviderCalendly}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if called != 1 {
		t.Fatalf("expected one delegation, got %d", called)
	}
}

func TestCommands_RequireService(t *testing.T) {
	if err := NewSyncTasksCommand(nil).Execute(context.Background(), SyncTasksMessage{}); err == nil {
		t.Fatalf("expected dependency error for sync")
	}
	if err := NewGetAccessTokenCommand(nil).Execute(context.Background(), GetAccessTokenMessage{}); err == nil {
		t.Fatalf("expected dependency error for token")
	}
	if err := NewPushTaskEventCommand(nil).Execute(context.Background(), PushTaskEventMessage{}); err == nil {
		t.Fatalf("expected dependency error for push")
	}
	if err := NewDisconnectCommand(nil).Execute(context.Background(), DisconnectMessage{}); err == nil {
		t.Fatalf("expected dependency error for disconnect")
	}
}

func TestMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "sync ok", msg: SyncTasksMessage{UserID: "u1", ProviderID: core.ProviderGoogle}},
		{name: "sync missing user", msg: SyncTasksMessage{ProviderID: core.ProviderGoogle}, wantErr: true},
		{name: "sync unknown provider", msg: SyncTasksMessage{UserID: "u1", ProviderID: "jitsi"}, wantErr: true},
		{name: "sync negative max count", msg: SyncTasksMessage{UserID: "u1", ProviderID: core.ProviderGoogle, MaxCount: -1}, wantErr: true},
		{name: "token ok", msg: GetAccessTokenMessage{UserID: "u1", ProviderID: core.ProviderZoom}},
		{name: "token missing provider", msg: GetAccessTokenMessage{UserID: "u1"}, wantErr: true},
		{name: "push ok", msg: PushTaskEventMessage{UserID: "u1", TaskID: "task-1"}},
		{name: "push missing task", msg: PushTaskEventMessage{UserID: "u1"}, wantErr: true},
		{name: "disconnect ok", msg: DisconnectMessage{UserID: "u1", ProviderID: core.ProviderCalcom}},
		{name: "disconnect missing user", msg: DisconnectMessage{ProviderID: core.ProviderCalcom}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
