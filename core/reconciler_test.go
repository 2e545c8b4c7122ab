package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func freshConnectionStore(providerID string) *stubConnectionStore {
	return &stubConnectionStore{
		getFn: func(context.Context, string, string) (OAuthConnection, error) {
			return OAuthConnection{
				UserID:       "u1",
				ProviderID:   providerID,
				AccessToken:  "at",
				RefreshToken: "rt",
				ExpiresAt:    time.Now().UTC().Add(time.Hour),
			}, nil
		},
	}
}

func TestSyncTasks_CreatesUpdatesAndCancels(t *testing.T) {
	now := time.Now().UTC()
	events := []NormalizedEvent{
		{ExternalID: "ev-new", Title: "Kickoff", StartsAt: now.Add(time.Hour), JoinURL: "https://meet.example/1"},
		{ExternalID: "ev-known", Title: "Standup (moved)", StartsAt: now.Add(2 * time.Hour)},
		{ExternalID: "ev-gone", Title: "Retro", StartsAt: now.Add(3 * time.Hour), IsCancelled: true},
	}
	provider := &stubProvider{
		id: ProviderCalendly,
		listFn: func(_ context.Context, accessToken string, _ time.Time, maxCount int) ([]NormalizedEvent, error) {
			if accessToken != "at" {
				t.Fatalf("expected granted access token, got %q", accessToken)
			}
			if maxCount != 50 {
				t.Fatalf("expected default max count 50, got %d", maxCount)
			}
			return events, nil
		},
	}

	var created []CreateTaskInput
	var updated []UpdateTaskInput
	var completed []string
	var upserts []UpsertMappingInput
	var canceledMappings []string

	tasks := &stubTaskStore{
		createFn: func(_ context.Context, in CreateTaskInput) (Task, error) {
			created = append(created, in)
			return Task{ID: "task-new", UserID: in.UserID, Title: in.Title, Kind: in.Kind, Status: in.Status, DueAt: in.DueAt}, nil
		},
		listFn: func(_ context.Context, taskIDs []string) ([]Task, error) {
			out := make([]Task, 0, len(taskIDs))
			for _, id := range taskIDs {
				out = append(out, Task{ID: id, Kind: TaskKindMeeting, Status: TaskStatusOpen})
			}
			return out, nil
		},
		updateFn: func(_ context.Context, in UpdateTaskInput) error {
			updated = append(updated, in)
			return nil
		},
		completeFn: func(_ context.Context, userID, taskID string, _ time.Time) error {
			if userID != "u1" {
				t.Fatalf("expected completion scoped to u1, got %q", userID)
			}
			completed = append(completed, taskID)
			return nil
		},
	}
	mappings := &stubMappingStore{
		listFn: func(_ context.Context, userID, providerID string, externalIDs []string) ([]EventTaskMapping, error) {
			if userID != "u1" || providerID != ProviderCalendly {
				t.Fatalf("unexpected mapping lookup: %q %q", userID, providerID)
			}
			if len(externalIDs) != 3 {
				t.Fatalf("expected 3 external ids, got %d", len(externalIDs))
			}
			return []EventTaskMapping{
				{ID: "map-known", UserID: userID, ProviderID: providerID, ExternalEventID: "ev-known", TaskID: "task-known"},
				{ID: "map-gone", UserID: userID, ProviderID: providerID, ExternalEventID: "ev-gone", TaskID: "task-gone"},
			}, nil
		},
		upsertFn: func(_ context.Context, in UpsertMappingInput) (EventTaskMapping, error) {
			upserts = append(upserts, in)
			return EventTaskMapping{ID: "map-new", TaskID: in.TaskID, ExternalEventID: in.ExternalEventID}, nil
		},
		markCanceledFn: func(_ context.Context, mappingID string, _ time.Time) error {
			canceledMappings = append(canceledMappings, mappingID)
			return nil
		},
	}

	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderCalendly)),
		WithMappingStore(mappings),
		WithTaskStore(tasks),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderCalendly, 0)
	if err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 || result.Canceled != 1 {
		t.Fatalf("unexpected counters: %#v", result)
	}
	if result.Total != 3 || result.Skipped != 0 {
		t.Fatalf("unexpected totals: %#v", result)
	}

	if len(created) != 1 {
		t.Fatalf("expected one created task, got %d", len(created))
	}
	if created[0].Kind != TaskKindMeeting || created[0].Status != TaskStatusOpen {
		t.Fatalf("unexpected created task shape: %#v", created[0])
	}
	if created[0].DueAt == nil || !created[0].DueAt.Equal(events[0].StartsAt.UTC()) {
		t.Fatalf("expected due date from event start: %#v", created[0].DueAt)
	}
	if !strings.Contains(created[0].Notes, "https://meet.example/1") {
		t.Fatalf("expected join url in notes: %q", created[0].Notes)
	}
	if len(upserts) != 1 || upserts[0].ExternalEventID != "ev-new" || upserts[0].TaskID != "task-new" {
		t.Fatalf("unexpected mapping upserts: %#v", upserts)
	}
	if len(updated) != 1 || updated[0].TaskID != "task-known" || updated[0].Title != "Standup (moved)" {
		t.Fatalf("unexpected task updates: %#v", updated)
	}
	if updated[0].UserID != "u1" {
		t.Fatalf("expected update scoped to u1, got %q", updated[0].UserID)
	}
	if len(completed) != 1 || completed[0] != "task-gone" {
		t.Fatalf("unexpected completions: %#v", completed)
	}
	if len(canceledMappings) != 1 || canceledMappings[0] != "map-gone" {
		t.Fatalf("unexpected canceled mappings: %#v", canceledMappings)
	}
}

func TestSyncTasks_FetchWindowStartsBehindNow(t *testing.T) {
	var windowStart time.Time
	provider := &stubProvider{
		id: ProviderGoogle,
		listFn: func(_ context.Context, _ string, start time.Time, _ int) ([]NormalizedEvent, error) {
			windowStart = start
			return nil, nil
		},
	}
	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderGoogle)),
		WithMappingStore(&stubMappingStore{}),
		WithTaskStore(&stubTaskStore{}),
	)

	if _, err := service.SyncTasks(context.Background(), "u1", ProviderGoogle, 0); err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	lag := time.Since(windowStart)
	if lag < 23*time.Hour+59*time.Minute || lag > 24*time.Hour+time.Minute {
		t.Fatalf("expected a 24h lookback window, got lag %v", lag)
	}
}

func TestSyncTasks_LookbackHonorsConfig(t *testing.T) {
	var windowStart time.Time
	provider := &stubProvider{
		id: ProviderZoom,
		listFn: func(_ context.Context, _ string, start time.Time, _ int) ([]NormalizedEvent, error) {
			windowStart = start
			return nil, nil
		},
	}
	service, err := NewService(Config{Sync: SyncConfig{LookbackHours: 2}},
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderZoom)),
		WithMappingStore(&stubMappingStore{}),
		WithTaskStore(&stubTaskStore{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := service.SyncTasks(context.Background(), "u1", ProviderZoom, 0); err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	lag := time.Since(windowStart)
	if lag < time.Hour+59*time.Minute || lag > 2*time.Hour+time.Minute {
		t.Fatalf("expected a 2h lookback window, got lag %v", lag)
	}
}

func TestSyncTasks_SecondRunUpdatesInsteadOfCreating(t *testing.T) {
	now := time.Now().UTC()
	event := NormalizedEvent{ExternalID: "ev-1", Title: "Planning", StartsAt: now.Add(time.Hour)}
	provider := &stubProvider{
		id: ProviderCalcom,
		listFn: func(context.Context, string, time.Time, int) ([]NormalizedEvent, error) {
			return []NormalizedEvent{event}, nil
		},
	}
	tasks := &stubTaskStore{
		updateFn: func(context.Context, UpdateTaskInput) error { return nil },
		listFn: func(_ context.Context, taskIDs []string) ([]Task, error) {
			return []Task{{ID: "task-1", Kind: TaskKindMeeting, Status: TaskStatusOpen}}, nil
		},
	}
	mappings := &stubMappingStore{
		listFn: func(context.Context, string, string, []string) ([]EventTaskMapping, error) {
			return []EventTaskMapping{{ID: "map-1", ExternalEventID: "ev-1", TaskID: "task-1"}}, nil
		},
	}

	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderCalcom)),
		WithMappingStore(mappings),
		WithTaskStore(tasks),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderCalcom, 0)
	if err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 || result.Total != 1 {
		t.Fatalf("expected pure update pass, got %#v", result)
	}
}

func TestSyncTasks_ReappearedEventClearsCancellation(t *testing.T) {
	now := time.Now().UTC()
	canceledAt := now.Add(-time.Hour)
	provider := &stubProvider{
		id: ProviderGoogle,
		listFn: func(context.Context, string, time.Time, int) ([]NormalizedEvent, error) {
			return []NormalizedEvent{{ExternalID: "ev-1", Title: "Revived", StartsAt: now.Add(time.Hour)}}, nil
		},
	}
	cleared := []string{}
	mappings := &stubMappingStore{
		listFn: func(context.Context, string, string, []string) ([]EventTaskMapping, error) {
			return []EventTaskMapping{{ID: "map-1", ExternalEventID: "ev-1", TaskID: "task-1", CanceledAt: &canceledAt}}, nil
		},
		clearCanceledFn: func(_ context.Context, mappingID string) error {
			cleared = append(cleared, mappingID)
			return nil
		},
	}
	tasks := &stubTaskStore{
		updateFn: func(context.Context, UpdateTaskInput) error { return nil },
	}

	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderGoogle)),
		WithMappingStore(mappings),
		WithTaskStore(tasks),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderGoogle, 0)
	if err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected update outcome, got %#v", result)
	}
	if len(cleared) != 1 || cleared[0] != "map-1" {
		t.Fatalf("expected cancellation cleared for map-1, got %#v", cleared)
	}
}

func TestSyncTasks_UnmappedCancelledEventIsNoop(t *testing.T) {
	provider := &stubProvider{
		id: ProviderZoom,
		listFn: func(context.Context, string, time.Time, int) ([]NormalizedEvent, error) {
			return []NormalizedEvent{{ExternalID: "ev-dead", Title: "Never seen", StartsAt: time.Now().UTC(), IsCancelled: true}}, nil
		},
	}
	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderZoom)),
		WithMappingStore(&stubMappingStore{}),
		WithTaskStore(&stubTaskStore{}),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderZoom, 0)
	if err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	if result.Created != 0 || result.Updated != 0 || result.Canceled != 0 {
		t.Fatalf("expected noop counters, got %#v", result)
	}
	if result.Total != 1 || result.Skipped != 0 {
		t.Fatalf("expected the event counted as processed, got %#v", result)
	}
}

func TestSyncTasks_PerEventFailureSkipsAndContinues(t *testing.T) {
	now := time.Now().UTC()
	provider := &stubProvider{
		id: ProviderGoogle,
		listFn: func(context.Context, string, time.Time, int) ([]NormalizedEvent, error) {
			return []NormalizedEvent{
				{ExternalID: "ev-bad", Title: "Broken", StartsAt: now.Add(time.Hour)},
				{ExternalID: "", Title: "No id", StartsAt: now.Add(time.Hour)},
				{ExternalID: "ev-good", Title: "Works", StartsAt: now.Add(2 * time.Hour)},
			}, nil
		},
	}
	tasks := &stubTaskStore{
		createFn: func(_ context.Context, in CreateTaskInput) (Task, error) {
			if in.Title == "Broken" {
				return Task{}, fmt.Errorf("stub: insert failed")
			}
			return Task{ID: "task-good"}, nil
		},
	}
	mappings := &stubMappingStore{
		listFn: func(context.Context, string, string, []string) ([]EventTaskMapping, error) {
			return nil, nil
		},
		upsertFn: func(_ context.Context, in UpsertMappingInput) (EventTaskMapping, error) {
			return EventTaskMapping{ID: "map-good", TaskID: in.TaskID}, nil
		},
	}

	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderGoogle)),
		WithMappingStore(mappings),
		WithTaskStore(tasks),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderGoogle, 0)
	if err != nil {
		t.Fatalf("expected fail-open batch, got %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected the healthy event created, got %#v", result)
	}
	if result.Skipped != 2 {
		t.Fatalf("expected two skipped events, got %#v", result)
	}
	if result.Total != 1 {
		t.Fatalf("expected skipped events excluded from total, got %#v", result)
	}
}

func TestSyncTasks_EmptyEventListIsZeroResult(t *testing.T) {
	provider := &stubProvider{
		id: ProviderCalendly,
		listFn: func(context.Context, string, time.Time, int) ([]NormalizedEvent, error) {
			return nil, nil
		},
	}
	service := newTestService(t,
		WithRegistry(registryWith(t, provider)),
		WithConnectionStore(freshConnectionStore(ProviderCalendly)),
		WithMappingStore(&stubMappingStore{}),
		WithTaskStore(&stubTaskStore{}),
	)

	result, err := service.SyncTasks(context.Background(), "u1", ProviderCalendly, 0)
	if err != nil {
		t.Fatalf("sync tasks: %v", err)
	}
	if result != (SyncResult{}) {
		t.Fatalf("expected zero result, got %#v", result)
	}
}

func TestNormalizeMaxCount_Bounds(t *testing.T) {
	service := newTestService(t)

	cases := []struct {
		in   int
		want int
	}{
		{in: 0, want: 50},
		{in: -3, want: 50},
		{in: 10, want: 10},
		{in: 100, want: 100},
		{in: 500, want: 100},
	}
	for _, tc := range cases {
		if got := service.normalizeMaxCount(tc.in); got != tc.want {
			t.Fatalf("normalizeMaxCount(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
