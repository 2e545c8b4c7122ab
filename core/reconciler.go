package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type eventOutcome string

const (
	outcomeCreated  eventOutcome = "created"
	outcomeUpdated  eventOutcome = "updated"
	outcomeCanceled eventOutcome = "canceled"
	outcomeNoop     eventOutcome = "noop"
	outcomeSkipped  eventOutcome = "skipped"
)

// SyncTasks fetches the user's upcoming provider events and reconciles
// them against the task ledger. Each event takes exactly one path:
// create, update, or cancel. A per-event store failure skips that event
// and lets the batch continue.
func (s *Service) SyncTasks(ctx context.Context, userID, providerID string, maxCount int) (result SyncResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":  userID,
		"provider": providerID,
	}
	defer func() {
		fields["created"] = result.Created
		fields["updated"] = result.Updated
		fields["canceled"] = result.Canceled
		fields["skipped"] = result.Skipped
		fields["total"] = result.Total
		s.observeSyncOperation(ctx, startedAt, opSyncTasks, err, fields)
	}()

	if s == nil {
		return SyncResult{}, fmt.Errorf("core: service is nil")
	}
	userID = strings.TrimSpace(userID)
	providerID = NormalizeProviderID(providerID)
	if userID == "" {
		err = s.mapError(fmt.Errorf("core: user id is required"))
		return SyncResult{}, err
	}
	if err = ValidateProviderID(providerID); err != nil {
		err = s.mapError(err)
		return SyncResult{}, err
	}
	if s.mappingStore == nil || s.taskStore == nil {
		err = s.mapError(fmt.Errorf("core: mapping and task stores are required"))
		return SyncResult{}, err
	}
	maxCount = s.normalizeMaxCount(maxCount)

	grant, err := s.GetValidAccessToken(ctx, userID, providerID)
	if err != nil {
		return SyncResult{}, err
	}
	provider, err := s.resolveProvider(providerID)
	if err != nil {
		return SyncResult{}, err
	}

	now := time.Now().UTC()
	// Fetch from behind now so in-progress meetings that were just
	// cancelled or moved are still reconciled.
	windowStart := now.Add(-s.config.syncLookback())
	events, listErr := provider.ListUpcomingEvents(ctx, grant.AccessToken, windowStart, maxCount)
	if listErr != nil {
		err = s.mapError(listErr)
		return SyncResult{}, err
	}
	if len(events) == 0 {
		return SyncResult{}, nil
	}

	externalIDs := make([]string, 0, len(events))
	for _, event := range events {
		if id := strings.TrimSpace(event.ExternalID); id != "" {
			externalIDs = append(externalIDs, id)
		}
	}
	mappings, mapErr := s.mappingStore.ListByExternalIDs(ctx, userID, providerID, externalIDs)
	if mapErr != nil {
		err = s.mapError(mapErr)
		return SyncResult{}, err
	}
	mappingsByEventID := make(map[string]EventTaskMapping, len(mappings))
	taskIDs := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		mappingsByEventID[mapping.ExternalEventID] = mapping
		taskIDs = append(taskIDs, mapping.TaskID)
	}
	tasksByID := map[string]Task{}
	if len(taskIDs) > 0 {
		tasks, taskErr := s.taskStore.ListByIDs(ctx, taskIDs)
		if taskErr != nil {
			err = s.mapError(taskErr)
			return SyncResult{}, err
		}
		tasksByID = make(map[string]Task, len(tasks))
		for _, task := range tasks {
			tasksByID[task.ID] = task
		}
	}

	for _, event := range events {
		externalID := strings.TrimSpace(event.ExternalID)
		if externalID == "" {
			result.Skipped++
			continue
		}
		mapping, mapped := mappingsByEventID[externalID]

		outcome, applyErr := s.applyEvent(ctx, userID, providerID, event, mapping, mapped, tasksByID, now)
		if applyErr != nil {
			result.Skipped++
			s.logError(ctx, "event reconciliation failed", map[string]any{
				"user_id":           userID,
				"provider":          providerID,
				"external_event_id": externalID,
				"error":             applyErr.Error(),
			})
			continue
		}
		switch outcome {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		case outcomeCanceled:
			result.Canceled++
		}
		result.Total++
	}
	return result, nil
}

func (s *Service) normalizeMaxCount(maxCount int) int {
	defaultCount := s.config.Sync.DefaultMaxCount
	if defaultCount <= 0 {
		defaultCount = 50
	}
	hardCap := s.config.Sync.MaxCountCap
	if hardCap <= 0 {
		hardCap = 100
	}
	if maxCount <= 0 {
		maxCount = defaultCount
	}
	if maxCount > hardCap {
		maxCount = hardCap
	}
	return maxCount
}

func (s *Service) applyEvent(
	ctx context.Context,
	userID string,
	providerID string,
	event NormalizedEvent,
	mapping EventTaskMapping,
	mapped bool,
	tasksByID map[string]Task,
	now time.Time,
) (eventOutcome, error) {
	if !mapped {
		if event.IsCancelled {
			// Cancelled events never seen before have nothing to tear down.
			return outcomeNoop, nil
		}
		return s.createTaskForEvent(ctx, userID, providerID, event)
	}

	if event.IsCancelled {
		if mapping.CanceledAt != nil {
			return outcomeNoop, nil
		}
		return s.cancelTaskForEvent(ctx, mapping, now)
	}
	return s.updateTaskForEvent(ctx, event, mapping, tasksByID)
}

func (s *Service) createTaskForEvent(ctx context.Context, userID, providerID string, event NormalizedEvent) (eventOutcome, error) {
	dueAt := event.StartsAt.UTC()
	task, err := s.taskStore.Create(ctx, CreateTaskInput{
		UserID:   userID,
		Title:    eventTitle(event),
		Notes:    eventNotes(providerID, event),
		Kind:     TaskKindMeeting,
		Priority: DefaultTaskPriority,
		Status:   TaskStatusOpen,
		DueAt:    &dueAt,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if _, err := s.mappingStore.Upsert(ctx, UpsertMappingInput{
		UserID:          userID,
		ProviderID:      providerID,
		ExternalEventID: strings.TrimSpace(event.ExternalID),
		TaskID:          task.ID,
	}); err != nil {
		return outcomeSkipped, err
	}
	return outcomeCreated, nil
}

func (s *Service) updateTaskForEvent(ctx context.Context, event NormalizedEvent, mapping EventTaskMapping, tasksByID map[string]Task) (eventOutcome, error) {
	dueAt := event.StartsAt.UTC()
	task, known := tasksByID[mapping.TaskID]
	kind := TaskKindMeeting
	if known && strings.TrimSpace(task.Kind) != "" {
		kind = task.Kind
	}
	notes := eventNotes(mapping.ProviderID, event)
	if err := s.taskStore.UpdateEventFields(ctx, UpdateTaskInput{
		UserID: mapping.UserID,
		TaskID: mapping.TaskID,
		Title:  eventTitle(event),
		Notes:  notes,
		Kind:   kind,
		DueAt:  &dueAt,
	}); err != nil {
		return outcomeSkipped, err
	}
	if mapping.CanceledAt != nil {
		// Event came back after a cancellation; reopen the association.
		if err := s.mappingStore.ClearCanceled(ctx, mapping.ID); err != nil {
			return outcomeSkipped, err
		}
	}
	return outcomeUpdated, nil
}

func (s *Service) cancelTaskForEvent(ctx context.Context, mapping EventTaskMapping, now time.Time) (eventOutcome, error) {
	if err := s.taskStore.Complete(ctx, mapping.UserID, mapping.TaskID, now); err != nil {
		return outcomeSkipped, err
	}
	if err := s.mappingStore.MarkCanceled(ctx, mapping.ID, now); err != nil {
		return outcomeSkipped, err
	}
	return outcomeCanceled, nil
}

func eventTitle(event NormalizedEvent) string {
	title := strings.TrimSpace(event.Title)
	if title == "" {
		title = "Untitled meeting"
	}
	return title
}

func eventNotes(providerID string, event NormalizedEvent) string {
	lines := make([]string, 0, 2)
	if joinURL := strings.TrimSpace(event.JoinURL); joinURL != "" {
		lines = append(lines, "Join: "+joinURL)
	}
	lines = append(lines, fmt.Sprintf("Source: %s event %s", providerID, strings.TrimSpace(event.ExternalID)))
	return strings.Join(lines, "\n")
}
