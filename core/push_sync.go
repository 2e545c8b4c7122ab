package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CalendarMarkerProperty is the private extended property key stamped on
// every pushed calendar event. Its value is the owning task id, which
// makes remote lookup the idempotency source of truth.
const CalendarMarkerProperty = "meetsync_task_id"

// PushTaskEvent mirrors one task into the user's google calendar:
// insert when no marked event exists, update when one does, delete when
// the task should no longer be synced, skip when there is nothing to do.
func (s *Service) PushTaskEvent(ctx context.Context, userID string, task Task, shouldSync bool) (result PushResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":  userID,
		"provider": ProviderGoogle,
		"task_id":  task.ID,
	}
	defer func() {
		fields["action"] = string(result.Action)
		s.observeSyncOperation(ctx, startedAt, opPushTaskEvent, err, fields)
	}()

	if s == nil {
		return PushResult{}, fmt.Errorf("core: service is nil")
	}
	userID = strings.TrimSpace(userID)
	taskID := strings.TrimSpace(task.ID)
	if userID == "" {
		err = s.mapError(fmt.Errorf("core: user id is required"))
		return PushResult{}, err
	}
	if taskID == "" {
		err = s.mapError(fmt.Errorf("core: task id is required"))
		return PushResult{}, err
	}

	grant, err := s.GetValidAccessToken(ctx, userID, ProviderGoogle)
	if err != nil {
		return PushResult{}, err
	}
	writer, err := s.resolveCalendarWriter()
	if err != nil {
		return PushResult{}, err
	}

	externalEventID, found, findErr := writer.FindEventByOwnerMarker(ctx, grant.AccessToken, taskID)
	if findErr != nil {
		err = s.mapError(findErr)
		return PushResult{}, err
	}

	if !shouldSync || !taskIsSyncable(task) {
		if !found {
			result = PushResult{Action: PushActionSkip}
			return result, nil
		}
		if deleteErr := writer.DeleteEvent(ctx, grant.AccessToken, externalEventID); deleteErr != nil {
			err = s.mapError(deleteErr)
			return PushResult{}, err
		}
		result = PushResult{Action: PushActionDelete, ExternalEventID: externalEventID}
		return result, nil
	}

	input := s.calendarInputForTask(task, taskID)
	if found {
		if updateErr := writer.UpdateEvent(ctx, grant.AccessToken, externalEventID, input); updateErr != nil {
			err = s.mapError(updateErr)
			return PushResult{}, err
		}
		result = PushResult{Action: PushActionUpdate, ExternalEventID: externalEventID}
		return result, nil
	}

	insertedID, insertErr := writer.InsertEvent(ctx, grant.AccessToken, input)
	if insertErr != nil {
		err = s.mapError(insertErr)
		return PushResult{}, err
	}
	result = PushResult{Action: PushActionInsert, ExternalEventID: insertedID}
	return result, nil
}

// PushTaskEventByID loads the task then pushes it. Queue and command
// callers only carry the task id.
func (s *Service) PushTaskEventByID(ctx context.Context, userID, taskID string, shouldSync bool) (PushResult, error) {
	if s == nil {
		return PushResult{}, fmt.Errorf("core: service is nil")
	}
	if s.taskStore == nil {
		return PushResult{}, s.mapError(fmt.Errorf("core: task store is not configured"))
	}
	task, err := s.taskStore.Get(ctx, strings.TrimSpace(taskID))
	if err != nil {
		return PushResult{}, s.mapError(err)
	}
	return s.PushTaskEvent(ctx, userID, task, shouldSync)
}

func (s *Service) resolveCalendarWriter() (CalendarWriter, error) {
	provider, err := s.resolveProvider(ProviderGoogle)
	if err != nil {
		return nil, err
	}
	writer, ok := provider.(CalendarWriter)
	if !ok {
		wrapped := s.errorFactory(
			fmt.Sprintf("provider %q does not support calendar writes", ProviderGoogle),
			goerrors.CategoryOperation,
		).WithTextCode(SyncErrorPushFailed)
		return nil, wrapped.WithMetadata(map[string]any{"provider": ProviderGoogle})
	}
	return writer, nil
}

func (s *Service) calendarInputForTask(task Task, taskID string) CalendarEventInput {
	startsAt := time.Now().UTC()
	if task.DueAt != nil {
		startsAt = task.DueAt.UTC()
	}
	return CalendarEventInput{
		Title:       strings.TrimSpace(task.Title),
		Description: task.Notes,
		StartsAt:    startsAt,
		EndsAt:      startsAt.Add(s.config.pushEventDuration()),
		MarkerKey:   CalendarMarkerProperty,
		MarkerValue: taskID,
	}
}

func taskIsSyncable(task Task) bool {
	return task.Status == TaskStatusOpen && task.DueAt != nil
}
