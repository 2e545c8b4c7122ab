package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-meetsync/core"
)

func (r *connectionRecord) toDomain() core.OAuthConnection {
	if r == nil {
		return core.OAuthConnection{}
	}
	return core.OAuthConnection{
		ID:             r.ID,
		UserID:         r.UserID,
		ProviderID:     r.Provider,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		ExpiresAt:      r.ExpiresAt,
		Scope:          r.Scope,
		ProviderEmail:  r.ProviderEmail,
		ProviderUserID: r.ProviderUserID,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (r *mappingRecord) toDomain() core.EventTaskMapping {
	if r == nil {
		return core.EventTaskMapping{}
	}
	return core.EventTaskMapping{
		ID:              r.ID,
		UserID:          r.UserID,
		ProviderID:      r.Provider,
		ExternalEventID: r.ExternalEventID,
		TaskID:          r.TaskID,
		CanceledAt:      cloneTimePointer(r.CanceledAt),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *taskRecord) toDomain() core.Task {
	if r == nil {
		return core.Task{}
	}
	return core.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Notes:       r.Notes,
		Kind:        r.Kind,
		Priority:    r.Priority,
		Status:      core.TaskStatus(r.Status),
		DueAt:       cloneTimePointer(r.DueAt),
		CompletedAt: cloneTimePointer(r.CompletedAt),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newTaskRecord(in core.CreateTaskInput, now time.Time) *taskRecord {
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.TaskStatusOpen
	}
	kind := strings.TrimSpace(in.Kind)
	if kind == "" {
		kind = core.TaskKindGeneral
	}
	priority := in.Priority
	if priority <= 0 {
		priority = core.DefaultTaskPriority
	}
	return &taskRecord{
		UserID:    strings.TrimSpace(in.UserID),
		Title:     strings.TrimSpace(in.Title),
		Notes:     in.Notes,
		Kind:      kind,
		Priority:  priority,
		Status:    string(status),
		DueAt:     cloneTimePointer(in.DueAt),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
