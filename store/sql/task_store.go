package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-meetsync/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TaskStore struct {
	db   *bun.DB
	repo repository.Repository[*taskRecord]
}

func NewTaskStore(db *bun.DB) (*TaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*taskRecord](db, taskHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid task repository wiring: %w", err)
		}
	}
	return &TaskStore{db: db, repo: repo}, nil
}

func (s *TaskStore) Create(ctx context.Context, in core.CreateTaskInput) (core.Task, error) {
	if s == nil || s.db == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return core.Task{}, fmt.Errorf("sqlstore: user id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return core.Task{}, fmt.Errorf("sqlstore: title is required")
	}
	if err := in.Status.Validate(); strings.TrimSpace(string(in.Status)) != "" && err != nil {
		return core.Task{}, err
	}

	record := newTaskRecord(in, time.Now().UTC())
	record.ID = uuid.NewString()
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Task{}, err
	}
	return record.toDomain(), nil
}

func (s *TaskStore) Get(ctx context.Context, taskID string) (core.Task, error) {
	if s == nil || s.db == nil {
		return core.Task{}, fmt.Errorf("sqlstore: task store is not configured")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return core.Task{}, fmt.Errorf("sqlstore: task id is required")
	}
	record := &taskRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", taskID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Task{}, fmt.Errorf("sqlstore: task not found: %q", taskID)
		}
		return core.Task{}, err
	}
	return record.toDomain(), nil
}

func (s *TaskStore) ListByIDs(ctx context.Context, taskIDs []string) ([]core.Task, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: task store is not configured")
	}
	ids := trimNonEmpty(taskIDs)
	if len(ids) == 0 {
		return []core.Task{}, nil
	}
	var records []taskRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]core.Task, 0, len(records))
	for i := range records {
		tasks = append(tasks, records[i].toDomain())
	}
	return tasks, nil
}

// UpdateEventFields overwrites the event-derived columns only; status
// and completed_at are untouched. The write is scoped to the owning
// user, so a row belonging to anyone else is left alone.
func (s *TaskStore) UpdateEventFields(ctx context.Context, in core.UpdateTaskInput) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return fmt.Errorf("sqlstore: user id is required")
	}
	taskID := strings.TrimSpace(in.TaskID)
	if taskID == "" {
		return fmt.Errorf("sqlstore: task id is required")
	}
	query := s.db.NewUpdate().
		Model((*taskRecord)(nil)).
		Set("title = ?", strings.TrimSpace(in.Title)).
		Set("notes = ?", in.Notes).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", taskID).
		Where("user_id = ?", userID)
	if kind := strings.TrimSpace(in.Kind); kind != "" {
		query = query.Set("kind = ?", kind)
	}
	if in.DueAt != nil {
		query = query.Set("due_at = ?", in.DueAt.UTC())
	} else {
		query = query.Set("due_at = NULL")
	}
	_, err := query.Exec(ctx)
	return err
}

func (s *TaskStore) Complete(ctx context.Context, userID, taskID string, completedAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: task store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("sqlstore: user id is required")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return fmt.Errorf("sqlstore: task id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*taskRecord)(nil)).
		Set("status = ?", string(core.TaskStatusDone)).
		Set("completed_at = ?", completedAt.UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", taskID).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

var _ core.TaskStore = (*TaskStore)(nil)
