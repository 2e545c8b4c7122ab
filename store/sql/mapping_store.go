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

type MappingStore struct {
	db   *bun.DB
	repo repository.Repository[*mappingRecord]
}

func NewMappingStore(db *bun.DB) (*MappingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*mappingRecord](db, mappingHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid mapping repository wiring: %w", err)
		}
	}
	return &MappingStore{db: db, repo: repo}, nil
}

func (s *MappingStore) ListByExternalIDs(ctx context.Context, userID, providerID string, externalIDs []string) ([]core.EventTaskMapping, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: mapping store is not configured")
	}
	userID = strings.TrimSpace(userID)
	providerID = strings.TrimSpace(providerID)
	if userID == "" || providerID == "" {
		return nil, fmt.Errorf("sqlstore: user id and provider are required")
	}
	ids := trimNonEmpty(externalIDs)
	if len(ids) == 0 {
		return []core.EventTaskMapping{}, nil
	}

	var records []mappingRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.provider = ?", providerID).
		Where("?TableAlias.external_event_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	mappings := make([]core.EventTaskMapping, 0, len(records))
	for i := range records {
		mappings = append(mappings, records[i].toDomain())
	}
	return mappings, nil
}

// Upsert inserts the mapping row, falling back to an update when the
// unique (user, provider, external event) triple already exists.
func (s *MappingStore) Upsert(ctx context.Context, in core.UpsertMappingInput) (core.EventTaskMapping, error) {
	if s == nil || s.db == nil {
		return core.EventTaskMapping{}, fmt.Errorf("sqlstore: mapping store is not configured")
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	in.ExternalEventID = strings.TrimSpace(in.ExternalEventID)
	in.TaskID = strings.TrimSpace(in.TaskID)
	if in.UserID == "" || in.ProviderID == "" {
		return core.EventTaskMapping{}, fmt.Errorf("sqlstore: user id and provider are required")
	}
	if in.ExternalEventID == "" || in.TaskID == "" {
		return core.EventTaskMapping{}, fmt.Errorf("sqlstore: external event id and task id are required")
	}
	now := time.Now().UTC()

	var out core.EventTaskMapping
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findMappingTx(ctx, tx, in.UserID, in.ProviderID, in.ExternalEventID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &mappingRecord{
				ID:              uuid.NewString(),
				UserID:          in.UserID,
				Provider:        in.ProviderID,
				ExternalEventID: in.ExternalEventID,
				TaskID:          in.TaskID,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if !isUniqueViolation(insertErr) {
					return insertErr
				}
				record, err = findMappingTx(ctx, tx, in.UserID, in.ProviderID, in.ExternalEventID)
				if err != nil {
					return err
				}
				if record == nil {
					return insertErr
				}
			} else {
				out = record.toDomain()
				return nil
			}
		}

		record.TaskID = in.TaskID
		record.CanceledAt = nil
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.EventTaskMapping{}, err
	}
	return out, nil
}

func (s *MappingStore) MarkCanceled(ctx context.Context, mappingID string, canceledAt time.Time) error {
	return s.setCanceledAt(ctx, mappingID, &canceledAt)
}

func (s *MappingStore) ClearCanceled(ctx context.Context, mappingID string) error {
	return s.setCanceledAt(ctx, mappingID, nil)
}

func (s *MappingStore) setCanceledAt(ctx context.Context, mappingID string, canceledAt *time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: mapping store is not configured")
	}
	mappingID = strings.TrimSpace(mappingID)
	if mappingID == "" {
		return fmt.Errorf("sqlstore: mapping id is required")
	}
	query := s.db.NewUpdate().
		Model((*mappingRecord)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", mappingID)
	if canceledAt != nil {
		query = query.Set("canceled_at = ?", canceledAt.UTC())
	} else {
		query = query.Set("canceled_at = NULL")
	}
	_, err := query.Exec(ctx)
	return err
}

func findMappingTx(ctx context.Context, tx bun.Tx, userID, providerID, externalEventID string) (*mappingRecord, error) {
	record := &mappingRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Where("?TableAlias.provider = ?", strings.TrimSpace(providerID)).
		Where("?TableAlias.external_event_id = ?", strings.TrimSpace(externalEventID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var _ core.MappingStore = (*MappingStore)(nil)
