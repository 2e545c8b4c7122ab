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

type ConnectionStore struct {
	db   *bun.DB
	repo repository.Repository[*connectionRecord]
}

func NewConnectionStore(db *bun.DB) (*ConnectionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*connectionRecord](db, connectionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid connection repository wiring: %w", err)
		}
	}
	return &ConnectionStore{db: db, repo: repo}, nil
}

func (s *ConnectionStore) GetByUserProvider(ctx context.Context, userID, providerID string) (core.OAuthConnection, error) {
	if s == nil || s.db == nil {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: connection store is not configured")
	}
	userID = strings.TrimSpace(userID)
	providerID = strings.TrimSpace(providerID)
	if userID == "" || providerID == "" {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: user id and provider are required")
	}

	record := &connectionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.provider = ?", providerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.OAuthConnection{}, fmt.Errorf("sqlstore: %w for user %q provider %q", core.ErrConnectionNotFound, userID, providerID)
		}
		return core.OAuthConnection{}, err
	}
	return record.toDomain(), nil
}

// SaveTokens upserts the token columns of the (user, provider) row. An
// empty RefreshToken or Scope keeps the stored value, so a provider that
// does not rotate refresh tokens never wipes the stored one.
func (s *ConnectionStore) SaveTokens(ctx context.Context, in core.SaveTokensInput) (core.OAuthConnection, error) {
	if s == nil || s.db == nil {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: connection store is not configured")
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	if in.UserID == "" || in.ProviderID == "" {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: user id and provider are required")
	}
	if strings.TrimSpace(in.AccessToken) == "" {
		return core.OAuthConnection{}, fmt.Errorf("sqlstore: access token is required")
	}
	now := time.Now().UTC()

	var out core.OAuthConnection
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findConnectionTx(ctx, tx, in.UserID, in.ProviderID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &connectionRecord{
				ID:           uuid.NewString(),
				UserID:       in.UserID,
				Provider:     in.ProviderID,
				AccessToken:  in.AccessToken,
				RefreshToken: in.RefreshToken,
				ExpiresAt:    in.ExpiresAt.UTC(),
				Scope:        in.Scope,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if !isUniqueViolation(insertErr) {
					return insertErr
				}
				record, err = findConnectionTx(ctx, tx, in.UserID, in.ProviderID)
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

		record.AccessToken = in.AccessToken
		if strings.TrimSpace(in.RefreshToken) != "" {
			record.RefreshToken = in.RefreshToken
		}
		if strings.TrimSpace(in.Scope) != "" {
			record.Scope = in.Scope
		}
		record.ExpiresAt = in.ExpiresAt.UTC()
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.OAuthConnection{}, err
	}
	return out, nil
}

func (s *ConnectionStore) Delete(ctx context.Context, userID, providerID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: connection store is not configured")
	}
	userID = strings.TrimSpace(userID)
	providerID = strings.TrimSpace(providerID)
	if userID == "" || providerID == "" {
		return fmt.Errorf("sqlstore: user id and provider are required")
	}
	_, err := s.db.NewDelete().
		Model((*connectionRecord)(nil)).
		Where("user_id = ?", userID).
		Where("provider = ?", providerID).
		Exec(ctx)
	return err
}

func findConnectionTx(ctx context.Context, tx bun.Tx, userID, providerID string) (*connectionRecord, error) {
	record := &connectionRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Where("?TableAlias.provider = ?", strings.TrimSpace(providerID)).
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

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

var _ core.ConnectionStore = (*ConnectionStore)(nil)
