package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type connectionRecord struct {
	bun.BaseModel `bun:"table:oauth_connections,alias:oc"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	Provider       string    `bun:"provider,notnull"`
	AccessToken    string    `bun:"access_token"`
	RefreshToken   string    `bun:"refresh_token"`
	ExpiresAt      time.Time `bun:"expires_at,nullzero"`
	Scope          string    `bun:"scope"`
	ProviderEmail  string    `bun:"provider_email"`
	ProviderUserID string    `bun:"provider_user_id"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type mappingRecord struct {
	bun.BaseModel `bun:"table:event_task_mappings,alias:etm"`

	ID              string     `bun:"id,pk"`
	UserID          string     `bun:"user_id,notnull"`
	Provider        string     `bun:"provider,notnull"`
	ExternalEventID string     `bun:"external_event_id,notnull"`
	TaskID          string     `bun:"task_id,notnull"`
	CanceledAt      *time.Time `bun:"canceled_at,nullzero"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type taskRecord struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          string     `bun:"id,pk"`
	UserID      string     `bun:"user_id,notnull"`
	Title       string     `bun:"title,notnull"`
	Notes       string     `bun:"notes"`
	Kind        string     `bun:"kind,notnull"`
	Priority    int        `bun:"priority,notnull"`
	Status      string     `bun:"status,notnull"`
	DueAt       *time.Time `bun:"due_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
