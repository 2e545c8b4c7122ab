package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// TokenRefreshResult is what a provider returns from a refresh grant.
// RefreshToken may be empty when the provider does not rotate tokens;
// the lifecycle layer keeps the previous value in that case.
type TokenRefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        string
}

// Provider is the per-integration contract. Every provider can refresh
// credentials and list upcoming events; calendar write support is an
// optional capability discovered via type assertion.
type Provider interface {
	ID() string
	RefreshToken(ctx context.Context, refreshToken string) (TokenRefreshResult, error)
	ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]NormalizedEvent, error)
}

// EventLister is the fetch half of Provider, accepted where only the
// listing capability is needed.
type EventLister interface {
	ListUpcomingEvents(ctx context.Context, accessToken string, windowStart time.Time, maxCount int) ([]NormalizedEvent, error)
}

// TokenRevoker is implemented by providers that support remote refresh
// token revocation. Revocation is best effort on disconnect.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, refreshToken string) error
}

// CalendarEventInput carries everything a calendar writer needs to
// materialize one remote event for a task.
type CalendarEventInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	MarkerKey   string
	MarkerValue string
}

// CalendarWriter is the push capability. FindEventByOwnerMarker is the
// idempotency source of truth: the remote calendar is queried by the
// private marker before any write is attempted.
type CalendarWriter interface {
	FindEventByOwnerMarker(ctx context.Context, accessToken, markerValue string) (externalEventID string, found bool, err error)
	InsertEvent(ctx context.Context, accessToken string, in CalendarEventInput) (externalEventID string, err error)
	UpdateEvent(ctx context.Context, accessToken, externalEventID string, in CalendarEventInput) error
	DeleteEvent(ctx context.Context, accessToken, externalEventID string) error
}

type Registry interface {
	Register(provider Provider) error
	Get(providerID string) (Provider, bool)
	List() []Provider
}

// SaveTokensInput is the single persisted write after a successful
// refresh. Empty RefreshToken or Scope means "keep the stored value".
type SaveTokensInput struct {
	UserID       string
	ProviderID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

type ConnectionStore interface {
	GetByUserProvider(ctx context.Context, userID, providerID string) (OAuthConnection, error)
	SaveTokens(ctx context.Context, in SaveTokensInput) (OAuthConnection, error)
	Delete(ctx context.Context, userID, providerID string) error
}

// UpsertMappingInput creates or refreshes one event↔task association.
type UpsertMappingInput struct {
	UserID          string
	ProviderID      string
	ExternalEventID string
	TaskID          string
}

type MappingStore interface {
	ListByExternalIDs(ctx context.Context, userID, providerID string, externalIDs []string) ([]EventTaskMapping, error)
	Upsert(ctx context.Context, in UpsertMappingInput) (EventTaskMapping, error)
	MarkCanceled(ctx context.Context, mappingID string, canceledAt time.Time) error
	ClearCanceled(ctx context.Context, mappingID string) error
}

// CreateTaskInput is the task shape materialized for a newly seen event.
type CreateTaskInput struct {
	UserID   string
	Title    string
	Notes    string
	Kind     string
	Priority int
	Status   TaskStatus
	DueAt    *time.Time
}

// UpdateTaskInput overwrites the event-derived fields of an existing
// task; status is not touched on the update path. Writes are scoped to
// the owning user so one user's sync can never touch another's rows.
type UpdateTaskInput struct {
	UserID string
	TaskID string
	Title  string
	Notes  string
	Kind   string
	DueAt  *time.Time
}

type TaskStore interface {
	Create(ctx context.Context, in CreateTaskInput) (Task, error)
	Get(ctx context.Context, taskID string) (Task, error)
	ListByIDs(ctx context.Context, taskIDs []string) ([]Task, error)
	UpdateEventFields(ctx context.Context, in UpdateTaskInput) error
	Complete(ctx context.Context, userID, taskID string, completedAt time.Time) error
}

type StoreProvider interface {
	ConnectionStore() ConnectionStore
	MappingStore() MappingStore
	TaskStore() TaskStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type CommandMessage interface {
	Type() string
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, msg any) error
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

// SyncService is the public surface: token lifecycle, reconciliation,
// calendar push, and disconnect.
type SyncService interface {
	GetValidAccessToken(ctx context.Context, userID, providerID string) (AccessGrant, error)
	SyncTasks(ctx context.Context, userID, providerID string, maxCount int) (SyncResult, error)
	PushTaskEvent(ctx context.Context, userID string, task Task, shouldSync bool) (PushResult, error)
	Disconnect(ctx context.Context, userID, providerID string) error
}
