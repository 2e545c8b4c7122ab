package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownProvider    = errors.New("core: unknown provider")
	ErrInvalidTaskStatus  = errors.New("core: invalid task status")
	ErrInvalidPushAction  = errors.New("core: invalid push action")
	ErrConnectionNotFound = errors.New("core: connection not found")
)

const (
	ProviderGoogle   = "google"
	ProviderCalendly = "calendly"
	ProviderCalcom   = "calcom"
	ProviderZoom     = "zoom"
)

func KnownProviderIDs() []string {
	return []string{ProviderCalcom, ProviderCalendly, ProviderGoogle, ProviderZoom}
}

// NormalizeProviderID lowercases and trims a caller-supplied provider id
// so validation, registry lookup, and store rows agree on one casing.
func NormalizeProviderID(providerID string) string {
	return strings.ToLower(strings.TrimSpace(providerID))
}

func ValidateProviderID(providerID string) error {
	switch NormalizeProviderID(providerID) {
	case ProviderGoogle, ProviderCalendly, ProviderCalcom, ProviderZoom:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}
}

// OAuthConnection is the stored credential row for one (user, provider) pair.
// RefreshToken, once stored, is never overwritten with an empty value: a
// refresh response that omits a rotated token keeps the previous one.
type OAuthConnection struct {
	ID             string
	UserID         string
	ProviderID     string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	Scope          string
	ProviderEmail  string
	ProviderUserID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusOpen, TaskStatusDone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTaskStatus, string(s))
	}
}

const (
	TaskKindMeeting = "meeting"
	TaskKindGeneral = "general"

	DefaultTaskPriority = 2
)

type Task struct {
	ID          string
	UserID      string
	Title       string
	Notes       string
	Kind        string
	Priority    int
	Status      TaskStatus
	DueAt       *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventTaskMapping associates one remote event/booking with one internal
// task. Uniqueness of (UserID, ProviderID, ExternalEventID) is enforced at
// the storage layer; re-processing an event never creates a second task.
type EventTaskMapping struct {
	ID              string
	UserID          string
	ProviderID      string
	ExternalEventID string
	TaskID          string
	CanceledAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizedEvent is the provider-agnostic event shape produced by each
// event lister. The reconciliation engine never sees provider payloads.
type NormalizedEvent struct {
	ExternalID  string
	Title       string
	StartsAt    time.Time
	EndsAt      *time.Time
	JoinURL     string
	IsCancelled bool
}

type SyncResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Canceled int `json:"canceled"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

type PushAction string

const (
	PushActionInsert PushAction = "insert"
	PushActionUpdate PushAction = "update"
	PushActionDelete PushAction = "delete"
	PushActionSkip   PushAction = "skip"
)

func (a PushAction) Validate() error {
	switch a {
	case PushActionInsert, PushActionUpdate, PushActionDelete, PushActionSkip:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPushAction, string(a))
	}
}

type PushResult struct {
	Action          PushAction `json:"action"`
	ExternalEventID string     `json:"external_event_id,omitempty"`
}

// ConnectionStatus is the read-side projection of an OAuth connection.
// It never carries token material.
type ConnectionStatus struct {
	Connected      bool      `json:"connected"`
	ProviderID     string    `json:"provider_id"`
	ProviderEmail  string    `json:"provider_email,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	TokenFresh     bool      `json:"token_fresh"`
	HasRefreshPath bool      `json:"has_refresh_path"`
}

// AccessGrant is the outcome of a token-fetch: a bearer token plus the
// provider-side account email the connection is bound to.
type AccessGrant struct {
	AccessToken   string
	ProviderEmail string
}
