package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-meetsync/core"
)

const (
	TypeGetTask             = "meetsync.query.task.get"
	TypeGetConnectionStatus = "meetsync.query.connection.status"
	TypeListProviders       = "meetsync.query.providers.list"
)

type GetTaskMessage struct {
	TaskID string
}

func (GetTaskMessage) Type() string { return TypeGetTask }

func (m GetTaskMessage) Validate() error {
	if strings.TrimSpace(m.TaskID) == "" {
		return fmt.Errorf("query: task id is required")
	}
	return nil
}

type GetConnectionStatusMessage struct {
	UserID     string
	ProviderID string
}

func (GetConnectionStatusMessage) Type() string { return TypeGetConnectionStatus }

func (m GetConnectionStatusMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("query: user id is required")
	}
	if err := core.ValidateProviderID(m.ProviderID); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}

type ListProvidersMessage struct{}

func (ListProvidersMessage) Type() string { return TypeListProviders }

func (ListProvidersMessage) Validate() error { return nil }
