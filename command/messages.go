package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-meetsync/core"
)

const (
	TypeSyncTasks      = "meetsync.command.sync_tasks"
	TypeGetAccessToken = "meetsync.command.access_token.get"
	TypePushTaskEvent  = "meetsync.command.push_task_event"
	TypeDisconnect     = "meetsync.command.disconnect"
)

type SyncTasksMessage struct {
	UserID     string
	ProviderID string
	MaxCount   int
}

func (SyncTasksMessage) Type() string { return TypeSyncTasks }

func (m SyncTasksMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	if err := validateProvider(m.ProviderID); err != nil {
		return err
	}
	if m.MaxCount < 0 {
		return fmt.Errorf("command: max count must not be negative")
	}
	return nil
}

type GetAccessTokenMessage struct {
	UserID     string
	ProviderID string
}

func (GetAccessTokenMessage) Type() string { return TypeGetAccessToken }

func (m GetAccessTokenMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	return validateProvider(m.ProviderID)
}

type PushTaskEventMessage struct {
	UserID     string
	TaskID     string
	ShouldSync bool
}

func (PushTaskEventMessage) Type() string { return TypePushTaskEvent }

func (m PushTaskEventMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	if strings.TrimSpace(m.TaskID) == "" {
		return fmt.Errorf("command: task id is required")
	}
	return nil
}

type DisconnectMessage struct {
	UserID     string
	ProviderID string
}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (m DisconnectMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	return validateProvider(m.ProviderID)
}

func validateProvider(providerID string) error {
	if err := core.ValidateProviderID(providerID); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}
