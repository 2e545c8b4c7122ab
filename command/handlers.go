package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-meetsync/core"
)

type MutatingService interface {
	GetValidAccessToken(ctx context.Context, userID, providerID string) (core.AccessGrant, error)
	SyncTasks(ctx context.Context, userID, providerID string, maxCount int) (core.SyncResult, error)
	PushTaskEventByID(ctx context.Context, userID, taskID string, shouldSync bool) (core.PushResult, error)
	Disconnect(ctx context.Context, userID, providerID string) error
}

type SyncTasksCommand struct {
	service MutatingService
}

func NewSyncTasksCommand(service MutatingService) *SyncTasksCommand {
	return &SyncTasksCommand{service: service}
}

func (c *SyncTasksCommand) Execute(ctx context.Context, msg SyncTasksMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sync service is required")
	}
	out, err := c.service.SyncTasks(ctx, msg.UserID, msg.ProviderID, msg.MaxCount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type GetAccessTokenCommand struct {
	service MutatingService
}

func NewGetAccessTokenCommand(service MutatingService) *GetAccessTokenCommand {
	return &GetAccessTokenCommand{service: service}
}

func (c *GetAccessTokenCommand) Execute(ctx context.Context, msg GetAccessTokenMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	out, err := c.service.GetValidAccessToken(ctx, msg.UserID, msg.ProviderID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PushTaskEventCommand struct {
	service MutatingService
}

func NewPushTaskEventCommand(service MutatingService) *PushTaskEventCommand {
	return &PushTaskEventCommand{service: service}
}

func (c *PushTaskEventCommand) Execute(ctx context.Context, msg PushTaskEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: push service is required")
	}
	out, err := c.service.PushTaskEventByID(ctx, msg.UserID, msg.TaskID, msg.ShouldSync)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, msg DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	return c.service.Disconnect(ctx, msg.UserID, msg.ProviderID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
