package query

import (
	"context"

	"github.com/goliatone/go-meetsync/core"
)

type TaskReader interface {
	GetTask(ctx context.Context, taskID string) (core.Task, error)
}

type ConnectionStatusReader interface {
	GetConnectionStatus(ctx context.Context, userID, providerID string) (core.ConnectionStatus, error)
}

type ProviderReader interface {
	ListProviders(ctx context.Context) ([]string, error)
}

type GetTaskQuery struct {
	reader TaskReader
}

func NewGetTaskQuery(reader TaskReader) *GetTaskQuery {
	return &GetTaskQuery{reader: reader}
}

func (q *GetTaskQuery) Query(ctx context.Context, msg GetTaskMessage) (core.Task, error) {
	if q == nil || q.reader == nil {
		return core.Task{}, queryDependencyError("query: task reader is required")
	}
	return q.reader.GetTask(ctx, msg.TaskID)
}

type GetConnectionStatusQuery struct {
	reader ConnectionStatusReader
}

func NewGetConnectionStatusQuery(reader ConnectionStatusReader) *GetConnectionStatusQuery {
	return &GetConnectionStatusQuery{reader: reader}
}

func (q *GetConnectionStatusQuery) Query(
	ctx context.Context,
	msg GetConnectionStatusMessage,
) (core.ConnectionStatus, error) {
	if q == nil || q.reader == nil {
		return core.ConnectionStatus{}, queryDependencyError("query: connection status reader is required")
	}
	return q.reader.GetConnectionStatus(ctx, msg.UserID, msg.ProviderID)
}

type ListProvidersQuery struct {
	reader ProviderReader
}

func NewListProvidersQuery(reader ProviderReader) *ListProvidersQuery {
	return &ListProvidersQuery{reader: reader}
}

func (q *ListProvidersQuery) Query(ctx context.Context, msg ListProvidersMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: provider reader is required")
	}
	_ = msg
	return q.reader.ListProviders(ctx)
}
