package meetsync

import (
	"fmt"

	meetsynccommand "github.com/goliatone/go-meetsync/command"
	meetsyncquery "github.com/goliatone/go-meetsync/query"
)

type CommandQueryService interface {
	meetsynccommand.MutatingService
	meetsyncquery.TaskReader
	meetsyncquery.ConnectionStatusReader
	meetsyncquery.ProviderReader
}

type Commands struct {
	SyncTasks      *meetsynccommand.SyncTasksCommand
	GetAccessToken *meetsynccommand.GetAccessTokenCommand
	PushTaskEvent  *meetsynccommand.PushTaskEventCommand
	Disconnect     *meetsynccommand.DisconnectCommand
}

type Queries struct {
	GetTask             *meetsyncquery.GetTaskQuery
	GetConnectionStatus *meetsyncquery.GetConnectionStatusQuery
	ListProviders       *meetsyncquery.ListProvidersQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("meetsync: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		SyncTasks:      meetsynccommand.NewSyncTasksCommand(service),
		GetAccessToken: meetsynccommand.NewGetAccessTokenCommand(service),
		PushTaskEvent:  meetsynccommand.NewPushTaskEventCommand(service),
		Disconnect:     meetsynccommand.NewDisconnectCommand(service),
	}
	facade.queries = Queries{
		GetTask:             meetsyncquery.NewGetTaskQuery(service),
		GetConnectionStatus: meetsyncquery.NewGetConnectionStatusQuery(service),
		ListProviders:       meetsyncquery.NewListProvidersQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
