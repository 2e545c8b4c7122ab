package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-meetsync/core"
)

var (
	_ gocmd.Querier[GetTaskMessage, core.Task]                           = (*GetTaskQuery)(nil)
	_ gocmd.Querier[GetConnectionStatusMessage, core.ConnectionStatus]   = (*GetConnectionStatusQuery)(nil)
	_ gocmd.Querier[ListProvidersMessage, []string]                      = (*ListProvidersQuery)(nil)
)
