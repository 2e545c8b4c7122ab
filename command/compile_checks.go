package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SyncTasksMessage]      = (*SyncTasksCommand)(nil)
	_ gocmd.Commander[GetAccessTokenMessage] = (*GetAccessTokenCommand)(nil)
	_ gocmd.Commander[PushTaskEventMessage]  = (*PushTaskEventCommand)(nil)
	_ gocmd.Commander[DisconnectMessage]     = (*DisconnectCommand)(nil)
)
