package meetsync

import "github.com/goliatone/go-meetsync/core"

type Config = core.Config

type SyncConfig = core.SyncConfig
type PushConfig = core.PushConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Provider = core.Provider
type Registry = core.Registry
type ConnectionStore = core.ConnectionStore
type MappingStore = core.MappingStore
type TaskStore = core.TaskStore

type OAuthConnection = core.OAuthConnection
type NormalizedEvent = core.NormalizedEvent
type EventTaskMapping = core.EventTaskMapping
type Task = core.Task
type SyncResult = core.SyncResult
type PushResult = core.PushResult
type AccessGrant = core.AccessGrant
type ConnectionStatus = core.ConnectionStatus

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithRegistry          = core.WithRegistry
	WithConnectionStore   = core.WithConnectionStore
	WithMappingStore      = core.WithMappingStore
	WithTaskStore         = core.WithTaskStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
