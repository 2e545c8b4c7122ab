package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	registry          Registry
	connectionStore   ConnectionStore
	mappingStore      MappingStore
	taskStore         TaskStore
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	Registry          Registry
	ConnectionStore   ConnectionStore
	MappingStore      MappingStore
	TaskStore         TaskStore
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("meetsync", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("meetsync"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewProviderRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	missingStores := builder.connectionStore == nil || builder.mappingStore == nil || builder.taskStore == nil
	if missingStores && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				if builder.connectionStore == nil {
					builder.connectionStore = storeProvider.ConnectionStore()
				}
				if builder.mappingStore == nil {
					builder.mappingStore = storeProvider.MappingStore()
				}
				if builder.taskStore == nil {
					builder.taskStore = storeProvider.TaskStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			if builder.connectionStore == nil {
				builder.connectionStore = storeProvider.ConnectionStore()
			}
			if builder.mappingStore == nil {
				builder.mappingStore = storeProvider.MappingStore()
			}
			if builder.taskStore == nil {
				builder.taskStore = storeProvider.TaskStore()
			}
		}
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		registry:          builder.registry,
		connectionStore:   builder.connectionStore,
		mappingStore:      builder.mappingStore,
		taskStore:         builder.taskStore,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		Registry:          s.registry,
		ConnectionStore:   s.connectionStore,
		MappingStore:      s.mappingStore,
		TaskStore:         s.taskStore,
	}
}

// Disconnect best-effort revokes the refresh token remotely, then removes
// the stored connection. Revocation failures are logged, never fatal.
func (s *Service) Disconnect(ctx context.Context, userID, providerID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id":  userID,
		"provider": providerID,
	}
	defer func() {
		s.observeSyncOperation(ctx, startedAt, opDisconnect, err, fields)
	}()

	userID = strings.TrimSpace(userID)
	providerID = NormalizeProviderID(providerID)
	if userID == "" {
		err = s.mapError(fmt.Errorf("core: user id is required"))
		return err
	}
	if err = ValidateProviderID(providerID); err != nil {
		err = s.mapError(err)
		return err
	}
	if s.connectionStore == nil {
		err = s.mapError(fmt.Errorf("core: connection store is not configured"))
		return err
	}

	connection, getErr := s.connectionStore.GetByUserProvider(ctx, userID, providerID)
	if getErr != nil {
		err = s.mapError(getErr)
		return err
	}

	if provider, ok := s.registry.Get(providerID); ok {
		if revoker, supported := provider.(TokenRevoker); supported && strings.TrimSpace(connection.RefreshToken) != "" {
			if revokeErr := revoker.RevokeToken(ctx, connection.RefreshToken); revokeErr != nil {
				s.logError(ctx, "remote token revocation failed", map[string]any{
					"user_id":  userID,
					"provider": providerID,
					"error":    revokeErr.Error(),
				})
			}
		}
	}

	if err = s.connectionStore.Delete(ctx, userID, providerID); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

func (s *Service) resolveProvider(providerID string) (Provider, error) {
	if s == nil || s.registry == nil {
		return nil, s.mapError(fmt.Errorf("core: registry unavailable"))
	}
	providerID = strings.TrimSpace(providerID)
	provider, ok := s.registry.Get(providerID)
	if ok {
		return provider, nil
	}
	wrapped := s.errorFactory(
		fmt.Sprintf("provider %q is not registered", providerID),
		goerrors.CategoryNotFound,
	).WithTextCode(SyncErrorProviderNotFound)
	return nil, wrapped.WithMetadata(map[string]any{"provider": providerID})
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
