package backend

import (
	"context"
	"errors"
	"fmt"

	"cashflow/internal/amqp"
	"cashflow/internal/log"
	"cashflow/internal/storage"
	"cashflow/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	// dial is replaced in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		result = f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := f.attachBroker(ctx, config, result); err != nil {
		_ = result.Store.Close()
		return nil, err
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Store:      repo,
		Repository: repo,
		Ready:      repo.Ping,
		Version:    repo.DataVersion,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) *BackendResult {
	store := memory.New()
	f.logger.InfoContext(ctx, "Initialized memory backend; data is lost on exit")
	return &BackendResult{
		Store:   store,
		Ready:   func(context.Context) error { return nil },
		Cleanup: store.Close,
	}
}

// attachBroker dials AMQP when configured. Without RequireBroker a dial
// failure only disables publishing.
func (f *DefaultFactory) attachBroker(ctx context.Context, config Config, result *BackendResult) error {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled, movement events will not be published")
		return nil
	}

	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		if config.RequireBroker {
			return fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without export events", "error", err)
		return nil
	}
	client.SetPrefetch(config.AMQPPrefetch)

	// Assigned only on success so a disabled broker leaves a nil interface.
	result.Broker = client
	result.Publisher = client

	closeStore := result.Cleanup
	result.Cleanup = func() error {
		return errors.Join(client.Close(), closeStore())
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return nil
}
