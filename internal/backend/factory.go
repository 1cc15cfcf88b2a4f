package backend

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/kv"
	"fintrack/internal/kv/file"
	"fintrack/internal/kv/memory"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FileBackend:
		return f.createFileBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	db := kv.NewDB(repo)
	return &BackendResult{
		DB:      db,
		Cleanup: db.Close,
		Ready:   repo.Ping,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := file.Open(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	db := kv.NewDB(store)
	dir := config.DataDirectory
	return &BackendResult{
		DB:      db,
		Cleanup: db.Close,
		Ready: func(context.Context) error {
			_, err := os.Stat(dir)
			return err
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = defaultDataDirectory
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "seed_directory", dataDir, log.FieldCount, len(store.Keys()))

	db := kv.NewDB(store)
	return &BackendResult{
		DB:      db,
		Cleanup: db.Close,
		Ready:   func(context.Context) error { return nil },
	}, nil
}
