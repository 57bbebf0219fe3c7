// Package backend selects and opens the reading store.
package backend

import (
	"context"
	"fmt"

	"nrjtrack/internal/core"
	"nrjtrack/internal/log"
	"nrjtrack/internal/storage"
	"nrjtrack/internal/store/memory"
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
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config, schema *core.Schema) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config, schema)
	case MemoryBackend:
		return f.createMemoryBackend(config, schema)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, schema *core.Schema) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"fields", len(schema.Fields()))

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config, schema *core.Schema) (*BackendResult, error) {
	store := memory.New()
	if config.SeedCSVPath != "" {
		seeded, err := memory.NewFromCSV(config.SeedCSVPath, schema)
		if err != nil {
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		store = seeded
	}

	f.logger.Info("Initialized memory backend",
		"seed_file", config.SeedCSVPath,
		"readings", store.Len())

	return &BackendResult{Store: store}, nil
}
