package storage

import (
	"artdocent-backend/internal/config"
	"artdocent-backend/pkg/logger"
)

// New opens the document store named by cfg.Type. An unusable sqlite file
// falls back to the in-memory store so the docent proxy still starts.
func New(cfg config.StorageConfig) Store {
	var store Store
	if cfg.Type == "sqlite" {
		store = NewSqliteStorage(cfg.Path)
	} else {
		store = NewMemoryStorage()
	}

	if err := store.Init(); err != nil {
		logger.Errorf("Failed to initialize storage: %v", err)
		store = NewMemoryStorage()
		logger.Warn("Falling back to in-memory storage")
	}
	return store
}
