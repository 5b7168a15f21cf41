package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	runs   interfaces.RunStorage
	cache  interfaces.CacheStorage
	logger arbor.ILogger
}

// NewManager opens the database and wires every store to it
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return newManager(db, logger), nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:     db,
		runs:   NewRunStorage(db, logger),
		cache:  NewCacheStorage(db, logger),
		logger: logger,
	}
}

// RunStorage returns the run record store
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.runs
}

// CacheStorage returns the byte cache
func (m *Manager) CacheStorage() interfaces.CacheStorage {
	return m.cache
}

// Close closes the database
func (m *Manager) Close() error {
	if err := m.db.Close(); err != nil {
		return err
	}
	m.logger.Debug().Msg("Badger storage closed")
	return nil
}
