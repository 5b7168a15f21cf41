package storage

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/storage/badger"
)

// NewStorageManager opens the Badger store, or returns nil when storage is disabled
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	if !config.Storage.Enabled {
		logger.Debug().Msg("Storage disabled, run history and gateway cache are off")
		return nil, nil
	}
	return badger.NewManager(logger, &config.Storage)
}
