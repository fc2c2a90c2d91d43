package storage

import (
	"fmt"

	"ocf-deckgen/internal/storage/filesystem"
	"ocf-deckgen/internal/storage/garage"
	"ocf-deckgen/pkg/storage"
)

// NewStorage crée le backend décrit par la configuration. Retourne nil, nil
// quand l'export est désactivé.
func NewStorage(config *storage.StorageConfig) (storage.Storage, error) {
	switch config.Type {
	case storage.TypeFilesystem:
		return filesystem.NewFilesystemStorage(config.BasePath)
	case storage.TypeGarage:
		return garage.NewGarageStorage(config)
	case storage.TypeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
