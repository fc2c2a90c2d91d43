package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound est retourné quand l'objet demandé n'existe pas dans le backend
var ErrNotFound = errors.New("object not found")

// Storage définit l'interface des backends où sont exportés les decks générés
type Storage interface {
	// Upload écrit un objet, en écrasant une version existante
	Upload(ctx context.Context, path string, data io.Reader) error

	// Download ouvre un objet ; l'appelant ferme le reader
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	Exists(ctx context.Context, path string) (bool, error)

	Delete(ctx context.Context, path string) error

	// List liste les objets sous un préfixe
	List(ctx context.Context, prefix string) ([]string, error)
}

// Types de backend supportés
const (
	TypeFilesystem = "filesystem"
	TypeGarage     = "garage"
	TypeNone       = "none"
)

// StorageConfig contient la configuration du storage
type StorageConfig struct {
	Type      string // "filesystem", "garage" ou "none"
	BasePath  string // Pour filesystem
	Endpoint  string // Pour S3/Garage
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}
