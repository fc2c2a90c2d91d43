package garage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"ocf-deckgen/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestNewGarageStorageRequiresConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.StorageConfig
		wantErr string
	}{
		{"missing endpoint", storage.StorageConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}, "endpoint"},
		{"missing access key", storage.StorageConfig{Endpoint: "http://x", SecretKey: "s", Bucket: "b"}, "access key"},
		{"missing secret key", storage.StorageConfig{Endpoint: "http://x", AccessKey: "a", Bucket: "b"}, "secret key"},
		{"missing bucket", storage.StorageConfig{Endpoint: "http://x", AccessKey: "a", SecretKey: "s"}, "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGarageStorage(&tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("results/x/slides.md"))
	assert.Equal(t, "application/json", contentType("results/x/phases.json"))
	assert.Equal(t, "application/octet-stream", contentType("results/x/blob"))
}

func TestGarageStorageIntegration(t *testing.T) {
	endpoint := os.Getenv("TEST_GARAGE_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_GARAGE_ENDPOINT not set, skipping Garage integration test")
	}

	cfg := &storage.StorageConfig{
		Type:      storage.TypeGarage,
		Endpoint:  endpoint,
		AccessKey: getEnvOrDefault("TEST_GARAGE_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnvOrDefault("TEST_GARAGE_SECRET_KEY", "minioadmin"),
		Bucket:    getEnvOrDefault("TEST_GARAGE_BUCKET", "ocf-deckgen-test"),
		Region:    getEnvOrDefault("TEST_GARAGE_REGION", "us-east-1"),
	}

	store, err := NewGarageStorage(cfg)
	if err != nil {
		t.Skipf("Cannot connect to test Garage/MinIO server: %v", err)
	}

	ctx := context.Background()
	t.Cleanup(func() {
		objects, _ := store.List(ctx, "test/")
		for _, obj := range objects {
			_ = store.Delete(ctx, obj)
		}
	})

	t.Run("Upload and Download", func(t *testing.T) {
		testData := "# Deck\n---\n# Slide 2"
		testPath := "test/slides.md"

		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader(testData)))

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		reader, err := store.Download(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()
		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(content))
	})

	t.Run("Missing object", func(t *testing.T) {
		_, err := store.Download(ctx, "test/missing.md")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		exists, err := store.Exists(ctx, "test/missing.md")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}
