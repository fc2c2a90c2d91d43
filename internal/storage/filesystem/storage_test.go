package filesystem

import (
	"context"
	"io"
	"strings"
	"testing"

	"ocf-deckgen/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	store, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("Upload and Download", func(t *testing.T) {
		testData := "# Pitch deck\n---\n# Slide 2"
		testPath := "results/job1/slides.md"

		err := store.Upload(ctx, testPath, strings.NewReader(testData))
		require.NoError(t, err)

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

	t.Run("Overwrite keeps latest content", func(t *testing.T) {
		path := "results/job-overwrite/slides.md"
		require.NoError(t, store.Upload(ctx, path, strings.NewReader("v1")))
		require.NoError(t, store.Upload(ctx, path, strings.NewReader("v2")))

		reader, err := store.Download(ctx, path)
		require.NoError(t, err)
		defer reader.Close()
		content, _ := io.ReadAll(reader)
		assert.Equal(t, "v2", string(content))
	})

	t.Run("List files", func(t *testing.T) {
		files := map[string]string{
			"list/job1/slides.md":   "# Slides 1",
			"list/job1/phases.json": "{}",
			"list/job2/slides.md":   "# Slides 2",
		}
		for path, content := range files {
			require.NoError(t, store.Upload(ctx, path, strings.NewReader(content)))
		}

		all, err := store.List(ctx, "list/")
		assert.NoError(t, err)
		assert.Len(t, all, 3)

		job1, err := store.List(ctx, "list/job1/")
		assert.NoError(t, err)
		assert.ElementsMatch(t, []string{"list/job1/slides.md", "list/job1/phases.json"}, job1)
	})

	t.Run("Delete file", func(t *testing.T) {
		testPath := "to-delete.md"
		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("delete me")))

		require.NoError(t, store.Delete(ctx, testPath))

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.False(t, exists)

		// Supprimer deux fois n'est pas une erreur
		assert.NoError(t, store.Delete(ctx, testPath))
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := store.Download(ctx, "non-existent.md")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		exists, err := store.Exists(ctx, "non-existent.md")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Path traversal is rejected", func(t *testing.T) {
		err := store.Upload(ctx, "../escape.md", strings.NewReader("bad"))
		assert.Error(t, err)

		_, err = store.Download(ctx, "../../etc/passwd")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})
}
