package media_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/pkg/media"
)

func TestLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires base directory", func(t *testing.T) {
		t.Parallel()

		_, err := media.NewLocalStorage("", "/media/")
		assert.ErrorIs(t, err, media.ErrInvalidConfig)
	})

	t.Run("writes files below base directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := media.NewLocalStorage(dir, "/media/")
		require.NoError(t, err)

		obj, err := store.Put(ctx, "tenant/techstore/docs/a b.txt", strings.NewReader("hello"), 5, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, int64(5), obj.Size)
		assert.Equal(t, "/media/tenant/techstore/docs/a%20b.txt", obj.URL)

		data, err := os.ReadFile(filepath.Join(dir, "tenant", "techstore", "docs", "a b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		leftovers, err := filepath.Glob(filepath.Join(dir, "tenant", "techstore", "docs", ".upload-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()

		store, err := media.NewLocalStorage(t.TempDir(), "/media/")
		require.NoError(t, err)

		_, err = store.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, media.ErrInvalidKey)
		assert.ErrorIs(t, store.DeleteDir(ctx, "tenant/../.."), media.ErrInvalidKey)
	})

	t.Run("delete dir removes tenant tree only", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := media.NewLocalStorage(dir, "/media/")
		require.NoError(t, err)

		for _, key := range []string{"tenant/techstore/a.txt", "tenant/techstore/sub/b.txt", "tenant/fashion/c.txt"} {
			_, err := store.Put(ctx, key, strings.NewReader("x"), 1, "")
			require.NoError(t, err)
		}

		require.NoError(t, store.DeleteDir(ctx, media.TenantDir("techstore")))
		_, err = os.Stat(filepath.Join(dir, "tenant", "techstore"))
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(filepath.Join(dir, "tenant", "fashion", "c.txt"))
		assert.NoError(t, err)

		assert.NoError(t, store.DeleteDir(ctx, media.TenantDir("techstore")), "missing dir is not an error")
		assert.ErrorIs(t, store.DeleteDir(ctx, ""), media.ErrInvalidKey)
	})

	t.Run("list skips directories", func(t *testing.T) {
		t.Parallel()

		store, err := media.NewLocalStorage(t.TempDir(), "/media/")
		require.NoError(t, err)

		_, err = store.Put(ctx, "tenant/techstore/a.txt", strings.NewReader("abc"), 3, "")
		require.NoError(t, err)
		_, err = store.Put(ctx, "tenant/techstore/sub/b.txt", strings.NewReader("x"), 1, "")
		require.NoError(t, err)

		objs, err := store.List(ctx, "tenant/techstore")
		require.NoError(t, err)
		require.Len(t, objs, 1)
		assert.Equal(t, media.Object{Key: "tenant/techstore/a.txt", Name: "a.txt", Size: 3, URL: "/media/tenant/techstore/a.txt"}, objs[0])

		objs, err = store.List(ctx, "tenant/unknown")
		require.NoError(t, err)
		assert.Empty(t, objs)
	})

	t.Run("cancelled context aborts write", func(t *testing.T) {
		t.Parallel()

		store, err := media.NewLocalStorage(t.TempDir(), "/media/")
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = store.Put(cctx, "a.txt", strings.NewReader("abc"), 3, "")
		assert.ErrorIs(t, err, media.ErrWriteFailed)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	store, err := media.New(context.Background(), media.Config{Backend: "local", LocalDir: t.TempDir(), BaseURL: "/files"})
	require.NoError(t, err)
	assert.IsType(t, &media.LocalStorage{}, store)

	_, err = media.New(context.Background(), media.Config{Backend: "ftp"})
	assert.ErrorIs(t, err, media.ErrInvalidConfig)

	_, err = media.New(context.Background(), media.Config{Backend: "s3"})
	assert.ErrorIs(t, err, media.ErrInvalidConfig)
}
