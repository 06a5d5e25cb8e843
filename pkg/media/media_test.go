package media_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/pkg/media"
)

func TestTenantDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tenant/techstore", media.TenantDir("techstore"))
	assert.Equal(t, "", media.TenantDir("public"))
	assert.Equal(t, "", media.TenantDir(""))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"logo.png":               "logo.png",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\report.pdf`: "report.pdf",
		"my photo (1).jpg":       "my_photo_1_.jpg",
		"...":                    "file",
		"":                       "file",
	}
	for in, want := range tests {
		assert.Equal(t, want, media.SanitizeFilename(in), in)
	}

	long := strings.Repeat("a", 300) + ".txt"
	got := media.SanitizeFilename(long)
	assert.Len(t, got, 255)
	assert.True(t, strings.HasSuffix(got, ".txt"))
}

func TestForSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := media.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	tech := media.ForSchema(store, "techstore")
	fashion := media.ForSchema(store, "fashion")
	public := media.ForSchema(store, "public")

	assert.Equal(t, "tenant/techstore", tech.Dir())
	assert.Equal(t, "/media/tenant/techstore", tech.URL())
	assert.Equal(t, "/media/", public.URL())

	obj, err := tech.Put(ctx, "logo.png", strings.NewReader("tech"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "tenant/techstore/logo.png", obj.Key)
	assert.Equal(t, "/media/tenant/techstore/logo.png", obj.URL)

	_, err = fashion.Put(ctx, "banner.jpg", strings.NewReader("fashion"), 7, "image/jpeg")
	require.NoError(t, err)

	techFiles, err := tech.List(ctx)
	require.NoError(t, err)
	require.Len(t, techFiles, 1)
	assert.Equal(t, "logo.png", techFiles[0].Name)

	fashionFiles, err := fashion.List(ctx)
	require.NoError(t, err)
	require.Len(t, fashionFiles, 1)
	assert.Equal(t, "banner.jpg", fashionFiles[0].Name)

	_, err = tech.Put(ctx, "../fashion/banner.jpg", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, media.ErrInvalidKey)

	_, err = tech.Put(ctx, "", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, media.ErrInvalidKey)

	require.NoError(t, tech.Delete(ctx, "logo.png"))
	assert.ErrorIs(t, tech.Delete(ctx, "logo.png"), media.ErrNotFound)
}
