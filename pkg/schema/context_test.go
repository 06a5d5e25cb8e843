package schema_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/pkg/schema"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("defaults to public", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, schema.Public, schema.FromContext(context.Background()))
		assert.Equal(t, schema.Public, schema.FromContext(nil)) //nolint:staticcheck
	})

	t.Run("returns stored name", func(t *testing.T) {
		t.Parallel()
		ctx := schema.WithName(context.Background(), "techstore")
		assert.Equal(t, "techstore", schema.FromContext(ctx))
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("nested calls restore the enclosing schema", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		var seen []string

		err := schema.Run(ctx, "a", func(ctx context.Context) error {
			seen = append(seen, schema.FromContext(ctx))
			err := schema.Run(ctx, "b", func(ctx context.Context) error {
				seen = append(seen, schema.FromContext(ctx))
				return schema.Run(ctx, "a", func(ctx context.Context) error {
					seen = append(seen, schema.FromContext(ctx))
					return nil
				})
			})
			seen = append(seen, schema.FromContext(ctx))
			return err
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "a", "a"}, seen)
		assert.Equal(t, schema.Public, schema.FromContext(ctx))
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		err := schema.Run(context.Background(), "a", func(ctx context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := schema.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(schema.WithName(context.Background(), "techstore"))
	require.True(t, ok)
	assert.Equal(t, slog.String("schema", "techstore"), attr)
}

func TestSessionFromContext(t *testing.T) {
	t.Parallel()

	_, ok := schema.SessionFromContext(context.Background())
	assert.False(t, ok)

	_, err := schema.QuerierFromContext(context.Background())
	assert.ErrorIs(t, err, schema.ErrNoSession)

	sess := schema.NewSession(newFakeConn())
	got, ok := schema.SessionFromContext(schema.WithSession(context.Background(), sess))
	require.True(t, ok)
	assert.Same(t, sess, got)
}
