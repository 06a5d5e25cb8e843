package provision_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/svc/provision"
)

func TestDefaultFixtures(t *testing.T) {
	t.Parallel()

	fixtures := provision.DefaultFixtures()
	require.Len(t, fixtures, 2)

	assert.Equal(t, "TechStore", fixtures[0].Name)
	assert.Equal(t, "techstore", fixtures[0].SchemaName)
	assert.Equal(t, "techstore.localhost", fixtures[0].Domain)
	assert.Equal(t, "admin@techstore.local", fixtures[0].Email)
	assert.Len(t, fixtures[0].Products, 3)

	assert.Equal(t, "Fashion Boutique", fixtures[1].Name)
	assert.Equal(t, "fashion", fixtures[1].SchemaName)
	assert.Equal(t, "fashion.localhost", fixtures[1].Domain)
}

func TestLoadFixtures(t *testing.T) {
	t.Parallel()

	t.Run("parses tenants", func(t *testing.T) {
		t.Parallel()

		fixtures, err := provision.LoadFixtures(strings.NewReader(`
tenants:
  - name: Books
    email: admin@books.local
    schema: books
    domain: books.localhost
    paid_until: 2030-01-01T00:00:00Z
    products:
      - name: Novel
        price: "12.50"
`))
		require.NoError(t, err)
		require.Len(t, fixtures, 1)
		assert.Equal(t, "books", fixtures[0].SchemaName)
		require.NotNil(t, fixtures[0].PaidUntil)
		assert.Equal(t, 2030, fixtures[0].PaidUntil.Year())
		assert.Equal(t, "12.50", fixtures[0].Products[0].Price)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		_, err := provision.LoadFixtures(strings.NewReader("tenants:\n  - name: x\n    colour: red\n"))
		assert.ErrorIs(t, err, provision.ErrInvalidFixtures)
	})

	t.Run("rejects empty document", func(t *testing.T) {
		t.Parallel()

		_, err := provision.LoadFixtures(strings.NewReader("tenants: []\n"))
		assert.ErrorIs(t, err, provision.ErrInvalidFixtures)
	})
}

func TestSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := provision.New(store)
		var loaded []string
		load := func(ctx context.Context, f provision.Fixture) error {
			loaded = append(loaded, f.SchemaName)
			return nil
		}

		report, err := svc.Seed(ctx, provision.DefaultFixtures(), load)
		require.NoError(t, err)
		assert.Equal(t, []string{"techstore", "fashion"}, report.Created)
		assert.Equal(t, []string{"techstore", "fashion"}, report.Loaded)
		assert.Empty(t, report.Skipped)

		report, err = svc.Seed(ctx, provision.DefaultFixtures(), load)
		require.NoError(t, err)
		assert.Empty(t, report.Created)
		assert.Equal(t, []string{"techstore", "fashion"}, report.Skipped)
		assert.Equal(t, []string{"techstore", "fashion"}, loaded, "sample data is loaded once")

		db := store.snapshot()
		assert.Len(t, db.tenants, 2)
		assert.Len(t, db.domains, 2)
	})

	t.Run("stops on loader failure", func(t *testing.T) {
		t.Parallel()

		svc := provision.New(newMemStore())
		report, err := svc.Seed(ctx, provision.DefaultFixtures(), func(ctx context.Context, f provision.Fixture) error {
			return errors.New("disk full")
		})
		require.Error(t, err)
		assert.Equal(t, []string{"techstore"}, report.Created)
		assert.Empty(t, report.Loaded)
	})
}
