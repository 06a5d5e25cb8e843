package pg_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/pkg/pg"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &fakeTx{}}
		err := pg.WithTx(context.Background(), db, func(tx pgx.Tx) error { return nil })
		require.NoError(t, err)
		assert.True(t, db.tx.committed)
		assert.False(t, db.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &fakeTx{}}
		boom := errors.New("boom")
		err := pg.WithTx(context.Background(), db, func(tx pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, db.tx.committed)
		assert.True(t, db.tx.rolledBack)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &fakeTx{}}
		assert.Panics(t, func() {
			_ = pg.WithTx(context.Background(), db, func(tx pgx.Tx) error { panic("boom") })
		})
		assert.True(t, db.tx.rolledBack)
	})

	t.Run("reports commit failure", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization failure")}}
		err := pg.WithTx(context.Background(), db, func(tx pgx.Tx) error { return nil })
		assert.ErrorIs(t, err, pg.ErrTxFailed)
		assert.True(t, db.tx.rolledBack)
	})

	t.Run("reports begin failure", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{err: errors.New("no connection")}
		err := pg.WithTx(context.Background(), db, func(tx pgx.Tx) error {
			t.Fatal("must not run")
			return nil
		})
		assert.ErrorIs(t, err, pg.ErrTxFailed)
	})
}
