// Package storetest holds the behavior every store.Store backend must
// share. Backend test files call Run with their own constructor.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/store"
)

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "auth")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "todos", []byte(`{"items":[],"filter":"all"}`)))
		got, err := s.Get(ctx, "todos")
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[],"filter":"all"}`, string(got))
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte(`{"v":1}`)))
		require.NoError(t, s.Put(ctx, "auth", []byte(`{"v":2}`)))
		got, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(got))
	})

	t.Run("returned bytes are caller owned", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte(`abc`)))
		got, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		got[0] = 'X'
		again, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte(`{}`)))
		require.NoError(t, s.Delete(ctx, "auth"))
		_, err := s.Get(ctx, "auth")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "never-written"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "auth", []byte(`a`)))
		require.NoError(t, s.Put(ctx, "todos", []byte(`t`)))
		require.NoError(t, s.Delete(ctx, "auth"))
		got, err := s.Get(ctx, "todos")
		require.NoError(t, err)
		assert.Equal(t, "t", string(got))
	})
}

// Reopen checks that a record written through one handle is visible
// through a new handle opened on the same location.
func Reopen(t *testing.T, open func() (store.Store, error)) {
	t.Helper()
	ctx := context.Background()

	s, err := open()
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "todos", []byte(`persistent`)))
	require.NoError(t, s.Close())

	s2, err := open()
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(ctx, "todos")
	require.NoError(t, err)
	assert.Equal(t, "persistent", string(got))
}
