package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/persist"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.LoginDelay = 0
	return cfg
}

// nopCloser keeps the underlying store usable after App.Close so a test
// can reopen it.
type nopCloser struct{ store.Store }

func (nopCloser) Close() error { return nil }

func openApp(t *testing.T, kv store.Store) *App {
	t.Helper()
	a, err := Open(context.Background(), testConfig(t), nil, WithStore(nopCloser{kv}))
	require.NoError(t, err)
	return a
}

func newKV(t *testing.T) store.Store {
	t.Helper()
	kv, err := jsonstore.Open(t.TempDir())
	require.NoError(t, err)
	return kv
}

func login(t *testing.T, a *App) {
	t.Helper()
	ok, err := a.Login(context.Background(), session.DemoEmail, session.DemoPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFreshStartIsAnonymousAndEmpty(t *testing.T) {
	a := openApp(t, newKV(t))
	assert.False(t, a.Session.Authenticated())
	assert.Empty(t, a.Todos.Items())
	assert.Equal(t, model.FilterAll, a.Todos.Filter())
	assert.Empty(t, a.View().Items)
}

func TestSessionSurvivesRestart(t *testing.T) {
	kv := newKV(t)
	a := openApp(t, kv)
	login(t, a)
	token := a.Session.State().Token
	require.NoError(t, a.Close())

	b := openApp(t, kv)
	assert.True(t, b.Session.Authenticated())
	assert.Equal(t, session.DemoEmail, b.Session.Owner())
	assert.Equal(t, token, b.Session.State().Token)
}

func TestWrongPasswordPersistsNothing(t *testing.T) {
	kv := newKV(t)
	a := openApp(t, kv)
	ok, err := a.Login(context.Background(), session.DemoEmail, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = kv.Get(context.Background(), persist.KeyAuth)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTodosRoundTripThroughStorage(t *testing.T) {
	kv := newKV(t)
	a := openApp(t, kv)
	login(t, a)

	first, err := a.AddTodo("buy milk")
	require.NoError(t, err)
	_, err = a.AddTodo("walk dog")
	require.NoError(t, err)
	a.Todos.Toggle(first.ID)
	require.NoError(t, a.Todos.SetFilter(model.FilterCompleted))
	_, err = a.AddTodo("call mom")
	require.NoError(t, err)
	want := a.Todos.State()
	require.NoError(t, a.Close())

	b := openApp(t, kv)
	got := b.Todos.State()
	require.Len(t, got.Items, 3)
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ID, got.Items[i].ID)
		assert.Equal(t, want.Items[i].Text, got.Items[i].Text)
		assert.Equal(t, want.Items[i].Completed, got.Items[i].Completed)
		assert.True(t, want.Items[i].CreatedAt.Equal(got.Items[i].CreatedAt))
	}
	assert.Equal(t, model.FilterCompleted, got.Filter, "filter rides along with the next item save")
}

func TestSetFilterAloneIsNotPersisted(t *testing.T) {
	kv := newKV(t)
	a := openApp(t, kv)
	login(t, a)
	_, err := a.AddTodo("buy milk")
	require.NoError(t, err)
	require.NoError(t, a.Todos.SetFilter(model.FilterPending))
	require.NoError(t, a.Close())

	b := openApp(t, kv)
	assert.Equal(t, model.FilterAll, b.Todos.Filter())
}

func TestViewScopesToSignedInUser(t *testing.T) {
	a := openApp(t, newKV(t))
	login(t, a)
	_, err := a.Todos.Add("buy milk", "a@x.com")
	require.NoError(t, err)
	_, err = a.Todos.Add("walk dog", "b@y.com")
	require.NoError(t, err)

	require.NoError(t, a.UpdateProfile(model.User{Username: "A", Email: "a@x.com"}))
	v := a.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "buy milk", v.Items[0].Text)
	assert.Equal(t, model.Stats{Total: 1, Pending: 1}, v.Stats)
}

func TestCountsAndPendingOrder(t *testing.T) {
	a := openApp(t, newKV(t))
	login(t, a)
	var ids []string
	for _, txt := range []string{"one", "two", "three"} {
		it, err := a.AddTodo(txt)
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	a.Todos.Toggle(ids[1])
	require.NoError(t, a.Todos.SetFilter(model.FilterPending))

	v := a.View()
	assert.Equal(t, model.Stats{Total: 3, Completed: 1, Pending: 2}, v.Stats)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "one", v.Items[0].Text)
	assert.Equal(t, "three", v.Items[1].Text)
}

// Logging out removes the todo record for every user, not only the one
// signing out.
func TestLogoutDeletesEveryOwnersTodos(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	a := openApp(t, kv)
	login(t, a)
	_, err := a.AddTodo("mine")
	require.NoError(t, err)
	_, err = a.Todos.Add("someone else's", "b@y.com")
	require.NoError(t, err)

	a.Logout()
	assert.False(t, a.Session.Authenticated())

	_, err = kv.Get(ctx, persist.KeyAuth)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = kv.Get(ctx, persist.KeyTodos)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, a.Close())
	b := openApp(t, kv)
	assert.Empty(t, b.Todos.Items())
}

func TestClearCompletedAcrossOwnersIsPersisted(t *testing.T) {
	kv := newKV(t)
	a := openApp(t, kv)
	login(t, a)
	mine, err := a.AddTodo("mine")
	require.NoError(t, err)
	theirs, err := a.Todos.Add("theirs", "b@y.com")
	require.NoError(t, err)
	a.Todos.Toggle(mine.ID)
	a.Todos.Toggle(theirs.ID)

	assert.Equal(t, 2, a.Todos.ClearCompleted())
	require.NoError(t, a.Close())

	b := openApp(t, kv)
	assert.Empty(t, b.Todos.Items())
}

func TestAddTodoRequiresSession(t *testing.T) {
	a := openApp(t, newKV(t))
	_, err := a.AddTodo("buy milk")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, a.UpdateProfile(model.User{Email: "x@y.z"}), ErrNotAuthenticated)
	_, err = a.Claims()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestMalformedRecordsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, kv.Put(ctx, persist.KeyAuth, []byte(`not json`)))
	require.NoError(t, kv.Put(ctx, persist.KeyTodos, []byte(`{"items": 7}`)))

	a := openApp(t, kv)
	assert.False(t, a.Session.Authenticated())
	assert.Empty(t, a.Todos.Items())
	assert.Equal(t, model.FilterAll, a.Todos.Filter())
}

// A record with one badly typed field still fills the fields around it
// before decoding fails; none of that may survive.
func TestPartlyDecodedRecordsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, kv.Put(ctx, persist.KeyAuth, []byte(
		`{"isAuthenticated":true,"user":{"username":5,"email":"m@x"},"token":"t"}`)))
	require.NoError(t, kv.Put(ctx, persist.KeyTodos, []byte(
		`{"items":[{"id":"1","text":"kept?","userId":"m@x"},{"id":2}],"filter":"pending"}`)))

	a := openApp(t, kv)
	assert.False(t, a.Session.Authenticated())
	assert.Equal(t, "", a.Session.Owner())
	assert.Empty(t, a.Todos.Items())
	assert.Equal(t, model.FilterAll, a.Todos.Filter())
	assert.Empty(t, a.View().Items)
}

func TestInconsistentSessionRecordStartsAnonymous(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, kv.Put(ctx, persist.KeyAuth, []byte(`{"isAuthenticated":true,"user":null,"token":null}`)))
	a := openApp(t, kv)
	assert.False(t, a.Session.Authenticated())
}

func TestLegacyRecordShape(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, kv.Put(ctx, persist.KeyAuth, []byte(
		`{"isAuthenticated":true,"user":{"username":"Demo User","email":"demo@example.com"},"token":"mock-jwt-token-1717171717171"}`)))
	require.NoError(t, kv.Put(ctx, persist.KeyTodos, []byte(
		`{"items":[{"id":"1717171717171","text":"buy milk","completed":false,"createdAt":"2024-05-31T16:08:37.171Z","userId":"demo@example.com"}],"filter":"pending"}`)))

	a := openApp(t, kv)
	assert.Equal(t, "demo@example.com", a.Session.Owner())
	v := a.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, "buy milk", v.Items[0].Text)
	assert.Equal(t, model.FilterPending, v.Filter)

	_, err := a.Claims()
	assert.ErrorIs(t, err, session.ErrInvalidToken, "opaque tokens are kept but cannot be introspected")
}

func TestResolve(t *testing.T) {
	a := openApp(t, newKV(t))
	login(t, a)
	_, err := a.Todos.Add("not mine", "b@y.com")
	require.NoError(t, err)
	one, err := a.AddTodo("one")
	require.NoError(t, err)
	two, err := a.AddTodo("two")
	require.NoError(t, err)

	got, err := a.Resolve("2")
	require.NoError(t, err)
	assert.Equal(t, two.ID, got.ID, "index counts only the owner's items")

	got, err = a.Resolve(one.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Text)

	_, err = a.Resolve("3")
	assert.ErrorIs(t, err, ErrNoSuchTodo)
	_, err = a.Resolve("0")
	assert.ErrorIs(t, err, ErrNoSuchTodo)
}

func TestClaims(t *testing.T) {
	a := openApp(t, newKV(t))
	login(t, a)
	claims, err := a.Claims()
	require.NoError(t, err)
	assert.Equal(t, session.DemoEmail, claims.Email)
}

// brokenStore refuses writes until healed.
type brokenStore struct {
	store.Store
	broken bool
}

var errUnavailable = errors.New("storage unavailable")

func (b *brokenStore) Put(ctx context.Context, key string, value []byte) error {
	if b.broken {
		return errUnavailable
	}
	return b.Store.Put(ctx, key, value)
}

func (b *brokenStore) Delete(ctx context.Context, key string) error {
	if b.broken {
		return errUnavailable
	}
	return b.Store.Delete(ctx, key)
}

func TestFailedWritesAreFlushedLater(t *testing.T) {
	ctx := context.Background()
	kv := &brokenStore{Store: newKV(t), broken: true}
	a := openApp(t, kv)

	login(t, a)
	_, err := a.AddTodo("buy milk")
	require.NoError(t, err, "storage failures never reach the caller")
	assert.Equal(t, 2, a.Pending())

	assert.Error(t, a.Flush(ctx))
	assert.Equal(t, 2, a.Pending())

	kv.broken = false
	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 0, a.Pending())

	b := openApp(t, kv)
	assert.True(t, b.Session.Authenticated())
	assert.Len(t, b.Todos.Items(), 1)
}

func TestFailedLogoutRemovalIsRetried(t *testing.T) {
	ctx := context.Background()
	kv := &brokenStore{Store: newKV(t)}
	a := openApp(t, kv)
	login(t, a)
	_, err := a.AddTodo("buy milk")
	require.NoError(t, err)

	kv.broken = true
	a.Logout()
	assert.Equal(t, 2, a.Pending())

	kv.broken = false
	require.NoError(t, a.Close())
	_, err = kv.Get(ctx, persist.KeyAuth)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = kv.Get(ctx, persist.KeyTodos)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOpenEveryBackend(t *testing.T) {
	for _, backend := range []string{
		config.BackendJSON, config.BackendBolt, config.BackendBadger, config.BackendMemory, config.BackendSQLite,
	} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Backend = backend
			clock := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

			a, err := Open(context.Background(), cfg, nil, WithClock(clock))
			require.NoError(t, err)
			login(t, a)
			it, err := a.AddTodo("buy milk")
			require.NoError(t, err)
			assert.Equal(t, "1735689600000", it.ID)
			require.NoError(t, a.Close())

			if backend == config.BackendMemory {
				return
			}
			b, err := Open(context.Background(), cfg, nil)
			require.NoError(t, err)
			defer b.Close()
			assert.True(t, b.Session.Authenticated())
			assert.Len(t, b.View().Items, 1)
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "redis"
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
