// Package app wires the session and todo slices to storage. An App is the
// single top-level context a front end holds: Open rehydrates both slices,
// every change is written through immediately, and Close flushes whatever
// could not be written and releases the store.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/persist"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/view"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNoSuchTodo       = errors.New("no such todo")
)

const writeTimeout = 5 * time.Second

type pendingOp int

const (
	opSave pendingOp = iota + 1
	opRemove
)

// App is the application context.
type App struct {
	Session *session.Slice
	Todos   *todos.Slice

	log     *slog.Logger
	kv      store.Store
	records *persist.Adapter
	issuer  *session.JWTIssuer

	// pending holds writes that failed and are retried by Flush.
	pending map[string]pendingOp
}

type options struct {
	kv    store.Store
	clock func() time.Time
}

// Option overrides a collaborator, mainly for tests.
type Option func(*options)

// WithStore uses kv instead of opening cfg.Backend. App.Close still
// closes it.
func WithStore(kv store.Store) Option {
	return func(o *options) { o.kv = kv }
}

// WithClock drives todo ids and timestamps from now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// Open builds an App from cfg, restoring both records from storage. A
// missing or unreadable record leaves that slice at its defaults.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	kv := o.kv
	if kv == nil {
		var err error
		kv, err = OpenStore(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
	}

	a := &App{
		log:     log,
		kv:      kv,
		records: persist.New(kv, log, persist.Options{Retries: cfg.SaveRetries}),
		issuer:  session.NewJWTIssuer(cfg.TokenSecret),
		pending: map[string]pendingOp{},
	}

	var saved model.Session
	if !a.records.Load(ctx, persist.KeyAuth, &saved) {
		// A failed decode can leave fields half filled.
		saved = model.Session{}
	} else if !saved.Valid() {
		log.Warn("discarding inconsistent session record",
			"authenticated", saved.IsAuthenticated,
			"user_present", saved.User != nil,
			"token_present", saved.Token != "")
	}
	auth, err := session.NewDemoAuthenticator()
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("prepare credentials: %w", err)
	}
	a.Session, err = session.New(saved,
		session.WithAuthenticator(auth),
		session.WithTokenIssuer(a.issuer),
		session.WithDelay(cfg.LoginDelay),
	)
	if err != nil {
		kv.Close()
		return nil, err
	}

	var list model.TodoList
	if !a.records.Load(ctx, persist.KeyTodos, &list) {
		list = model.TodoList{Filter: model.FilterAll}
	}
	var todoOpts []todos.Option
	if o.clock != nil {
		todoOpts = append(todoOpts, todos.WithClock(o.clock))
	}
	a.Todos = todos.New(list, todoOpts...)

	a.Session.Subscribe(a.onSession)
	a.Todos.Subscribe(a.onTodos)

	log.Debug("state restored",
		"backend", cfg.Backend,
		"authenticated", a.Session.Authenticated(),
		"todos", len(list.Items))
	return a, nil
}

func (a *App) onSession(s model.Session, c session.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	switch c {
	case session.Changed:
		a.apply(ctx, persist.KeyAuth, opSave, s)
	case session.Cleared:
		// Logging out drops the whole todo record, every owner included.
		a.apply(ctx, persist.KeyAuth, opRemove, nil)
		a.apply(ctx, persist.KeyTodos, opRemove, nil)
	}
}

func (a *App) onTodos(l model.TodoList, c todos.Change) {
	if c != todos.ItemsChanged {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	a.apply(ctx, persist.KeyTodos, opSave, l)
}

func (a *App) apply(ctx context.Context, key string, op pendingOp, v any) error {
	var err error
	switch op {
	case opSave:
		err = a.records.Save(ctx, key, v)
	case opRemove:
		err = a.records.Remove(ctx, key)
	}
	if err != nil {
		a.pending[key] = op
		return err
	}
	delete(a.pending, key)
	return nil
}

// Pending reports how many records still need writing.
func (a *App) Pending() int { return len(a.pending) }

// Flush retries every write that failed earlier, using current state.
func (a *App) Flush(ctx context.Context) error {
	var errs []error
	for key, op := range a.pending {
		var v any
		switch key {
		case persist.KeyAuth:
			v = a.Session.State()
		case persist.KeyTodos:
			v = a.Todos.State()
		}
		if err := a.apply(ctx, key, op, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and releases the store.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	flushErr := a.Flush(ctx)
	if flushErr != nil {
		a.log.Error("records left unwritten", "count", len(a.pending), "error", flushErr)
	}
	return errors.Join(flushErr, a.kv.Close())
}

// View is the derived view for whoever is signed in.
func (a *App) View() view.View {
	return view.Project(a.Todos.State(), a.Session.Owner())
}

// Login signs in; false means wrong credentials.
func (a *App) Login(ctx context.Context, username, password string) (bool, error) {
	ok, err := a.Session.Login(ctx, username, password)
	if err != nil {
		return false, err
	}
	if ok {
		a.log.Info("logged in", "email", username)
	} else {
		a.log.Info("login rejected", "email", username)
	}
	return ok, nil
}

// Logout signs out and deletes both stored records.
func (a *App) Logout() {
	a.Session.Logout()
	a.log.Info("logged out")
}

// UpdateProfile replaces the signed-in user's profile.
func (a *App) UpdateProfile(u model.User) error {
	if !a.Session.UpdateProfile(u) {
		return ErrNotAuthenticated
	}
	return nil
}

// AddTodo adds text for the signed-in user.
func (a *App) AddTodo(text string) (model.Todo, error) {
	owner := a.Session.Owner()
	if owner == "" {
		return model.Todo{}, ErrNotAuthenticated
	}
	return a.Todos.Add(text, owner)
}

// Resolve finds one of the signed-in user's items by id, or by 1-based
// position in their unfiltered list.
func (a *App) Resolve(ref string) (model.Todo, error) {
	owner := a.Session.Owner()
	if owner == "" {
		return model.Todo{}, ErrNotAuthenticated
	}
	ref = strings.TrimSpace(ref)
	mine := view.Visible(a.Todos.Items(), model.FilterAll, owner)
	for _, it := range mine {
		if it.ID == ref {
			return it, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(mine) {
		return mine[n-1], nil
	}
	return model.Todo{}, fmt.Errorf("%w: %s", ErrNoSuchTodo, ref)
}

// Claims decodes the signed-in session's token.
func (a *App) Claims() (*session.Claims, error) {
	st := a.Session.State()
	if !st.IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return a.issuer.Parse(st.Token)
}
