// Package persist maps the two application records onto a store.Store.
//
// Reads never fail from the caller's point of view: a missing or
// malformed record is logged and the caller keeps its default state.
// Writes are best effort. They may be retried with backoff, but the
// error only goes back to the storage sync so it can mark the record
// dirty for the next flush.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Makepad-fr/tada/internal/store"
)

// Record keys.
const (
	KeyAuth  = "auth"
	KeyTodos = "todos"
)

// ReadError reports a record that exists but cannot be read or decoded.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s record: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Options tune write behavior.
type Options struct {
	// Retries is how many extra attempts a failed write gets. Zero means
	// one attempt only.
	Retries int

	// InitialInterval is the first backoff delay between attempts.
	InitialInterval time.Duration
}

// Adapter encodes records as JSON and moves them through a store.
type Adapter struct {
	kv   store.Store
	log  *slog.Logger
	opts Options
}

// New wraps kv. A nil logger discards messages.
func New(kv store.Store, log *slog.Logger, opts Options) *Adapter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	return &Adapter{kv: kv, log: log, opts: opts}
}

// Read decodes the record under key into v. A missing record yields an
// error wrapping store.ErrNotFound; anything else is a *ReadError.
func (a *Adapter) Read(ctx context.Context, key string, v any) error {
	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s: %w", key, err)
		}
		return &ReadError{Key: key, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ReadError{Key: key, Err: err}
	}
	return nil
}

// Load is Read with failures swallowed. It reports whether v was filled.
// v may be partially written when false is returned, so callers decode
// into a scratch value.
func (a *Adapter) Load(ctx context.Context, key string, v any) bool {
	err := a.Read(ctx, key, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrNotFound) {
		a.log.Warn("failed to load record, using defaults", "key", key, "error", err)
	}
	return false
}

// Save writes v under key, replacing the whole record.
func (a *Adapter) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		a.log.Error("failed to encode record", "key", key, "error", err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.write(ctx, "save", key, func() error { return a.kv.Put(ctx, key, raw) })
}

// Remove deletes the record under key.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	return a.write(ctx, "remove", key, func() error { return a.kv.Delete(ctx, key) })
}

func (a *Adapter) write(ctx context.Context, op, key string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.InitialInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := fn(); err != nil {
			if attempt <= a.opts.Retries {
				a.log.Debug("retrying write", "op", op, "key", key, "attempt", attempt, "error", err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(a.opts.Retries+1)))
	if err != nil {
		a.log.Error("failed to write record", "op", op, "key", key, "attempts", attempt, "error", err)
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	a.log.Debug("record written", "op", op, "key", key)
	return nil
}
