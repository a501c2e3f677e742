// Package todos owns the shared todo collection and the global status
// filter. The collection holds every user's items; it is never split by
// owner, only filtered when read (see package view).
package todos

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

var (
	ErrEmptyText     = errors.New("todo text is empty")
	ErrNoOwner       = errors.New("todo owner is empty")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Change says which part of the state moved.
type Change int

const (
	// ItemsChanged covers add, toggle, delete, edit and clear.
	ItemsChanged Change = iota
	// FilterChanged is a SetFilter call. It is not persisted on its own.
	FilterChanged
)

func (c Change) String() string {
	switch c {
	case ItemsChanged:
		return "items"
	case FilterChanged:
		return "filter"
	}
	return "unknown"
}

// Listener observes changes. It receives a copy of the full state.
type Listener func(model.TodoList, Change)

// Slice is the todo state container. Not safe for concurrent use.
type Slice struct {
	state     model.TodoList
	now       func() time.Time
	lastID    int64
	listeners []Listener
}

// Option configures a Slice.
type Option func(*Slice)

// WithClock replaces time.Now for ids and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Slice) { s.now = now }
}

// New returns a slice starting from initial. An unknown filter becomes
// all, and id generation continues above the highest numeric id present.
func New(initial model.TodoList, opts ...Option) *Slice {
	s := &Slice{state: initial.Clone(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.state.Items == nil {
		s.state.Items = []model.Todo{}
	}
	if !s.state.Filter.Valid() {
		s.state.Filter = model.FilterAll
	}
	for _, it := range s.state.Items {
		if n, err := strconv.ParseInt(it.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
	return s
}

// Subscribe registers l for every future change.
func (s *Slice) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Slice) notify(c Change) {
	for _, l := range s.listeners {
		l(s.state.Clone(), c)
	}
}

// State returns a copy of items and filter.
func (s *Slice) State() model.TodoList { return s.state.Clone() }

// Items returns a copy of every item, all owners, in insertion order.
func (s *Slice) Items() []model.Todo { return s.state.Clone().Items }

// Filter is the current global filter.
func (s *Slice) Filter() model.Filter { return s.state.Filter }

// Get looks an item up by id.
func (s *Slice) Get(id string) (model.Todo, bool) {
	if i := s.index(id); i >= 0 {
		return s.state.Items[i], true
	}
	return model.Todo{}, false
}

// nextID derives an id from the creation time in milliseconds, bumped
// past the last issued id so ids stay unique and increasing even when the
// clock stalls or steps back.
func (s *Slice) nextID(at time.Time) string {
	n := at.UnixMilli()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	s.lastID = n
	return strconv.FormatInt(n, 10)
}

func (s *Slice) index(id string) int {
	for i, it := range s.state.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a pending item owned by owner.
func (s *Slice) Add(text, owner string) (model.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return model.Todo{}, ErrEmptyText
	}
	if strings.TrimSpace(owner) == "" {
		return model.Todo{}, ErrNoOwner
	}
	now := s.now().UTC()
	it := model.Todo{
		ID:        s.nextID(now),
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UserID:    owner,
	}
	s.state.Items = append(s.state.Items, it)
	s.notify(ItemsChanged)
	return it, nil
}

// Toggle flips completion of the item with id. Unknown ids are ignored.
func (s *Slice) Toggle(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.state.Items[i].Completed = !s.state.Items[i].Completed
	s.notify(ItemsChanged)
	return true
}

// Delete removes the item with id. Unknown ids are ignored.
func (s *Slice) Delete(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	s.notify(ItemsChanged)
	return true
}

// Edit replaces the text of the item with id. Unknown ids are ignored.
func (s *Slice) Edit(id, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, ErrEmptyText
	}
	i := s.index(id)
	if i < 0 {
		return false, nil
	}
	s.state.Items[i].Text = text
	s.notify(ItemsChanged)
	return true, nil
}

// SetFilter changes the global filter.
func (s *Slice) SetFilter(f model.Filter) error {
	if !f.Valid() {
		return ErrInvalidFilter
	}
	s.state.Filter = f
	s.notify(FilterChanged)
	return nil
}

// ClearCompleted drops every completed item of every owner and returns
// how many went.
func (s *Slice) ClearCompleted() int {
	kept := s.state.Items[:0]
	for _, it := range s.state.Items {
		if !it.Completed {
			kept = append(kept, it)
		}
	}
	removed := len(s.state.Items) - len(kept)
	// Zero the tail so dropped items are not retained by the backing array.
	for i := len(kept); i < len(s.state.Items); i++ {
		s.state.Items[i] = model.Todo{}
	}
	s.state.Items = kept
	if removed > 0 {
		s.notify(ItemsChanged)
	}
	return removed
}
