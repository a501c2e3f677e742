package model

import (
	"fmt"
	"strings"
	"time"
)

// User is the profile attached to a session. Email is the ownership key
// for todo items.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is the persisted authentication context.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            *User  `json:"user,omitempty"`
	Token           string `json:"token,omitempty"`
}

// Valid reports whether the authenticated flag agrees with the presence of
// a user and a token.
func (s Session) Valid() bool {
	has := s.User != nil && s.Token != ""
	return s.IsAuthenticated == has
}

// Owner returns the email todo items are matched against, or "" when
// nobody is signed in.
func (s Session) Owner() string {
	if !s.IsAuthenticated || s.User == nil {
		return ""
	}
	return s.User.Email
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Todo is a single entry of the shared todo collection.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
}

// Filter selects which todo items a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCompleted, FilterPending:
		return true
	}
	return false
}

// Next cycles all -> pending -> completed -> all.
func (f Filter) Next() Filter {
	for i, x := range Filters {
		if x == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Match reports whether an item with the given completion state passes f.
func (f Filter) Match(completed bool) bool {
	switch f {
	case FilterCompleted:
		return completed
	case FilterPending:
		return !completed
	}
	return true
}

// ParseFilter accepts a filter name case-insensitively. Empty means all.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q (want all, completed or pending)", s)
	}
	return f, nil
}

// TodoList is the persisted todo record: every user's items plus the
// global filter preference.
type TodoList struct {
	Items  []Todo `json:"items"`
	Filter Filter `json:"filter"`
}

// Clone returns a copy whose Items slice is not shared with l.
func (l TodoList) Clone() TodoList {
	items := make([]Todo, len(l.Items))
	copy(items, l.Items)
	l.Items = items
	return l
}

// Stats are the per-owner counts shown in headers and the dashboard.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}
