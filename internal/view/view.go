// Package view computes what a signed-in user sees of the shared todo
// collection. Everything here is a pure function of its arguments and is
// recomputed on every read.
package view

import "github.com/Makepad-fr/tada/internal/model"

// View is the owner-scoped projection handed to the presentation layer.
type View struct {
	Items  []model.Todo
	Filter model.Filter
	Stats  model.Stats
}

// Visible returns owner's items that pass f, in insertion order. Nobody
// owns items without a user, so an empty owner sees nothing.
func Visible(items []model.Todo, f model.Filter, owner string) []model.Todo {
	out := []model.Todo{}
	if owner == "" {
		return out
	}
	for _, it := range items {
		if it.UserID == owner && f.Match(it.Completed) {
			out = append(out, it)
		}
	}
	return out
}

// Count tallies owner's items regardless of filter.
func Count(items []model.Todo, owner string) model.Stats {
	var st model.Stats
	if owner == "" {
		return st
	}
	for _, it := range items {
		if it.UserID != owner {
			continue
		}
		st.Total++
		if it.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

// Project builds the full view of list for owner.
func Project(list model.TodoList, owner string) View {
	return View{
		Items:  Visible(list.Items, list.Filter, owner),
		Filter: list.Filter,
		Stats:  Count(list.Items, owner),
	}
}

// Progress is the completed share in [0, 1]; zero for an empty list.
func Progress(st model.Stats) float64 {
	if st.Total == 0 {
		return 0
	}
	return float64(st.Completed) / float64(st.Total)
}
