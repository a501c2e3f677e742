package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
	"github.com/Makepad-fr/tada/internal/view"
)

const barWidth = 20

// resolve maps a todo reference to an item or an exit error.
func (e *env) resolve(ref string) (model.Todo, error) {
	it, err := e.app.Resolve(ref)
	if errors.Is(err, app.ErrNoSuchTodo) {
		return model.Todo{}, failErr("no todo %q (use its number from `tada ls` or its id)", ref)
	}
	if err != nil {
		return model.Todo{}, failErr("%v", err)
	}
	return it, nil
}

func newAddCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo (text can be multiple words)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			it, err := e.app.AddTodo(strings.Join(args, " "))
			if errors.Is(err, todos.ErrEmptyText) {
				return usageErr("todo text cannot be empty")
			}
			if err != nil {
				return failErr("add: %v", err)
			}
			ui.OK(e.out, fmt.Sprintf("added %q", it.Text))
			return nil
		},
	}
}

func newListCommand(e *env) *cobra.Command {
	var filter string
	var group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			if cmd.Flags().Changed("filter") {
				f, err := model.ParseFilter(filter)
				if err != nil {
					return usageErr("%v", err)
				}
				// Only for this listing; the stored filter moves with the next item change.
				if err := e.app.Todos.SetFilter(f); err != nil {
					return usageErr("%v", err)
				}
			}
			fmt.Fprintln(e.out, renderList(e.app, group))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "show all, pending or completed")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "group pending and done items")
	return cmd
}

// renderList draws the signed-in user's list as a framed panel. Numbers are
// positions in the unfiltered list, so they stay valid for done/edit/rm.
func renderList(a *app.App, group bool) string {
	t := ui.Current()
	owner := a.Session.Owner()
	v := a.View()
	all := view.Visible(a.Todos.Items(), model.FilterAll, owner)
	pos := make(map[string]int, len(all))
	for i, it := range all {
		pos[it.ID] = i + 1
	}

	lines := []string{
		fmt.Sprintf("%s   %s %d  %s %d  %s %d",
			t.Title.Render("Todos"),
			t.Success.Render(t.SymDone), v.Stats.Completed,
			t.Pending.Render(t.SymPending), v.Stats.Pending,
			t.Accent.Render("Total"), v.Stats.Total),
		ui.ProgressBar(v.Stats.Completed, v.Stats.Total, barWidth),
		"",
	}

	line := func(it model.Todo) string {
		box, text := t.Muted.Render(t.BoxUnchecked), it.Text
		if it.Completed {
			box, text = t.Success.Render(t.BoxChecked), t.Done.Render(it.Text)
		}
		return fmt.Sprintf("%3d. %s %s", pos[it.ID], box, text)
	}

	switch {
	case len(v.Items) == 0 && v.Stats.Total == 0:
		lines = append(lines, t.Muted.Render("No todos yet. Add one: tada add <text>"))
	case len(v.Items) == 0:
		lines = append(lines, t.Muted.Render(fmt.Sprintf("No %s todos.", v.Filter)))
	case group:
		var pending, done []string
		for _, it := range v.Items {
			if it.Completed {
				done = append(done, line(it))
			} else {
				pending = append(pending, line(it))
			}
		}
		if len(pending) > 0 {
			lines = append(lines, t.Pending.Render("Pending"))
			lines = append(lines, pending...)
		}
		if len(done) > 0 {
			if len(pending) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, t.Success.Render("Done"))
			lines = append(lines, done...)
		}
	default:
		for _, it := range v.Items {
			lines = append(lines, line(it))
		}
	}
	if v.Filter != model.FilterAll {
		lines = append(lines, "", t.Muted.Render("filter: "+string(v.Filter)))
	}
	return ui.Panel(lines)
}

func newDoneCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "done <ref>",
		Short: "Toggle a todo between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			it, err := e.resolve(args[0])
			if err != nil {
				return err
			}
			e.app.Todos.Toggle(it.ID)
			if it.Completed {
				ui.OK(e.out, fmt.Sprintf("reopened %q", it.Text))
			} else {
				ui.OK(e.out, fmt.Sprintf("completed %q", it.Text))
			}
			return nil
		},
	}
}

func newEditCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <ref> <text...>",
		Short: "Replace a todo's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			it, err := e.resolve(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if _, err := e.app.Todos.Edit(it.ID, text); err != nil {
				if errors.Is(err, todos.ErrEmptyText) {
					return usageErr("todo text cannot be empty")
				}
				return failErr("edit: %v", err)
			}
			ui.OK(e.out, fmt.Sprintf("updated %q", text))
			return nil
		},
	}
}

func newRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <ref>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			it, err := e.resolve(args[0])
			if err != nil {
				return err
			}
			e.app.Todos.Delete(it.ID)
			ui.OK(e.out, fmt.Sprintf("removed %q", it.Text))
			return nil
		},
	}
}

func newClearCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete completed todos",
		Long: `Delete completed todos. This sweeps the whole stored collection, so
completed items of other accounts on this machine go too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			n := e.app.Todos.ClearCompleted()
			if n == 0 {
				ui.Hint(e.out, "nothing to clear")
				return nil
			}
			ui.OK(e.out, fmt.Sprintf("cleared %d completed", n))
			return nil
		},
	}
}

func newStatsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your dashboard counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			t := ui.Current()
			st := e.app.View().Stats
			fmt.Fprintln(e.out, ui.Panel([]string{
				t.Title.Render(fmt.Sprintf("Welcome back, %s!", e.app.Session.State().User.Username)),
				"",
				fmt.Sprintf("%s %d", t.Accent.Render("Total    "), st.Total),
				fmt.Sprintf("%s %d", t.Success.Render("Completed"), st.Completed),
				fmt.Sprintf("%s %d", t.Pending.Render("Pending  "), st.Pending),
				"",
				ui.ProgressBar(st.Completed, st.Total, barWidth),
				t.Muted.Render(fmt.Sprintf("%.0f%% done", view.Progress(st)*100)),
			}))
			return nil
		},
	}
}
