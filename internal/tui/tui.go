// Package tui is the full-screen todo list. Every key acts on the app's
// slices directly, so changes are stored as they happen rather than on
// quit.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

// item adapts a todo to list.Item.
type item struct{ model.Todo }

func (i item) Title() string       { return i.Text }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.Text }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	t := ui.Current()
	box, text := t.Muted.Render(t.BoxUnchecked), it.Text
	if it.Completed {
		box, text = t.Success.Render(t.BoxChecked), t.Done.Render(it.Text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintf(w, "%s%s %s", prefix, box, text)
}

type mode int

const (
	browsing mode = iota
	adding
	editing
)

var (
	toggleKey = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	addKey    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteKey = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	filterKey = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	clearKey  = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done"))
)

// Model is the bubbletea model over an open App.
type Model struct {
	app    *app.App
	list   list.Model
	input  textinput.Model
	mode   mode
	editID string
	status string
	inErr  string

	width, height int
}

// New builds the list for whoever is signed in to a.
func New(a *app.App) Model {
	t := ui.Current()
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	// f and d are ours; keep paging on the arrows.
	l.SetFilteringEnabled(false)
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "prev page"))
	l.Styles.Title = t.Title
	l.Styles.HelpStyle = t.Muted
	l.Styles.PaginationStyle = t.Muted
	l.SetStatusBarItemName("todo", "todos")
	extra := func() []key.Binding {
		return []key.Binding{toggleKey, addKey, editKey, deleteKey, filterKey, clearKey}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 200

	m := Model{app: a, list: l, input: in, width: 80, height: 24}
	m.refresh()
	return m
}

// refresh reloads the visible items and the header counts.
func (m *Model) refresh() {
	v := m.app.View()
	items := make([]list.Item, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, item{it})
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	t := ui.Current()
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), v.Stats.Completed,
		t.Pending.Render(t.SymPending), v.Stats.Pending,
		t.Accent.Render("Total"), v.Stats.Total,
	)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(item)
	return it.Todo, ok
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		return m, nil
	}
	if m.mode != browsing {
		return m.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	m.status = ""
	switch km.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ":
		if it, ok := m.selected(); ok {
			m.app.Todos.Toggle(it.ID)
			m.refresh()
		}
		return m, nil
	case "d":
		if it, ok := m.selected(); ok {
			m.app.Todos.Delete(it.ID)
			m.status = fmt.Sprintf("removed %q", it.Text)
			m.refresh()
		}
		return m, nil
	case "a":
		m.mode = adding
		m.inErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "What needs doing?"
		return m, m.input.Focus()
	case "e":
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = editing
		m.editID = it.ID
		m.inErr = ""
		m.input.SetValue(it.Text)
		m.input.CursorEnd()
		m.input.Placeholder = "New text..."
		return m, m.input.Focus()
	case "f":
		if err := m.app.Todos.SetFilter(m.app.Todos.Filter().Next()); err == nil {
			m.refresh()
		}
		return m, nil
	case "c":
		if n := m.app.Todos.ClearCompleted(); n > 0 {
			m.status = fmt.Sprintf("cleared %d completed", n)
		} else {
			m.status = "nothing to clear"
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput handles keys while the add or edit box is open.
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			m.closeInput()
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			var err error
			if m.mode == adding {
				_, err = m.app.AddTodo(text)
			} else {
				_, err = m.app.Todos.Edit(m.editID, text)
			}
			if errors.Is(err, todos.ErrEmptyText) {
				m.inErr = "Text cannot be empty"
				return m, nil
			}
			if err != nil {
				m.inErr = err.Error()
				return m, nil
			}
			m.closeInput()
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = browsing
	m.editID = ""
	m.inErr = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) View() string {
	t := ui.Current()
	listHeight := m.height - 5
	if m.mode != browsing {
		listHeight -= 4
	}
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)

	st := m.app.View().Stats
	footer := ui.ProgressBar(st.Completed, st.Total, 20) + "  " +
		t.Muted.Render("filter: "+string(m.app.Todos.Filter()))
	if m.status != "" {
		footer += "  " + t.Accent.Render(m.status)
	}
	content := m.list.View() + "\n" + footer

	if m.mode != browsing {
		title := "Add todo"
		if m.mode == editing {
			title = "Edit todo"
		}
		if m.inErr != "" {
			title += ": " + t.Error.Render(m.inErr)
		}
		box := lipgloss.NewStyle().
			Border(t.Border).
			BorderForeground(t.BorderColor).
			Padding(0, 1)
		content += "\n" + box.Render(title+"\n"+m.input.View())
	}
	return ui.Panel([]string{content})
}

// Run shows the list until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
