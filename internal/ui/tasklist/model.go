package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// ToggleMsg asks the app to flip completion of the selected task.
type ToggleMsg struct {
	TaskID int64
}

// DeleteMsg asks the app to delete the selected task.
type DeleteMsg struct {
	TaskID int64
}

// Model is the task list view component. It renders whatever
// projection the app hands it; loading and mutation stay in the app.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetTasks replaces the rendered items with a fresh projection.
func (m *Model) SetTasks(tasks []model.Task, emailFor func(string) string, today model.Date) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		item := TaskItem{Task: t, Today: today}
		if t.AssignedTo != nil {
			item.AssigneeEmail = emailFor(*t.AssignedTo)
		}
		items[i] = item
	}
	m.list.SetItems(items)
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// SetTitle sets the list header, used to show the active filter.
func (m *Model) SetTitle(title string) {
	m.list.Title = title
}

// Selected returns the currently highlighted task, if any.
func (m Model) Selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if task, ok := m.Selected(); ok {
				id := task.ID
				return m, func() tea.Msg { return ToggleMsg{TaskID: id} }
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if task, ok := m.Selected(); ok {
				id := task.ID
				return m, func() tea.Msg { return DeleteMsg{TaskID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list.
func (m Model) View() string {
	return m.list.View()
}
