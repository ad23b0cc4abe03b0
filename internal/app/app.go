// Package app hosts the root Bubble Tea model. All store mutations are
// serialized through the Bubble Tea update loop; gateway responses and
// push events come back as messages, never as direct mutation from
// another goroutine.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/board"
	"github.com/nhle/taskboard/internal/directory"
	"github.com/nhle/taskboard/internal/feed"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/query"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui/feedpanel"
	"github.com/nhle/taskboard/internal/ui/taskform"
	"github.com/nhle/taskboard/internal/ui/tasklist"
	"github.com/nhle/taskboard/internal/view"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewForm
	ViewFeed
)

// tasksLoadedMsg reports a completed board load. today is the date the
// fetch predicate was computed against; the projection must reuse it.
type tasksLoadedMsg struct {
	today model.Date
	err   error
}

// taskMutatedMsg reports a completed add/toggle/delete round trip.
type taskMutatedMsg struct {
	err error
}

// feedStartedMsg reports the outcome of the feed's initial load and
// subscription.
type feedStartedMsg struct {
	err error
}

// feedChangedMsg signals that a push event was merged into the feed.
type feedChangedMsg struct{}

// directoryLoadedMsg reports a refreshed principal snapshot.
type directoryLoadedMsg struct {
	err error
}

// Model is the root application model.
type Model struct {
	currentView ViewState
	keys        *keys.KeyMap

	board     *board.Board
	feed      *feed.Feed
	directory *directory.Directory
	principal string

	filterIndex int
	today       model.Date

	taskList  tasklist.Model
	taskForm  taskform.Model
	feedPanel feedpanel.Model

	width  int
	height int
	ready  bool
}

// New creates the root model for the given principal.
func New(b *board.Board, f *feed.Feed, d *directory.Directory, principal string) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewList,
		keys:        k,
		board:       b,
		feed:        f,
		directory:   d,
		principal:   principal,
		today:       model.Today(),
		taskList:    tasklist.New(k, 80, 24),
		taskForm:    taskform.New(principal, 80, 24),
		feedPanel:   feedpanel.New(k, 80, 24),
	}
}

// Init kicks off the initial load, the notification feed, and the
// principal directory refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTasks(),
		m.startFeed(),
		m.refreshDirectory(),
	)
}

// mode returns the active filter mode.
func (m Model) mode() query.Mode {
	return query.Modes[m.filterIndex]
}

// loadTasks fetches the task set for the active filter. The date is
// captured once per fetch so overdue and due-today stay disjoint.
func (m Model) loadTasks() tea.Cmd {
	mode := m.mode()
	principal := m.principal
	b := m.board
	return func() tea.Msg {
		today := model.Today()
		err := b.Load(context.Background(), query.For(mode, principal, today))
		return tasksLoadedMsg{today: today, err: err}
	}
}

// addTask sends an insert for the submitted draft.
func (m Model) addTask(draft model.TaskDraft) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		_, err := b.Add(context.Background(), draft)
		return taskMutatedMsg{err: err}
	}
}

// toggleTask flips completion of the given task.
func (m Model) toggleTask(id int64) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return taskMutatedMsg{err: b.ToggleComplete(context.Background(), id)}
	}
}

// deleteTask removes the given task.
func (m Model) deleteTask(id int64) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return taskMutatedMsg{err: b.Remove(context.Background(), id)}
	}
}

// startFeed loads the notification baseline and subscribes to pushes.
func (m Model) startFeed() tea.Cmd {
	f := m.feed
	return func() tea.Msg {
		return feedStartedMsg{err: f.Start(context.Background())}
	}
}

// waitForFeed blocks on the feed's change signal and converts it into
// a message, then re-arms itself from Update.
func (m Model) waitForFeed() tea.Cmd {
	f := m.feed
	return func() tea.Msg {
		if _, ok := <-f.Changed(); !ok {
			return nil
		}
		return feedChangedMsg{}
	}
}

// refreshDirectory refreshes the cached principal snapshot.
func (m Model) refreshDirectory() tea.Cmd {
	d := m.directory
	return func() tea.Msg {
		return directoryLoadedMsg{err: d.Refresh(context.Background())}
	}
}

// refreshProjection recomputes the rendered list from the board state
// and the active filter. Runs after every store mutation, merge, or
// filter change.
func (m *Model) refreshProjection() {
	projected := view.Project(m.board.Tasks(), m.mode(), m.principal, m.today)
	m.taskList.SetTasks(projected, m.directory.EmailFor, m.today)
	m.taskList.SetTitle("Tasks — " + m.mode().Label())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.taskList.SetSize(msg.Width, msg.Height-3)
		m.taskForm.SetSize(msg.Width, msg.Height-3)
		m.feedPanel.SetSize(msg.Width, msg.Height-3)
		return m.updateActiveView(msg)

	case tasksLoadedMsg:
		if msg.err == nil {
			m.today = msg.today
		}
		m.refreshProjection()
		return m, nil

	case taskMutatedMsg:
		m.refreshProjection()
		return m, nil

	case feedStartedMsg:
		m.feedPanel.SetNotifications(m.feed.Notifications())
		return m, m.waitForFeed()

	case feedChangedMsg:
		m.feedPanel.SetNotifications(m.feed.Notifications())
		return m, m.waitForFeed()

	case directoryLoadedMsg:
		m.refreshProjection()
		return m, nil

	case tasklist.ToggleMsg:
		return m, m.toggleTask(msg.TaskID)

	case tasklist.DeleteMsg:
		return m, m.deleteTask(msg.TaskID)

	case taskform.SubmitMsg:
		m.currentView = ViewList
		return m, m.addTask(msg.Draft)

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case feedpanel.MarkReadMsg:
		m.feed.MarkRead(msg.NotificationID)
		m.feedPanel.SetNotifications(m.feed.Notifications())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey processes global keys, then falls through to the active
// view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The form owns all input while it is open.
	if m.currentView == ViewForm {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.board.Close()
		m.feed.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.currentView = ViewList
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.currentView = ViewForm
		return m, m.taskForm.Start(m.directory.Users())

	case key.Matches(msg, m.keys.Notifications):
		if m.currentView == ViewFeed {
			m.currentView = ViewList
		} else {
			m.currentView = ViewFeed
		}
		return m, nil

	case key.Matches(msg, m.keys.NextFilter):
		m.filterIndex = (m.filterIndex + 1) % len(query.Modes)
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.PrevFilter):
		m.filterIndex = (m.filterIndex - 1 + len(query.Modes)) % len(query.Modes)
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadTasks()
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards msg to the view that currently has focus.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewFeed:
		m.feedPanel, cmd = m.feedPanel.Update(msg)
	default:
		m.taskList, cmd = m.taskList.Update(msg)
	}
	return m, cmd
}

// View renders the active view plus the shared status bar.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var content string
	switch m.currentView {
	case ViewForm:
		content = m.taskForm.View()
	case ViewFeed:
		content = m.feedPanel.View()
	default:
		content = m.taskList.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusBar())
}

// statusBar renders the filter bar, unread count, and any surfaced
// store error.
func (m Model) statusBar() string {
	var filters []string
	for i, mode := range query.Modes {
		if i == m.filterIndex {
			filters = append(filters, theme.FilterActiveStyle.Render(mode.Label()))
		} else {
			filters = append(filters, theme.FilterInactiveStyle.Render(mode.Label()))
		}
	}
	bar := strings.Join(filters, "")

	if unread := m.feed.Unread(); unread > 0 {
		bar += theme.StatusBarStyle.Render(fmt.Sprintf("%d unread", unread))
	}

	if errText := m.board.LastError(); errText != "" {
		bar = lipgloss.JoinVertical(lipgloss.Left, bar,
			theme.ErrorStyle.Render("error: "+errText))
	} else if errText := m.feed.LastError(); errText != "" {
		bar = lipgloss.JoinVertical(lipgloss.Left, bar,
			theme.ErrorStyle.Render("error: "+errText))
	}

	return bar
}
