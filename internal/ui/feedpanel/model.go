package feedpanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// MarkReadMsg asks the app to mark the selected notification read.
type MarkReadMsg struct {
	NotificationID int64
}

// Model renders the notification feed, newest first.
type Model struct {
	items  []model.Notification
	cursor int
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates the notifications panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetNotifications replaces the rendered feed snapshot. The cursor is
// clamped rather than reset so a push arriving mid-scroll does not
// yank the selection around.
func (m *Model) SetNotifications(items []model.Notification) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles messages for the notifications panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.MarkRead):
		if m.cursor < len(m.items) {
			id := m.items[m.cursor].ID
			return m, func() tea.Msg { return MarkReadMsg{NotificationID: id} }
		}
	}

	return m, nil
}

// View renders the feed.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Notifications"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(theme.HelpStyle.Render("nothing yet"))
		return b.String()
	}

	visible := m.height - 4
	if visible < 1 {
		visible = len(m.items)
	}

	for i, n := range m.items {
		if i >= visible {
			b.WriteString(theme.HelpStyle.Render(
				fmt.Sprintf("… %d more", len(m.items)-visible),
			))
			break
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		line := fmt.Sprintf("%s%s  %s",
			cursor,
			n.CreatedAt.Local().Format("Jan 02 15:04"),
			n.Message,
		)
		if n.IsRead {
			b.WriteString(theme.ReadStyle.Render(line))
		} else {
			b.WriteString(theme.UnreadStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}
